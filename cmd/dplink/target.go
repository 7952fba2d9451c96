// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/dplink/auxch"
	"github.com/platinasystems/dplink/delay"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/internal/sim"
	"github.com/platinasystems/dplink/link"
	"github.com/platinasystems/dplink/redis"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
)

var errNeedSim = errors.New("needs a PHY, use -sim")

// options of the link subcommands.
type options struct {
	flag map[string]bool
	parm map[string]string
}

func parse(args []string) (*options, []string) {
	flag, args := flags.New(args, "-sim", "-edp", "-q", "-service")
	parm, args := parms.New(args, "-dev", "-link", "-redis", "-lock",
		"-lanes", "-rate")
	return &options{flag.ByName, parm.ByName}, args
}

// Int value of parameter name or def if it wasn't given.
func (o *options) Int(name string, def int) (int, error) {
	s := o.parm[name]
	if len(s) == 0 {
		return def, nil
	}
	i, err := strconv.ParseInt(s, 0, 0)
	if err != nil {
		return def, fmt.Errorf("%s: %v", name, err)
	}
	return int(i), nil
}

// target is the link a subcommand works on.
type target struct {
	*link.Link
	sink      *sim.Sink
	dev       *auxch.Dev
	publisher *redis.Publisher
}

// open the link named by o, the simulated sink with "-sim", otherwise
// the AUX device of "-dev" or that of "-link" index.
func open(o *options) (*target, error) {
	index, err := o.Int("-link", 0)
	if err != nil {
		return nil, err
	}
	t := new(target)
	cfg := link.Config{
		Index: index,
		EDP:   o.flag["-edp"],
	}
	if o.flag["-sim"] {
		t.sink = simSink(o.flag["-edp"])
		if len(o.parm["-lock"]) > 0 {
			n, err := o.Int("-lock", 4)
			if err != nil {
				return nil, err
			}
			t.sink.Locks = func(_ dpcd.LinkRate, lanes dpcd.LaneCount) int {
				if int(lanes) > n {
					return n
				}
				return int(lanes)
			}
		}
		clock := new(sim.Clock)
		cfg.AUX = auxch.NewRetry(t.sink, clock)
		cfg.PHY = sim.NewPHY()
		cfg.Timer = clock
	} else {
		name := o.parm["-dev"]
		if len(name) == 0 {
			name = auxch.DevName(index)
		}
		if t.dev, err = auxch.Open(name); err != nil {
			return nil, err
		}
		cfg.AUX = auxch.NewRetry(t.dev, delay.Sleeper{})
	}
	var reporters link.Reporters
	if !o.flag["-q"] {
		reporters = append(reporters, link.LogReporter{})
	}
	if addr := o.parm["-redis"]; len(addr) > 0 {
		t.publisher = redis.New(addr)
		reporters = append(reporters, t.publisher)
	}
	cfg.Reporter = reporters
	t.Link = link.New(cfg)
	return t, nil
}

// simSink is a DPCD 1.4 HBR3 sink; the eDP panel has a rate table
// instead of a max link rate.
func simSink(edp bool) *sim.Sink {
	if edp {
		sink := sim.NewSink(dpcd.Rev14, dpcd.RateUnknown,
			dpcd.LanesFour)
		sink.SetEDPRates(1620000, 2700000, 5400000, 8100000)
		return sink
	}
	return sim.NewSink(dpcd.Rev14, dpcd.HBR3, dpcd.LanesFour)
}

// publish the link state if there's a publisher.
func (t *target) publish() error {
	if t.publisher == nil {
		return nil
	}
	return t.publisher.Link(t.Link)
}

func (t *target) Close() error {
	var err error
	if t.publisher != nil {
		err = t.publisher.Close()
	}
	if t.dev != nil {
		if e := t.dev.Close(); err == nil {
			err = e
		}
	}
	return err
}

// table prints aligned key value rows to a terminal and "key: value"
// lines otherwise.
type table struct {
	w   io.Writer
	tw  *tabwriter.Writer
	err error
}

func newTable(w io.Writer) *table {
	t := &table{w: w}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		t.tw = tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	}
	return t
}

func (t *table) row(k string, v interface{}) {
	if t.err != nil {
		return
	}
	if t.tw != nil {
		_, t.err = fmt.Fprintf(t.tw, "%s\t%v\n", k, v)
	} else {
		_, t.err = fmt.Fprintf(t.w, "%s: %v\n", k, v)
	}
}

func (t *table) flush() error {
	if t.err == nil && t.tw != nil {
		t.err = t.tw.Flush()
	}
	return t.err
}
