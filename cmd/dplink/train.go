// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/lang"
	"github.com/platinasystems/dplink/link"
)

// TrainAttempts of the train command.
const TrainAttempts = 3

type trainCommand struct{}

func (trainCommand) String() string { return "train" }

func (trainCommand) Usage() string {
	return "dplink train -sim [-edp] [-lanes N] [-rate R] [-lock N] [-redis ADDR]"
}

func (trainCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "train a link at a given configuration",
	}
}

func (trainCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Detect the sink then train the link at the given lane count and
	rate, limited to what the sink supports. Training is retried
	up to three times.

OPTIONS
	-lanes N	1, 2 or 4, default the sink's maximum
	-rate R		RBR, HBR, HBR2, HBR3 or the LINK_BW_SET code
	-lock N		the simulated sink locks at most N lanes
	-redis ADDR	publish status to the redis server at ADDR`,
	}
}

func (trainCommand) Main(args ...string) error {
	o, args := parse(args)
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if !o.flag["-sim"] {
		return fmt.Errorf("train: %w", errNeedSim)
	}
	t, err := open(o)
	if err != nil {
		return err
	}
	defer t.Close()
	t.Lock()
	defer t.Unlock()
	if err = t.Detect(); err != nil {
		return err
	}
	want := t.Caps.Reported
	if t.Verified.Known() {
		want = t.Verified
	}
	lanes, err := o.Int("-lanes", int(want.Lanes))
	if err != nil {
		return err
	}
	switch lanes {
	case 1, 2, 4:
		want.Lanes = dpcd.LaneCount(lanes)
	default:
		return fmt.Errorf("-lanes: %d: invalid", lanes)
	}
	if s := o.parm["-rate"]; len(s) > 0 {
		if want.Rate, err = parseRate(s); err != nil {
			return err
		}
	}
	s := link.CommonSupported(t.Caps.Reported, want)
	for i, r := range t.Caps.EDPRates {
		if r == s.Rate {
			s.UseRateSet = true
			s.RateSet = uint8(i)
		}
	}
	if err = t.EnablePHY(s); err != nil {
		return err
	}
	ok := t.TrainWithRetries(s, false, TrainAttempts)
	tbl := newTable(stdout)
	tbl.row("setting", s)
	tbl.row("trained", ok)
	tbl.row("drive", t.LaneSettings[0])
	tbl.row("post adjust timeout", t.PostAdjustTimedOut)
	if err = tbl.flush(); err != nil {
		return err
	}
	if err = t.publish(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%v: training failed", s)
	}
	return nil
}

// parseRate takes a rate name or LINK_BW_SET code.
func parseRate(s string) (dpcd.LinkRate, error) {
	for _, r := range dpcd.StandardRates {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	if strings.EqualFold(s, dpcd.RBR2.String()) {
		return dpcd.RBR2, nil
	}
	u, err := strconv.ParseUint(s, 0, 8)
	if err != nil || dpcd.LinkRate(u).Snap() == dpcd.RateUnknown {
		return dpcd.RateUnknown, fmt.Errorf("-rate: %s: invalid", s)
	}
	return dpcd.LinkRate(u), nil
}
