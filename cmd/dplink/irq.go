// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/platinasystems/dplink/lang"
	"github.com/platinasystems/dplink/link"
)

type irqCommand struct{}

func (irqCommand) String() string { return "irq" }

func (irqCommand) Usage() string {
	return "dplink irq [-dev DEV | -link N | -sim] [-service]"
}

func (irqCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "decode the short pulse interrupt registers",
	}
}

func (irqCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read the sink count, service interrupt vector and lane status
	registers as a short pulse handler would and print what they
	report. This doesn't clear or service the interrupt.

OPTIONS
	-service	service the interrupt as the short pulse handler
			does, retraining a lost link and running requested
			compliance tests, then print what it found`,
	}
}

func (irqCommand) Main(args ...string) error {
	o, args := parse(args)
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
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
	if o.flag["-service"] {
		handled, loss, irq := t.HandleShortPulseIRQ()
		tbl := newTable(stdout)
		tbl.row("handled", handled)
		tbl.row("link loss", loss)
		tbl.row("irq", link.Describe(irq))
		if err = tbl.flush(); err != nil {
			return err
		}
		return t.publish()
	}
	irq, err := t.ReadIRQData()
	if err != nil {
		return err
	}
	lanes := t.Caps.Reported.Lanes
	tbl := newTable(stdout)
	tbl.row("sinks", irq.Sinks())
	tbl.row("automated test", irq.AutomatedTest())
	tbl.row("up request", irq.UpRequestReady())
	tbl.row("down reply", irq.DownReplyReady())
	tbl.row("link ok", irq.LinkOK(lanes))
	for i := 0; i < int(lanes); i++ {
		tbl.row(fmt.Sprint("lane", i), irq.Lane(i))
	}
	return tbl.flush()
}
