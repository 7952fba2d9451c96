// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/platinasystems/dplink/lang"
)

type capsCommand struct{}

func (capsCommand) String() string { return "caps" }

func (capsCommand) Usage() string {
	return "dplink caps [-dev DEV | -link N | -sim] [-edp]"
}

func (capsCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print the receiver capabilities of a sink",
	}
}

func (capsCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read and print the DPCD receiver capabilities of the sink.

OPTIONS
	-dev DEV	AUX character device, default /dev/drm_dp_aux0
	-link N		AUX device and link index
	-sim		a simulated DPCD 1.4 sink
	-edp		the sink is an embedded panel`,
	}
}

func (capsCommand) Main(args ...string) error {
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
	c := t.Caps
	tbl := newTable(stdout)
	tbl.row("rev", fmt.Sprintf("%#02x", c.Rev))
	tbl.row("max", c.Reported)
	tbl.row("spread", c.Reported.Spread)
	tbl.row("tps3", c.TPS3)
	tbl.row("tps4", c.TPS4)
	tbl.row("enhanced framing", c.EnhancedFraming)
	tbl.row("post adjust", c.PostLTAdjust)
	tbl.row("no aux handshake", c.NoAuxHandshake)
	tbl.row("aux rd interval", c.TrainingAuxRdInterval)
	tbl.row("mst", c.MST)
	tbl.row("fec", c.FEC)
	tbl.row("sinks", c.SinkCount)
	tbl.row("branch", c.Branch)
	tbl.row("dongle", c.Dongle)
	if c.HDMIMaxTMDSKHz > 0 {
		tbl.row("max tmds kHz", c.HDMIMaxTMDSKHz)
	}
	tbl.row("sink", c.Sink)
	if c.Branch {
		tbl.row("branch id", c.BranchID)
	}
	if len(c.EDPRates) > 0 {
		tbl.row("edp rates", c.EDPRates)
	}
	return tbl.flush()
}
