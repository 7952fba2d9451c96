// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/dplink/dualmode"
	"github.com/platinasystems/dplink/lang"
	"github.com/platinasystems/parms"
)

// probe is replaced by tests.
var probe = dualmode.Probe

type dualmodeCommand struct{}

func (dualmodeCommand) String() string { return "dualmode" }

func (dualmodeCommand) Usage() string {
	return "dplink dualmode -bus N"
}

func (dualmodeCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "identify a DP++ dual mode adaptor",
	}
}

func (dualmodeCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read the adaptor registers at i2c address 0x40 of the
	connector's DDC bus, /dev/i2c-N, and print the adaptor type
	and maximum TMDS clock.`,
	}
}

func (dualmodeCommand) Main(args ...string) error {
	parm, args := parms.New(args, "-bus")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	s := parm.ByName["-bus"]
	if len(s) == 0 {
		return fmt.Errorf("-bus: missing")
	}
	bus, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return fmt.Errorf("-bus: %v", err)
	}
	a, err := probe(int(bus))
	if err != nil {
		return err
	}
	tbl := newTable(stdout)
	tbl.row("type", a.Type)
	tbl.row("adaptor id", fmt.Sprintf("%#02x", a.AdaptorID))
	tbl.row("max tmds kHz", a.MaxTMDSKHz)
	return tbl.flush()
}
