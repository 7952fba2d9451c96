// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"

	"github.com/platinasystems/dplink/lang"
	"github.com/platinasystems/dplink/link"
)

// VerifyAttempts of the verify command.
const VerifyAttempts = 3

type verifyCommand struct{}

func (verifyCommand) String() string { return "verify" }

func (verifyCommand) Usage() string {
	return "dplink verify -sim [-lock N] [-redis ADDR]"
}

func (verifyCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "find the highest configuration that trains",
	}
}

func (verifyCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Detect the sink then train from its reported maximum, falling
	back on failure, until a configuration trains or none is left.
	With -lock N, the simulated sink locks at most N lanes.`,
	}
}

func (verifyCommand) Main(args ...string) error {
	o, args := parse(args)
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if !o.flag["-sim"] {
		return fmt.Errorf("verify: %w", errNeedSim)
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
	ok := t.VerifyLinkCapWithRetries(VerifyAttempts)
	tbl := newTable(stdout)
	tbl.row("max", t.Caps.Reported)
	tbl.row("verified", t.Verified)
	tbl.row("clean", ok)
	tbl.row("fails", t.FailCount)
	if err = tbl.flush(); err != nil {
		return err
	}
	if err = t.publish(); err != nil {
		return err
	}
	if !ok && t.Verified == link.SafeFloor {
		return fmt.Errorf("left at %v", t.Verified)
	}
	return nil
}
