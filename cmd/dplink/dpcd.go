// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/lang"
)

// MaxDump is the most registers dumped at once.
const MaxDump = 4096

type dpcdCommand struct{}

func (dpcdCommand) String() string { return "dpcd" }

func (dpcdCommand) Usage() string {
	return "dplink dpcd [-dev DEV | -link N | -sim] ADDR [COUNT]"
}

func (dpcdCommand) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "dump DPCD registers",
	}
}

func (dpcdCommand) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Read COUNT, default 16, DPCD registers beginning at ADDR and
	print them sixteen per line.`,
	}
}

func (dpcdCommand) Main(args ...string) error {
	o, args := parse(args)
	if len(args) == 0 {
		return fmt.Errorf("ADDR: missing")
	}
	if len(args) > 2 {
		return fmt.Errorf("%v: unexpected", args[2:])
	}
	addr, err := strconv.ParseUint(args[0], 0, 20)
	if err != nil {
		return fmt.Errorf("%s: %v", args[0], err)
	}
	count := uint64(16)
	if len(args) > 1 {
		count, err = strconv.ParseUint(args[1], 0, 16)
		if err != nil {
			return fmt.Errorf("%s: %v", args[1], err)
		}
		if count == 0 || count > MaxDump {
			return fmt.Errorf("%s: out of range", args[1])
		}
	}
	t, err := open(o)
	if err != nil {
		return err
	}
	defer t.Close()
	buf := make([]byte, count)
	a := dpcd.Addr(addr)
	for i := 0; i < len(buf); i += 16 {
		end := i + 16
		if end > len(buf) {
			end = len(buf)
		}
		if err = t.AUX.Read(a+dpcd.Addr(i), buf[i:end]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%v: % x\n", a+dpcd.Addr(i), buf[i:end])
	}
	return nil
}
