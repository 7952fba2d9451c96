// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// dplink inspects and trains DisplayPort links, either through the
// kernel's AUX character devices or against a simulated sink.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/platinasystems/dplink/cmd"
)

var stdout io.Writer = os.Stdout

func commands() cmd.ByName {
	return cmd.New(
		capsCommand{},
		dpcdCommand{},
		irqCommand{},
		trainCommand{},
		verifyCommand{},
		dualmodeCommand{},
	)
}

func main() {
	err := commands().Main(stdout, os.Args[1:]...)
	if err == cmd.ErrUsage {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dplink: %v\n", err)
		os.Exit(1)
	}
}
