// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmd dispatches the subcommands of a command.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/platinasystems/dplink/lang"
	"github.com/platinasystems/flags"
)

var ErrUsage = errors.New("usage")

type Cmd interface {
	Main(...string) error
	String() string
	Usage() string
}

type aproposer interface {
	Apropos() lang.Alt
}

type manner interface {
	Man() lang.Alt
}

// ByName maps subcommand names to the subcommands.
type ByName map[string]Cmd

// New maps the given subcommands by their String.
func New(cmds ...Cmd) ByName {
	byName := make(ByName)
	for _, v := range cmds {
		byName[v.String()] = v
	}
	return byName
}

func (byName ByName) Keys() []string {
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Main runs the args[0] subcommand with the remaining args.
//
// With "-h", "-help", or "--help" in args, this prints the subcommand's
// man page, or the apropos of all subcommands without one. Similarly,
// "-usage" and "-apropos" print just that text.
func (byName ByName) Main(w io.Writer, args ...string) error {
	flag, args := flags.New(args,
		"-h", "-help", "--help",
		"-usage", "--usage",
		"-apropos", "--apropos")
	help := flag.ByName["-h"] || flag.ByName["-help"] ||
		flag.ByName["--help"]
	usage := flag.ByName["-usage"] || flag.ByName["--usage"]
	apropos := flag.ByName["-apropos"] || flag.ByName["--apropos"]
	if len(args) == 0 || args[0] == "help" {
		if len(args) > 1 {
			return byName.Main(w, args[1], "-help")
		}
		byName.apropos(w)
		if len(args) == 0 && !help && !apropos {
			return ErrUsage
		}
		return nil
	}
	v, found := byName[args[0]]
	if !found {
		return fmt.Errorf("%s: command not found", args[0])
	}
	switch {
	case help:
		fmt.Fprintln(w, "usage:", v.Usage())
		if m, ok := v.(manner); ok {
			fmt.Fprintln(w, strings.TrimSpace(m.Man().String()))
		}
		return nil
	case usage:
		fmt.Fprintln(w, "usage:", v.Usage())
		return nil
	case apropos:
		fmt.Fprintln(w, Apropos(v))
		return nil
	}
	return v.Main(args[1:]...)
}

// Apropos of v or its usage if it has none.
func Apropos(v Cmd) string {
	if m, ok := v.(aproposer); ok {
		if s := m.Apropos().String(); len(s) > 0 {
			return s
		}
	}
	return v.Usage()
}

func (byName ByName) apropos(w io.Writer) {
	n := 0
	for _, k := range byName.Keys() {
		if len(k) > n {
			n = len(k)
		}
	}
	for _, k := range byName.Keys() {
		fmt.Fprintf(w, "%-*s  %s\n", n, k, Apropos(byName[k]))
	}
}
