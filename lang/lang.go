// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package lang provides command text in alternative languages.
//
// The language precedence is the value of the "LANG" environment variable
// followed by Default, then en_US.UTF-8.
package lang

import "os"

const (
	DeDE = "de_DE.UTF-8"
	EnUS = "en_US.UTF-8"
	FrFR = "fr_FR.UTF-8"
	JaJP = "ja_JP.UTF-8"
)

var (
	Default = EnUS
	// Lang overrides the environment if set.
	Lang string
)

type Alt map[string]string

// String returns the text in the preferred language available.
func (m Alt) String() string {
	lang := Lang
	if len(lang) == 0 {
		lang = os.Getenv("LANG")
	}
	for _, k := range []string{lang, Default, EnUS} {
		if s, found := m[k]; found {
			return s
		}
	}
	return ""
}
