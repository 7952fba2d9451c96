// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import "github.com/platinasystems/dplink/dpcd"

// Optional values of Overrides. The zero value is unset.

type OptVoltageSwing struct {
	Set bool
	V   dpcd.VoltageSwing
}

type OptPreEmphasis struct {
	Set bool
	V   dpcd.PreEmphasis
}

type OptPostCursor2 struct {
	Set bool
	V   dpcd.PostCursor2
}

type OptPattern struct {
	Set bool
	V   dpcd.TrainingPattern
}

type OptBool struct {
	Set bool
	V   bool
}

type OptUint32 struct {
	Set bool
	V   uint32
}

func VoltageSwing(v dpcd.VoltageSwing) OptVoltageSwing {
	return OptVoltageSwing{true, v}
}

func PreEmphasis(v dpcd.PreEmphasis) OptPreEmphasis {
	return OptPreEmphasis{true, v}
}

func PostCursor2(v dpcd.PostCursor2) OptPostCursor2 {
	return OptPostCursor2{true, v}
}

func Pattern(v dpcd.TrainingPattern) OptPattern { return OptPattern{true, v} }

func Bool(v bool) OptBool { return OptBool{true, v} }

func Uint32(v uint32) OptUint32 { return OptUint32{true, v} }

// Overrides force training parameters that are otherwise negotiated.
type Overrides struct {
	VoltageSwing OptVoltageSwing
	PreEmphasis  OptPreEmphasis
	PostCursor2  OptPostCursor2
	// Downspread true selects 0.5% 30kHz spread, false none.
	Downspread   OptBool
	PatternForEQ OptPattern
	// CRPatternTime and EQPatternTime are in microseconds.
	CRPatternTime     OptUint32
	EQPatternTime     OptUint32
	EnhancedFraming   OptBool
	FECEnable         OptBool
	AltScramblerReset OptBool
	MSTEnable         OptBool
}
