// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package phy is the source side transmitter interface of link training.
package phy

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
)

// Features of the source encoder.
type Features struct {
	HBR2 bool
	HBR3 bool
	TPS3 bool
	TPS4 bool
	FEC  bool
}

// Driver programs the transmitter of one link.
type Driver interface {
	// Enable powers up the lanes at the given configuration.
	Enable(rate dpcd.LinkRate, lanes dpcd.LaneCount,
		spread dpcd.Spread) error
	Disable() error
	SetLaneSettings(ls []dpcd.LaneSetting) error
	// SetTrainingPattern drives a training pattern, or the video idle
	// pattern for dpcd.VideoIdle.
	SetTrainingPattern(p dpcd.TrainingPattern) error
	SetTestPattern(p TestPattern, custom []byte) error
	FECReady(ready bool) error
	FECEnable(enable bool) error
	Features() Features
}

// TestPattern is a compliance pattern. PHY patterns come from the
// transmitter, the rest from the video pipeline.
type TestPattern uint8

const (
	VideoMode TestPattern = iota
	D10_2
	SymbolError
	PRBS7
	Custom80Bit
	CP2520_1
	CP2520_2
	CP2520_3
	TrainingPattern1
	TrainingPattern2
	TrainingPattern3
	TrainingPattern4
	ColorSquares
	ColorSquaresCEA
	VerticalBars
	HorizontalBars
	ColorRamp
	Unsupported

	// HBR2ComplianceEye is the CP2520 pattern 1 by its DP 1.2 name.
	HBR2ComplianceEye = CP2520_1
)

var testPatternNames = [...]string{
	VideoMode:        "video mode",
	D10_2:            "D10.2",
	SymbolError:      "symbol error",
	PRBS7:            "PRBS7",
	Custom80Bit:      "80 bit custom",
	CP2520_1:         "CP2520 1",
	CP2520_2:         "CP2520 2",
	CP2520_3:         "CP2520 3",
	TrainingPattern1: "TPS1",
	TrainingPattern2: "TPS2",
	TrainingPattern3: "TPS3",
	TrainingPattern4: "TPS4",
	ColorSquares:     "color squares",
	ColorSquaresCEA:  "color squares CEA",
	VerticalBars:     "vertical bars",
	HorizontalBars:   "horizontal bars",
	ColorRamp:        "color ramp",
	Unsupported:      "unsupported",
}

func (p TestPattern) String() string {
	if int(p) < len(testPatternNames) {
		return testPatternNames[p]
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// IsPHY reports whether the transmitter generates p.
func (p TestPattern) IsPHY() bool {
	return p <= TrainingPattern4
}
