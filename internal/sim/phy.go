// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sim

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
)

// PHY is a transmitter that records what it is told.
type PHY struct {
	Feature phy.Features
	// Err, if set, fails every call.
	Err error

	Enabled     bool
	Rate        dpcd.LinkRate
	Lanes       dpcd.LaneCount
	Spread      dpcd.Spread
	Drive       []dpcd.LaneSetting
	Pattern     dpcd.TrainingPattern
	TestPattern phy.TestPattern
	Custom      []byte
	FECIsReady  bool
	FECEnabled  bool

	// Calls lists each call by name.
	Calls []string
}

// NewPHY is a transmitter with every feature through HBR3.
func NewPHY() *PHY {
	return &PHY{
		Feature: phy.Features{
			HBR2: true,
			HBR3: true,
			TPS3: true,
			TPS4: true,
		},
	}
}

func (p *PHY) call(format string, args ...interface{}) error {
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
	return p.Err
}

func (p *PHY) Enable(rate dpcd.LinkRate, lanes dpcd.LaneCount,
	spread dpcd.Spread) error {
	p.Enabled = true
	p.Rate, p.Lanes, p.Spread = rate, lanes, spread
	return p.call("enable %vx%d", rate, lanes)
}

func (p *PHY) Disable() error {
	p.Enabled = false
	return p.call("disable")
}

func (p *PHY) SetLaneSettings(ls []dpcd.LaneSetting) error {
	p.Drive = append(p.Drive[:0], ls...)
	var s string
	if len(ls) > 0 {
		s = ls[0].String()
	}
	return p.call("lanes %d %s", len(ls), s)
}

func (p *PHY) SetTrainingPattern(tp dpcd.TrainingPattern) error {
	p.Pattern = tp
	return p.call("pattern %v", tp)
}

func (p *PHY) SetTestPattern(tp phy.TestPattern, custom []byte) error {
	p.TestPattern = tp
	p.Custom = append(p.Custom[:0], custom...)
	return p.call("test pattern %v", tp)
}

func (p *PHY) FECReady(ready bool) error {
	p.FECIsReady = ready
	return p.call("fec ready %t", ready)
}

func (p *PHY) FECEnable(enable bool) error {
	p.FECEnabled = enable
	return p.call("fec enable %t", enable)
}

func (p *PHY) Features() phy.Features { return p.Feature }

// Count returns how many calls began with prefix.
func (p *PHY) Count(prefix string) int {
	n := 0
	for _, c := range p.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
