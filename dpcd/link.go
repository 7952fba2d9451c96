// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dpcd

import "fmt"

// LinkRate is the LINK_BW_SET encoding, in units of 0.27 Gbps per lane.
type LinkRate uint8

const (
	RateUnknown LinkRate = 0
	RBR         LinkRate = 0x06
	HBR         LinkRate = 0x0a
	RBR2        LinkRate = 0x0c
	HBR2        LinkRate = 0x14
	HBR3        LinkRate = 0x1e
)

// RateRefKHz is the symbol clock step of one LinkRate unit.
const RateRefKHz = 27000

// Standard rates in ascending order.
var StandardRates = []LinkRate{RBR, HBR, HBR2, HBR3}

func (r LinkRate) String() string {
	switch r {
	case RateUnknown:
		return "Unknown"
	case RBR:
		return "RBR"
	case HBR:
		return "HBR"
	case RBR2:
		return "RBR2"
	case HBR2:
		return "HBR2"
	case HBR3:
		return "HBR3"
	}
	return fmt.Sprintf("rate(%#x)", uint8(r))
}

// KHz is the per lane symbol clock.
func (r LinkRate) KHz() uint32 { return uint32(r) * RateRefKHz }

// Reduce returns the next lower standard rate or RateUnknown.
func (r LinkRate) Reduce() LinkRate {
	switch r {
	case HBR3:
		return HBR2
	case HBR2:
		return HBR
	case HBR:
		return RBR
	}
	return RateUnknown
}

// Increase returns the next higher standard rate or RateUnknown.
func (r LinkRate) Increase() LinkRate {
	switch r {
	case RBR:
		return HBR
	case HBR:
		return HBR2
	case HBR2:
		return HBR3
	}
	return RateUnknown
}

// Snap rounds r down to a standard rate. Values below RBR are unknown.
func (r LinkRate) Snap() LinkRate {
	switch {
	case r >= HBR3:
		return HBR3
	case r >= HBR2:
		return HBR2
	case r >= HBR:
		return HBR
	case r >= RBR:
		return RBR
	}
	return RateUnknown
}

// RateFromKHz maps an eDP SUPPORTED_LINK_RATES entry, already scaled to
// kHz, onto the LINK_BW_SET encoding.
func RateFromKHz(khz uint32) LinkRate {
	switch khz {
	case 1620000:
		return RBR
	case 2160000:
		return 0x08
	case 2430000:
		return 0x09
	case 2700000:
		return HBR
	case 3240000:
		return RBR2
	case 4320000:
		return 0x10
	case 5400000:
		return HBR2
	case 8100000:
		return HBR3
	}
	return RateUnknown
}

// LaneCount is the number of main link lanes.
type LaneCount uint8

const (
	LanesUnknown LaneCount = 0
	LanesOne     LaneCount = 1
	LanesTwo     LaneCount = 2
	LanesFour    LaneCount = 4
	MaxLanes               = int(LanesFour)
)

func (n LaneCount) String() string { return fmt.Sprint(uint8(n)) }

func (n LaneCount) Valid() bool {
	return n == LanesOne || n == LanesTwo || n == LanesFour
}

// Reduce steps 4 to 2 to 1 to unknown.
func (n LaneCount) Reduce() LaneCount {
	switch n {
	case LanesFour:
		return LanesTwo
	case LanesTwo:
		return LanesOne
	}
	return LanesUnknown
}

// Increase steps 1 to 2 to 4.
func (n LaneCount) Increase() LaneCount {
	switch n {
	case LanesOne:
		return LanesTwo
	case LanesTwo:
		return LanesFour
	}
	return LanesUnknown
}

// Spread is the DOWNSPREAD_CTRL encoding of spread spectrum clocking.
type Spread uint8

const (
	SpreadDisabled Spread = 0x00
	Spread05_30KHz Spread = 0x10
	Spread05_33KHz Spread = 0x11
)

func (s Spread) String() string {
	switch s {
	case SpreadDisabled:
		return "Disabled"
	case Spread05_30KHz:
		return "0.5% 30KHz"
	case Spread05_33KHz:
		return "0.5% 33KHz"
	}
	return fmt.Sprintf("spread(%#x)", uint8(s))
}

// TrainingPattern is the link layer pattern driven during training.
type TrainingPattern uint8

const (
	VideoIdle TrainingPattern = iota
	TPS1
	TPS2
	TPS3
	TPS4
)

func (p TrainingPattern) String() string {
	switch p {
	case VideoIdle:
		return "video idle"
	case TPS1, TPS2, TPS3, TPS4:
		return fmt.Sprintf("TPS%d", uint8(p))
	}
	return fmt.Sprintf("pattern(%d)", uint8(p))
}

// Code is the TRAINING_PATTERN_SET encoding of p.
func (p TrainingPattern) Code() uint8 {
	switch p {
	case TPS1:
		return 1
	case TPS2:
		return 2
	case TPS3:
		return 3
	case TPS4:
		return 7
	}
	return 0
}
