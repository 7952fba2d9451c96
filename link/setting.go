// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
)

// Setting is a candidate main link configuration.
type Setting struct {
	Lanes  dpcd.LaneCount
	Rate   dpcd.LinkRate
	Spread dpcd.Spread
	// UseRateSet selects entry RateSet of the eDP SUPPORTED_LINK_RATES
	// table through LINK_RATE_SET instead of LINK_BW_SET.
	UseRateSet bool
	RateSet    uint8
}

// SafeFloor is the configuration left verified when nothing trains.
var SafeFloor = Setting{
	Lanes:  dpcd.LanesOne,
	Rate:   dpcd.RBR,
	Spread: dpcd.SpreadDisabled,
}

func (s Setting) String() string {
	return fmt.Sprintf("%sx%d", s.Rate, s.Lanes)
}

// Known reports whether both lane count and rate are set.
func (s Setting) Known() bool {
	return s.Lanes != dpcd.LanesUnknown && s.Rate != dpcd.RateUnknown
}

// Bandwidth is the payload capacity in kbps after 8b/10b coding.
func (s Setting) Bandwidth() uint32 {
	return s.Rate.KHz() * 8 * uint32(s.Lanes)
}

// CommonSupported returns the component wise minimum of a and b with the
// rate rounded down to a standard rate and spread disabled.
func CommonSupported(a, b Setting) Setting {
	s := Setting{
		Lanes:  a.Lanes,
		Rate:   a.Rate,
		Spread: dpcd.SpreadDisabled,
	}
	if b.Lanes < s.Lanes {
		s.Lanes = b.Lanes
	}
	if b.Rate < s.Rate {
		s.Rate = b.Rate
	}
	s.Rate = s.Rate.Snap()
	return s
}

// DecideFallback steps cur down after a failed attempt that began at
// initial. It returns false when no lesser configuration remains or the
// failure can't be helped by one.
func DecideFallback(initial Setting, cur *Setting, r Result) bool {
	if cur == nil {
		return false
	}
	minRate := cur.Rate <= dpcd.RBR
	minLanes := cur.Lanes <= dpcd.LanesOne
	switch r {
	case CRFailLane0, CRFailLane1, CRFailLane23, LQAFail:
		switch {
		case !minRate:
			cur.Rate = cur.Rate.Reduce()
		case !minLanes:
			cur.Rate = initial.Rate
			switch r {
			case CRFailLane0:
				return false
			case CRFailLane1:
				cur.Lanes = dpcd.LanesOne
			case CRFailLane23:
				cur.Lanes = dpcd.LanesTwo
			default:
				cur.Lanes = cur.Lanes.Reduce()
			}
		default:
			return false
		}
	case EQFailEQ:
		switch {
		case !minLanes:
			cur.Lanes = cur.Lanes.Reduce()
		case !minRate:
			cur.Rate = cur.Rate.Reduce()
		default:
			return false
		}
	case EQFailCR:
		if minRate {
			return false
		}
		cur.Rate = cur.Rate.Reduce()
	default:
		return false
	}
	return true
}
