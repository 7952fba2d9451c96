// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
)

type PixelEncoding uint8

const (
	RGB PixelEncoding = iota
	YCbCr444
	YCbCr422
	YCbCr420
)

// Timing is the part of a video mode that loads the link.
type Timing struct {
	PixelClockKHz uint32
	HActive       uint32
	VActive       uint32
	// BitsPerColor is 6, 8, 10, 12, 14 or 16.
	BitsPerColor uint32
	Encoding     PixelEncoding
	// YOnly carries luma alone.
	YOnly bool
}

// Fail safe 640x480 mode every sink must accept.
var FailSafe = Timing{
	PixelClockKHz: 25175,
	HActive:       640,
	VActive:       480,
	BitsPerColor:  6,
}

func (t Timing) String() string {
	return fmt.Sprintf("%dx%d %d.%03dMHz %dbpc", t.HActive, t.VActive,
		t.PixelClockKHz/1000, t.PixelClockKHz%1000, t.BitsPerColor)
}

// Bandwidth is the stream rate in kbps.
func (t Timing) Bandwidth() uint32 {
	kbps := t.PixelClockKHz * t.BitsPerColor
	if !t.YOnly {
		kbps *= 3
		switch t.Encoding {
		case YCbCr420:
			kbps /= 2
		case YCbCr422:
			kbps = kbps * 2 / 3
		}
	}
	return kbps
}

func (t Timing) isFailSafe() bool {
	return t.PixelClockKHz == FailSafe.PixelClockKHz &&
		t.HActive == FailSafe.HActive &&
		t.VActive == FailSafe.VActive
}

// ValidateModeTiming reports whether the link can carry t.
func (l *Link) ValidateModeTiming(t Timing) bool {
	if t.isFailSafe() {
		return true
	}
	return t.Bandwidth() <= l.LinkCap().Bandwidth()
}

// DecideLinkSettings is the least configuration within the verified
// capability that carries t.
func (l *Link) DecideLinkSettings(t Timing) Setting {
	if l.Preferred.Known() {
		return l.Preferred
	}
	req := t.Bandwidth()
	if l.EDP {
		if s, ok := l.decideEDP(req); ok {
			return s
		}
	} else if s, ok := l.decideDP(req); ok {
		return s
	}
	return l.Verified
}

func (l *Link) decideDP(req uint32) (Setting, bool) {
	s := Setting{
		Lanes:  dpcd.LanesOne,
		Rate:   dpcd.RBR,
		Spread: dpcd.SpreadDisabled,
	}
	for s.Rate != dpcd.RateUnknown && s.Rate <= l.Verified.Rate {
		if req <= s.Bandwidth() {
			return s, true
		}
		if s.Lanes < l.Verified.Lanes {
			s.Lanes = s.Lanes.Increase()
		} else {
			s.Rate = s.Rate.Increase()
			s.Lanes = dpcd.LanesOne
		}
	}
	return Setting{}, false
}

// decideEDP searches the eDP rate table in order.
func (l *Link) decideEDP(req uint32) (Setting, bool) {
	if l.Caps == nil || l.Caps.Rev < dpcd.Rev14 ||
		len(l.Caps.EDPRates) == 0 {
		return l.Verified, true
	}
	rates := l.Caps.EDPRates
	s := Setting{
		Lanes:      dpcd.LanesOne,
		Rate:       rates[0],
		Spread:     dpcd.SpreadDisabled,
		UseRateSet: true,
	}
	for s.Rate <= l.Verified.Rate {
		if req <= s.Bandwidth() {
			return s, true
		}
		if s.Lanes < l.Verified.Lanes {
			s.Lanes = s.Lanes.Increase()
		} else if int(s.RateSet) < len(rates)-1 {
			s.RateSet++
			s.Rate = rates[s.RateSet]
			s.Lanes = dpcd.LanesOne
		} else {
			break
		}
	}
	return Setting{}, false
}
