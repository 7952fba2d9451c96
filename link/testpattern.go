// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
	"github.com/platinasystems/log"
)

// Pipeline is the video stream feeding the link.
type Pipeline interface {
	// SetTestPattern replaces the stream with a generated pattern, or
	// restores it for phy.VideoMode.
	SetTestPattern(p phy.TestPattern) error
	Blank() error
	Unblank() error
}

// TestSettings are the link configuration and lane drive of a PHY test
// pattern.
type TestSettings struct {
	Setting Setting
	Lanes   dpcd.LaneSettings
}

// qualPatterns are the LINK_QUAL_LANEx_SET codes of PHY patterns.
var qualPatterns = map[phy.TestPattern]byte{
	phy.VideoMode:   dpcd.PHYTestNone,
	phy.D10_2:       dpcd.PHYTestD10_2,
	phy.SymbolError: dpcd.PHYTestSymbolError,
	phy.PRBS7:       dpcd.PHYTestPRBS7,
	phy.Custom80Bit: dpcd.PHYTest80BitCustom,
	phy.CP2520_1:    dpcd.PHYTestCP2520_1,
	phy.CP2520_2:    dpcd.PHYTestCP2520_2,
	phy.CP2520_3:    dpcd.PHYTestCP2520_3,
}

// SetTestPattern drives compliance pattern p. PHY patterns optionally
// take the drive of ts and a custom payload and are announced to the
// sink; the rest replace the video stream. phy.VideoMode ends a running
// test. It is false if the sink wasn't told of the pattern.
func (l *Link) SetTestPattern(p phy.TestPattern, ts *TestSettings,
	custom []byte) bool {
	if l.TestPatternEnabled && p == phy.VideoMode {
		l.pipeline(func(pl Pipeline) error {
			return pl.SetTestPattern(phy.VideoMode)
		})
		l.setPHYTestPattern(phy.VideoMode, custom)
		l.pipeline(Pipeline.Unblank)
		l.TestPatternEnabled = false
		return true
	}

	if !p.IsPHY() {
		l.pipeline(func(pl Pipeline) error {
			return pl.SetTestPattern(p)
		})
		l.TestPatternEnabled = true
		return true
	}

	var sess *Session
	if ts != nil {
		sess = &Session{
			Setting:         ts.Setting,
			Lanes:           ts.Lanes,
			EnhancedFraming: true,
		}
		l.setDriveSettings(sess)
	}
	if p != phy.VideoMode {
		l.pipeline(Pipeline.Blank)
	}
	l.setPHYTestPattern(p, custom)
	if p != phy.VideoMode {
		l.TestPatternEnabled = true
		if sess != nil {
			l.setLinkSettings(sess)
		}
	}

	code, found := qualPatterns[p]
	if !found || p == phy.VideoMode {
		return false
	}
	switch rev := l.rev(); {
	case rev >= dpcd.Rev12:
		var b [dpcd.LinkQualLaneSetSize]byte
		for i := range b {
			b[i] = code
		}
		l.write(dpcd.LinkQualLane0Set, b[:]...)
	case rev >= dpcd.Rev10 || rev == 0:
		var b [1]byte
		l.read(dpcd.TrainingPatternSet, b[:])
		b[0] &^= dpcd.LinkQualPatternMask
		b[0] |= (code << dpcd.LinkQualPatternShift) &
			dpcd.LinkQualPatternMask
		l.write(dpcd.TrainingPatternSet, b[0])
	}
	log.Print("info", l, ": test pattern ", p)
	return true
}

func (l *Link) pipeline(f func(Pipeline) error) {
	if l.Pipeline == nil {
		return
	}
	if err := f(l.Pipeline); err != nil {
		log.Print("err", l, ": pipeline: ", err)
	}
}
