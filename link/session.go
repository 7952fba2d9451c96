// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
	uuid "github.com/satori/go.uuid"
)

// Default waits after each training iteration of sinks that don't
// request one, in microseconds.
const (
	DefaultCRPatternTime = 100
	DefaultEQPatternTime = 400
)

// Session is the working state of one training attempt.
type Session struct {
	ID      uuid.UUID
	Setting Setting
	Lanes   dpcd.LaneSettings
	// PatternForEQ is the channel equalization pattern.
	PatternForEQ dpcd.TrainingPattern
	// CRTime and EQTime are the iteration waits in microseconds.
	CRTime          uint32
	EQTime          uint32
	EnhancedFraming bool
	Overrides       Overrides
}

// newSession initializes an attempt at s with the forced parameters of o.
func (l *Link) newSession(s Setting, o Overrides) *Session {
	sess := &Session{
		ID:        uuid.NewV4(),
		Setting:   s,
		Overrides: o,
	}
	if l.Preferred.Rate != dpcd.RateUnknown {
		sess.Setting.Rate = l.Preferred.Rate
	}
	if l.Preferred.Lanes != dpcd.LanesUnknown {
		sess.Setting.Lanes = l.Preferred.Lanes
	}

	switch {
	case l.SpreadOff:
		sess.Setting.Spread = dpcd.SpreadDisabled
	case o.Downspread.Set && !o.Downspread.V:
		sess.Setting.Spread = dpcd.SpreadDisabled
	default:
		sess.Setting.Spread = dpcd.Spread05_30KHz
	}

	sess.setLanes(dpcd.LaneSetting{})

	sess.CRTime = DefaultCRPatternTime
	sess.EQTime = DefaultEQPatternTime
	if l.Caps != nil {
		sess.CRTime = l.Caps.TrainingAuxRdIntervalUs(sess.CRTime)
		sess.EQTime = l.Caps.TrainingAuxRdIntervalUs(sess.EQTime)
	}
	if o.CRPatternTime.Set {
		sess.CRTime = o.CRPatternTime.V
	}
	if o.EQPatternTime.Set {
		sess.EQTime = o.EQPatternTime.V
	}

	sess.PatternForEQ = l.trainingPattern()
	if o.PatternForEQ.Set {
		sess.PatternForEQ = o.PatternForEQ.V
	}
	sess.EnhancedFraming = true
	if o.EnhancedFraming.Set {
		sess.EnhancedFraming = o.EnhancedFraming.V
	}
	return sess
}

// setLanes gives every lane the drive req except where overridden.
func (sess *Session) setLanes(req dpcd.LaneSetting) {
	o := &sess.Overrides
	ls := req
	if o.VoltageSwing.Set {
		ls.VoltageSwing = o.VoltageSwing.V
	}
	if o.PreEmphasis.Set {
		ls.PreEmphasis = o.PreEmphasis.V
	}
	if o.PostCursor2.Set {
		ls.PostCursor2 = o.PostCursor2.V
	}
	for i := range sess.Lanes {
		sess.Lanes[i] = ls
	}
}

// maxSwingReached reports whether an active lane is at the maximum swing.
func (sess *Session) maxSwingReached() bool {
	for i := 0; i < int(sess.Setting.Lanes); i++ {
		if sess.Lanes[i].VoltageSwing == dpcd.MaxVoltageSwing {
			return true
		}
	}
	return false
}

// requested reduces the adjust requests of the first n lanes to the one
// drive applied to every lane: the highest swing and pre-emphasis asked
// for, with pre-emphasis lowered to what that swing permits.
func requested(st *dpcd.Status, n dpcd.LaneCount) dpcd.LaneSetting {
	var max dpcd.LaneSetting
	for i := 0; i < int(n); i++ {
		a := st.Adjust(i)
		if a.VoltageSwing > max.VoltageSwing {
			max.VoltageSwing = a.VoltageSwing
		}
		if a.PreEmphasis > max.PreEmphasis {
			max.PreEmphasis = a.PreEmphasis
		}
	}
	if max.VoltageSwing > dpcd.MaxVoltageSwing {
		max.VoltageSwing = dpcd.MaxVoltageSwing
	}
	if max.PreEmphasis > dpcd.MaxPreEmphasisLevel {
		max.PreEmphasis = dpcd.MaxPreEmphasisLevel
	}
	if pe := dpcd.MaxPreEmphasis(max.VoltageSwing); max.PreEmphasis > pe {
		max.PreEmphasis = pe
	}
	return max
}

// setLinkSettings programs spread, lane count and rate into the sink.
func (l *Link) setLinkSettings(sess *Session) {
	var spread byte
	if sess.Setting.Spread != dpcd.SpreadDisabled {
		spread = dpcd.SpreadAmp
	}
	l.write(dpcd.DownspreadCtrl, spread)

	lc := byte(sess.Setting.Lanes) & dpcd.LaneCountSetMask
	if sess.EnhancedFraming {
		lc |= dpcd.EnhancedFrameEn
	}
	if l.Caps != nil && l.Caps.PostLTAdjust &&
		l.trainingPattern() != dpcd.TPS4 {
		lc |= dpcd.PostLTAdjReqGranted
	}
	l.write(dpcd.LaneCountSet, lc)

	if l.rev() >= dpcd.Rev14 && sess.Setting.UseRateSet {
		l.write(dpcd.LinkBWSet, 0)
		l.write(dpcd.LinkRateSet, sess.Setting.RateSet)
	} else {
		l.write(dpcd.LinkBWSet, byte(sess.Setting.Rate))
	}
	log.Print(l, ": set ", sess.Setting, " spread ", sess.Setting.Spread,
		" lane count set ", lc)
}

// setPatternAndLanes writes TRAINING_PATTERN_SET and the lane drive of
// the active lanes in one transaction.
func (l *Link) setPatternAndLanes(sess *Session, p dpcd.TrainingPattern) {
	b := make([]byte, 1, 1+dpcd.MaxLanes)
	b[0] = p.Code()
	b = append(b, sess.Lanes.Bytes(sess.Setting.Lanes)...)
	l.write(dpcd.TrainingPatternSet, b...)
	l.LaneSettings = sess.Lanes
}

func (l *Link) setDPCDLanes(sess *Session) {
	l.write(dpcd.TrainingLane0Set, sess.Lanes.Bytes(sess.Setting.Lanes)...)
	l.LaneSettings = sess.Lanes
}

func (l *Link) setPHYLanes(sess *Session) {
	err := l.PHY.SetLaneSettings(sess.Lanes[:sess.Setting.Lanes])
	if err != nil {
		log.Print("err", l, ": phy lane settings: ", err)
	}
}

func (l *Link) setPHYPattern(p dpcd.TrainingPattern) {
	if err := l.PHY.SetTrainingPattern(p); err != nil {
		log.Print("err", l, ": phy ", p, ": ", err)
	}
}

// setDriveSettings applies the session's lane drive to both ends.
func (l *Link) setDriveSettings(sess *Session) {
	l.setPHYLanes(sess)
	l.setDPCDLanes(sess)
}

// laneStatus reads the lane status and adjust requests. A failed read
// leaves a status with nothing done.
func (l *Link) laneStatus() (st dpcd.Status) {
	if err := l.read(dpcd.Lane01Status, st[:]); err != nil {
		st = dpcd.Status{}
	}
	return
}
