// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
	"github.com/platinasystems/log"
)

// Training iteration limits.
const (
	// CRRetries bounds clock recovery iterations that repeat the
	// requested swing.
	CRRetries = 5
	// CRMaxIterations bounds clock recovery of a sink that keeps
	// changing its request.
	CRMaxIterations = 100
	EQIterations    = 6
	// PostAdjustLimit is the number of drive changes a sink may request
	// after training, PostAdjustPolls the 1ms polls to wait for each.
	PostAdjustLimit = 6
	PostAdjustPolls = 200
)

// Inter attempt delay of TrainWithRetries, in milliseconds.
const RetryDelayStep = 50

// Train trains the link at s. With skipVideoIdle a failed attempt leaves
// the training pattern on the lanes.
func (l *Link) Train(s Setting, skipVideoIdle bool) Result {
	sess := l.newSession(s, l.PreferredOverrides)
	l.setLinkSettings(sess)

	fec := true
	if o := l.PreferredOverrides.FECEnable; o.Set {
		fec = o.V
	}
	l.SetFECReady(fec)

	r := l.clockRecovery(sess)
	if r == Success {
		r = l.channelEqualization(sess)
	}
	if r == Success || !skipVideoIdle {
		r = l.finish(sess, r)
	}
	l.report(sess, r)
	if r != Success {
		l.FailCount++
	}
	return r
}

// TrainWithRetries trains at s up to attempts times, waiting 50ms longer
// after each failure.
func (l *Link) TrainWithRetries(s Setting, skipVideoIdle bool,
	attempts int) bool {
	wait := uint32(RetryDelayStep)
	for i := 0; i < attempts; i++ {
		if l.Train(s, skipVideoIdle) == Success {
			return true
		}
		l.Timer.Msleep(wait)
		wait += RetryDelayStep
	}
	return false
}

// TrainSkipAux drives the training patterns for their usual durations
// without the AUX handshake, for sinks that train on their own.
func (l *Link) TrainSkipAux(s Setting) bool {
	sess := l.newSession(s, l.PreferredOverrides)

	l.setPHYPattern(dpcd.TPS1)
	l.setPHYLanes(sess)
	l.Timer.Udelay(sess.CRTime)

	l.setPHYPattern(sess.PatternForEQ)
	l.setPHYLanes(sess)
	l.Timer.Udelay(sess.EQTime)

	l.setPHYTestPattern(phy.VideoMode, nil)
	l.report(sess, Success)
	return true
}

func (l *Link) clockRecovery(sess *Session) Result {
	n := sess.Setting.Lanes
	l.setPHYPattern(dpcd.TPS1)
	var st dpcd.Status
	retries, count := 0, 0
	for retries < CRRetries && count < CRMaxIterations {
		l.setPHYLanes(sess)
		if retries == 0 {
			l.setPatternAndLanes(sess, dpcd.TPS1)
		} else {
			l.setDPCDLanes(sess)
		}
		l.Timer.Udelay(sess.CRTime)

		st = l.laneStatus()
		if st.CRDone(n) {
			return Success
		}
		if sess.maxSwingReached() {
			break
		}
		req := requested(&st, n)
		if sess.Lanes[0].VoltageSwing == req.VoltageSwing {
			retries++
		} else {
			retries = 0
		}
		sess.setLanes(req)
		count++
	}
	if count >= CRMaxIterations {
		log.Print("err", l, ": clock recovery: ", count,
			" iterations without lock")
	}
	return crFailure(&st, n)
}

// crFailure names the first of n lanes without clock recovery.
func crFailure(st *dpcd.Status, n dpcd.LaneCount) Result {
	switch {
	case n >= dpcd.LanesOne && !st.Lane(0).CRDone():
		return CRFailLane0
	case n >= dpcd.LanesTwo && !st.Lane(1).CRDone():
		return CRFailLane1
	case n >= dpcd.LanesFour && !st.Lane(2).CRDone():
		return CRFailLane23
	case n >= dpcd.LanesFour && !st.Lane(3).CRDone():
		return CRFailLane23
	}
	return Success
}

func (l *Link) channelEqualization(sess *Session) Result {
	n := sess.Setting.Lanes
	tp := sess.PatternForEQ
	l.setPHYPattern(tp)
	for i := 0; i < EQIterations; i++ {
		l.setPHYLanes(sess)
		if i == 0 {
			l.setPatternAndLanes(sess, tp)
		} else {
			l.setDPCDLanes(sess)
		}
		l.Timer.Udelay(sess.EQTime)

		st := l.laneStatus()
		if !st.CRDone(n) {
			return EQFailCR
		}
		if st.EQDone(n) {
			return Success
		}
		sess.setLanes(requested(&st, n))
	}
	return EQFailEQ
}

// finish returns the lanes to video idle and runs post training
// adjustment where the sink supports it.
func (l *Link) finish(sess *Session, r Result) Result {
	l.write(dpcd.TrainingPatternSet, dpcd.VideoIdle.Code())
	l.setPHYTestPattern(phy.VideoMode, nil)

	if l.Caps == nil || !l.Caps.PostLTAdjust ||
		l.trainingPattern() == dpcd.TPS4 {
		return r
	}
	if r == Success && !l.postAdjust(sess) {
		r = LQAFail
	}
	lc := byte(sess.Setting.Lanes) & dpcd.LaneCountSetMask
	if sess.EnhancedFraming {
		lc |= dpcd.EnhancedFrameEn
	}
	l.write(dpcd.LaneCountSet, lc)
	return r
}

// postAdjust follows drive changes the sink requests after training. It
// is false if the link regressed. A sink that never settles is logged
// and accepted.
func (l *Link) postAdjust(sess *Session) bool {
	n := sess.Setting.Lanes
	l.PostAdjustTimedOut = false
	for count := 0; count < PostAdjustLimit; count++ {
		changed := false
		for poll := 0; poll < PostAdjustPolls; poll++ {
			st := l.laneStatus()
			if !st.PostLTAdjustInProgress() {
				return true
			}
			if !st.CRDone(n) || !st.EQDone(n) {
				return false
			}
			req := requested(&st, n)
			for i := 0; i < int(n); i++ {
				if sess.Lanes[i].VoltageSwing != req.VoltageSwing ||
					sess.Lanes[i].PreEmphasis != req.PreEmphasis {
					changed = true
					break
				}
			}
			if changed {
				sess.setLanes(req)
				l.setDriveSettings(sess)
				break
			}
			l.Timer.Msleep(1)
		}
		if !changed {
			l.PostAdjustTimedOut = true
			log.Print("err", l, ": post training adjust request",
				" timed out")
			return true
		}
	}
	l.PostAdjustTimedOut = true
	log.Print("err", l, ": post training adjust request limit reached")
	return true
}

func (l *Link) setPHYTestPattern(p phy.TestPattern, custom []byte) {
	if err := l.PHY.SetTestPattern(p, custom); err != nil {
		log.Print("err", l, ": phy ", p, ": ", err)
	}
}
