// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/auxch"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
	"github.com/platinasystems/log"
)

// HandleAutomatedTest runs the compliance tests the sink requests.
func (l *Link) HandleAutomatedTest() {
	b, err := auxch.ReadByte(l.AUX, dpcd.TestRequest)
	if err != nil {
		log.Print("err", l, ": test request: ", err)
		return
	}
	req := dpcd.TestRequestBits(b)
	log.Print("info", l, ": test request ", b)
	var ack bool
	if req.LinkTraining() {
		// Ack first so the tester sees the whole training sequence.
		l.write(dpcd.TestResponse, dpcd.TestAck)
		l.testLinkTraining()
	}
	if req.LinkTestPattern() {
		l.testLinkPattern()
		ack = true
	}
	if req.PHYTestPattern() {
		l.testPHYPattern()
		ack = true
	}
	if ack {
		l.write(dpcd.TestResponse, dpcd.TestAck)
	}
}

// testLinkTraining retrains at the lane count and rate under test.
func (l *Link) testLinkTraining() {
	var lanes, rate [1]byte
	if l.read(dpcd.TestLaneCount, lanes[:]) != nil ||
		l.read(dpcd.TestLinkRate, rate[:]) != nil {
		return
	}
	s := Setting{
		Lanes: dpcd.LaneCount(lanes[0]),
		Rate:  dpcd.LinkRate(rate[0]),
	}
	l.Verified.Lanes = s.Lanes
	l.Verified.Rate = s.Rate

	l.pipeline(Pipeline.Blank)
	l.disablePHY()
	if err := l.EnablePHY(s); err != nil {
		log.Print("err", l, ": phy enable ", s, ": ", err)
	}
	l.TrainWithRetries(s, false, LinkTrainingAttempts)
	l.Current = s
	l.pipeline(Pipeline.Unblank)
}

func (l *Link) testLinkPattern() {
	var pat, misc [1]byte
	l.read(dpcd.TestPattern, pat[:])
	l.read(dpcd.TestMisc0, misc[:])
	p := phy.VideoMode
	switch pat[0] {
	case dpcd.LinkTestColorRamp:
		p = phy.ColorRamp
	case dpcd.LinkTestBlackWhiteVerticalLines:
		p = phy.VerticalBars
	case dpcd.LinkTestColorSquare:
		p = phy.ColorSquares
		if misc[0]&dpcd.TestDynamicRangeCEA != 0 {
			p = phy.ColorSquaresCEA
		}
	}
	l.SetTestPattern(p, nil, nil)
}

func (l *Link) testPHYPattern() {
	var pat [1]byte
	var adjust [2]byte
	var pc2 [1]byte
	l.read(dpcd.TestPHYPattern, pat[:])
	l.read(dpcd.AdjustRequestLane01, adjust[:])
	l.read(dpcd.AdjustRequestPostCursor2, pc2[:])

	p := phy.VideoMode
	switch pat[0] & dpcd.TestPHYPatternMask {
	case dpcd.PHYTestD10_2:
		p = phy.D10_2
	case dpcd.PHYTestSymbolError:
		p = phy.SymbolError
	case dpcd.PHYTestPRBS7:
		p = phy.PRBS7
	case dpcd.PHYTest80BitCustom:
		p = phy.Custom80Bit
	case dpcd.PHYTestCP2520_1, dpcd.PHYTestCP2520_2:
		p = phy.HBR2ComplianceEye
		if l.ForceTPS4ForCP2520 {
			p = phy.TrainingPattern4
		}
	case dpcd.PHYTestCP2520_3:
		p = phy.TrainingPattern4
	}

	custom := make([]byte, dpcd.CustomPattern80BitSize)
	if p == phy.Custom80Bit {
		l.read(dpcd.Test80BitCustomPattern, custom)
	}

	ts := &TestSettings{Setting: l.Current}
	for i := 0; i < int(l.Current.Lanes) && i < dpcd.MaxLanes; i++ {
		n := dpcd.Nibble(adjust[:], i)
		ts.Lanes[i] = dpcd.LaneSetting{
			VoltageSwing: dpcd.VoltageSwing(n &
				dpcd.AdjustVoltageSwingMask),
			PreEmphasis: dpcd.PreEmphasis((n &
				dpcd.AdjustPreEmphasisMask) >>
				dpcd.AdjustPreEmphasisShift),
			PostCursor2: dpcd.PostCursor2Request(pc2[0], i),
		}
	}
	l.SetTestPattern(p, ts, custom)
}
