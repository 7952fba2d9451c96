// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"testing"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/internal/sim"
	"github.com/platinasystems/dplink/phy"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hbr2x4 = Setting{Lanes: dpcd.LanesFour, Rate: dpcd.HBR2}

func locks(n int) func(dpcd.LinkRate, dpcd.LaneCount) int {
	return func(dpcd.LinkRate, dpcd.LaneCount) int { return n }
}

func TestTrain(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	b := detected(t, sink, Config{Index: 2})

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.True(t, sink.Trained())
	assert.Equal(t, 1, sink.CRReads)
	assert.Equal(t, 1, sink.EQReads)
	assert.Zero(t, b.link.FailCount)

	assert.Equal(t, byte(dpcd.SpreadAmp), sink.Get(dpcd.DownspreadCtrl))
	assert.Equal(t, byte(4|dpcd.EnhancedFrameEn),
		sink.Get(dpcd.LaneCountSet))
	assert.Equal(t, byte(dpcd.HBR2), sink.Get(dpcd.LinkBWSet))
	assert.Equal(t, byte(0), sink.Get(dpcd.TrainingPatternSet))
	assert.Equal(t, [][]byte{{1, 0, 0, 0, 0}, {2, 0, 0, 0, 0}, {0}},
		sink.WritesTo(dpcd.TrainingPatternSet))

	assert.Equal(t, phy.VideoMode, b.phy.TestPattern)
	assert.Equal(t, 1, b.phy.Count("pattern TPS1"))
	assert.Equal(t, 1, b.phy.Count("pattern TPS2"))

	require.Len(t, b.rec.status, 1)
	st := b.rec.last()
	assert.Equal(t, 2, st.Link)
	assert.Equal(t, Success, st.Result)
	assert.NotEqual(t, uuid.Nil, st.Session)
	assert.Equal(t, "HBR2x4 pass VS=0, PE=0, DS=0.5% 30KHz", st.String())
	assert.Equal(t, []uint32{
		DefaultCRPatternTime,
		DefaultEQPatternTime,
	}, b.clock.Udelays)
}

func TestTrainTwice(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.RequiredSwing = dpcd.VS1
	b := detected(t, sink, Config{})

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	first := b.link.LaneSettings
	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Equal(t, first, b.link.LaneSettings)
	assert.True(t, sink.Trained())
	assert.NotEqual(t, b.rec.status[0].Session, b.rec.status[1].Session)
}

func TestTrainSwing(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesTwo)
	sink.RequiredSwing = dpcd.VS2
	b := detected(t, sink, Config{})

	s := Setting{Lanes: dpcd.LanesTwo, Rate: dpcd.HBR2}
	require.Equal(t, Success, b.link.Train(s, false))
	assert.Equal(t, 3, sink.CRReads)
	ls := b.link.LaneSettings[0]
	assert.Equal(t, dpcd.VS2, ls.VoltageSwing)
	assert.Equal(t, dpcd.PE0, ls.PreEmphasis)
	assert.Equal(t, ls, b.link.LaneSettings[1])
	assert.Equal(t, ls, b.phy.Drive[1])
	assert.Equal(t, "HBR2x2 pass VS=2, PE=0, DS=0.5% 30KHz",
		b.rec.last().String())
}

func TestTrainClockRecoveryFailure(t *testing.T) {
	for _, x := range []struct {
		lanes  dpcd.LaneCount
		locked int
		want   Result
	}{
		{dpcd.LanesFour, 0, CRFailLane0},
		{dpcd.LanesFour, 1, CRFailLane1},
		{dpcd.LanesFour, 2, CRFailLane23},
		{dpcd.LanesFour, 3, CRFailLane23},
		{dpcd.LanesTwo, 1, CRFailLane1},
		{dpcd.LanesOne, 0, CRFailLane0},
	} {
		sink := sim.NewSink(0x12, dpcd.HBR2, x.lanes)
		sink.Locks = locks(x.locked)
		b := detected(t, sink, Config{})
		s := Setting{Lanes: x.lanes, Rate: dpcd.HBR2}
		r := b.link.Train(s, true)
		assert.Equal(t, x.want, r, "%d of %d", x.locked, x.lanes)
		assert.Zero(t, sink.EQReads)
		assert.Equal(t, 1, b.link.FailCount)
		// the swing climbs to its maximum
		assert.Equal(t, dpcd.MaxVoltageSwing,
			b.link.LaneSettings[0].VoltageSwing)
		assert.Equal(t, 4, sink.CRReads)
		assert.NotEqual(t, byte(0), sink.Get(dpcd.TrainingPatternSet),
			"skipped video idle")
	}
}

// unlocked reports no clock recovery on any lane, requesting the swing
// given for each status read.
type unlocked struct {
	*sim.Sink
	swing func(read int) dpcd.VoltageSwing
	reads int
}

func (u *unlocked) Read(addr dpcd.Addr, buf []byte) error {
	if err := u.Sink.Read(addr, buf); err != nil {
		return err
	}
	if addr != dpcd.Lane01Status ||
		len(buf) < dpcd.LaneStatusAndAdjustSize {
		return nil
	}
	u.reads++
	vs := byte(u.swing(u.reads)) & dpcd.AdjustVoltageSwingMask
	buf[0], buf[1] = 0, 0
	buf[4], buf[5] = vs|vs<<4, vs|vs<<4
	return nil
}

func TestTrainClockRecoveryBounds(t *testing.T) {
	for _, x := range []struct {
		name  string
		swing func(int) dpcd.VoltageSwing
		reads int
	}{
		{"same swing", func(int) dpcd.VoltageSwing { return dpcd.VS0 },
			CRRetries},
		{"oscillating", func(n int) dpcd.VoltageSwing {
			if n%2 == 1 {
				return dpcd.VS1
			}
			return dpcd.VS0
		}, CRMaxIterations},
	} {
		sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
		b := detected(t, sink, Config{})
		u := &unlocked{Sink: sink, swing: x.swing}
		b.link.AUX = u

		assert.Equal(t, CRFailLane0, b.link.Train(hbr2x4, true), x.name)
		assert.Equal(t, x.reads, u.reads, x.name)
		assert.Zero(t, sink.EQReads, x.name)
		assert.Equal(t, 1, b.link.FailCount, x.name)
	}
}

func TestTrainEqualizationFailure(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.EQ = func(dpcd.LinkRate, dpcd.LaneCount) bool { return false }
	b := detected(t, sink, Config{})

	assert.Equal(t, EQFailEQ, b.link.Train(hbr2x4, false))
	assert.Equal(t, EQIterations, sink.EQReads)
	assert.False(t, sink.Trained())
	assert.Equal(t, byte(0), sink.Get(dpcd.TrainingPatternSet))
	assert.Equal(t, EQFailEQ, b.rec.last().Result)
}

func TestTrainEqualizationLosesLock(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.DropCRInEQ = true
	b := detected(t, sink, Config{})

	assert.Equal(t, EQFailCR, b.link.Train(hbr2x4, false))
	assert.Equal(t, 1, sink.EQReads)
}

func TestTrainEqualizationPolls(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.EQPolls = EQIterations - 1
	b := detected(t, sink, Config{})

	assert.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Equal(t, EQIterations, sink.EQReads)
}

func TestTrainAuxRdInterval(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.Set(dpcd.TrainingAuxRdInterval, 2)
	b := detected(t, sink, Config{})

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Equal(t, []uint32{8000, 8000}, b.clock.Udelays)
}

func TestTrainOverrides(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	b := detected(t, sink, Config{})
	b.link.PreferredOverrides = Overrides{
		VoltageSwing:    VoltageSwing(dpcd.VS1),
		PreEmphasis:     PreEmphasis(dpcd.PE2),
		Downspread:      Bool(false),
		CRPatternTime:   Uint32(50),
		EQPatternTime:   Uint32(60),
		EnhancedFraming: Bool(false),
	}

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Equal(t, byte(0), sink.Get(dpcd.DownspreadCtrl))
	assert.Equal(t, byte(4), sink.Get(dpcd.LaneCountSet))
	assert.Equal(t, []uint32{50, 60}, b.clock.Udelays)
	ls := dpcd.LaneSetting{VoltageSwing: dpcd.VS1, PreEmphasis: dpcd.PE2}
	assert.Equal(t, ls, b.link.LaneSettings[3])
	assert.Equal(t, "HBR2x4 pass VS=1, PE=2, DS=Disabled",
		b.rec.last().String())
}

func TestTrainPreferred(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	b := detected(t, sink, Config{SpreadOff: true})
	b.link.Preferred = Setting{Lanes: dpcd.LanesTwo, Rate: dpcd.HBR}

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Equal(t, byte(dpcd.HBR), sink.Get(dpcd.LinkBWSet))
	assert.Equal(t, byte(2|dpcd.EnhancedFrameEn),
		sink.Get(dpcd.LaneCountSet))
	assert.Equal(t, byte(0), sink.Get(dpcd.DownspreadCtrl))
}

func postAdjustSink() *sim.Sink {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.Or(dpcd.MaxLaneCount, dpcd.PostLTAdjReqSupported)
	return sink
}

func TestTrainPostAdjust(t *testing.T) {
	sink := postAdjustSink()
	sink.PostAdjustPolls = 3
	sink.PostAdjust = &dpcd.LaneSetting{
		VoltageSwing: dpcd.VS1,
		PreEmphasis:  dpcd.PE1,
	}
	b := detected(t, sink, Config{})
	require.True(t, b.link.Caps.PostLTAdjust)

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.False(t, b.link.PostAdjustTimedOut)
	assert.Equal(t, *sink.PostAdjust, b.link.LaneSettings[0])
	assert.Equal(t, *sink.PostAdjust, b.phy.Drive[0])
	assert.Equal(t, 3, sink.PostAdjustReads)
	assert.Equal(t, []uint32{1, 1}, b.clock.Msleeps)

	lc := sink.WritesTo(dpcd.LaneCountSet)
	require.Len(t, lc, 2)
	assert.Equal(t, []byte{4 | dpcd.EnhancedFrameEn |
		dpcd.PostLTAdjReqGranted}, lc[0])
	assert.Equal(t, []byte{4 | dpcd.EnhancedFrameEn}, lc[1])
}

func TestTrainPostAdjustTimeout(t *testing.T) {
	sink := postAdjustSink()
	sink.PostAdjustPolls = -1
	b := detected(t, sink, Config{})

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.True(t, b.link.PostAdjustTimedOut)
	assert.Len(t, b.clock.Msleeps, PostAdjustPolls)
	assert.Equal(t, byte(4|dpcd.EnhancedFrameEn),
		sink.Get(dpcd.LaneCountSet))
}

func TestTrainPostAdjustRegression(t *testing.T) {
	sink := postAdjustSink()
	sink.PostAdjustPolls = 5
	sink.PostAdjustLoseEQ = true
	b := detected(t, sink, Config{})

	assert.Equal(t, LQAFail, b.link.Train(hbr2x4, false))
	assert.Equal(t, 1, b.link.FailCount)
	assert.Equal(t, 1, sink.PostAdjustReads)
}

func TestTrainPostAdjustTPS4(t *testing.T) {
	sink := postAdjustSink()
	sink.Or(dpcd.MaxDownspread, dpcd.TPS4Supported)
	sink.PostAdjustPolls = -1
	b := detected(t, sink, Config{})
	require.Equal(t, dpcd.TPS4, b.link.trainingPattern())

	require.Equal(t, Success, b.link.Train(hbr2x4, false))
	assert.Zero(t, sink.PostAdjustReads)
	assert.False(t, b.link.PostAdjustTimedOut)
	assert.Equal(t, byte(4|dpcd.EnhancedFrameEn),
		sink.Get(dpcd.LaneCountSet))
	assert.Equal(t, []byte{1, 0, 0, 0, 0},
		sink.WritesTo(dpcd.TrainingPatternSet)[0])
	assert.Equal(t, byte(7), sink.WritesTo(dpcd.TrainingPatternSet)[1][0])
}

func TestTrainWithRetries(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.Locks = locks(0)
	b := detected(t, sink, Config{})

	assert.False(t, b.link.TrainWithRetries(hbr2x4, false, 3))
	assert.Equal(t, []uint32{50, 100, 150}, b.clock.Msleeps)
	assert.Equal(t, 3, b.link.FailCount)
	assert.Len(t, b.rec.status, 3)

	sink.Locks = nil
	b.clock.Msleeps = nil
	assert.True(t, b.link.TrainWithRetries(hbr2x4, false, 3))
	assert.Empty(t, b.clock.Msleeps)
}

func TestTrainSkipAux(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.Or(dpcd.MaxDownspread, dpcd.NoAuxHandshakeLinkTraining)
	b := detected(t, sink, Config{})
	require.True(t, b.link.Caps.NoAuxHandshake)

	assert.True(t, b.link.TrainSkipAux(hbr2x4))
	assert.Empty(t, sink.WritesTo(dpcd.TrainingPatternSet))
	assert.Equal(t, []string{
		"pattern TPS1",
		"lanes 4 VS=0, PE=0",
		"pattern TPS2",
		"lanes 4 VS=0, PE=0",
		"test pattern video mode",
	}, b.phy.Calls)
	assert.Equal(t, Success, b.rec.last().Result)
}

func TestSync(t *testing.T) {
	sink := sim.NewSink(0x12, dpcd.HBR2, dpcd.LanesFour)
	sink.Set(dpcd.MSTMCap, dpcd.MSTCap)
	b := detected(t, sink, Config{})
	b.link.Preferred = Setting{Lanes: dpcd.LanesOne, Rate: dpcd.RBR}
	b.link.PreferredOverrides.Downspread = Bool(false)

	b.link.SyncBegin()
	assert.True(t, b.link.SyncInProgress)
	assert.False(t, b.link.Preferred.Known())
	assert.False(t, b.link.PreferredOverrides.Downspread.Set)

	o := Overrides{
		MSTEnable:    Bool(true),
		VoltageSwing: VoltageSwing(dpcd.VS2),
	}
	require.Equal(t, Success, b.link.SyncAttempt(hbr2x4, o))
	assert.Equal(t, byte(dpcd.MSTEn), sink.Get(dpcd.MSTMCtrl))
	assert.Equal(t, hbr2x4, b.link.Current)
	assert.True(t, b.phy.Enabled)
	assert.Equal(t, dpcd.VS2, b.link.LaneSettings[0].VoltageSwing)
	// no return to video idle
	assert.False(t, sink.Trained())
	assert.Equal(t, byte(dpcd.TPS2.Code()), sink.Get(dpcd.TrainingPatternSet))

	b.link.SyncEnd(true)
	assert.False(t, b.link.SyncInProgress)
	assert.False(t, b.phy.Enabled)
	assert.False(t, b.link.Current.Known())
}
