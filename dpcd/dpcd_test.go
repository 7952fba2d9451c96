// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dpcd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNibble(t *testing.T) {
	buf := []byte{0x21, 0x43}
	for i, expect := range []uint8{1, 2, 3, 4} {
		assert.Equal(t, expect, Nibble(buf, i), "lane %d", i)
	}
	SetNibble(buf, 1, 0x7)
	SetNibble(buf, 2, 0x0)
	assert.Equal(t, []byte{0x71, 0x40}, buf)
}

func TestLaneSettingByte(t *testing.T) {
	for _, x := range []struct {
		ls     LaneSetting
		expect byte
	}{
		{LaneSetting{}, 0x00},
		{LaneSetting{VoltageSwing: VS1, PreEmphasis: PE2}, 0x11},
		{LaneSetting{VoltageSwing: VS3}, 0x07},
		{LaneSetting{VoltageSwing: VS0, PreEmphasis: PE3}, 0x38},
	} {
		assert.Equal(t, x.expect, x.ls.Byte(), "%v", x.ls)
		back := LaneSettingFromByte(x.expect)
		assert.Equal(t, x.ls.VoltageSwing, back.VoltageSwing)
		assert.Equal(t, x.ls.PreEmphasis, back.PreEmphasis)
	}
}

func TestMaxPreEmphasis(t *testing.T) {
	assert.Equal(t, PE3, MaxPreEmphasis(VS0))
	assert.Equal(t, PE2, MaxPreEmphasis(VS1))
	assert.Equal(t, PE1, MaxPreEmphasis(VS2))
	assert.Equal(t, PE0, MaxPreEmphasis(VS3))
}

func TestStatus(t *testing.T) {
	s := Status{0x77, 0x17, 0x01, 0x00, 0x96, 0x00}
	assert.True(t, s.CRDone(LanesFour))
	assert.True(t, s.EQDone(LanesTwo))
	assert.False(t, s.EQDone(LanesFour), "lane 3 has no symbol lock")
	assert.Equal(t, LaneSetting{VoltageSwing: VS2, PreEmphasis: PE1},
		s.Adjust(0))
	assert.Equal(t, LaneSetting{VoltageSwing: VS1, PreEmphasis: PE2},
		s.Adjust(1))
	s[statusAlign] = PostLTAdjReqInProgress
	assert.False(t, s.EQDone(LanesOne))
	assert.True(t, s.PostLTAdjustInProgress())
}

func TestRateSnap(t *testing.T) {
	for _, x := range []struct{ in, expect LinkRate }{
		{0x01, RateUnknown},
		{RBR, RBR},
		{0x08, RBR},
		{RBR2, HBR},
		{0x13, HBR},
		{HBR2, HBR2},
		{0x1d, HBR2},
		{HBR3, HBR3},
		{0x40, HBR3},
	} {
		assert.Equal(t, x.expect, x.in.Snap(), "%v", x.in)
	}
}

func TestRateSteps(t *testing.T) {
	r := HBR3
	var seen []LinkRate
	for r != RateUnknown {
		seen = append(seen, r)
		r = r.Reduce()
	}
	assert.Equal(t, []LinkRate{HBR3, HBR2, HBR, RBR}, seen)
	assert.Equal(t, HBR, RBR.Increase())
	assert.Equal(t, RateUnknown, HBR3.Increase())
	assert.Equal(t, LanesTwo, LanesFour.Reduce())
	assert.Equal(t, LanesUnknown, LanesOne.Reduce())
	assert.Equal(t, LanesFour, LanesTwo.Increase())
}

func TestRateFromKHz(t *testing.T) {
	assert.Equal(t, RBR, RateFromKHz(1620000))
	assert.Equal(t, LinkRate(0x09), RateFromKHz(2430000))
	assert.Equal(t, HBR3, RateFromKHz(8100000))
	assert.Equal(t, RateUnknown, RateFromKHz(1000000))
}

func TestTrainingPatternCode(t *testing.T) {
	assert.Equal(t, uint8(0), VideoIdle.Code())
	assert.Equal(t, uint8(2), TPS2.Code())
	assert.Equal(t, uint8(7), TPS4.Code())
	assert.Equal(t, "TPS3", TPS3.String())
}

func TestParseIRQ(t *testing.T) {
	d, err := ParseIRQ([]byte{0x01, AutomatedTestRequest, 0x77, 0x00,
		InterlaneAlignDone, 0x00})
	require.NoError(t, err)
	assert.True(t, d.AutomatedTest())
	assert.True(t, d.LinkOK(LanesTwo))
	assert.False(t, d.LinkOK(LanesFour))
	assert.Equal(t, uint8(1), d.Sinks())

	esi := make([]byte, IRQVectorESISize)
	esi[0] = 0x02
	esi[1] = UpReqMsgRdy
	esi[Lane01StatusESI-SinkCountESI] = 0x75
	esi[LaneAlignStatusUpdatedESI-SinkCountESI] = InterlaneAlignDone
	d, err = ParseIRQESI(esi)
	require.NoError(t, err)
	assert.Equal(t, 14, len(d.Raw))
	assert.True(t, d.UpRequestReady())
	assert.False(t, d.LinkOK(LanesOne), "lane 0 lost channel eq")
	assert.Equal(t, uint8(2), d.Sinks())

	_, err = ParseIRQ([]byte{0})
	assert.Error(t, err)
}
