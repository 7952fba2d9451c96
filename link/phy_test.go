// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"errors"
	"testing"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/internal/sim"
	"github.com/platinasystems/dplink/phy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPHY struct{ mock.Mock }

func (m *mockPHY) Enable(rate dpcd.LinkRate, lanes dpcd.LaneCount,
	spread dpcd.Spread) error {
	return m.Called(rate, lanes, spread).Error(0)
}

func (m *mockPHY) Disable() error { return m.Called().Error(0) }

func (m *mockPHY) SetLaneSettings(ls []dpcd.LaneSetting) error {
	return m.Called(ls).Error(0)
}

func (m *mockPHY) SetTrainingPattern(p dpcd.TrainingPattern) error {
	return m.Called(p).Error(0)
}

func (m *mockPHY) SetTestPattern(p phy.TestPattern, custom []byte) error {
	return m.Called(p, custom).Error(0)
}

func (m *mockPHY) FECReady(ready bool) error { return m.Called(ready).Error(0) }

func (m *mockPHY) FECEnable(enable bool) error {
	return m.Called(enable).Error(0)
}

func (m *mockPHY) Features() phy.Features {
	return m.Called().Get(0).(phy.Features)
}

func TestEnablePHY(t *testing.T) {
	m := new(mockPHY)
	errPLL := errors.New("pll unlocked")
	m.On("Enable", dpcd.HBR2, dpcd.LanesFour, dpcd.SpreadDisabled).
		Return(errPLL).Once()
	m.On("Disable").Return(nil).Once()
	l := New(Config{PHY: m, Timer: new(sim.Clock)})

	assert.Equal(t, errPLL, l.EnablePHY(hbr2x4))
	assert.Equal(t, hbr2x4, l.Current)
	require.NoError(t, l.DisablePHY())
	assert.False(t, l.Current.Known())
	m.AssertExpectations(t)
}

func TestMaxLinkCapFeatures(t *testing.T) {
	m := new(mockPHY)
	m.On("Features").Return(phy.Features{HBR2: true})
	sink := sim.NewSink(0x14, dpcd.HBR3, dpcd.LanesTwo)
	l := New(Config{AUX: sink, PHY: m, Timer: new(sim.Clock)})
	require.NoError(t, l.Detect())

	assert.Equal(t, Setting{
		Lanes:  dpcd.LanesTwo,
		Rate:   dpcd.HBR2,
		Spread: dpcd.Spread05_30KHz,
	}, l.MaxLinkCap())
	m.AssertCalled(t, "Features")
}
