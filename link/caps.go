// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"errors"
	"fmt"

	"github.com/platinasystems/dplink/auxch"
	"github.com/platinasystems/dplink/delay"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
	"github.com/platinasystems/log"
)

// Retries of each capability block read.
const CapReadAttempts = 3

var (
	ErrMalformedSink        = errors.New("malformed sink: max lane count 0")
	ErrCapabilityReadFailed = errors.New("capability read failed")
)

// capReadError is a failed capability read. It matches
// ErrCapabilityReadFailed and unwraps to the AUX error.
type capReadError struct {
	addr dpcd.Addr
	err  error
}

func (e *capReadError) Error() string {
	return fmt.Sprintf("%v: %v: %v", ErrCapabilityReadFailed, e.addr, e.err)
}

func (e *capReadError) Is(target error) bool {
	return target == ErrCapabilityReadFailed
}

func (e *capReadError) Unwrap() error { return e.err }

// Dongle is the kind of protocol converter behind a branch device.
type Dongle uint8

const (
	NoDongle Dongle = iota
	DongleVGA
	DongleDVI
	DongleHDMI
)

func (d Dongle) String() string {
	switch d {
	case NoDongle:
		return "none"
	case DongleVGA:
		return "DP-VGA"
	case DongleDVI:
		return "DP-DVI"
	case DongleHDMI:
		return "DP-HDMI"
	}
	return fmt.Sprintf("dongle(%d)", uint8(d))
}

// Identity of a sink or branch device.
type Identity struct {
	OUI      uint32
	DeviceID [6]byte
	HWRev    byte
	FWRev    [2]byte
}

func (id Identity) String() string {
	return fmt.Sprintf("%06x %q hw %#02x fw %d.%d", id.OUI,
		string(trimNul(id.DeviceID[:])), id.HWRev, id.FWRev[0],
		id.FWRev[1])
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// Capabilities of a sink as read at detection. Treat as read only.
type Capabilities struct {
	Rev uint8
	// Raw is the receiver capability block, 0x000 through 0x00f, or its
	// extended copy at 0x2200.
	Raw [dpcd.ReceiverCapSize]byte

	// Reported is the maximum the sink advertises, spread included.
	Reported Setting

	TPS3            bool
	TPS4            bool
	PostLTAdjust    bool
	EnhancedFraming bool
	NoAuxHandshake  bool
	MSAIgnored      bool
	PanelModeEDP    bool
	DisplayControl  bool
	ExtendedCap     bool
	MST             bool
	FEC             bool
	// TrainingAuxRdInterval is the raw 0x00e interval field.
	TrainingAuxRdInterval uint8
	DPRXFeatures          byte

	SinkCount      uint8
	Branch         bool
	Dongle         Dongle
	HDMIMaxTMDSKHz uint32

	Sink       Identity
	BranchID   Identity
	DownStream [dpcd.DownstreamPortCapsSize]byte

	// EDPRates is the eDP supported link rate table in LINK_BW_SET
	// encoding, in table order.
	EDPRates []dpcd.LinkRate
}

// Sink OUI and device id that advertise too high a max link rate.
const quirkRBR2OUI = 0x0010fa

var quirkRBR2DeviceID = [6]byte{101, 68, 21, 101, 98, 97}

// ReadCapabilities reads the receiver capabilities of the sink on ch.
func ReadCapabilities(ch auxch.Channel, t delay.Timer) (*Capabilities, error) {
	c := new(Capabilities)
	chk := func(addr dpcd.Addr, err error) error {
		if err != nil {
			return &capReadError{addr, err}
		}
		return nil
	}

	// A sink in D3 needs up to 1ms to answer.
	pwr, err := auxch.ReadByte(ch, dpcd.SetPower)
	if err != nil || pwr&dpcd.SetPowerMask == dpcd.SetPowerD3 {
		t.Udelay(1000)
	}

	err = auxch.ReadRetry(ch, dpcd.Rev, c.Raw[:], CapReadAttempts)
	if err = chk(dpcd.Rev, err); err != nil {
		return nil, err
	}
	if c.Raw[dpcd.TrainingAuxRdInterval]&
		dpcd.ExtendedReceiverCapFieldPresent != 0 {
		c.ExtendedCap = true
		var ext [dpcd.ExtendedReceiverCapSize]byte
		err = auxch.ReadRetry(ch, dpcd.DP13Rev, ext[:], CapReadAttempts)
		if err != nil {
			log.Print("warn", dpcd.DP13Rev, ": ", err,
				": using base receiver capabilities")
		} else {
			c.Raw = ext
		}
	}
	c.Rev = c.Raw[dpcd.Rev]

	if c.Rev >= dpcd.Rev14 {
		var b [1]byte
		err = auxch.ReadRetry(ch, dpcd.DPRXFeatureEnumeration, b[:],
			CapReadAttempts)
		if err = chk(dpcd.DPRXFeatureEnumeration, err); err != nil {
			return nil, err
		}
		c.DPRXFeatures = b[0]
	}

	lanes := c.Raw[dpcd.MaxLaneCount]
	if lanes&dpcd.MaxLaneCountMask == 0 {
		return nil, ErrMalformedSink
	}

	var id [dpcd.DeviceIdentificationSize]byte
	if err = ch.Read(dpcd.BranchOUI, id[:]); err == nil {
		c.BranchID.OUI = oui(id[:])
		copy(c.BranchID.DeviceID[:], id[3:])
	}

	if err = c.readConverter(ch); err != nil {
		return nil, err
	}

	var rev [dpcd.DeviceRevisionSize]byte
	if err = ch.Read(dpcd.BranchHWRevision, rev[:]); err == nil {
		c.BranchID.HWRev = rev[0]
		copy(c.BranchID.FWRev[:], rev[1:])
	}

	c.MSAIgnored = c.Raw[dpcd.DownStreamPortCount]&
		dpcd.MSATimingParIgnored != 0
	c.PostLTAdjust = lanes&dpcd.PostLTAdjReqSupported != 0
	c.TPS3 = lanes&dpcd.TPS3Supported != 0
	c.EnhancedFraming = lanes&dpcd.EnhancedFrameCap != 0
	spread := c.Raw[dpcd.MaxDownspread]
	c.TPS4 = spread&dpcd.TPS4Supported != 0
	c.NoAuxHandshake = spread&dpcd.NoAuxHandshakeLinkTraining != 0
	c.Reported = Setting{
		Lanes:  dpcd.LaneCount(lanes & dpcd.MaxLaneCountMask),
		Rate:   dpcd.LinkRate(c.Raw[dpcd.MaxLinkRate]),
		Spread: dpcd.SpreadDisabled,
	}
	if spread&dpcd.MaxDownspread05 != 0 {
		c.Reported.Spread = dpcd.Spread05_30KHz
	}
	edp := c.Raw[dpcd.EDPConfigurationCap]
	c.PanelModeEDP = edp&dpcd.AlternateScramblerResetCap != 0
	c.DisplayControl = edp&dpcd.DPCDDisplayControlCapable != 0
	c.TrainingAuxRdInterval = c.Raw[dpcd.TrainingAuxRdInterval] &
		dpcd.TrainingAuxRdMask

	sinks, err := auxch.ReadByte(ch, dpcd.SinkCount)
	if err = chk(dpcd.SinkCount, err); err != nil {
		return nil, err
	}
	c.SinkCount = sinks & dpcd.SinkCountMask

	if err = ch.Read(dpcd.SinkOUI, id[:]); err == nil {
		c.Sink.OUI = oui(id[:])
		copy(c.Sink.DeviceID[:], id[3:])
		if c.Sink.OUI == quirkRBR2OUI &&
			c.Sink.DeviceID == quirkRBR2DeviceID {
			c.Reported.Rate = dpcd.RBR2
		}
	}
	if err = ch.Read(dpcd.SinkHWRevision, rev[:]); err == nil {
		c.Sink.HWRev = rev[0]
		copy(c.Sink.FWRev[:], rev[1:])
	}

	if c.Rev >= dpcd.Rev12 {
		if b, err := auxch.ReadByte(ch, dpcd.MSTMCap); err == nil {
			c.MST = b&dpcd.MSTCap != 0
		}
	}
	if c.Rev >= dpcd.Rev14 {
		if b, err := auxch.ReadByte(ch, dpcd.FECCapability); err == nil {
			c.FEC = b&dpcd.FECCapable != 0
		}
	}
	return c, nil
}

func oui(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func (c *Capabilities) readConverter(ch auxch.Channel) error {
	ds := c.Raw[dpcd.DownstreamPortPresent]
	if ds&dpcd.DwnStrmPortPresent == 0 {
		c.Dongle = NoDongle
		c.Branch = false
		return nil
	}
	t := (ds & dpcd.DwnStrmPortTypeMask) >> dpcd.DwnStrmPortTypeShift
	c.Branch = t != dpcd.DownstreamDP
	switch t {
	case dpcd.DownstreamVGA:
		c.Dongle = DongleVGA
	case dpcd.DownstreamDVIHDMIDPPlusPlus:
		// DVI until the detailed caps say otherwise.
		c.Dongle = DongleDVI
	default:
		c.Dongle = NoDongle
	}
	if c.Rev < dpcd.Rev11 {
		return nil
	}
	if err := ch.Read(dpcd.DownstreamPort0, c.DownStream[:]); err != nil {
		return &capReadError{dpcd.DownstreamPort0, err}
	}
	switch c.DownStream[0] & dpcd.DetailedTypeMask {
	case dpcd.DetailedDP:
		c.Dongle = NoDongle
	case dpcd.DetailedVGA:
		c.Dongle = DongleVGA
	case dpcd.DetailedDVI:
		c.Dongle = DongleDVI
	case dpcd.DetailedHDMI, dpcd.DetailedDPPlusPlus:
		c.Dongle = DongleHDMI
		if ds&dpcd.DetailedCapInfoAvailable != 0 {
			c.HDMIMaxTMDSKHz = uint32(c.DownStream[1]) * 2500
		}
	}
	return nil
}

// ReadEDPRates reads the eDP supported link rate table and raises the
// reported rate to its highest entry.
func (c *Capabilities) ReadEDPRates(ch auxch.Channel) error {
	var b [dpcd.SupportedLinkRatesSize]byte
	if err := ch.Read(dpcd.SupportedLinkRates, b[:]); err != nil {
		return &capReadError{dpcd.SupportedLinkRates, err}
	}
	c.EDPRates = c.EDPRates[:0]
	for i := 0; i < len(b); i += 2 {
		khz := (uint32(b[i+1])<<8 | uint32(b[i])) * 200
		if khz == 0 {
			continue
		}
		r := dpcd.RateFromKHz(khz)
		c.EDPRates = append(c.EDPRates, r)
		if r > c.Reported.Rate {
			c.Reported.Rate = r
		}
	}
	return nil
}

// TrainingPattern is the highest equalization pattern both the source
// encoder and the sink support.
func (c *Capabilities) TrainingPattern(f phy.Features) dpcd.TrainingPattern {
	highest := dpcd.TPS2
	if f.TPS3 {
		highest = dpcd.TPS3
	}
	if f.TPS4 {
		highest = dpcd.TPS4
	}
	switch {
	case c.TPS4 && highest >= dpcd.TPS4:
		return dpcd.TPS4
	case c.TPS3 && highest >= dpcd.TPS3:
		return dpcd.TPS3
	}
	return dpcd.TPS2
}

// TrainingAuxRdIntervalUs is the sink's requested wait after a training
// iteration, or def for sinks before DPCD 1.2 or without a request.
func (c *Capabilities) TrainingAuxRdIntervalUs(def uint32) uint32 {
	if c.Rev >= dpcd.Rev12 && c.TrainingAuxRdInterval != 0 {
		return uint32(c.TrainingAuxRdInterval) * 4000
	}
	return def
}
