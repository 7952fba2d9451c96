// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package link trains a DisplayPort main link and keeps it trained.
//
// A Link holds the state of one source to sink connection: the sink's
// capabilities, the verified configuration, and the counters of training.
// Its methods block on AUX transactions and training delays. Callers
// serialize training and interrupt handling of a Link with its embedded
// mutex; independent links share nothing.
package link

import (
	"fmt"
	"sync"

	"github.com/platinasystems/dplink/auxch"
	"github.com/platinasystems/dplink/delay"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/dplink/phy"
	"github.com/platinasystems/log"
)

// Config of a Link.
type Config struct {
	// Index names the link in status lines and published keys.
	Index int

	AUX   auxch.Channel
	PHY   phy.Driver
	Timer delay.Timer

	// Reporter receives the status of every training attempt. The
	// default logs it.
	Reporter Reporter
	// Pipeline drives video stream test patterns, if any.
	Pipeline Pipeline

	// EDP is set for embedded panels.
	EDP bool
	// SpreadOff disables spread spectrum clocking on the source.
	SpreadOff bool
	// SkipDetectionTraining accepts the known limit as verified
	// without training it.
	SkipDetectionTraining bool
	// OptimizeEDPRate reads the eDP rate table even when the sink
	// reports a max link rate.
	OptimizeEDPRate bool
	// ForceTPS4ForCP2520 substitutes TPS4 for the CP2520 compliance
	// patterns.
	ForceTPS4ForCP2520 bool
	// DisableFEC leaves forward error correction off.
	DisableFEC bool
}

type fecState uint8

const (
	fecNotReady fecState = iota
	fecReady
	fecEnabled
)

// Link is the state of one DisplayPort link.
type Link struct {
	sync.Mutex
	Config

	Caps *Capabilities

	// Verified is the configuration proven to train.
	Verified Setting
	// Preferred pins the configuration of mode sets when known.
	Preferred Setting
	// PreferredOverrides apply to every training attempt.
	PreferredOverrides Overrides
	// Current is the configuration the PHY is enabled at.
	Current Setting
	// LaneSettings last trained.
	LaneSettings dpcd.LaneSettings

	FailCount          int
	PostAdjustTimedOut bool
	TestPatternEnabled bool
	SyncInProgress     bool

	fec fecState
}

// New link of cfg. Timer defaults to the system clock and Reporter to
// the log.
func New(cfg Config) *Link {
	if cfg.Timer == nil {
		cfg.Timer = delay.Sleeper{}
	}
	if cfg.Reporter == nil {
		cfg.Reporter = LogReporter{}
	}
	return &Link{Config: cfg}
}

func (l *Link) String() string { return fmt.Sprint("dp", l.Index) }

// Detect reads the capabilities of a newly attached sink and resets the
// link state derived from them.
func (l *Link) Detect() error {
	caps, err := ReadCapabilities(l.AUX, l.Timer)
	if err != nil {
		l.Caps = nil
		return fmt.Errorf("%v: %w", l, err)
	}
	if l.EDP && caps.Rev >= dpcd.Rev14 &&
		(l.OptimizeEDPRate || caps.Reported.Rate == dpcd.RateUnknown) {
		if err = caps.ReadEDPRates(l.AUX); err != nil {
			log.Print("warn", l, ": ", err)
		}
	}
	l.Caps = caps
	l.Verified = Setting{}
	l.Current = Setting{}
	l.FailCount = 0
	l.fec = fecNotReady
	if l.EDP {
		l.Verified = caps.Reported
	}
	log.Print("info", l, ": rev ", fmt.Sprintf("%#02x", caps.Rev),
		" max ", caps.Reported, " sinks ", caps.SinkCount)
	return nil
}

func (l *Link) features() phy.Features {
	if l.PHY == nil {
		return phy.Features{}
	}
	return l.PHY.Features()
}

// trainingPattern is the equalization pattern of this source and sink.
func (l *Link) trainingPattern() dpcd.TrainingPattern {
	if l.Caps == nil {
		return dpcd.TPS2
	}
	return l.Caps.TrainingPattern(l.features())
}

func (l *Link) rev() uint8 {
	if l.Caps == nil {
		return 0
	}
	return l.Caps.Rev
}

// EnablePHY powers the transmitter at s, making it the current setting.
func (l *Link) EnablePHY(s Setting) error {
	l.Current = s
	return l.PHY.Enable(s.Rate, s.Lanes, s.Spread)
}

// DisablePHY powers the transmitter down and forgets the current setting.
func (l *Link) DisablePHY() error {
	l.Current = Setting{}
	return l.PHY.Disable()
}

// MaxLinkCap is the source encoder's limit lowered to the sink's
// reported capabilities.
func (l *Link) MaxLinkCap() Setting {
	f := l.features()
	s := Setting{
		Lanes:  dpcd.LanesFour,
		Rate:   dpcd.HBR,
		Spread: dpcd.Spread05_30KHz,
	}
	if f.HBR2 {
		s.Rate = dpcd.HBR2
	}
	if f.HBR3 {
		s.Rate = dpcd.HBR3
	}
	if l.Caps == nil {
		return s
	}
	r := l.Caps.Reported
	if r.Lanes < s.Lanes {
		s.Lanes = r.Lanes
	}
	if r.Rate < s.Rate {
		s.Rate = r.Rate
	}
	if r.Spread < s.Spread {
		s.Spread = r.Spread
	}
	return s
}

// LinkCap is the preferred setting when pinned, else the verified one.
func (l *Link) LinkCap() Setting {
	if l.Preferred.Known() {
		return l.Preferred
	}
	return l.Verified
}

func (l *Link) write(addr dpcd.Addr, b ...byte) error {
	err := l.AUX.Write(addr, b)
	if err != nil {
		log.Print("err", l, ": write ", addr, ": ", err)
	}
	return err
}

func (l *Link) read(addr dpcd.Addr, b []byte) error {
	err := l.AUX.Read(addr, b)
	if err != nil {
		log.Print("err", l, ": read ", addr, ": ", err)
	}
	return err
}
