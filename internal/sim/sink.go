// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sim simulates the sink, transmitter and clock of a DisplayPort
// link for tests and the dplink command's -sim option.
package sim

import (
	"fmt"
	"sync"

	"github.com/platinasystems/dplink/dpcd"
)

type phase uint8

const (
	phaseIdle phase = iota
	phaseCR
	phaseEQ
	phaseTrained
)

// Write is a recorded AUX write.
type Write struct {
	Addr dpcd.Addr
	Data []byte
}

func (w Write) String() string { return fmt.Sprintf("%v % x", w.Addr, w.Data) }

// Sink is a DPCD register space behind an auxch.Channel that answers link
// training the way the behavior fields say. Registers not written read
// as zero. Outside of training the lane status registers read as set.
type Sink struct {
	mu  sync.Mutex
	mem map[dpcd.Addr]byte

	// Locks returns how many of the lanes achieve clock recovery at
	// rate. Nil locks them all.
	Locks func(rate dpcd.LinkRate, lanes dpcd.LaneCount) int
	// EQ reports whether equalization completes at rate. Nil always
	// completes.
	EQ func(rate dpcd.LinkRate, lanes dpcd.LaneCount) bool
	// RequiredSwing is the lowest voltage swing that locks a lane.
	RequiredSwing dpcd.VoltageSwing
	// EQPolls is the number of status reads of equalization before it
	// completes.
	EQPolls int
	// DropCRInEQ loses clock recovery once equalization starts.
	DropCRInEQ bool
	// PostAdjustPolls is the number of status reads after training
	// with the post adjust request in progress; negative never ends.
	PostAdjustPolls int
	// PostAdjust is the drive requested while adjusting, if set.
	PostAdjust *dpcd.LaneSetting
	// PostAdjustLoseEQ drops equalization while adjusting.
	PostAdjustLoseEQ bool
	// LinkLost clears lane 0 equalization of a trained link until the
	// next training.
	LinkLost bool
	// Fail, if set, may fail a transaction at addr.
	Fail func(write bool, addr dpcd.Addr) error

	// Reads counts transactions by start address.
	Reads map[dpcd.Addr]int
	// CRReads, EQReads and PostAdjustReads count the lane status
	// polls of each training phase.
	CRReads, EQReads, PostAdjustReads int

	Writes []Write

	phase     phase
	eqPolls   int
	postPolls int
}

// NewSink is a single stream sink of DPCD revision rev.
func NewSink(rev uint8, rate dpcd.LinkRate, lanes dpcd.LaneCount) *Sink {
	s := &Sink{
		mem:   make(map[dpcd.Addr]byte),
		Reads: make(map[dpcd.Addr]int),
	}
	s.Set(dpcd.Rev, rev, byte(rate),
		byte(lanes)|dpcd.EnhancedFrameCap,
		dpcd.MaxDownspread05)
	s.Set(dpcd.SinkCount, 1)
	s.Set(dpcd.SetPower, dpcd.SetPowerD0)
	return s
}

// Set stores b beginning at addr.
func (s *Sink) Set(addr dpcd.Addr, b ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range b {
		s.mem[addr+dpcd.Addr(i)] = v
	}
}

// Get returns the stored register at addr.
func (s *Sink) Get(addr dpcd.Addr) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem[addr]
}

// Or sets bits of the register at addr.
func (s *Sink) Or(addr dpcd.Addr, bits byte) {
	s.Set(addr, s.Get(addr)|bits)
}

// SetEDPRates writes the eDP supported link rate table, in kHz.
func (s *Sink) SetEDPRates(khz ...uint32) {
	b := make([]byte, dpcd.SupportedLinkRatesSize)
	for i, v := range khz {
		v /= 200
		b[2*i] = byte(v)
		b[2*i+1] = byte(v >> 8)
	}
	s.Set(dpcd.SupportedLinkRates, b...)
}

// Trained reports whether the last training completed equalization and
// returned to video idle.
func (s *Sink) Trained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phaseTrained
}

// WritesTo returns the recorded writes at addr.
func (s *Sink) WritesTo(addr dpcd.Addr) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var w [][]byte
	for _, x := range s.Writes {
		if x.Addr == addr {
			w = append(w, x.Data)
		}
	}
	return w
}

func (s *Sink) Read(addr dpcd.Addr, buf []byte) error {
	if s.Fail != nil {
		if err := s.Fail(false, addr); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads[addr]++
	if addr == dpcd.Lane01Status {
		s.polled()
	}
	for i := range buf {
		buf[i] = s.byteAt(addr + dpcd.Addr(i))
	}
	return nil
}

func (s *Sink) Write(addr dpcd.Addr, buf []byte) error {
	if s.Fail != nil {
		if err := s.Fail(true, addr); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writes = append(s.Writes, Write{addr, append([]byte(nil), buf...)})
	for i, v := range buf {
		a := addr + dpcd.Addr(i)
		switch a {
		case dpcd.DeviceServiceIRQVector, dpcd.DeviceServiceIRQVectorESI0:
			// write one to clear
			s.mem[dpcd.DeviceServiceIRQVector] &^= v
			continue
		}
		s.mem[a] = v
		if a == dpcd.TrainingPatternSet {
			s.pattern(v & dpcd.TrainingPatternMask14)
		}
	}
	return nil
}

func (s *Sink) pattern(code byte) {
	switch code {
	case 0:
		if s.phase == phaseEQ && s.eqDone() {
			s.phase = phaseTrained
			s.postPolls = 0
		} else if s.phase != phaseTrained {
			s.phase = phaseIdle
		}
	case 1:
		s.phase = phaseCR
		s.LinkLost = false
	case 2, 3, 7:
		if s.phase != phaseEQ {
			s.eqPolls = 0
		}
		s.phase = phaseEQ
	}
}

func (s *Sink) lanes() dpcd.LaneCount {
	return dpcd.LaneCount(s.mem[dpcd.LaneCountSet] & dpcd.LaneCountSetMask)
}

// rate is LINK_BW_SET or the eDP table entry LINK_RATE_SET selects.
func (s *Sink) rate() dpcd.LinkRate {
	if r := s.mem[dpcd.LinkBWSet]; r != 0 {
		return dpcd.LinkRate(r)
	}
	i := dpcd.Addr(s.mem[dpcd.LinkRateSet])
	v := uint32(s.mem[dpcd.SupportedLinkRates+2*i+1])<<8 |
		uint32(s.mem[dpcd.SupportedLinkRates+2*i])
	return dpcd.RateFromKHz(v * 200)
}

func (s *Sink) drive(lane int) dpcd.LaneSetting {
	return dpcd.LaneSettingFromByte(s.mem[dpcd.TrainingLane0Set+
		dpcd.Addr(lane)])
}

func (s *Sink) locked() int {
	n := int(s.lanes())
	if s.Locks != nil {
		if l := s.Locks(s.rate(), s.lanes()); l < n {
			n = l
		}
	}
	return n
}

func (s *Sink) eqDone() bool {
	if s.EQ != nil && !s.EQ(s.rate(), s.lanes()) {
		return false
	}
	return s.eqPolls > s.EQPolls
}

func (s *Sink) postAdjusting() bool {
	if s.PostAdjustPolls == 0 ||
		s.mem[dpcd.LaneCountSet]&dpcd.PostLTAdjReqGranted == 0 {
		return false
	}
	return s.PostAdjustPolls < 0 || s.postPolls <= s.PostAdjustPolls
}

// polled advances the training state on a lane status read.
func (s *Sink) polled() {
	switch s.phase {
	case phaseCR:
		s.CRReads++
	case phaseEQ:
		s.EQReads++
		s.eqPolls++
	case phaseTrained:
		s.postPolls++
		if s.postAdjusting() {
			s.PostAdjustReads++
		}
	}
}

// status returns the lane status nibble and drive request of lane i.
func (s *Sink) status(i int) (byte, dpcd.LaneSetting) {
	cur := s.drive(i)
	if i >= int(s.lanes()) {
		return 0, cur
	}
	const done = dpcd.LaneCRDone | dpcd.LaneChannelEQDone |
		dpcd.LaneSymbolLocked
	switch s.phase {
	case phaseCR:
		if i < s.locked() && cur.VoltageSwing >= s.RequiredSwing {
			return dpcd.LaneCRDone, cur
		}
		req := cur
		if req.VoltageSwing < dpcd.MaxVoltageSwing {
			req.VoltageSwing++
		}
		if pe := dpcd.MaxPreEmphasis(req.VoltageSwing); req.PreEmphasis > pe {
			req.PreEmphasis = pe
		}
		return 0, req
	case phaseEQ:
		if s.DropCRInEQ || i >= s.locked() {
			return 0, cur
		}
		if s.eqDone() {
			return done, cur
		}
		return dpcd.LaneCRDone, cur
	case phaseTrained:
		st := byte(done)
		if i == 0 && s.LinkLost {
			st &^= dpcd.LaneChannelEQDone
		}
		if s.postAdjusting() {
			if s.PostAdjustLoseEQ {
				st &^= dpcd.LaneChannelEQDone
			}
			if s.PostAdjust != nil {
				return st, *s.PostAdjust
			}
		}
		return st, cur
	}
	return 0, cur
}

func (s *Sink) align() byte {
	var b byte
	switch s.phase {
	case phaseEQ:
		if !s.DropCRInEQ && s.locked() == int(s.lanes()) && s.eqDone() {
			b |= dpcd.InterlaneAlignDone
		}
	case phaseTrained:
		b |= dpcd.InterlaneAlignDone
		if s.postAdjusting() {
			b |= dpcd.PostLTAdjReqInProgress
		}
	}
	return b
}

func adjustNibble(ls dpcd.LaneSetting) byte {
	vs := byte(ls.VoltageSwing) & dpcd.AdjustVoltageSwingMask
	pe := byte(ls.PreEmphasis) << dpcd.AdjustPreEmphasisShift
	return vs | pe&dpcd.AdjustPreEmphasisMask
}

func (s *Sink) byteAt(a dpcd.Addr) byte {
	pair := func(f func(i int) byte, first int) byte {
		return f(first) | f(first+1)<<4
	}
	st := func(i int) byte {
		b, _ := s.status(i)
		return b
	}
	adj := func(i int) byte {
		_, r := s.status(i)
		return adjustNibble(r)
	}
	switch a {
	case dpcd.SinkCountESI:
		return s.mem[dpcd.SinkCount]
	case dpcd.DeviceServiceIRQVectorESI0:
		return s.mem[dpcd.DeviceServiceIRQVector]
	}
	if s.phase == phaseIdle {
		return s.mem[a]
	}
	switch a {
	case dpcd.Lane01Status, dpcd.Lane01StatusESI:
		return pair(st, 0)
	case dpcd.Lane23Status, dpcd.Lane23StatusESI:
		return pair(st, 2)
	case dpcd.LaneAlignStatusUpdated, dpcd.LaneAlignStatusUpdatedESI:
		return s.align()
	case dpcd.AdjustRequestLane01:
		return pair(adj, 0)
	case dpcd.AdjustRequestLane23:
		return pair(adj, 2)
	}
	return s.mem[a]
}
