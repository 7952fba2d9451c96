// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dpcd

import "fmt"

type VoltageSwing uint8

const (
	VS0 VoltageSwing = iota
	VS1
	VS2
	VS3
	MaxVoltageSwing = VS3
)

type PreEmphasis uint8

const (
	PE0 PreEmphasis = iota
	PE1
	PE2
	PE3
	MaxPreEmphasisLevel = PE3
)

// PostCursor2 is the DP 1.2 post cursor 2 level of a lane, 0 through 3.
type PostCursor2 uint8

const MaxPostCursor2 PostCursor2 = 3

// MaxPreEmphasis is the highest pre-emphasis a transmitter may combine
// with swing level vs; the sum of both levels never exceeds 3.
func MaxPreEmphasis(vs VoltageSwing) PreEmphasis {
	if vs > MaxVoltageSwing {
		return PE0
	}
	return PreEmphasis(MaxVoltageSwing - vs)
}

// LaneSetting is the analog drive of one lane.
type LaneSetting struct {
	VoltageSwing VoltageSwing
	PreEmphasis  PreEmphasis
	PostCursor2  PostCursor2
}

func (l LaneSetting) String() string {
	return fmt.Sprintf("VS=%d, PE=%d", l.VoltageSwing, l.PreEmphasis)
}

// Byte encodes l as TRAINING_LANEx_SET.
func (l LaneSetting) Byte() byte {
	b := byte(l.VoltageSwing) & TrainVoltageSwingMask
	b |= (byte(l.PreEmphasis) << TrainPreEmphasisShift) &
		TrainPreEmphasisMask
	if l.VoltageSwing == MaxVoltageSwing {
		b |= TrainMaxSwingReached
	}
	if l.PreEmphasis == MaxPreEmphasisLevel {
		b |= TrainMaxPreEmphasisReached
	}
	return b
}

// LaneSettingFromByte decodes TRAINING_LANEx_SET.
func LaneSettingFromByte(b byte) LaneSetting {
	return LaneSetting{
		VoltageSwing: VoltageSwing(b & TrainVoltageSwingMask),
		PreEmphasis: PreEmphasis((b & TrainPreEmphasisMask) >>
			TrainPreEmphasisShift),
	}
}

// LaneSettings holds the drive of every lane, indexed by lane.
type LaneSettings [MaxLanes]LaneSetting

// Bytes encodes the first n lanes as consecutive TRAINING_LANEx_SET.
func (ls *LaneSettings) Bytes(n LaneCount) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ls[i].Byte()
	}
	return b
}

// LaneStatus is one lane's nibble of LANEx_y_STATUS.
type LaneStatus uint8

func (s LaneStatus) CRDone() bool       { return s&LaneCRDone != 0 }
func (s LaneStatus) EQDone() bool       { return s&LaneChannelEQDone != 0 }
func (s LaneStatus) SymbolLocked() bool { return s&LaneSymbolLocked != 0 }

func (s LaneStatus) String() string {
	return fmt.Sprintf("cr=%t eq=%t sym=%t", s.CRDone(), s.EQDone(),
		s.SymbolLocked())
}

// Status is the block read from LANE0_1_STATUS through
// ADJUST_REQUEST_LANE2_3 after each training iteration.
type Status [LaneStatusAndAdjustSize]byte

const (
	statusLane01 = iota
	statusLane23
	statusAlign
	statusSink
	statusAdjust01
	statusAdjust23
)

// Lane returns the status nibble of lane i.
func (s *Status) Lane(i int) LaneStatus {
	return LaneStatus(Nibble(s[statusLane01:statusAlign], i))
}

func (s *Status) Align() byte { return s[statusAlign] }

// InterlaneAligned reports INTERLANE_ALIGN_DONE.
func (s *Status) InterlaneAligned() bool {
	return s[statusAlign]&InterlaneAlignDone != 0
}

// PostLTAdjustInProgress reports POST_LT_ADJ_REQ_IN_PROGRESS.
func (s *Status) PostLTAdjustInProgress() bool {
	return s[statusAlign]&PostLTAdjReqInProgress != 0
}

// Adjust returns the drive the sink requests for lane i.
func (s *Status) Adjust(i int) LaneSetting {
	n := Nibble(s[statusAdjust01:], i)
	return LaneSetting{
		VoltageSwing: VoltageSwing(n & AdjustVoltageSwingMask),
		PreEmphasis: PreEmphasis((n & AdjustPreEmphasisMask) >>
			AdjustPreEmphasisShift),
	}
}

// CRDone reports whether every one of the first n lanes has clock
// recovery done.
func (s *Status) CRDone(n LaneCount) bool {
	for i := 0; i < int(n); i++ {
		if !s.Lane(i).CRDone() {
			return false
		}
	}
	return true
}

// EQDone reports whether the first n lanes have channel equalization and
// symbol lock and the lanes are aligned.
func (s *Status) EQDone(n LaneCount) bool {
	if !s.InterlaneAligned() {
		return false
	}
	for i := 0; i < int(n); i++ {
		l := s.Lane(i)
		if !l.EQDone() || !l.SymbolLocked() {
			return false
		}
	}
	return true
}

// PostCursor2Request decodes ADJUST_REQUEST_POST_CURSOR2, two bits per
// lane.
func PostCursor2Request(b byte, lane int) PostCursor2 {
	return PostCursor2((b >> (2 * uint(lane))) & 0x3)
}
