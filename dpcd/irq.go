// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dpcd

import "fmt"

// IRQData is the part of the sink status a short pulse handler needs,
// decoded from either the DPCD 1.0 block at SINK_COUNT or the event status
// indicator block of DPCD 1.4 and later.
type IRQData struct {
	SinkCount        byte
	DeviceServiceIRQ byte
	Lane01Status     byte
	Lane23Status     byte
	LaneAlign        byte
	SinkStatus       byte
	// Raw is the block as read.
	Raw []byte
}

// ParseIRQ decodes a block read at SinkCount.
func ParseIRQ(b []byte) (IRQData, error) {
	if len(b) < IRQVectorLegacySize {
		return IRQData{}, fmt.Errorf("irq block: short %d", len(b))
	}
	return IRQData{
		SinkCount:        b[SinkCount-SinkCount],
		DeviceServiceIRQ: b[DeviceServiceIRQVector-SinkCount],
		Lane01Status:     b[Lane01Status-SinkCount],
		Lane23Status:     b[Lane23Status-SinkCount],
		LaneAlign:        b[LaneAlignStatusUpdated-SinkCount],
		SinkStatus:       b[SinkStatus-SinkCount],
		Raw:              b,
	}, nil
}

// ParseIRQESI decodes a block read at SinkCountESI.
func ParseIRQESI(b []byte) (IRQData, error) {
	if len(b) < IRQVectorESISize {
		return IRQData{}, fmt.Errorf("esi block: short %d", len(b))
	}
	return IRQData{
		SinkCount:        b[SinkCountESI-SinkCountESI],
		DeviceServiceIRQ: b[DeviceServiceIRQVectorESI0-SinkCountESI],
		Lane01Status:     b[Lane01StatusESI-SinkCountESI],
		Lane23Status:     b[Lane23StatusESI-SinkCountESI],
		LaneAlign:        b[LaneAlignStatusUpdatedESI-SinkCountESI],
		SinkStatus:       b[SinkStatusESI-SinkCountESI],
		Raw:              b,
	}, nil
}

// Lane returns the status nibble of lane i.
func (d *IRQData) Lane(i int) LaneStatus {
	return LaneStatus(Nibble([]byte{d.Lane01Status, d.Lane23Status}, i))
}

func (d *IRQData) InterlaneAligned() bool {
	return d.LaneAlign&InterlaneAlignDone != 0
}

// Sinks is the SINK_COUNT field.
func (d *IRQData) Sinks() uint8 { return d.SinkCount & SinkCountMask }

func (d *IRQData) AutomatedTest() bool {
	return d.DeviceServiceIRQ&AutomatedTestRequest != 0
}

func (d *IRQData) UpRequestReady() bool {
	return d.DeviceServiceIRQ&UpReqMsgRdy != 0
}

func (d *IRQData) DownReplyReady() bool {
	return d.DeviceServiceIRQ&DownRepMsgRdy != 0
}

// LinkOK reports whether the first n lanes are still locked and aligned.
func (d *IRQData) LinkOK(n LaneCount) bool {
	for i := 0; i < int(n); i++ {
		s := d.Lane(i)
		if !s.CRDone() || !s.EQDone() || !s.SymbolLocked() {
			return false
		}
	}
	return d.InterlaneAligned()
}

func (d IRQData) String() string {
	return fmt.Sprintf("sink_count=%#02x irq=%#02x lane01=%#02x lane23=%#02x align=%#02x sink_status=%#02x",
		d.SinkCount, d.DeviceServiceIRQ, d.Lane01Status,
		d.Lane23Status, d.LaneAlign, d.SinkStatus)
}
