// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dpcd describes the DisplayPort Configuration Data register space
// of a sink as seen over the AUX channel.
//
// Offsets and bit positions are those published by VESA; they are part of
// the wire protocol and must not be rearranged.
package dpcd

import "fmt"

// Addr is a DPCD register address (20 bits).
type Addr uint32

// Receiver capability field.
const (
	Rev                    Addr = 0x000
	MaxLinkRate            Addr = 0x001
	MaxLaneCount           Addr = 0x002
	MaxDownspread          Addr = 0x003
	NorpDPPwrVoltageCap    Addr = 0x004
	DownstreamPortPresent  Addr = 0x005
	MainLinkChannelCoding  Addr = 0x006
	DownStreamPortCount    Addr = 0x007
	ReceivePort0Cap0       Addr = 0x008
	EDPConfigurationCap    Addr = 0x00d
	TrainingAuxRdInterval  Addr = 0x00e
	AdapterCap             Addr = 0x00f
	SupportedLinkRates     Addr = 0x010
	MSTMCap                Addr = 0x021
	DownstreamPort0        Addr = 0x080
	FECCapability          Addr = 0x090
	DP13Rev                Addr = 0x2200
	DPRXFeatureEnumeration Addr = 0x2210
)

// Transfer sizes of multi-byte fields.
const (
	ReceiverCapSize             = int(AdapterCap-Rev) + 1
	SupportedLinkRatesSize      = 16
	DownstreamPortCapsSize      = 16
	ExtendedReceiverCapSize     = 16
	CustomPattern80BitSize      = 10
	LinkQualLaneSetSize         = 4
	DeviceIdentificationSize    = 9
	DeviceRevisionSize          = 3
	TrainingPatternAndLanesSize = 5
	LaneStatusAndAdjustSize     = 6
	IRQVectorLegacySize         = 6
	IRQVectorESISize            = int(SinkStatusESI-SinkCountESI) + 1
)

// Link configuration field.
const (
	LinkBWSet              Addr = 0x100
	LaneCountSet           Addr = 0x101
	TrainingPatternSet     Addr = 0x102
	TrainingLane0Set       Addr = 0x103
	TrainingLane1Set       Addr = 0x104
	TrainingLane2Set       Addr = 0x105
	TrainingLane3Set       Addr = 0x106
	DownspreadCtrl         Addr = 0x107
	MainLinkChannelCodeSet Addr = 0x108
	EDPConfigurationSet    Addr = 0x10a
	LinkQualLane0Set       Addr = 0x10b
	MSTMCtrl               Addr = 0x111
	LinkRateSet            Addr = 0x115
	FECConfiguration       Addr = 0x120
)

// Link/sink device status field.
const (
	SinkCount                  Addr = 0x200
	DeviceServiceIRQVector     Addr = 0x201
	Lane01Status               Addr = 0x202
	Lane23Status               Addr = 0x203
	LaneAlignStatusUpdated     Addr = 0x204
	SinkStatus                 Addr = 0x205
	AdjustRequestLane01        Addr = 0x206
	AdjustRequestLane23        Addr = 0x207
	AdjustRequestPostCursor2   Addr = 0x20c
	TestRequest                Addr = 0x218
	TestLinkRate               Addr = 0x219
	TestLaneCount              Addr = 0x220
	TestPattern                Addr = 0x221
	TestMisc0                  Addr = 0x232
	TestPHYPattern             Addr = 0x248
	Test80BitCustomPattern     Addr = 0x250
	TestResponse               Addr = 0x260
	SinkOUI                    Addr = 0x400
	SinkHWRevision             Addr = 0x409
	SinkFWRevision             Addr = 0x40a
	BranchOUI                  Addr = 0x500
	BranchHWRevision           Addr = 0x509
	BranchFWRevision           Addr = 0x50a
	SetPower                   Addr = 0x600
	SinkCountESI               Addr = 0x2002
	DeviceServiceIRQVectorESI0 Addr = 0x2003
	DeviceServiceIRQVectorESI1 Addr = 0x2004
	LinkServiceIRQVectorESI0   Addr = 0x2005
	Lane01StatusESI            Addr = 0x200c
	Lane23StatusESI            Addr = 0x200d
	LaneAlignStatusUpdatedESI  Addr = 0x200e
	SinkStatusESI              Addr = 0x200f
)

// DPCD revisions as reported in byte 0x000.
const (
	Rev10 uint8 = 0x10
	Rev11 uint8 = 0x11
	Rev12 uint8 = 0x12
	Rev13 uint8 = 0x13
	Rev14 uint8 = 0x14
)

// MAX_LANE_COUNT (0x002)
const (
	MaxLaneCountMask      = 0x1f
	PostLTAdjReqSupported = 1 << 5
	TPS3Supported         = 1 << 6
	EnhancedFrameCap      = 1 << 7
)

// MAX_DOWNSPREAD (0x003)
const (
	MaxDownspread05            = 1 << 0
	NoAuxHandshakeLinkTraining = 1 << 6
	TPS4Supported              = 1 << 7
)

// DOWNSTREAMPORT_PRESENT (0x005)
const (
	DwnStrmPortPresent       = 1 << 0
	DwnStrmPortTypeMask      = 0x06
	DwnStrmPortTypeShift     = 1
	DetailedCapInfoAvailable = 1 << 4
)

// Downstream port types of DOWNSTREAMPORT_PRESENT bits 2:1.
const (
	DownstreamDP = iota
	DownstreamVGA
	DownstreamDVIHDMIDPPlusPlus
	DownstreamNonDDC
)

// Detailed port type of DOWNSTREAM_PORT_0 bits 2:0.
const (
	DetailedDP       = iota
	DetailedVGA
	DetailedDVI
	DetailedHDMI
	DetailedNonEDID
	DetailedDPPlusPlus
	DetailedTypeMask = 0x07
)

// DOWN_STREAM_PORT_COUNT (0x007)
const MSATimingParIgnored = 1 << 6

// EDP_CONFIGURATION_CAP (0x00d)
const (
	AlternateScramblerResetCap = 1 << 0
	DPCDDisplayControlCapable  = 1 << 3
)

// TRAINING_AUX_RD_INTERVAL (0x00e)
const (
	TrainingAuxRdMask               = 0x7f
	ExtendedReceiverCapFieldPresent = 1 << 7
)

// MSTM_CAP (0x021)
const MSTCap = 1 << 0

// FEC_CAPABILITY (0x090)
const FECCapable = 1 << 0

// LANE_COUNT_SET (0x101)
const (
	LaneCountSetMask    = 0x1f
	PostLTAdjReqGranted = 1 << 5
	EnhancedFrameEn     = 1 << 7
)

// TRAINING_PATTERN_SET (0x102)
const (
	TrainingPatternMask   = 0x03
	TrainingPatternMask14 = 0x0f
	LinkQualPatternShift  = 2
	LinkQualPatternMask   = 0x03 << LinkQualPatternShift
	LinkScramblingDisable = 1 << 5
)

// TRAINING_LANEx_SET (0x103-0x106)
const (
	TrainVoltageSwingMask      = 0x03
	TrainMaxSwingReached       = 1 << 2
	TrainPreEmphasisShift      = 3
	TrainPreEmphasisMask       = 0x03 << TrainPreEmphasisShift
	TrainMaxPreEmphasisReached = 1 << 5
)

// DOWNSPREAD_CTRL (0x107)
const (
	SpreadAmp            = 1 << 4
	MSATimingParIgnoreEn = 1 << 7
)

// MSTM_CTRL (0x111)
const MSTEn = 1 << 0

// EDP_CONFIGURATION_SET (0x10a)
const AlternateScramblerResetEnable = 1 << 0

// FEC_CONFIGURATION (0x120)
const FECReady = 1 << 0

// SINK_COUNT (0x200)
const (
	SinkCountMask = 0x3f
	SinkCountHigh = 1 << 7
	SinkCPReady   = 1 << 6
)

// DEVICE_SERVICE_IRQ_VECTOR (0x201)
const (
	RemoteControlCommandPending = 1 << 0
	AutomatedTestRequest        = 1 << 1
	CPIRQ                       = 1 << 2
	MCCSIRQ                     = 1 << 3
	DownRepMsgRdy               = 1 << 4
	UpReqMsgRdy                 = 1 << 5
	SinkSpecificIRQ             = 1 << 6
)

// LANEx_y_STATUS nibble (0x202, 0x203)
const (
	LaneCRDone        = 1 << 0
	LaneChannelEQDone = 1 << 1
	LaneSymbolLocked  = 1 << 2
	LaneInterlaneMask = LaneCRDone | LaneChannelEQDone | LaneSymbolLocked
)

// LANE_ALIGN_STATUS_UPDATED (0x204)
const (
	InterlaneAlignDone          = 1 << 0
	PostLTAdjReqInProgress      = 1 << 1
	DownstreamPortStatusChanged = 1 << 6
	LinkStatusUpdated           = 1 << 7
)

// ADJUST_REQUEST_LANEx_y nibble (0x206, 0x207)
const (
	AdjustVoltageSwingMask = 0x03
	AdjustPreEmphasisShift = 2
	AdjustPreEmphasisMask  = 0x03 << AdjustPreEmphasisShift
)

// TEST_REQUEST (0x218)
const (
	TestLinkTraining     = 1 << 0
	TestLinkVideoPattern = 1 << 1
	TestLinkEDIDRead     = 1 << 2
	TestLinkPHYPattern   = 1 << 3
	TestLinkFAUXPattern  = 1 << 4
)

// TEST_MISC0 (0x232)
const (
	TestDynamicRangeCEA = 1 << 3
)

// TEST_PHY_PATTERN (0x248)
const TestPHYPatternMask = 0x07

// TEST_RESPONSE (0x260)
const (
	TestAck = 1 << 0
	TestNak = 1 << 1
)

// SET_POWER (0x600)
const (
	SetPowerD0   = 0x1
	SetPowerD3   = 0x2
	SetPowerMask = 0x7
)

func (a Addr) String() string { return fmt.Sprintf("%05xh", uint32(a)) }

// Nibble returns the 4-bit field of lane i packed two lanes per byte, lane
// 0 in the low nibble.
func Nibble(buf []byte, i int) uint8 {
	b := buf[i/2]
	if i%2 != 0 {
		return b >> 4
	}
	return b & 0x0f
}

// SetNibble is the inverse of Nibble.
func SetNibble(buf []byte, i int, v uint8) {
	if i%2 != 0 {
		buf[i/2] = buf[i/2]&0x0f | (v&0x0f)<<4
	} else {
		buf[i/2] = buf[i/2]&0xf0 | v&0x0f
	}
}
