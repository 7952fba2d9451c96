// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import "fmt"

// Result is the terminal outcome of one training attempt.
type Result uint8

const (
	Success Result = iota
	// CRFailLane0 through CRFailLane23 name the first lane that did not
	// achieve clock recovery; lanes 2 and 3 are reported together.
	CRFailLane0
	CRFailLane1
	CRFailLane23
	// EQFailCR is a loss of clock recovery during equalization.
	EQFailCR
	// EQFailEQ is equalization that never completed.
	EQFailEQ
	// LQAFail is a lane regression during post training adjustment.
	LQAFail
)

// Phase of training a Result belongs to.
type Phase uint8

const (
	PhaseDone Phase = iota
	PhaseClockRecovery
	PhaseChannelEqualization
	PhasePostTrainingAdjust
)

func (r Result) String() string {
	switch r {
	case Success:
		return "pass"
	case CRFailLane0:
		return "CR failed lane0"
	case CRFailLane1:
		return "CR failed lane1"
	case CRFailLane23:
		return "CR failed lane23"
	case EQFailCR:
		return "CR failed in EQ"
	case EQFailEQ:
		return "EQ failed"
	case LQAFail:
		return "LQA failed"
	}
	return fmt.Sprintf("result(%d)", uint8(r))
}

func (r Result) Phase() Phase {
	switch r {
	case Success:
		return PhaseDone
	case CRFailLane0, CRFailLane1, CRFailLane23:
		return PhaseClockRecovery
	case EQFailCR, EQFailEQ:
		return PhaseChannelEqualization
	case LQAFail:
		return PhasePostTrainingAdjust
	}
	panic(fmt.Errorf("unknown %v", r))
}

func (p Phase) String() string {
	switch p {
	case PhaseDone:
		return "done"
	case PhaseClockRecovery:
		return "clock recovery"
	case PhaseChannelEqualization:
		return "channel equalization"
	case PhasePostTrainingAdjust:
		return "post training adjust"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}
