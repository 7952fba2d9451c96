// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
)

// PanelMode selects the scrambler reset of the main link.
type PanelMode uint8

const (
	PanelModeDefault PanelMode = iota
	PanelModeEDP
	// PanelModeSpecial is the alternate scrambler reset required by
	// some VGA and LVDS converters.
	PanelModeSpecial
)

func (m PanelMode) String() string {
	switch m {
	case PanelModeDefault:
		return "default"
	case PanelModeEDP:
		return "eDP"
	case PanelModeSpecial:
		return "special"
	}
	return fmt.Sprintf("panel mode(%d)", uint8(m))
}

// Converters that need the alternate scrambler reset without saying so.
var specialPanelBranches = []struct {
	oui  uint32
	name string
}{
	{0x0022b9, "sivarT"},
	{0x00001a, "dnomlA"},
}

// GetPanelMode is the scrambler reset the sink expects.
func (l *Link) GetPanelMode() PanelMode {
	if l.Caps == nil {
		return PanelModeDefault
	}
	if l.EDP {
		for _, b := range specialPanelBranches {
			if l.Caps.BranchID.OUI == b.oui &&
				string(l.Caps.BranchID.DeviceID[:]) == b.name {
				return PanelModeSpecial
			}
		}
	}
	if l.Caps.PanelModeEDP {
		return PanelModeEDP
	}
	return PanelModeDefault
}

// SetPanelMode writes the alternate scrambler reset enable of m into the
// sink if it differs.
func (l *Link) SetPanelMode(m PanelMode) {
	if m == PanelModeDefault {
		return
	}
	want := m == PanelModeEDP || m == PanelModeSpecial
	var b [1]byte
	l.read(dpcd.EDPConfigurationSet, b[:])
	if (b[0]&dpcd.AlternateScramblerResetEnable != 0) != want {
		b[0] &^= dpcd.AlternateScramblerResetEnable
		if want {
			b[0] |= dpcd.AlternateScramblerResetEnable
		}
		l.write(dpcd.EDPConfigurationSet, b[0])
	}
	log.Print(l, ": panel mode ", m)
}
