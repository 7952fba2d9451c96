// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
)

// FEC settle time after training, in microseconds; 1000 link layer
// symbols at 1 lane RBR take 6.173us.
const FECEnableDelay = 7

func (l *Link) fecCapable() bool {
	return !l.DisableFEC && l.Caps != nil && l.Caps.FEC &&
		l.features().FEC
}

// SetFECReady tells both ends that forward error correction will follow
// training.
func (l *Link) SetFECReady(ready bool) {
	if !l.fecCapable() {
		return
	}
	if ready {
		err := l.AUX.Write(dpcd.FECConfiguration, []byte{dpcd.FECReady})
		if err == nil {
			l.phyFECReady(true)
			l.fec = fecReady
		} else {
			l.phyFECReady(false)
			l.fec = fecNotReady
			log.Print("err", l, ": fec ready: ", err)
		}
	} else if l.fec == fecReady {
		l.write(dpcd.FECConfiguration, 0)
		l.phyFECReady(false)
		l.fec = fecNotReady
	}
}

// SetFECEnable starts or stops forward error correction of a trained
// link.
func (l *Link) SetFECEnable(enable bool) {
	if !l.fecCapable() {
		return
	}
	if l.fec == fecReady && enable {
		l.Timer.Udelay(FECEnableDelay)
		if err := l.PHY.FECEnable(true); err != nil {
			log.Print("err", l, ": fec enable: ", err)
		}
		l.fec = fecEnabled
	} else if l.fec == fecEnabled && !enable {
		if err := l.PHY.FECEnable(false); err != nil {
			log.Print("err", l, ": fec disable: ", err)
		}
		l.fec = fecReady
	}
}

// FECEnabled reports whether the link is running with FEC.
func (l *Link) FECEnabled() bool { return l.fec == fecEnabled }

func (l *Link) phyFECReady(ready bool) {
	if err := l.PHY.FECReady(ready); err != nil {
		log.Print("err", l, ": phy fec ready: ", err)
	}
}
