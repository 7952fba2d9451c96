// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
)

// Synchronous link training lets a caller step through configurations
// with its own overrides while the sink stays powered:
//
//	l.SyncBegin()
//	for _, s := range candidates {
//		if l.SyncAttempt(s, o) == link.Success {
//			break
//		}
//	}
//	l.SyncEnd(false)

// SyncBegin starts synchronous training and drops the preferred setting
// and overrides.
func (l *Link) SyncBegin() {
	l.SyncInProgress = true
	l.PreferredOverrides = Overrides{}
	l.Preferred = Setting{}
}

// SyncAttempt power cycles the transmitter at s and trains with o. The
// lanes are left on the training pattern.
func (l *Link) SyncAttempt(s Setting, o Overrides) Result {
	sess := l.newSession(s, o)

	if o.MSTEnable.Set {
		var b byte
		if o.MSTEnable.V {
			b = dpcd.MSTEn
		}
		l.write(dpcd.MSTMCtrl, b)
	}

	if err := l.DisablePHY(); err != nil {
		log.Print("err", l, ": phy disable: ", err)
	}
	if err := l.EnablePHY(s); err != nil {
		log.Print("err", l, ": phy enable ", s, ": ", err)
	}

	l.SetFECReady(o.FECEnable.Set && o.FECEnable.V)

	m := l.GetPanelMode()
	if o.AltScramblerReset.Set {
		m = PanelModeDefault
		if o.AltScramblerReset.V {
			m = PanelModeEDP
		}
	}
	l.SetPanelMode(m)

	l.setLinkSettings(sess)
	r := l.clockRecovery(sess)
	if r == Success {
		r = l.channelEqualization(sess)
	}
	l.report(sess, r)
	return r
}

// SyncEnd finishes synchronous training, powering the transmitter down
// if linkDown.
func (l *Link) SyncEnd(linkDown bool) {
	if linkDown {
		if err := l.DisablePHY(); err != nil {
			log.Print("err", l, ": phy disable: ", err)
		}
		l.SetFECReady(false)
	}
	l.SyncInProgress = false
}
