// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
)

// Delays of capability verification.
const (
	// LinkLossCheckDelay precedes the IRQ read after a training
	// success, in microseconds.
	LinkLossCheckDelay = 1000
	// VerifyRetryDelay separates VerifyLinkCapWithRetries attempts, in
	// milliseconds.
	VerifyRetryDelay = 10
)

// VerifyLinkCap trains downward from the common maximum of known and the
// source and sink limits until a configuration succeeds, leaving it as
// the Verified setting. Failures, and links lost right after training,
// are counted in fails. If nothing trains Verified is the SafeFloor.
func (l *Link) VerifyLinkCap(known Setting) (ok bool, fails int) {
	if l.SkipDetectionTraining {
		l.Verified = known
		return true, 0
	}

	l.disablePHY()

	initial := CommonSupported(known, l.MaxLinkCap())
	cur := initial
	var r Result
	for {
		skipVideoIdle := cur.Rate != dpcd.RBR
		if err := l.EnablePHY(cur); err != nil {
			log.Print("err", l, ": phy enable ", cur, ": ", err)
		}
		r = l.Train(cur, skipVideoIdle)
		if r == Success {
			ok = true
		} else {
			fails++
		}
		if ok {
			l.Verified = cur
			l.Timer.Udelay(LinkLossCheckDelay)
			irq, err := l.ReadIRQData()
			if err == nil && l.linkLost(&irq) {
				fails++
			}
		}
		l.disablePHY()
		if ok || !DecideFallback(initial, &cur, r) {
			break
		}
	}
	if !ok {
		l.Verified = SafeFloor
	}
	log.Print("info", l, ": verified ", l.Verified, " fails ", fails)
	return ok, fails
}

// VerifyLinkCapWithRetries repeats verification at the reported
// capabilities until one runs without a failure.
func (l *Link) VerifyLinkCapWithRetries(attempts int) bool {
	for i := 0; i < attempts; i++ {
		l.Verified = Setting{}
		if l.Caps == nil {
			break
		}
		ok, fails := l.VerifyLinkCap(l.Caps.Reported)
		if ok && fails == 0 {
			return true
		}
		l.Timer.Msleep(VerifyRetryDelay)
	}
	return false
}

func (l *Link) disablePHY() {
	if err := l.DisablePHY(); err != nil {
		log.Print("err", l, ": phy disable: ", err)
	}
}
