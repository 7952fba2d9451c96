// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package link

import (
	"fmt"

	"github.com/platinasystems/dplink/auxch"
	"github.com/platinasystems/dplink/dpcd"
	"github.com/platinasystems/log"
)

// LinkTrainingAttempts bounds retraining after a link loss.
const LinkTrainingAttempts = 4

// ReadIRQData reads the sink status a short pulse reports, from the event
// status indicators of DPCD 1.4 sinks and the legacy block otherwise.
func (l *Link) ReadIRQData() (dpcd.IRQData, error) {
	if l.rev() < dpcd.Rev14 {
		b := make([]byte, dpcd.IRQVectorLegacySize)
		if err := l.AUX.Read(dpcd.SinkCount, b); err != nil {
			return dpcd.IRQData{}, err
		}
		return dpcd.ParseIRQ(b)
	}
	b := make([]byte, dpcd.IRQVectorESISize)
	if err := l.AUX.Read(dpcd.SinkCountESI, b); err != nil {
		return dpcd.IRQData{}, err
	}
	return dpcd.ParseIRQESI(b)
}

// linkLost reports whether irq shows an active lane out of lock or the
// lanes unaligned while the sink is powered.
func (l *Link) linkLost(irq *dpcd.IRQData) bool {
	if l.Current.Lanes == dpcd.LanesUnknown {
		return false
	}
	if irq.LinkOK(l.Current.Lanes) {
		return false
	}
	log.Print(l, ": link status changed: ", irq)
	pwr, err := auxch.ReadByte(l.AUX, dpcd.SetPower)
	if err != nil {
		log.Print(l, ": power state: ", err)
		return true
	}
	return pwr == dpcd.SetPowerD0
}

// activeDongle is a branch device converting to another protocol.
func (l *Link) activeDongle() bool {
	return l.Caps != nil && l.Caps.Dongle != NoDongle
}

// irqAllowed is whether a short pulse concerns this link: it is trained
// or drives a converter.
func (l *Link) irqAllowed() bool {
	return l.Current.Lanes != dpcd.LanesUnknown || l.activeDongle()
}

// HandleShortPulseIRQ services a short HPD pulse. It retrains a lost link
// and runs compliance tests. handled is true when the caller has more to
// do: re-detect a branch whose sink count changed or service an MST up
// request.
func (l *Link) HandleShortPulseIRQ() (handled, linkLoss bool,
	irq dpcd.IRQData) {
	irq, err := l.ReadIRQData()
	if err != nil {
		log.Print("warn", l, ": irq data: ", err)
		return false, false, irq
	}

	if irq.AutomatedTest() {
		l.write(dpcd.DeviceServiceIRQVector, dpcd.AutomatedTestRequest)
		l.HandleAutomatedTest()
		return false, false, irq
	}

	if !l.irqAllowed() {
		return false, false, irq
	}
	if irq.UpRequestReady() {
		return true, false, irq
	}
	if irq.DownReplyReady() {
		return false, false, irq
	}

	if l.linkLost(&irq) {
		prev := l.Current
		log.Print("warn", l, ": link lost, retraining at ", prev)
		l.TrainWithRetries(prev, true, LinkTrainingAttempts)
		linkLoss = true
	}

	if l.activeDongle() && l.Caps.Branch &&
		irq.Sinks() != l.Caps.SinkCount {
		log.Print("info", l, ": sink count ", l.Caps.SinkCount, " to ",
			irq.Sinks())
		handled = true
	}
	return handled, linkLoss, irq
}

// Describe summarizes a short pulse for diagnostics.
func Describe(irq dpcd.IRQData) string {
	return fmt.Sprintf("sinks %d test %t up %t down %t: %v",
		irq.Sinks(), irq.AutomatedTest(), irq.UpRequestReady(),
		irq.DownReplyReady(), irq)
}
