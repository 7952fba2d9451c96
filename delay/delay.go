// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package delay provides the blocking waits of link training.
package delay

import "time"

// Timer blocks the caller. Udelay is a microsecond busy wait, Msleep a
// millisecond sleep.
type Timer interface {
	Udelay(us uint32)
	Msleep(ms uint32)
}

// Sleeper is the Timer of the running system.
type Sleeper struct{}

func (Sleeper) Udelay(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (Sleeper) Msleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// For waits d on t, in milliseconds if d is at least one.
func For(t Timer, d time.Duration) {
	if d >= time.Millisecond {
		t.Msleep(uint32(d / time.Millisecond))
	} else if d > 0 {
		t.Udelay(uint32(d / time.Microsecond))
	}
}
