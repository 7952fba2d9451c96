// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package sim

import "time"

// Clock is a delay.Timer that only keeps time.
type Clock struct {
	Elapsed time.Duration
	// Udelays and Msleeps record each wait.
	Udelays []uint32
	Msleeps []uint32
}

func (c *Clock) Udelay(us uint32) {
	c.Udelays = append(c.Udelays, us)
	c.Elapsed += time.Duration(us) * time.Microsecond
}

func (c *Clock) Msleep(ms uint32) {
	c.Msleeps = append(c.Msleeps, ms)
	c.Elapsed += time.Duration(ms) * time.Millisecond
}
