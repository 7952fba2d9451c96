// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package auxch

import (
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/dplink/delay"
	"github.com/platinasystems/dplink/dpcd"
)

const (
	DefaultAttempts   = 7
	DefaultRetryMin   = 400 * time.Microsecond
	DefaultRetryMax   = 16 * time.Millisecond
	DefaultRetryScale = 2
)

// Retry repeats transactions of the wrapped Channel that the sink
// deferred or that timed out, waiting between attempts on Timer.
type Retry struct {
	Channel
	Timer    delay.Timer
	Attempts int
	Min, Max time.Duration
}

// NewRetry wraps ch with the default policy.
func NewRetry(ch Channel, t delay.Timer) *Retry {
	return &Retry{
		Channel:  ch,
		Timer:    t,
		Attempts: DefaultAttempts,
		Min:      DefaultRetryMin,
		Max:      DefaultRetryMax,
	}
}

func (r *Retry) Read(addr dpcd.Addr, buf []byte) error {
	return r.do(func() error { return r.Channel.Read(addr, buf) })
}

func (r *Retry) Write(addr dpcd.Addr, buf []byte) error {
	return r.do(func() error { return r.Channel.Write(addr, buf) })
}

func (r *Retry) do(f func() error) error {
	b := &backoff.Backoff{
		Min:    r.Min,
		Max:    r.Max,
		Factor: DefaultRetryScale,
		Jitter: false,
	}
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil || !Retryable(err) {
			break
		}
		if i < attempts-1 && r.Timer != nil {
			delay.For(r.Timer, b.Duration())
		}
	}
	return err
}
