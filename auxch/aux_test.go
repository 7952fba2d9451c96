// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package auxch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/platinasystems/dplink/dpcd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flaky struct {
	fails []error
	reads int
	mem   map[dpcd.Addr]byte
}

func (f *flaky) next() error {
	if len(f.fails) == 0 {
		return nil
	}
	err := f.fails[0]
	f.fails = f.fails[1:]
	return err
}

func (f *flaky) Read(addr dpcd.Addr, buf []byte) error {
	f.reads++
	if err := f.next(); err != nil {
		return err
	}
	for i := range buf {
		buf[i] = f.mem[addr+dpcd.Addr(i)]
	}
	return nil
}

func (f *flaky) Write(addr dpcd.Addr, buf []byte) error {
	if err := f.next(); err != nil {
		return err
	}
	for i, b := range buf {
		f.mem[addr+dpcd.Addr(i)] = b
	}
	return nil
}

type waits struct{ us, ms []uint32 }

func (w *waits) Udelay(us uint32) { w.us = append(w.us, us) }
func (w *waits) Msleep(ms uint32) { w.ms = append(w.ms, ms) }

func TestStatusOf(t *testing.T) {
	assert.Equal(t, Ok, StatusOf(nil))
	assert.Equal(t, Defer, StatusOf(ErrDefer))
	wrapped := fmt.Errorf("%s: %w", "lane", ErrTimeout)
	assert.Equal(t, Timeout, StatusOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrTimeout))
	assert.Equal(t, Unexpected, StatusOf(errors.New("other")))
	assert.True(t, Retryable(ErrDefer))
	assert.False(t, Retryable(ErrNotAvailable))
	assert.Equal(t, "aux: not available", ErrNotAvailable.Error())
}

func TestRetryDefer(t *testing.T) {
	ch := &flaky{
		fails: []error{ErrDefer, ErrTimeout},
		mem:   map[dpcd.Addr]byte{dpcd.Rev: dpcd.Rev12},
	}
	w := new(waits)
	r := NewRetry(ch, w)
	b, err := ReadByte(r, dpcd.Rev)
	require.NoError(t, err)
	assert.Equal(t, dpcd.Rev12, b)
	assert.Equal(t, 3, ch.reads)
	assert.Equal(t, []uint32{400, 800}, w.us)
	assert.Equal(t, []uint32(nil), w.ms)
}

func TestRetryGivesUp(t *testing.T) {
	ch := &flaky{mem: map[dpcd.Addr]byte{}}
	for i := 0; i < 10; i++ {
		ch.fails = append(ch.fails, ErrDefer)
	}
	w := new(waits)
	r := NewRetry(ch, w)
	r.Attempts = 3
	err := r.Read(dpcd.Rev, make([]byte, 1))
	assert.True(t, errors.Is(err, ErrDefer))
	assert.Equal(t, 3, ch.reads)
	assert.Equal(t, 2, len(w.us)+len(w.ms))
}

func TestRetryStopsOnHardError(t *testing.T) {
	ch := &flaky{
		fails: []error{ErrNotAvailable},
		mem:   map[dpcd.Addr]byte{},
	}
	r := NewRetry(ch, new(waits))
	err := r.Read(dpcd.Rev, make([]byte, 1))
	assert.True(t, errors.Is(err, ErrNotAvailable))
	assert.Equal(t, 1, ch.reads)
}

func TestReadRetry(t *testing.T) {
	ch := &flaky{
		fails: []error{ErrUnexpected, ErrUnexpected},
		mem:   map[dpcd.Addr]byte{dpcd.MaxLaneCount: 4},
	}
	buf := make([]byte, 3)
	require.NoError(t, ReadRetry(ch, dpcd.Rev, buf, 3))
	assert.Equal(t, byte(4), buf[2])

	ch.fails = []error{ErrUnexpected, ErrUnexpected, ErrUnexpected}
	assert.Error(t, ReadRetry(ch, dpcd.Rev, buf, 3))
}

func TestWriteByte(t *testing.T) {
	ch := &flaky{mem: map[dpcd.Addr]byte{}}
	require.NoError(t, WriteByte(ch, dpcd.TestResponse, dpcd.TestAck))
	assert.Equal(t, byte(dpcd.TestAck), ch.mem[dpcd.TestResponse])
}
