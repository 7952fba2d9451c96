// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package auxch is the DisplayPort AUX channel client: synchronous reads and
// writes of a sink's DPCD register space.
package auxch

import (
	"errors"
	"fmt"

	"github.com/platinasystems/dplink/dpcd"
)

// Status is the outcome of an AUX transaction that did not complete.
type Status uint8

const (
	Ok Status = iota
	Defer
	Timeout
	NotAvailable
	Unexpected
)

var (
	ErrDefer        error = Defer
	ErrTimeout      error = Timeout
	ErrNotAvailable error = NotAvailable
	ErrUnexpected   error = Unexpected
)

func (s Status) Error() string { return "aux: " + s.String() }

func (s Status) String() string {
	switch s {
	case Ok:
		return "ok"
	case Defer:
		return "defer"
	case Timeout:
		return "timeout"
	case NotAvailable:
		return "not available"
	case Unexpected:
		return "unexpected"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// StatusOf returns the transaction Status carried by err, Ok for nil and
// Unexpected for foreign errors.
func StatusOf(err error) Status {
	if err == nil {
		return Ok
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return Unexpected
}

// Retryable reports whether the sink asked for the transaction to be
// repeated or never answered.
func Retryable(err error) bool {
	s := StatusOf(err)
	return s == Defer || s == Timeout
}

// Channel reads and writes len(buf) bytes of DPCD beginning at addr.
type Channel interface {
	Read(addr dpcd.Addr, buf []byte) error
	Write(addr dpcd.Addr, buf []byte) error
}

// ReadByte reads the single register at addr.
func ReadByte(ch Channel, addr dpcd.Addr) (byte, error) {
	var b [1]byte
	err := ch.Read(addr, b[:])
	return b[0], err
}

// WriteByte writes the single register at addr.
func WriteByte(ch Channel, addr dpcd.Addr, v byte) error {
	return ch.Write(addr, []byte{v})
}

// ReadRetry reads addr up to attempts times, returning the last error.
func ReadRetry(ch Channel, addr dpcd.Addr, buf []byte, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = ch.Read(addr, buf); err == nil {
			break
		}
	}
	return err
}
