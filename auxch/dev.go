// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package auxch

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/platinasystems/dplink/dpcd"
)

// DevPrefix names the kernel's AUX character devices.
const DevPrefix = "/dev/drm_dp_aux"

// Dev is a Channel on a drm_dp_aux character device where the file offset
// is the DPCD address.
type Dev struct {
	name string
	f    *os.File
}

// DevName returns the AUX device of DRM connector index i.
func DevName(i int) string { return fmt.Sprint(DevPrefix, i) }

func Open(name string) (*Dev, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Dev{name: name, f: f}, nil
}

func (d *Dev) String() string { return d.name }

func (d *Dev) Close() error { return d.f.Close() }

func (d *Dev) Read(addr dpcd.Addr, buf []byte) error {
	n, err := d.f.ReadAt(buf, int64(addr))
	if err == nil && n != len(buf) {
		return fmt.Errorf("%s: %v: read %d of %d: %w", d.name, addr,
			n, len(buf), ErrUnexpected)
	}
	return d.status(addr, err)
}

func (d *Dev) Write(addr dpcd.Addr, buf []byte) error {
	n, err := d.f.WriteAt(buf, int64(addr))
	if err == nil && n != len(buf) {
		return fmt.Errorf("%s: %v: wrote %d of %d: %w", d.name, addr,
			n, len(buf), ErrUnexpected)
	}
	return d.status(addr, err)
}

// status maps the errno of a failed transfer onto Status.
func (d *Dev) status(addr dpcd.Addr, err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return fmt.Errorf("%s: %v: %v: %w", d.name, addr, err,
			ErrUnexpected)
	}
	var s Status
	switch errno {
	case syscall.EAGAIN, syscall.EBUSY:
		s = Defer
	case syscall.ETIMEDOUT:
		s = Timeout
	case syscall.ENODEV, syscall.ENXIO, syscall.ENOENT:
		s = NotAvailable
	default:
		s = Unexpected
	}
	return fmt.Errorf("%s: %v: %v: %w", d.name, addr, errno, s)
}
