// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dualmode identifies DP++ dual mode adaptors on the DDC bus of a
// DisplayPort connector.
//
// A passive adaptor passes DDC through, so the source finds it at i2c
// address 0x40 of the bus that otherwise carries the EDID. Type 1
// adaptors may not answer at all; they are limited to 165MHz TMDS.
package dualmode

import (
	"bytes"
	"fmt"

	"github.com/platinasystems/i2c"
)

// Address is the i2c slave address of the adaptor registers.
const Address = 0x40

// Register offsets.
const (
	HDMIID      = 0x00
	AdaptorID   = 0x10
	MaxTMDSClk  = 0x1d
	TMDSOEN     = 0x20
	HDMIIDSize  = 16
	Type1MaxKHz = 165000
)

// AdaptorID fields.
const (
	TypeMask = 0xf0
	Type2    = 0xa0
	RevMask  = 0x0f
	RevType2 = 0x00
)

// TMDSOEN values; off disables the TMDS output buffers.
const (
	TMDSOENOn  = 0x00
	TMDSOENOff = 0x01
)

// hdmiID is the HDMI adaptor identifier string.
var hdmiID = []byte("DP-HDMI ADAPTOR\x04")

type Type uint8

const (
	None Type = iota
	Type1DVI
	Type1HDMI
	Type2DVI
	Type2HDMI
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Type1DVI:
		return "type 1 DVI"
	case Type1HDMI:
		return "type 1 HDMI"
	case Type2DVI:
		return "type 2 DVI"
	case Type2HDMI:
		return "type 2 HDMI"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Registers reads and writes one adaptor register.
type Registers interface {
	ReadReg(off uint8) (byte, error)
	WriteReg(off uint8, v byte) error
}

// Bus is the adaptor on an i2c bus index.
type Bus int

func (b Bus) do(rw i2c.RW, off uint8, data *i2c.SMBusData) (err error) {
	var bus i2c.Bus

	err = bus.Open(int(b))
	if err != nil {
		return
	}
	defer bus.Close()

	err = bus.ForceSlaveAddress(Address)
	if err != nil {
		return
	}
	return bus.Do(rw, off, i2c.ByteData, data)
}

func (b Bus) ReadReg(off uint8) (byte, error) {
	var data i2c.SMBusData
	err := b.do(i2c.Read, off, &data)
	return data[0], err
}

func (b Bus) WriteReg(off uint8, v byte) error {
	var data i2c.SMBusData
	data[0] = v
	return b.do(i2c.Write, off, &data)
}

// Adaptor as detected.
type Adaptor struct {
	Type       Type
	AdaptorID  byte
	MaxTMDSKHz uint32
	ID         [HDMIIDSize]byte
}

func (a *Adaptor) String() string {
	if a.Type == None {
		return a.Type.String()
	}
	return fmt.Sprintf("%v id %#02x max TMDS %d.%03dMHz", a.Type,
		a.AdaptorID, a.MaxTMDSKHz/1000, a.MaxTMDSKHz%1000)
}

// Detect identifies the adaptor behind r. A type 1 adaptor that doesn't
// answer is reported as type 1 DVI.
func Detect(r Registers) (*Adaptor, error) {
	a := new(Adaptor)
	idErr := read(r, HDMIID, a.ID[:])
	id, err := r.ReadReg(AdaptorID)
	if err != nil {
		if idErr != nil {
			// nothing answered, a type 1 DVI adaptor or no adaptor
			a.Type = Type1DVI
			a.MaxTMDSKHz = Type1MaxKHz
			return a, nil
		}
		id = 0
	}
	a.AdaptorID = id
	isHDMI := idErr == nil && bytes.Equal(a.ID[:], hdmiID)
	isType2 := id&TypeMask == Type2
	switch {
	case isHDMI && id == Type2|RevType2:
		a.Type = Type2HDMI
	case isHDMI:
		a.Type = Type1HDMI
	case isType2:
		a.Type = Type2DVI
	case idErr == nil:
		a.Type = None
		return a, nil
	default:
		a.Type = Type1DVI
	}
	a.MaxTMDSKHz = Type1MaxKHz
	if a.Type == Type2HDMI || a.Type == Type2DVI {
		clk, err := r.ReadReg(MaxTMDSClk)
		if err != nil {
			return nil, fmt.Errorf("max tmds clock: %v", err)
		}
		if clk != 0 {
			a.MaxTMDSKHz = uint32(clk) * 2500
		}
	}
	return a, nil
}

// Probe detects the adaptor on i2c bus index.
func Probe(index int) (*Adaptor, error) {
	return Detect(Bus(index))
}

// SetTMDSOutput enables or disables the TMDS buffers of a type 2
// adaptor; other adaptors ignore it.
func SetTMDSOutput(r Registers, a *Adaptor, enable bool) error {
	if a.Type != Type2HDMI && a.Type != Type2DVI {
		return nil
	}
	v := byte(TMDSOENOff)
	if enable {
		v = TMDSOENOn
	}
	if err := r.WriteReg(TMDSOEN, v); err != nil {
		return err
	}
	got, err := r.ReadReg(TMDSOEN)
	if err != nil {
		return err
	}
	if got != v {
		return fmt.Errorf("tmds oen: wrote %#02x read %#02x", v, got)
	}
	return nil
}

func read(r Registers, off uint8, b []byte) error {
	for i := range b {
		v, err := r.ReadReg(off + uint8(i))
		if err != nil {
			return err
		}
		b[i] = v
	}
	return nil
}
