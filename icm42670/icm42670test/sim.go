// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package icm42670test provides an in-memory ICM-42670 that answers on an
// i2c.Bus, including the MREG gateway, for tests and for running the tools
// without hardware.
package icm42670test

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// Bank0 addresses the simulator gives special treatment to.
const (
	regMclkRdy         = 0x00
	regSignalPathReset = 0x02
	regTempData1       = 0x09
	regAccelDataX1     = 0x0B
	regGyroDataX1      = 0x11
	regGyroConfig0     = 0x20
	regAccelConfig0    = 0x21
	regApexConfig1     = 0x26
	regFifoConfig1     = 0x28
	regIntfConfig0     = 0x35
	regIntStatus       = 0x3A
	regIntStatus2      = 0x3B
	regIntStatus3      = 0x3C
	regWhoAmI          = 0x75
	regBlkSelW         = 0x79
	regMaddrW          = 0x7A
	regMW              = 0x7B
	regBlkSelR         = 0x7C
	regMaddrR          = 0x7D
	regMR              = 0x7E

	mregApexConfig5 = 0x47

	mclkReady = 1 << 3
	tiltBit   = 1 << 3
	resetBit  = 1 << 4
)

// ErrNoDevice is returned for a transaction to an address the simulator does
// not answer on.
var ErrNoDevice = errors.New("icm42670test: no device at address")

// Sim is a simulated ICM-42670.
//
// The register files are exported so tests can seed and inspect them. Every
// transaction is appended to Ops.
type Sim struct {
	sync.Mutex

	Addr  uint16
	Bank0 [128]byte
	// MReg holds MREG1, MREG2 and MREG3, in that order.
	MReg [3][128]byte

	// NotReadyPolls is the number of MCLK_RDY reads answered with the clock
	// stopped before it reports ready.
	NotReadyPolls int
	// Err, when set, fails every transaction.
	Err error

	Ops []i2ctest.IO
}

// New returns a simulator at addr holding the power-on register values.
func New(addr uint16) *Sim {
	s := &Sim{Addr: addr}
	s.Reset()
	return s
}

// Reset restores the power-on register values.
func (s *Sim) Reset() {
	s.Lock()
	defer s.Unlock()
	s.reset()
}

func (s *Sim) reset() {
	s.Bank0 = [128]byte{}
	s.MReg = [3][128]byte{}
	s.Bank0[regMclkRdy] = mclkReady
	s.Bank0[regGyroConfig0] = 0x06
	s.Bank0[regAccelConfig0] = 0x06
	s.Bank0[regApexConfig1] = 0x02
	s.Bank0[regFifoConfig1] = 0x01
	s.Bank0[regIntfConfig0] = 0x30
	s.Bank0[regWhoAmI] = 0x67
	s.MReg[0][mregApexConfig5] = 0x80
}

func (s *Sim) String() string {
	return fmt.Sprintf("icm42670test.Sim(%#x)", s.Addr)
}

// SetSpeed implements i2c.Bus.
func (s *Sim) SetSpeed(physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus.
//
// A write with more than one byte stores the payload from the first byte's
// address upward; a read returns consecutive registers the same way.
func (s *Sim) Tx(addr uint16, w, r []byte) error {
	s.Lock()
	defer s.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if addr != s.Addr {
		return fmt.Errorf("%w %#x", ErrNoDevice, addr)
	}
	if len(w) == 0 {
		return errors.New("icm42670test: transaction without register address")
	}
	reg := w[0] & 0x7F
	for i, v := range w[1:] {
		if err := s.store(reg+uint8(i), v); err != nil {
			return err
		}
	}
	for i := range r {
		v, err := s.load(reg + uint8(i))
		if err != nil {
			return err
		}
		r[i] = v
	}
	s.Ops = append(s.Ops, i2ctest.IO{
		Addr: addr,
		W:    append([]byte(nil), w...),
		R:    append([]byte(nil), r...),
	})
	return nil
}

func mregIndex(code byte) (int, error) {
	switch code {
	case 0x00:
		return 0, nil
	case 0x28:
		return 1, nil
	case 0x50:
		return 2, nil
	default:
		return 0, fmt.Errorf("icm42670test: invalid block select %#x", code)
	}
}

func (s *Sim) store(reg, v uint8) error {
	reg &= 0x7F
	switch reg {
	case regMW:
		bank, err := mregIndex(s.Bank0[regBlkSelW])
		if err != nil {
			return err
		}
		s.MReg[bank][s.Bank0[regMaddrW]&0x7F] = v
		return nil
	case regSignalPathReset:
		if v&resetBit != 0 {
			s.reset()
			return nil
		}
	}
	s.Bank0[reg] = v
	return nil
}

func (s *Sim) load(reg uint8) (uint8, error) {
	reg &= 0x7F
	switch reg {
	case regMclkRdy:
		if s.NotReadyPolls > 0 {
			s.NotReadyPolls--
			return s.Bank0[reg] &^ mclkReady, nil
		}
	case regMR:
		bank, err := mregIndex(s.Bank0[regBlkSelR])
		if err != nil {
			return 0, err
		}
		return s.MReg[bank][s.Bank0[regMaddrR]&0x7F], nil
	case regIntStatus, regIntStatus2, regIntStatus3:
		v := s.Bank0[reg]
		s.Bank0[reg] = 0
		return v, nil
	}
	return s.Bank0[reg], nil
}

// SetAccel loads an accelerometer sample in counts.
func (s *Sim) SetAccel(x, y, z int16) {
	s.Lock()
	defer s.Unlock()
	s.put16(regAccelDataX1, x, y, z)
}

// SetGyro loads a gyroscope sample in counts.
func (s *Sim) SetGyro(x, y, z int16) {
	s.Lock()
	defer s.Unlock()
	s.put16(regGyroDataX1, x, y, z)
}

// SetTemperature loads a raw temperature reading.
func (s *Sim) SetTemperature(raw int16) {
	s.Lock()
	defer s.Unlock()
	s.put16(regTempData1, raw)
}

// Tilt raises the tilt detected flag, cleared by the next INT_STATUS3 read.
func (s *Sim) Tilt() {
	s.Lock()
	defer s.Unlock()
	s.Bank0[regIntStatus3] |= tiltBit
}

func (s *Sim) put16(reg uint8, vals ...int16) {
	for i, v := range vals {
		s.Bank0[int(reg)+2*i] = byte(uint16(v) >> 8)
		s.Bank0[int(reg)+2*i+1] = byte(uint16(v))
	}
}

// Reg returns a Bank0 register.
func (s *Sim) Reg(addr uint8) byte {
	s.Lock()
	defer s.Unlock()
	return s.Bank0[addr&0x7F]
}

// MRegValue returns register addr of MREG bank n (1 to 3).
func (s *Sim) MRegValue(n int, addr uint8) byte {
	s.Lock()
	defer s.Unlock()
	return s.MReg[n-1][addr&0x7F]
}

// ClearOps forgets the recorded transactions.
func (s *Sim) ClearOps() {
	s.Lock()
	defer s.Unlock()
	s.Ops = nil
}
