// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import "time"

const (
	// settleTime is the delay for the MREG gateway to latch a selection.
	settleTime = 10 * time.Microsecond
	// mclkRdyBit is MCLK_RDY bit 3, set while the internal clock runs.
	mclkRdyBit = 1 << 3
)

// merge replaces the bits of cur selected by mask with those of pattern.
func merge(cur, pattern, mask uint8) uint8 {
	return cur&^mask | pattern&mask
}

func (d *Dev) bank0(r Reg) (Register, error) {
	if d.released {
		return Register{}, ErrReleased
	}
	desc := r.Descriptor()
	if !r.valid() || desc.Bank != Bank0 {
		return Register{}, ErrWrongBank
	}
	return desc, nil
}

func (d *Dev) shadow(r Reg) (Register, error) {
	if d.released {
		return Register{}, ErrReleased
	}
	desc := r.Descriptor()
	if !r.valid() || desc.Bank == Bank0 {
		return Register{}, ErrWrongBank
	}
	return desc, nil
}

// Direct access.

func (d *Dev) readReg(r Reg) (uint8, error) {
	desc, err := d.bank0(r)
	if err != nil {
		return 0, err
	}
	v, err := d.c.ReadUint8(desc.Addr)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: r, Err: err}
	}
	return v, nil
}

// readReg16 reads the high register, then the low one, and combines them
// big-endian.
func (d *Dev) readReg16(p RegPair) (uint16, error) {
	hi, err := d.readReg(p.Hi)
	if err != nil {
		return 0, err
	}
	lo, err := d.readReg(p.Lo)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (d *Dev) writeReg(r Reg, v uint8) error {
	desc, err := d.bank0(r)
	if err != nil {
		return err
	}
	if desc.ReadOnly {
		return ErrWriteToReadOnly
	}
	if err := d.c.WriteUint8(desc.Addr, v); err != nil {
		return &BusError{Op: "write", Reg: r, Err: err}
	}
	return nil
}

// updateReg rewrites only the bits of r selected by mask, preserving the
// others as last read from the device.
func (d *Dev) updateReg(r Reg, pattern, mask uint8) error {
	desc, err := d.bank0(r)
	if err != nil {
		return err
	}
	if desc.ReadOnly {
		return ErrWriteToReadOnly
	}
	cur, err := d.readReg(r)
	if err != nil {
		return err
	}
	return d.writeReg(r, merge(cur, pattern, mask))
}

// Indirect access.
//
// MREG1, MREG2 and MREG3 run on a gated internal clock. Every access waits for
// MCLK_RDY, routes the gateway, and returns both block selects to zero so a
// later Bank0 access is never misrouted. The gateway is not usable in sleep
// mode or in accel low-power mode on the wake-up oscillator; there the poll
// ends with ErrTimeout.

func (d *Dev) waitClockReady() error {
	for i := 0; i < d.opts.ClockReadyPolls; i++ {
		v, err := d.readReg(MclkRdy)
		if err != nil {
			return err
		}
		if v&mclkRdyBit != 0 {
			return nil
		}
	}
	return ErrTimeout
}

func (d *Dev) resetGateway() error {
	errR := d.writeReg(BlkSelR, 0)
	errW := d.writeReg(BlkSelW, 0)
	if errR != nil {
		return errR
	}
	return errW
}

func (d *Dev) readMReg(r Reg) (v uint8, err error) {
	desc, err := d.shadow(r)
	if err != nil {
		return 0, err
	}
	if err := d.waitClockReady(); err != nil {
		return 0, err
	}
	defer func() {
		if rerr := d.resetGateway(); err == nil {
			err = rerr
		}
	}()
	if err := d.writeReg(BlkSelR, desc.Bank.blockSelect()); err != nil {
		return 0, err
	}
	if err := d.writeReg(MaddrR, desc.Addr); err != nil {
		return 0, err
	}
	d.opts.Sleep(settleTime)
	if v, err = d.readReg(MR); err != nil {
		return 0, err
	}
	d.opts.Sleep(settleTime)
	return v, nil
}

func (d *Dev) writeMReg(r Reg, v uint8) (err error) {
	desc, err := d.shadow(r)
	if err != nil {
		return err
	}
	if desc.ReadOnly {
		return ErrWriteToReadOnly
	}
	if err := d.waitClockReady(); err != nil {
		return err
	}
	defer func() {
		if rerr := d.resetGateway(); err == nil {
			err = rerr
		}
	}()
	if err := d.writeReg(BlkSelW, desc.Bank.blockSelect()); err != nil {
		return err
	}
	if err := d.writeReg(MaddrW, desc.Addr); err != nil {
		return err
	}
	if err := d.writeReg(MW, v); err != nil {
		return err
	}
	d.opts.Sleep(settleTime)
	return nil
}

func (d *Dev) updateMReg(r Reg, pattern, mask uint8) error {
	desc, err := d.shadow(r)
	if err != nil {
		return err
	}
	if desc.ReadOnly {
		return ErrWriteToReadOnly
	}
	cur, err := d.readMReg(r)
	if err != nil {
		return err
	}
	return d.writeMReg(r, merge(cur, pattern, mask))
}

// Bank routing.

func (d *Dev) read(r Reg) (uint8, error) {
	if r.valid() && r.Descriptor().Bank != Bank0 {
		return d.readMReg(r)
	}
	return d.readReg(r)
}

func (d *Dev) write(r Reg, v uint8) error {
	if r.valid() && r.Descriptor().Bank != Bank0 {
		return d.writeMReg(r, v)
	}
	return d.writeReg(r, v)
}

func (d *Dev) update(r Reg, pattern, mask uint8) error {
	if r.valid() && r.Descriptor().Bank != Bank0 {
		return d.updateMReg(r, pattern, mask)
	}
	return d.updateReg(r, pattern, mask)
}

func getField[T interface {
	comparable
	Bitfield
}](d *Dev, r Reg, values []T) (T, error) {
	raw, err := d.read(r)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeField(raw, values)
}

func setField[T interface {
	comparable
	Bitfield
}](d *Dev, r Reg, v T, values []T) error {
	if !isValid(v, values) {
		return ErrBadConfig
	}
	p, m := v.Encode()
	return d.update(r, p, m)
}

func (d *Dev) readFlag(r Reg, bit uint8) (bool, error) {
	v, err := d.read(r)
	if err != nil {
		return false, err
	}
	return v&bit != 0, nil
}

func (d *Dev) setFlag(r Reg, bit uint8, on bool) error {
	var p uint8
	if on {
		p = bit
	}
	return d.update(r, p, bit)
}
