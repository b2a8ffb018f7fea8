// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import "fmt"

// IntPin selects one of the two interrupt pins.
type IntPin uint8

const (
	Int1 IntPin = 1
	Int2 IntPin = 2
)

// shift is the position of the pin's 3-bit group in INT_CONFIG.
func (p IntPin) shift() (uint8, bool) {
	switch p {
	case Int1:
		return 0, true
	case Int2:
		return 3, true
	default:
		return 0, false
	}
}

func (p IntPin) String() string {
	switch p {
	case Int1:
		return "INT1"
	case Int2:
		return "INT2"
	default:
		return fmt.Sprintf("IntPin(%d)", uint8(p))
	}
}

// IntMode is the INTx_MODE bit.
type IntMode uint8

const (
	IntPulsed  IntMode = 0
	IntLatched IntMode = 1
)

// IntDrive is the INTx_DRIVE_CIRCUIT bit.
type IntDrive uint8

const (
	IntOpenDrain IntDrive = 0
	IntPushPull  IntDrive = 1
)

// IntPolarity is the INTx_POLARITY bit.
type IntPolarity uint8

const (
	IntActiveLow  IntPolarity = 0
	IntActiveHigh IntPolarity = 1
)

// InterruptConfig is the electrical configuration of one interrupt pin.
//
// In INT_CONFIG, INT2 uses bits 5 (mode), 4 (drive) and 3 (polarity); INT1
// uses bits 2, 1 and 0.
type InterruptConfig struct {
	Mode     IntMode
	Drive    IntDrive
	Polarity IntPolarity
}

// DefaultInterruptConfig is the reset value for either pin.
func DefaultInterruptConfig() InterruptConfig {
	return InterruptConfig{Mode: IntPulsed, Drive: IntOpenDrain, Polarity: IntActiveLow}
}

func (c InterruptConfig) valid() bool {
	return c.Mode <= IntLatched && c.Drive <= IntPushPull && c.Polarity <= IntActiveHigh
}

// Encode returns the INT_CONFIG pattern and mask for pin p.
func (c InterruptConfig) Encode(p IntPin) (pattern, mask uint8, err error) {
	s, ok := p.shift()
	if !ok || !c.valid() {
		return 0, 0, ErrBadConfig
	}
	v := uint8(c.Mode)<<2 | uint8(c.Drive)<<1 | uint8(c.Polarity)
	return v << s, 0b111 << s, nil
}

// DecodeInterruptConfig extracts the configuration of pin p from an
// INT_CONFIG value.
func DecodeInterruptConfig(raw uint8, p IntPin) (InterruptConfig, error) {
	s, ok := p.shift()
	if !ok {
		return InterruptConfig{}, ErrBadConfig
	}
	v := raw >> s
	return InterruptConfig{
		Mode:     IntMode(v >> 2 & 1),
		Drive:    IntDrive(v >> 1 & 1),
		Polarity: IntPolarity(v & 1),
	}, nil
}

func (c InterruptConfig) String() string {
	mode, drive, pol := "pulsed", "open-drain", "active-low"
	if c.Mode == IntLatched {
		mode = "latched"
	}
	if c.Drive == IntPushPull {
		drive = "push-pull"
	}
	if c.Polarity == IntActiveHigh {
		pol = "active-high"
	}
	return mode + "/" + drive + "/" + pol
}

// tiltRoute returns the MREG1 INT_SOURCE register routing the tilt
// interrupt to p, and the TILT_DET_INTx_EN bit.
func tiltRoute(p IntPin) (Reg, uint8, error) {
	switch p {
	case Int1:
		return IntSource6, 1 << 3, nil
	case Int2:
		return IntSource7, 1 << 3, nil
	default:
		return 0, 0, ErrBadConfig
	}
}
