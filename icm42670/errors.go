// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import (
	"errors"
	"fmt"
)

var (
	// ErrBadChip is returned by New when WHO_AM_I is not a known identity.
	ErrBadChip = errors.New("icm42670: unexpected WHO_AM_I")
	// ErrWriteToReadOnly is returned, before any bus transaction, when writing
	// or updating a read-only register.
	ErrWriteToReadOnly = errors.New("icm42670: write to read-only register")
	// ErrInvalidDiscriminant is returned when a register field holds a bit
	// pattern that matches no known value.
	ErrInvalidDiscriminant = errors.New("icm42670: invalid field value")
	// ErrBadConfig is returned when a caller passes a configuration value
	// outside its closed set.
	ErrBadConfig = errors.New("icm42670: invalid configuration value")
	// ErrTimeout is returned when the internal clock never reports ready
	// within Opts.ClockReadyPolls polls.
	ErrTimeout = errors.New("icm42670: timed out waiting for MCLK_RDY")
	// ErrWrongBank is returned when a register is routed to the access
	// protocol of another bank.
	ErrWrongBank = errors.New("icm42670: register not reachable through this access path")
	// ErrReleased is returned by every operation after Free.
	ErrReleased = errors.New("icm42670: device released")
)

// BusError wraps a transport failure with the register being accessed.
type BusError struct {
	Op  string // "read" or "write"
	Reg Reg
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("icm42670: %s %s: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
