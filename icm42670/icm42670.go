// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package icm42670 controls an InvenSense ICM-42670-P 6-axis IMU over I²C.
//
// Datasheet: DS-000451 ICM-42670-P v1.0.
//
// Configuration is never cached: getters read the device, setters read the
// register, replace the field and write it back. Registers in the MREG1,
// MREG2 and MREG3 banks are accessed through the Bank0 gateway transparently.
package icm42670

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
)

// I²C addresses, selected by the AP_AD0 pin.
const (
	AddrPrimary   uint16 = 0x68 // AP_AD0 low
	AddrSecondary uint16 = 0x69 // AP_AD0 high
)

// Accepted WHO_AM_I values.
const (
	ChipID        = 0x67
	ChipIDVariant = 0x60 // pin-compatible mass-production part
)

const (
	// powerModeSettle is the time to leave the device alone after a power
	// mode change.
	powerModeSettle = 200 * time.Microsecond
	// softResetSettle is the time the device needs after SOFT_RESET_DEVICE_CONFIG.
	softResetSettle = time.Millisecond

	softResetBit   = 1 << 4 // SIGNAL_PATH_RESET
	tiltEnableBit  = 1 << 4 // APEX_CONFIG1
	tiltStatusBit  = 1 << 3 // INT_STATUS3
	defaultMaxPoll = 1000
)

// Opts holds the device options.
type Opts struct {
	// Addr is AddrPrimary or AddrSecondary.
	Addr uint16
	// ClockReadyPolls bounds the MCLK_RDY poll of MREG accesses.
	ClockReadyPolls int
	// Sleep waits for settle times. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr:            AddrPrimary,
	ClockReadyPolls: defaultMaxPoll,
}

// RawAxes is a raw 3-axis sample in two's complement counts.
type RawAxes struct {
	X, Y, Z int16
}

// Axes is a 3-axis sample in physical units.
type Axes struct {
	X, Y, Z float64
}

// Dev is a handle to an ICM-42670.
//
// Dev owns its bus connection and is not safe for concurrent use.
type Dev struct {
	dev      *i2c.Dev
	c        mmr.Dev8
	opts     Opts
	released bool
}

// New checks the identity of the device at opts.Addr, resets the measurement
// ranges to their defaults and turns both sensors on in low-noise mode.
//
// opts may be nil.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = AddrPrimary
	}
	if o.Addr != AddrPrimary && o.Addr != AddrSecondary {
		return nil, fmt.Errorf("icm42670: address %#x: %w", o.Addr, ErrBadConfig)
	}
	if o.ClockReadyPolls <= 0 {
		o.ClockReadyPolls = defaultMaxPoll
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}

	dev := &i2c.Dev{Bus: bus, Addr: o.Addr}
	d := &Dev{
		dev:  dev,
		c:    mmr.Dev8{Conn: dev, Order: binary.BigEndian},
		opts: o,
	}

	id, err := d.DeviceID()
	if err != nil {
		return nil, err
	}
	if id != ChipID && id != ChipIDVariant {
		return nil, fmt.Errorf("%w: got %#02x", ErrBadChip, id)
	}
	if err := d.SetAccelRange(DefaultAccelRange()); err != nil {
		return nil, err
	}
	if err := d.SetGyroRange(DefaultGyroRange()); err != nil {
		return nil, err
	}
	if err := d.SetPowerMode(SixAxisLowNoise); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ICM42670{%s}", d.dev)
}

// Halt puts both sensors to sleep.
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.SetPowerMode(Sleep)
}

// Free hands the bus back to the caller. The device is not touched; every
// later operation on d returns ErrReleased.
func (d *Dev) Free() i2c.Bus {
	d.released = true
	return d.dev.Bus
}

// DeviceID returns WHO_AM_I.
func (d *Dev) DeviceID() (uint8, error) {
	return d.readReg(WhoAmI)
}

// ReadRegister reads r, through the MREG gateway when r is not in Bank0.
func (d *Dev) ReadRegister(r Reg) (uint8, error) {
	return d.read(r)
}

// WriteRegister writes v to r, through the MREG gateway when r is not in
// Bank0.
func (d *Dev) WriteRegister(r Reg, v uint8) error {
	return d.write(r, v)
}

// UpdateRegister replaces the bits of r selected by mask.
func (d *Dev) UpdateRegister(r Reg, pattern, mask uint8) error {
	return d.update(r, pattern, mask)
}

// PowerMode returns the current power mode.
func (d *Dev) PowerMode() (PowerMode, error) {
	return getField(d, PwrMgmt0, allPowerModes)
}

// SetPowerMode sets the power mode and waits for the device to settle.
func (d *Dev) SetPowerMode(m PowerMode) error {
	if err := setField(d, PwrMgmt0, m, allPowerModes); err != nil {
		return err
	}
	d.opts.Sleep(powerModeSettle)
	return nil
}

func (d *Dev) AccelRange() (AccelRange, error) {
	return getField(d, AccelConfig0, allAccelRanges)
}

func (d *Dev) SetAccelRange(r AccelRange) error {
	return setField(d, AccelConfig0, r, allAccelRanges)
}

func (d *Dev) GyroRange() (GyroRange, error) {
	return getField(d, GyroConfig0, allGyroRanges)
}

func (d *Dev) SetGyroRange(r GyroRange) error {
	return setField(d, GyroConfig0, r, allGyroRanges)
}

func (d *Dev) AccelODR() (AccelODR, error) {
	return getField(d, AccelConfig0, allAccelODRs)
}

func (d *Dev) SetAccelODR(o AccelODR) error {
	return setField(d, AccelConfig0, o, allAccelODRs)
}

func (d *Dev) GyroODR() (GyroODR, error) {
	return getField(d, GyroConfig0, allGyroODRs)
}

func (d *Dev) SetGyroODR(o GyroODR) error {
	return setField(d, GyroConfig0, o, allGyroODRs)
}

// AccelSampleRate returns the configured accelerometer output data rate.
func (d *Dev) AccelSampleRate() (physic.Frequency, error) {
	o, err := d.AccelODR()
	if err != nil {
		return 0, err
	}
	return o.Frequency(), nil
}

// GyroSampleRate returns the configured gyroscope output data rate.
func (d *Dev) GyroSampleRate() (physic.Frequency, error) {
	o, err := d.GyroODR()
	if err != nil {
		return 0, err
	}
	return o.Frequency(), nil
}

func (d *Dev) readAxes(x, y, z RegPair) (RawAxes, error) {
	var out RawAxes
	for i, p := range [3]RegPair{x, y, z} {
		v, err := d.readReg16(p)
		if err != nil {
			return RawAxes{}, err
		}
		switch i {
		case 0:
			out.X = int16(v)
		case 1:
			out.Y = int16(v)
		case 2:
			out.Z = int16(v)
		}
	}
	return out, nil
}

// AccelRaw reads the accelerometer in counts.
func (d *Dev) AccelRaw() (RawAxes, error) {
	return d.readAxes(AccelX, AccelY, AccelZ)
}

// GyroRaw reads the gyroscope in counts.
func (d *Dev) GyroRaw() (RawAxes, error) {
	return d.readAxes(GyroX, GyroY, GyroZ)
}

// Accel reads the accelerometer in g, scaled by the range currently
// configured on the device.
func (d *Dev) Accel() (Axes, error) {
	r, err := d.AccelRange()
	if err != nil {
		return Axes{}, err
	}
	raw, err := d.AccelRaw()
	if err != nil {
		return Axes{}, err
	}
	return scale(raw, r.ScaleFactor()), nil
}

// Gyro reads the gyroscope in °/s, scaled by the range currently configured
// on the device.
func (d *Dev) Gyro() (Axes, error) {
	r, err := d.GyroRange()
	if err != nil {
		return Axes{}, err
	}
	raw, err := d.GyroRaw()
	if err != nil {
		return Axes{}, err
	}
	return scale(raw, r.ScaleFactor()), nil
}

func scale(raw RawAxes, lsb float64) Axes {
	return Axes{
		X: float64(raw.X) / lsb,
		Y: float64(raw.Y) / lsb,
		Z: float64(raw.Z) / lsb,
	}
}

// TemperatureRaw reads TEMP_DATA1:TEMP_DATA0.
func (d *Dev) TemperatureRaw() (int16, error) {
	v, err := d.readReg16(Temp)
	return int16(v), err
}

// Temperature reads the die temperature in °C.
func (d *Dev) Temperature() (float64, error) {
	raw, err := d.TemperatureRaw()
	if err != nil {
		return 0, err
	}
	return TemperatureCelsius(raw), nil
}

// SenseTemperature reads the die temperature.
func (d *Dev) SenseTemperature() (physic.Temperature, error) {
	c, err := d.Temperature()
	if err != nil {
		return 0, err
	}
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Kelvin)), nil
}

// TemperatureCelsius converts a raw temperature reading to °C.
func TemperatureCelsius(raw int16) float64 {
	return float64(raw)/128 + 25
}

// InterruptConfig returns the electrical configuration of pin p.
func (d *Dev) InterruptConfig(p IntPin) (InterruptConfig, error) {
	if _, ok := p.shift(); !ok {
		return InterruptConfig{}, ErrBadConfig
	}
	raw, err := d.readReg(IntConfig)
	if err != nil {
		return InterruptConfig{}, err
	}
	return DecodeInterruptConfig(raw, p)
}

// SetInterruptConfig sets the electrical configuration of pin p, leaving the
// other pin untouched.
func (d *Dev) SetInterruptConfig(p IntPin, c InterruptConfig) error {
	pattern, mask, err := c.Encode(p)
	if err != nil {
		return err
	}
	return d.updateReg(IntConfig, pattern, mask)
}

func (d *Dev) FIFOCountFormat() (FIFOCountFormat, error) {
	return getField(d, IntfConfig0, allFIFOCountFormats)
}

func (d *Dev) SetFIFOCountFormat(f FIFOCountFormat) error {
	return setField(d, IntfConfig0, f, allFIFOCountFormats)
}

func (d *Dev) FIFOCountEndian() (FIFOCountEndian, error) {
	return getField(d, IntfConfig0, allFIFOCountEndians)
}

func (d *Dev) SetFIFOCountEndian(e FIFOCountEndian) error {
	return setField(d, IntfConfig0, e, allFIFOCountEndians)
}

func (d *Dev) FIFOMode() (FIFOMode, error) {
	return getField(d, FifoConfig1, allFIFOModes)
}

func (d *Dev) SetFIFOMode(m FIFOMode) error {
	return setField(d, FifoConfig1, m, allFIFOModes)
}

func (d *Dev) FIFOBypass() (FIFOBypass, error) {
	return getField(d, FifoConfig1, allFIFOBypasses)
}

func (d *Dev) SetFIFOBypass(b FIFOBypass) error {
	return setField(d, FifoConfig1, b, allFIFOBypasses)
}

// DMPODR returns the APEX processing rate.
func (d *Dev) DMPODR() (DMPODR, error) {
	return getField(d, ApexConfig1, allDMPODRs)
}

func (d *Dev) SetDMPODR(o DMPODR) error {
	return setField(d, ApexConfig1, o, allDMPODRs)
}

// TiltDetection reports whether the tilt detector is enabled.
func (d *Dev) TiltDetection() (bool, error) {
	return d.readFlag(ApexConfig1, tiltEnableBit)
}

// SetTiltDetection enables or disables the tilt detector.
func (d *Dev) SetTiltDetection(on bool) error {
	return d.setFlag(ApexConfig1, tiltEnableBit, on)
}

// TiltWaitTime returns how long a tilt must last before it is reported.
func (d *Dev) TiltWaitTime() (TiltWaitTime, error) {
	return getField(d, ApexConfig5, allTiltWaitTimes)
}

func (d *Dev) SetTiltWaitTime(t TiltWaitTime) error {
	return setField(d, ApexConfig5, t, allTiltWaitTimes)
}

// TiltInterrupt reports whether tilt events are routed to pin p.
func (d *Dev) TiltInterrupt(p IntPin) (bool, error) {
	r, bit, err := tiltRoute(p)
	if err != nil {
		return false, err
	}
	return d.readFlag(r, bit)
}

// SetTiltInterrupt routes, or stops routing, tilt events to pin p.
func (d *Dev) SetTiltInterrupt(p IntPin, on bool) error {
	r, bit, err := tiltRoute(p)
	if err != nil {
		return err
	}
	return d.setFlag(r, bit, on)
}

// TiltDetected reads and clears the tilt status bit of INT_STATUS3.
func (d *Dev) TiltDetected() (bool, error) {
	return d.readFlag(IntStatus3, tiltStatusBit)
}

// SoftReset resets every register to its default value and waits for the
// device to come back.
func (d *Dev) SoftReset() error {
	if err := d.updateReg(SignalPathReset, softResetBit, softResetBit); err != nil {
		return err
	}
	d.opts.Sleep(softResetSettle)
	return nil
}
