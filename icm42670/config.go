// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Bitfield is a configuration value stored in a masked bit range of a
// register.
type Bitfield interface {
	// Encode returns the value shifted into its field, and the field mask.
	Encode() (pattern, mask uint8)
}

// decodeField masks raw with the field mask and matches it against the
// closed set of legal values.
func decodeField[T interface {
	comparable
	Bitfield
}](raw uint8, values []T) (T, error) {
	for _, v := range values {
		p, m := v.Encode()
		if raw&m == p {
			return v, nil
		}
	}
	var zero T
	return zero, ErrInvalidDiscriminant
}

func isValid[T comparable](v T, values []T) bool {
	for _, w := range values {
		if v == w {
			return true
		}
	}
	return false
}

// PowerMode is the PWR_MGMT0 GYRO_MODE (bits 3:2) and ACCEL_MODE (bits 1:0)
// pair.
type PowerMode uint8

const (
	Sleep           PowerMode = 0b0000 // gyro off, accel off
	Standby         PowerMode = 0b0100 // gyro drive on, accel off
	AccelLowPower   PowerMode = 0b0010 // gyro off, accel duty-cycled
	AccelLowNoise   PowerMode = 0b0011 // gyro off, accel on
	GyroLowNoise    PowerMode = 0b1100 // gyro on, accel off
	SixAxisLowNoise PowerMode = 0b1111 // gyro on, accel on
)

const powerModeMask = 0b0000_1111

var allPowerModes = []PowerMode{Sleep, Standby, AccelLowPower, AccelLowNoise, GyroLowNoise, SixAxisLowNoise}

func (m PowerMode) Encode() (pattern, mask uint8) {
	return uint8(m) & powerModeMask, powerModeMask
}

// DecodePowerMode extracts the power mode from a PWR_MGMT0 value.
func DecodePowerMode(raw uint8) (PowerMode, error) {
	return decodeField(raw, allPowerModes)
}

// DefaultPowerMode is the reset value: both sensors off.
func DefaultPowerMode() PowerMode { return Sleep }

func (m PowerMode) String() string {
	switch m {
	case Sleep:
		return "sleep"
	case Standby:
		return "standby"
	case AccelLowPower:
		return "accel-low-power"
	case AccelLowNoise:
		return "accel-low-noise"
	case GyroLowNoise:
		return "gyro-low-noise"
	case SixAxisLowNoise:
		return "6-axis-low-noise"
	default:
		return fmt.Sprintf("PowerMode(%#04b)", uint8(m))
	}
}

// AccelRange is the ACCEL_CONFIG0 ACCEL_UI_FS_SEL field (bits 6:5).
type AccelRange uint8

const (
	G16 AccelRange = 0 // ±16g
	G8  AccelRange = 1 // ±8g
	G4  AccelRange = 2 // ±4g
	G2  AccelRange = 3 // ±2g
)

const fsSelMask = 0b0110_0000

var allAccelRanges = []AccelRange{G16, G8, G4, G2}

func (r AccelRange) Encode() (pattern, mask uint8) {
	return (uint8(r) << 5) & fsSelMask, fsSelMask
}

// DecodeAccelRange extracts the full-scale range from an ACCEL_CONFIG0 value.
func DecodeAccelRange(raw uint8) (AccelRange, error) {
	return decodeField(raw, allAccelRanges)
}

// DefaultAccelRange is the reset value.
func DefaultAccelRange() AccelRange { return G16 }

// ScaleFactor returns the sensitivity in LSB/g.
func (r AccelRange) ScaleFactor() float64 {
	switch r {
	case G2:
		return 16384
	case G4:
		return 8192
	case G8:
		return 4096
	default:
		return 2048
	}
}

func (r AccelRange) String() string {
	switch r {
	case G2:
		return "±2g"
	case G4:
		return "±4g"
	case G8:
		return "±8g"
	case G16:
		return "±16g"
	default:
		return fmt.Sprintf("AccelRange(%d)", uint8(r))
	}
}

// GyroRange is the GYRO_CONFIG0 GYRO_UI_FS_SEL field (bits 6:5).
type GyroRange uint8

const (
	Deg2000 GyroRange = 0 // ±2000°/s
	Deg1000 GyroRange = 1 // ±1000°/s
	Deg500  GyroRange = 2 // ±500°/s
	Deg250  GyroRange = 3 // ±250°/s
)

var allGyroRanges = []GyroRange{Deg2000, Deg1000, Deg500, Deg250}

func (r GyroRange) Encode() (pattern, mask uint8) {
	return (uint8(r) << 5) & fsSelMask, fsSelMask
}

// DecodeGyroRange extracts the full-scale range from a GYRO_CONFIG0 value.
func DecodeGyroRange(raw uint8) (GyroRange, error) {
	return decodeField(raw, allGyroRanges)
}

// DefaultGyroRange is the reset value.
func DefaultGyroRange() GyroRange { return Deg2000 }

// ScaleFactor returns the sensitivity in LSB/(°/s).
func (r GyroRange) ScaleFactor() float64 {
	switch r {
	case Deg250:
		return 131
	case Deg500:
		return 65.5
	case Deg1000:
		return 32.8
	default:
		return 16.4
	}
}

func (r GyroRange) String() string {
	switch r {
	case Deg250:
		return "±250°/s"
	case Deg500:
		return "±500°/s"
	case Deg1000:
		return "±1000°/s"
	case Deg2000:
		return "±2000°/s"
	default:
		return fmt.Sprintf("GyroRange(%d)", uint8(r))
	}
}

// AccelODR is the ACCEL_CONFIG0 ACCEL_ODR field (bits 3:0).
//
// 1.6 kHz and 800 Hz need low-noise mode; 6.25 Hz and below need low-power
// mode.
type AccelODR uint8

const (
	AccelODR1600Hz   AccelODR = 0b0101
	AccelODR800Hz    AccelODR = 0b0110
	AccelODR400Hz    AccelODR = 0b0111
	AccelODR200Hz    AccelODR = 0b1000
	AccelODR100Hz    AccelODR = 0b1001
	AccelODR50Hz     AccelODR = 0b1010
	AccelODR25Hz     AccelODR = 0b1011
	AccelODR12_5Hz   AccelODR = 0b1100
	AccelODR6_25Hz   AccelODR = 0b1101
	AccelODR3_125Hz  AccelODR = 0b1110
	AccelODR1_5625Hz AccelODR = 0b1111
)

const odrMask = 0b0000_1111

var allAccelODRs = []AccelODR{
	AccelODR1600Hz, AccelODR800Hz, AccelODR400Hz, AccelODR200Hz, AccelODR100Hz, AccelODR50Hz,
	AccelODR25Hz, AccelODR12_5Hz, AccelODR6_25Hz, AccelODR3_125Hz, AccelODR1_5625Hz,
}

func (o AccelODR) Encode() (pattern, mask uint8) {
	return uint8(o) & odrMask, odrMask
}

// DecodeAccelODR extracts the output data rate from an ACCEL_CONFIG0 value.
func DecodeAccelODR(raw uint8) (AccelODR, error) {
	return decodeField(raw, allAccelODRs)
}

// DefaultAccelODR is the reset value.
func DefaultAccelODR() AccelODR { return AccelODR800Hz }

// Frequency returns the output data rate.
func (o AccelODR) Frequency() physic.Frequency {
	switch o {
	case AccelODR1600Hz:
		return 1600 * physic.Hertz
	case AccelODR800Hz:
		return 800 * physic.Hertz
	case AccelODR400Hz:
		return 400 * physic.Hertz
	case AccelODR200Hz:
		return 200 * physic.Hertz
	case AccelODR100Hz:
		return 100 * physic.Hertz
	case AccelODR50Hz:
		return 50 * physic.Hertz
	case AccelODR25Hz:
		return 25 * physic.Hertz
	case AccelODR12_5Hz:
		return 12500 * physic.MilliHertz
	case AccelODR6_25Hz:
		return 6250 * physic.MilliHertz
	case AccelODR3_125Hz:
		return 3125 * physic.MilliHertz
	case AccelODR1_5625Hz:
		return 1562500 * physic.MicroHertz
	default:
		return 0
	}
}

func (o AccelODR) String() string {
	return o.Frequency().String()
}

// GyroODR is the GYRO_CONFIG0 GYRO_ODR field (bits 3:0).
type GyroODR uint8

const (
	GyroODR1600Hz GyroODR = 0b0101
	GyroODR800Hz  GyroODR = 0b0110
	GyroODR400Hz  GyroODR = 0b0111
	GyroODR200Hz  GyroODR = 0b1000
	GyroODR100Hz  GyroODR = 0b1001
	GyroODR50Hz   GyroODR = 0b1010
	GyroODR25Hz   GyroODR = 0b1011
	GyroODR12_5Hz GyroODR = 0b1100
)

var allGyroODRs = []GyroODR{
	GyroODR1600Hz, GyroODR800Hz, GyroODR400Hz, GyroODR200Hz,
	GyroODR100Hz, GyroODR50Hz, GyroODR25Hz, GyroODR12_5Hz,
}

func (o GyroODR) Encode() (pattern, mask uint8) {
	return uint8(o) & odrMask, odrMask
}

// DecodeGyroODR extracts the output data rate from a GYRO_CONFIG0 value.
func DecodeGyroODR(raw uint8) (GyroODR, error) {
	return decodeField(raw, allGyroODRs)
}

// DefaultGyroODR is the reset value.
func DefaultGyroODR() GyroODR { return GyroODR800Hz }

// Frequency returns the output data rate.
func (o GyroODR) Frequency() physic.Frequency {
	switch o {
	case GyroODR1600Hz:
		return 1600 * physic.Hertz
	case GyroODR800Hz:
		return 800 * physic.Hertz
	case GyroODR400Hz:
		return 400 * physic.Hertz
	case GyroODR200Hz:
		return 200 * physic.Hertz
	case GyroODR100Hz:
		return 100 * physic.Hertz
	case GyroODR50Hz:
		return 50 * physic.Hertz
	case GyroODR25Hz:
		return 25 * physic.Hertz
	case GyroODR12_5Hz:
		return 12500 * physic.MilliHertz
	default:
		return 0
	}
}

func (o GyroODR) String() string {
	return o.Frequency().String()
}

// FIFOCountFormat is INTF_CONFIG0 FIFO_COUNT_FORMAT (bit 6).
type FIFOCountFormat uint8

const (
	FIFOCountInBytes FIFOCountFormat = 0
	// FIFOCountInRecords counts 16 byte (header, accel, gyro, temperature,
	// timestamp) or 8 byte (header, one sensor, temperature) records.
	FIFOCountInRecords FIFOCountFormat = 1
)

var allFIFOCountFormats = []FIFOCountFormat{FIFOCountInBytes, FIFOCountInRecords}

func (f FIFOCountFormat) Encode() (pattern, mask uint8) {
	return (uint8(f) << 6) & 0b0100_0000, 0b0100_0000
}

func DecodeFIFOCountFormat(raw uint8) (FIFOCountFormat, error) {
	return decodeField(raw, allFIFOCountFormats)
}

func DefaultFIFOCountFormat() FIFOCountFormat { return FIFOCountInBytes }

// FIFOCountEndian is INTF_CONFIG0 FIFO_COUNT_ENDIAN (bit 5).
type FIFOCountEndian uint8

const (
	FIFOCountLittleEndian FIFOCountEndian = 0
	FIFOCountBigEndian    FIFOCountEndian = 1
)

var allFIFOCountEndians = []FIFOCountEndian{FIFOCountLittleEndian, FIFOCountBigEndian}

func (e FIFOCountEndian) Encode() (pattern, mask uint8) {
	return (uint8(e) << 5) & 0b0010_0000, 0b0010_0000
}

func DecodeFIFOCountEndian(raw uint8) (FIFOCountEndian, error) {
	return decodeField(raw, allFIFOCountEndians)
}

func DefaultFIFOCountEndian() FIFOCountEndian { return FIFOCountBigEndian }

// FIFOMode is FIFO_CONFIG1 FIFO_MODE (bit 1).
type FIFOMode uint8

const (
	FIFOStream     FIFOMode = 0
	FIFOStopOnFull FIFOMode = 1
)

var allFIFOModes = []FIFOMode{FIFOStream, FIFOStopOnFull}

func (m FIFOMode) Encode() (pattern, mask uint8) {
	return (uint8(m) << 1) & 0b0000_0010, 0b0000_0010
}

func DecodeFIFOMode(raw uint8) (FIFOMode, error) {
	return decodeField(raw, allFIFOModes)
}

func DefaultFIFOMode() FIFOMode { return FIFOStream }

// FIFOBypass is FIFO_CONFIG1 FIFO_BYPASS (bit 0).
type FIFOBypass uint8

const (
	FIFOInUse    FIFOBypass = 0
	FIFOBypassed FIFOBypass = 1
)

var allFIFOBypasses = []FIFOBypass{FIFOInUse, FIFOBypassed}

func (b FIFOBypass) Encode() (pattern, mask uint8) {
	return uint8(b) & 0b0000_0001, 0b0000_0001
}

func DecodeFIFOBypass(raw uint8) (FIFOBypass, error) {
	return decodeField(raw, allFIFOBypasses)
}

func DefaultFIFOBypass() FIFOBypass { return FIFOBypassed }

// DMPODR is the APEX_CONFIG1 DMP_ODR field (bits 1:0) clocking the APEX
// motion features, tilt detection included.
type DMPODR uint8

const (
	DMPODR25Hz  DMPODR = 0b00
	DMPODR400Hz DMPODR = 0b01
	DMPODR50Hz  DMPODR = 0b10
	DMPODR100Hz DMPODR = 0b11
)

var allDMPODRs = []DMPODR{DMPODR25Hz, DMPODR400Hz, DMPODR50Hz, DMPODR100Hz}

func (o DMPODR) Encode() (pattern, mask uint8) {
	return uint8(o) & 0b0000_0011, 0b0000_0011
}

func DecodeDMPODR(raw uint8) (DMPODR, error) {
	return decodeField(raw, allDMPODRs)
}

func DefaultDMPODR() DMPODR { return DMPODR50Hz }

// Frequency returns the APEX processing rate.
func (o DMPODR) Frequency() physic.Frequency {
	switch o {
	case DMPODR25Hz:
		return 25 * physic.Hertz
	case DMPODR400Hz:
		return 400 * physic.Hertz
	case DMPODR50Hz:
		return 50 * physic.Hertz
	case DMPODR100Hz:
		return 100 * physic.Hertz
	default:
		return 0
	}
}

// TiltWaitTime is the MREG1 APEX_CONFIG5 TILT_WAIT_TIME_SEL field
// (bits 7:6): how long the tilt must persist before it is reported.
type TiltWaitTime uint8

const (
	TiltWait0s TiltWaitTime = 0
	TiltWait2s TiltWaitTime = 1
	TiltWait4s TiltWaitTime = 2
	TiltWait6s TiltWaitTime = 3
)

var allTiltWaitTimes = []TiltWaitTime{TiltWait0s, TiltWait2s, TiltWait4s, TiltWait6s}

func (t TiltWaitTime) Encode() (pattern, mask uint8) {
	return (uint8(t) << 6) & 0b1100_0000, 0b1100_0000
}

func DecodeTiltWaitTime(raw uint8) (TiltWaitTime, error) {
	return decodeField(raw, allTiltWaitTimes)
}

func DefaultTiltWaitTime() TiltWaitTime { return TiltWait4s }

// Duration returns the wait time.
func (t TiltWaitTime) Duration() time.Duration {
	return time.Duration(t&0b11) * 2 * time.Second
}
