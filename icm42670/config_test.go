// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

// checkField verifies, for every value of a field and every possible
// register byte, that merging the value in touches only the field bits and
// decodes back to the same value.
func checkField[T interface {
	comparable
	Bitfield
}](t *testing.T, name string, values []T) {
	t.Helper()
	for _, v := range values {
		p, m := v.Encode()
		if p&^m != 0 {
			t.Errorf("%s %v: pattern %#08b outside mask %#08b", name, v, p, m)
		}
		for raw := 0; raw < 256; raw++ {
			got := merge(uint8(raw), p, m)
			if got&^m != uint8(raw)&^m {
				t.Fatalf("%s %v: merge(%#02x) changed bits outside the field: %#02x", name, v, raw, got)
			}
			dec, err := decodeField(got, values)
			if err != nil {
				t.Fatalf("%s %v: decode(%#02x): %v", name, v, got, err)
			}
			if dec != v {
				t.Fatalf("%s: decode(%#02x)=%v want %v", name, got, dec, v)
			}
		}
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	checkField(t, "PowerMode", allPowerModes)
	checkField(t, "AccelRange", allAccelRanges)
	checkField(t, "GyroRange", allGyroRanges)
	checkField(t, "AccelODR", allAccelODRs)
	checkField(t, "GyroODR", allGyroODRs)
	checkField(t, "FIFOCountFormat", allFIFOCountFormats)
	checkField(t, "FIFOCountEndian", allFIFOCountEndians)
	checkField(t, "FIFOMode", allFIFOModes)
	checkField(t, "FIFOBypass", allFIFOBypasses)
	checkField(t, "DMPODR", allDMPODRs)
	checkField(t, "TiltWaitTime", allTiltWaitTimes)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"accel odr reserved", func() error { _, err := DecodeAccelODR(0x00); return err }},
		{"accel odr low nibble 0100", func() error { _, err := DecodeAccelODR(0xF4); return err }},
		{"gyro odr low-power only", func() error { _, err := DecodeGyroODR(0x0D); return err }},
		{"power mode accel 01", func() error { _, err := DecodePowerMode(0b0001); return err }},
		{"power mode gyro 10", func() error { _, err := DecodePowerMode(0b1000); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrInvalidDiscriminant) {
				t.Fatalf("got %v want ErrInvalidDiscriminant", err)
			}
		})
	}
}

func TestDecodeIgnoresOtherBits(t *testing.T) {
	r, err := DecodeAccelRange(0b1011_1111)
	if err != nil || r != G8 {
		t.Fatalf("DecodeAccelRange=%v, %v want ±8g", r, err)
	}
	m, err := DecodePowerMode(0xF0 | 0b0011)
	if err != nil || m != AccelLowNoise {
		t.Fatalf("DecodePowerMode=%v, %v want accel-low-noise", m, err)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultPowerMode() != Sleep {
		t.Errorf("DefaultPowerMode=%v", DefaultPowerMode())
	}
	if DefaultAccelRange() != G16 {
		t.Errorf("DefaultAccelRange=%v", DefaultAccelRange())
	}
	if DefaultGyroRange() != Deg2000 {
		t.Errorf("DefaultGyroRange=%v", DefaultGyroRange())
	}
	if DefaultAccelODR() != AccelODR800Hz || DefaultGyroODR() != GyroODR800Hz {
		t.Errorf("default ODRs %v %v", DefaultAccelODR(), DefaultGyroODR())
	}
	if DefaultFIFOCountEndian() != FIFOCountBigEndian || DefaultFIFOBypass() != FIFOBypassed {
		t.Errorf("default FIFO %v %v", DefaultFIFOCountEndian(), DefaultFIFOBypass())
	}
	if DefaultDMPODR() != DMPODR50Hz || DefaultTiltWaitTime() != TiltWait4s {
		t.Errorf("default APEX %v %v", DefaultDMPODR(), DefaultTiltWaitTime())
	}
}

func TestScaleFactors(t *testing.T) {
	accel := map[AccelRange]float64{G2: 16384, G4: 8192, G8: 4096, G16: 2048}
	for r, want := range accel {
		if got := r.ScaleFactor(); got != want {
			t.Errorf("%v: %v want %v", r, got, want)
		}
	}
	gyro := map[GyroRange]float64{Deg250: 131, Deg500: 65.5, Deg1000: 32.8, Deg2000: 16.4}
	for r, want := range gyro {
		if got := r.ScaleFactor(); got != want {
			t.Errorf("%v: %v want %v", r, got, want)
		}
	}
}

func TestFrequencies(t *testing.T) {
	if got := AccelODR1_5625Hz.Frequency(); got != 1562500*physic.MicroHertz {
		t.Errorf("AccelODR1_5625Hz=%v", got)
	}
	if got := GyroODR12_5Hz.Frequency(); got != 12500*physic.MilliHertz {
		t.Errorf("GyroODR12_5Hz=%v", got)
	}
	if got := DMPODR400Hz.Frequency(); got != 400*physic.Hertz {
		t.Errorf("DMPODR400Hz=%v", got)
	}
	if got := TiltWait6s.Duration(); got != 6*time.Second {
		t.Errorf("TiltWait6s=%v", got)
	}
}

func TestInterruptConfigEncode(t *testing.T) {
	tests := []struct {
		pin     IntPin
		cfg     InterruptConfig
		pattern uint8
		mask    uint8
	}{
		{Int1, InterruptConfig{IntLatched, IntOpenDrain, IntActiveHigh}, 0b000_101, 0b000_111},
		{Int2, InterruptConfig{IntLatched, IntPushPull, IntActiveHigh}, 0b111_000, 0b111_000},
		{Int2, DefaultInterruptConfig(), 0, 0b111_000},
		{Int1, InterruptConfig{IntPulsed, IntPushPull, IntActiveLow}, 0b000_010, 0b000_111},
	}
	for _, tt := range tests {
		p, m, err := tt.cfg.Encode(tt.pin)
		if err != nil {
			t.Fatalf("%v %v: %v", tt.pin, tt.cfg, err)
		}
		if p != tt.pattern || m != tt.mask {
			t.Errorf("%v %v: got %#08b/%#08b want %#08b/%#08b", tt.pin, tt.cfg, p, m, tt.pattern, tt.mask)
		}
		got, err := DecodeInterruptConfig(p|^m, tt.pin)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.cfg {
			t.Errorf("%v: decode %v want %v", tt.pin, got, tt.cfg)
		}
	}
}

func TestInterruptConfigInvalid(t *testing.T) {
	if _, _, err := DefaultInterruptConfig().Encode(IntPin(3)); !errors.Is(err, ErrBadConfig) {
		t.Errorf("pin 3: %v", err)
	}
	if _, _, err := (InterruptConfig{Mode: IntMode(2)}).Encode(Int1); !errors.Is(err, ErrBadConfig) {
		t.Errorf("mode 2: %v", err)
	}
	if _, err := DecodeInterruptConfig(0, IntPin(0)); !errors.Is(err, ErrBadConfig) {
		t.Errorf("decode pin 0: %v", err)
	}
}
