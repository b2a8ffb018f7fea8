// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/inertial_node/icm42670"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// IMUSource is a configured ICM-42670 producing samples.
type IMUSource struct {
	name   string // bus and address, for logging
	dev    *icm42670.Dev
	closer io.Closer
}

// NewIMUSource opens the configured I²C bus and brings up the ICM-42670 on it.
func NewIMUSource(cfg *config.Config) (*IMUSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return nil, fmt.Errorf("IMU: open I2C bus %q: %w", cfg.IMUI2CBus, err)
	}
	src, err := NewIMUSourceOnBus(bus, cfg)
	if err != nil {
		bus.Close()
		return nil, err
	}
	src.closer = bus
	return src, nil
}

// NewIMUSourceOnBus brings up the ICM-42670 on an already opened bus and
// applies the configured ranges, rates, power mode, interrupt pin and tilt
// detector.
func NewIMUSourceOnBus(bus i2c.Bus, cfg *config.Config) (*IMUSource, error) {
	name := fmt.Sprintf("%s@%#x", bus, cfg.IMUI2CAddr)
	dev, err := icm42670.New(bus, &icm42670.Opts{
		Addr:            cfg.IMUI2CAddr,
		ClockReadyPolls: cfg.IMUClockReadyPolls,
	})
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}
	id, _ := dev.DeviceID()
	log.Printf("%s IMU: WHO_AM_I = 0x%02X", name, id)

	s := &IMUSource{name: name, dev: dev}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *IMUSource) configure(cfg *config.Config) error {
	if err := s.dev.SetAccelRange(cfg.IMUAccelRange); err != nil {
		return fmt.Errorf("%s IMU: set accel range: %w", s.name, err)
	}
	log.Printf("%s IMU: accelerometer range set to %v", s.name, cfg.IMUAccelRange)

	if err := s.dev.SetGyroRange(cfg.IMUGyroRange); err != nil {
		return fmt.Errorf("%s IMU: set gyro range: %w", s.name, err)
	}
	log.Printf("%s IMU: gyroscope range set to %v", s.name, cfg.IMUGyroRange)

	if err := s.dev.SetAccelODR(cfg.IMUAccelODR); err != nil {
		return fmt.Errorf("%s IMU: set accel ODR: %w", s.name, err)
	}
	if err := s.dev.SetGyroODR(cfg.IMUGyroODR); err != nil {
		return fmt.Errorf("%s IMU: set gyro ODR: %w", s.name, err)
	}
	log.Printf("%s IMU: output data rates accel %v, gyro %v", s.name, cfg.IMUAccelODR, cfg.IMUGyroODR)

	if err := s.dev.SetInterruptConfig(icm42670.Int1, cfg.IMUInt1); err != nil {
		return fmt.Errorf("%s IMU: set INT1 config: %w", s.name, err)
	}

	if err := s.dev.SetPowerMode(cfg.IMUPowerMode); err != nil {
		return fmt.Errorf("%s IMU: set power mode: %w", s.name, err)
	}
	log.Printf("%s IMU: power mode %v", s.name, cfg.IMUPowerMode)

	// The tilt detector lives in MREG1, which is unreachable while the
	// internal clock is stopped.
	if cfg.IMUTiltDetect {
		if err := s.dev.SetTiltWaitTime(cfg.IMUTiltWait); err != nil {
			return fmt.Errorf("%s IMU: set tilt wait time: %w", s.name, err)
		}
		if err := s.dev.SetTiltInterrupt(icm42670.Int1, true); err != nil {
			return fmt.Errorf("%s IMU: route tilt interrupt: %w", s.name, err)
		}
		if err := s.dev.SetTiltDetection(true); err != nil {
			return fmt.Errorf("%s IMU: enable tilt detection: %w", s.name, err)
		}
		log.Printf("%s IMU: tilt detection enabled (wait %v)", s.name, cfg.IMUTiltWait.Duration())
	}
	return nil
}

// Name returns the bus and address the source reads from.
func (s *IMUSource) Name() string {
	return s.name
}

// Next reads accelerometer, gyroscope and temperature.
func (s *IMUSource) Next() (imu.Sample, error) {
	ar, err := s.dev.AccelRange()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU accel range: %w", s.name, err)
	}
	gr, err := s.dev.GyroRange()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU gyro range: %w", s.name, err)
	}
	a, err := s.dev.AccelRaw()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU accel: %w", s.name, err)
	}
	g, err := s.dev.GyroRaw()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU gyro: %w", s.name, err)
	}
	t, err := s.dev.Temperature()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%s IMU temperature: %w", s.name, err)
	}
	return newSample(s.name, time.Now(), a, g, ar, gr, t), nil
}

// TiltDetected reports, and clears, a pending tilt event.
func (s *IMUSource) TiltDetected() (bool, error) {
	return s.dev.TiltDetected()
}

// Close puts the sensor to sleep and releases the bus.
func (s *IMUSource) Close() error {
	err := s.dev.Halt()
	s.dev.Free()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newSample scales raw readings with the given ranges.
func newSample(source string, at time.Time, a, g icm42670.RawAxes, ar icm42670.AccelRange, gr icm42670.GyroRange, tempC float64) imu.Sample {
	as, gs := ar.ScaleFactor(), gr.ScaleFactor()
	return imu.Sample{
		Source:  source,
		Time:    at,
		Ax:      a.X,
		Ay:      a.Y,
		Az:      a.Z,
		Gx:      g.X,
		Gy:      g.Y,
		Gz:      g.Z,
		AccelG:  [3]float64{float64(a.X) / as, float64(a.Y) / as, float64(a.Z) / as},
		GyroDPS: [3]float64{float64(g.X) / gs, float64(g.Y) / gs, float64(g.Z) / gs},
		TempC:   tempC,
	}
}
