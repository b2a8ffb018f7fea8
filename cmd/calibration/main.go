// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/relabs-tech/inertial_node/internal/app"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "inertial_config.txt", "Path to configuration file")
	samples := flag.Int("samples", app.DefaultCalibrationSamples, "Number of samples to average")
	interval := flag.Duration("interval", 20*time.Millisecond, "Time between samples")
	outDir := flag.String("out", ".", "Directory the result file is written to")
	flag.Parse()

	fmt.Println("=== Static Calibration (Accel + Gyro) ===")
	fmt.Println()

	if err := config.InitGlobal(*configPath); err != nil {
		fatal(fmt.Errorf("failed to load config from %s: %w", *configPath, err))
	}

	mgr := sensors.GetIMUManager()
	if err := mgr.Init(config.Get()); err != nil {
		fatal(fmt.Errorf("IMU init failed: %w", err))
	}
	defer mgr.Close()
	fmt.Printf("IMU: %s\n\n", mgr.Name())

	fmt.Println("Place the device on a level, stable surface, Z axis up, and do not touch it.")
	waitEnter(in, fmt.Sprintf("Press ENTER to start the capture (%d samples)...", *samples))

	last := -1
	res, err := app.CaptureStatic(managerSamples{mgr}, *samples, *interval, func(p float64) {
		if pct := int(p) / 10 * 10; pct != last {
			last = pct
			fmt.Printf("\r%3d%%", pct)
		}
	})
	fmt.Println()
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Gyro bias (dps):  X=%.3f Y=%.3f Z=%.3f | confidence=%.2f\n",
		res.GyroBias[0], res.GyroBias[1], res.GyroBias[2], res.GyroConfidence)
	fmt.Printf("Accel bias (g):   X=%.4f Y=%.4f Z=%.4f | confidence=%.2f\n",
		res.AccelBias[0], res.AccelBias[1], res.AccelBias[2], res.AccelConfidence)
	fmt.Printf("Temperature:      %.2f C\n", res.TempC)

	path, err := app.WriteCalibration(*outDir, res)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nWrote: %s\n", path)
}

type managerSamples struct {
	mgr *sensors.IMUManager
}

func (m managerSamples) Next() (imu.Sample, error) {
	return m.mgr.ReadSample()
}

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
