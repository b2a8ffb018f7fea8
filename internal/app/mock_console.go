// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/inertial_node/internal/orientation"
)

// RunMockConsole prints mock samples and the pose fused from them, without
// MQTT or hardware.
func RunMockConsole() error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	poses, samples := fuse(orientation.NewMockSampleSource())
	for range ticker.C {
		if err := mockConsoleStep(os.Stdout, poses, samples); err != nil {
			return err
		}
	}
	return nil
}

func mockConsoleStep(out io.Writer, poses orientation.Source, samples *recorder) error {
	pose, err := poses.Next()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatSample(samples.last))
	fmt.Fprintln(out, formatPose(pose))
	return nil
}
