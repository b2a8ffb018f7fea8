// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/inertial_node/internal/imu"
)

// mockCountsPerG is the ±2g sensitivity the mock samples are expressed in.
const mockCountsPerG = 16384

// mockSource moves through smoothly changing poses.
type mockSource struct {
	start time.Time
	now   func() time.Time
}

func (m *mockSource) pose(t time.Time) Pose {
	elapsed := t.Sub(m.start).Seconds()
	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*30, 360),
	}
}

type mockSampleSource struct {
	mockSource
}

// NewMockSampleSource returns samples of a sensor rocking slowly in roll and
// pitch: gravity seen through the mock pose, at rest in yaw.
func NewMockSampleSource() imu.SampleSource {
	return &mockSampleSource{mockSource{start: time.Now(), now: time.Now}}
}

func (m *mockSampleSource) Next() (imu.Sample, error) {
	t := m.now()
	p := m.pose(t)
	r, pi := p.Roll/radToDeg, p.Pitch/radToDeg
	g := [3]float64{
		-math.Sin(pi),
		math.Sin(r) * math.Cos(pi),
		math.Cos(r) * math.Cos(pi),
	}
	return imu.Sample{
		Source: "mock",
		Time:   t,
		Ax:     int16(g[0] * mockCountsPerG),
		Ay:     int16(g[1] * mockCountsPerG),
		Az:     int16(g[2] * mockCountsPerG),
		AccelG: g,
		TempC:  25,
	}, nil
}
