package orientation

import (
	"fmt"

	"github.com/relabs-tech/inertial_node/internal/imu"
)

type imuSource struct {
	samples imu.SampleSource
	prev    Pose
	last    imu.Sample
	primed  bool
}

// NewIMUSource returns a Source fusing the samples of src.
func NewIMUSource(src imu.SampleSource) Source {
	return &imuSource{samples: src}
}

// Next reads one sample and advances the filter by the time elapsed since
// the previous one.
func (s *imuSource) Next() (Pose, error) {
	sample, err := s.samples.Next()
	if err != nil {
		return Pose{}, fmt.Errorf("orientation: %w", err)
	}
	var dt float64
	if s.primed {
		dt = sample.Time.Sub(s.last.Time).Seconds()
	}
	s.prev = ComputePoseFromSample(sample, s.prev, dt)
	s.last = sample
	s.primed = true
	return s.prev, nil
}
