package imu

import "time"

// Sample is one ICM-42670 reading, raw and scaled.
type Sample struct {
	Source string    `json:"source"` // I²C bus and address
	Time   time.Time `json:"time"`

	Ax int16 `json:"ax"` // accel, counts
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro, counts
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	AccelG  [3]float64 `json:"accel_g"`  // accel, g
	GyroDPS [3]float64 `json:"gyro_dps"` // gyro, °/s

	TempC float64 `json:"temp_c"`
}

// TiltEvent is published when the APEX tilt detector fires.
type TiltEvent struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}

// SampleSource produces samples.
type SampleSource interface {
	Next() (Sample, error)
}
