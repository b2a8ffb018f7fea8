// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_node/internal/imu"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

// Static capture parameters.
const (
	DefaultCalibrationSamples = 200
	maxCalibrationSamples     = 10000
)

var calibrationInterval = 20 * time.Millisecond

// CalibrationResult is the static bias of an IMU lying flat, Z axis up.
type CalibrationResult struct {
	Version   int       `json:"version"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	GyroBias       [3]float64 `json:"gyro_bias_dps"`
	GyroStdDev     [3]float64 `json:"gyro_stddev_dps"`
	GyroConfidence float64    `json:"gyro_confidence"`

	AccelBias       [3]float64 `json:"accel_bias_g"` // mean minus (0, 0, 1) g
	AccelStdDev     [3]float64 `json:"accel_stddev_g"`
	AccelConfidence float64    `json:"accel_confidence"`

	TempC        float64 `json:"temp_c"`
	TotalSamples int     `json:"total_samples"`
}

// CaptureStatic averages n samples taken every interval from a still,
// level sensor. progress, if set, is called with the completed percentage
// after each sample.
func CaptureStatic(src imu.SampleSource, n int, interval time.Duration, progress func(float64)) (CalibrationResult, error) {
	if n <= 0 || n > maxCalibrationSamples {
		return CalibrationResult{}, fmt.Errorf("calibration: sample count %d out of range 1..%d", n, maxCalibrationSamples)
	}

	gyro := make([][3]float64, 0, n)
	accel := make([][3]float64, 0, n)
	var temp float64
	var source string
	for i := 0; i < n; i++ {
		if i > 0 && interval > 0 {
			time.Sleep(interval)
		}
		s, err := src.Next()
		if err != nil {
			return CalibrationResult{}, fmt.Errorf("calibration: sample %d: %w", i, err)
		}
		gyro = append(gyro, s.GyroDPS)
		accel = append(accel, s.AccelG)
		temp += s.TempC
		source = s.Source
		if progress != nil {
			progress(100 * float64(i+1) / float64(n))
		}
	}

	res := CalibrationResult{
		Version:      1,
		Source:       source,
		Timestamp:    time.Now(),
		TempC:        temp / float64(n),
		TotalSamples: n,
	}
	gravity := [3]float64{0, 0, 1}
	for axis := 0; axis < 3; axis++ {
		res.GyroBias[axis] = mean(gyro, axis)
		res.GyroStdDev[axis] = stddev(gyro, axis)
		res.AccelBias[axis] = mean(accel, axis) - gravity[axis]
		res.AccelStdDev[axis] = stddev(accel, axis)
	}
	res.GyroConfidence = confidence(res.GyroStdDev, 10)
	res.AccelConfidence = confidence(res.AccelStdDev, 1000)
	return res, nil
}

// confidence maps the mean standard deviation to 0..100, 100 for no noise.
func confidence(std [3]float64, k float64) float64 {
	return 100 / (1 + k*(std[0]+std[1]+std[2])/3)
}

// WriteCalibration stores res as indented JSON in dir and returns the path.
func WriteCalibration(dir string, res CalibrationResult) (string, error) {
	name := fmt.Sprintf("icm42670_%s_calibration.json", res.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal calibration results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write calibration file: %w", err)
	}
	return path, nil
}

// CalibrationMessage is a request of the calibration WebSocket.
type CalibrationMessage struct {
	Action  string `json:"action"` // "start" or "cancel"
	Samples int    `json:"samples,omitempty"`
}

// CalibrationResponse is every message the calibration WebSocket sends.
type CalibrationResponse struct {
	Type     string             `json:"type"` // progress, complete, error
	Progress float64            `json:"progress,omitempty"`
	Results  *CalibrationResult `json:"results,omitempty"`
	File     string             `json:"file,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// HandleCalibrationWS runs static calibrations of the process-wide IMU and
// saves the results in the working directory.
func HandleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	NewCalibrationHandler(sensors.GetIMUManager(), ".")(w, r)
}

// NewCalibrationHandler returns a WebSocket handler calibrating the IMU of
// mgr and saving results in dir.
func NewCalibrationHandler(mgr *sensors.IMUManager, dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("calibration: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg CalibrationMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("calibration: websocket read error: %v", err)
				}
				return
			}

			switch msg.Action {
			case "start":
				runCalibration(conn, mgr, dir, msg.Samples)
			case "cancel":
				log.Printf("calibration: cancelled by user")
				return
			default:
				conn.WriteJSON(CalibrationResponse{Type: "error", Message: fmt.Sprintf("unknown action: %s", msg.Action)})
			}
		}
	}
}

func runCalibration(conn *websocket.Conn, mgr *sensors.IMUManager, dir string, n int) {
	if n == 0 {
		n = DefaultCalibrationSamples
	}
	res, err := CaptureStatic(sampleFunc(mgr.ReadSample), n, calibrationInterval, func(p float64) {
		conn.WriteJSON(CalibrationResponse{Type: "progress", Progress: p})
	})
	if err != nil {
		conn.WriteJSON(CalibrationResponse{Type: "error", Message: err.Error()})
		return
	}
	path, err := WriteCalibration(dir, res)
	if err != nil {
		conn.WriteJSON(CalibrationResponse{Type: "error", Message: err.Error()})
		return
	}
	log.Printf("calibration: saved results to %s", path)
	conn.WriteJSON(CalibrationResponse{Type: "complete", Results: &res, File: filepath.Base(path)})
}

func mean(data [][3]float64, axis int) float64 {
	sum := 0.0
	for _, v := range data {
		sum += v[axis]
	}
	return sum / float64(len(data))
}

func stddev(data [][3]float64, axis int) float64 {
	if len(data) == 0 {
		return 0
	}
	m := mean(data, axis)
	variance := 0.0
	for _, v := range data {
		diff := v[axis] - m
		variance += diff * diff
	}
	variance /= float64(len(data))
	return math.Sqrt(variance)
}
