package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_node/internal/imu"
)

// Pose is the canonical representation of orientation for your app.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// gyroWeight is the complementary filter weight of the integrated gyro.
const gyroWeight = 0.98

const radToDeg = 180.0 / math.Pi

// ComputePoseFromAccel computes roll and pitch from accelerometer data only,
// in any unit. Yaw is 0: the ICM-42670 has no magnetometer to anchor it.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	return Pose{
		Roll:  math.Atan2(ay, az) * radToDeg,
		Pitch: math.Atan2(-ax, math.Sqrt(ay*ay+az*az)) * radToDeg,
	}
}

// ComputePoseFromSample fuses the accelerometer tilt with the gyro rates
// integrated over dt seconds from prev. Yaw is the integrated Z rate,
// wrapped to [0, 360).
//
// A non-positive dt returns the accelerometer-only pose.
func ComputePoseFromSample(s imu.Sample, prev Pose, dt float64) Pose {
	acc := ComputePoseFromAccel(s.AccelG[0], s.AccelG[1], s.AccelG[2])
	if dt <= 0 {
		return acc
	}
	roll := prev.Roll + s.GyroDPS[0]*dt
	pitch := prev.Pitch + s.GyroDPS[1]*dt
	yaw := math.Mod(prev.Yaw+s.GyroDPS[2]*dt, 360)
	if yaw < 0 {
		yaw += 360
	}
	return Pose{
		Roll:  gyroWeight*roll + (1-gyroWeight)*acc.Roll,
		Pitch: gyroWeight*pitch + (1-gyroWeight)*acc.Pitch,
		Yaw:   yaw,
	}
}
