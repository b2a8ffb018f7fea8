package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relabs-tech/inertial_node/icm42670"
)

func TestParse(t *testing.T) {
	data := `
# broker
MQTT_BROKER=tcp://localhost:1883
TOPIC_IMU = node/imu
IMU_I2C_ADDR=0x69
IMU_ACCEL_RANGE=4
IMU_GYRO_RANGE=500
IMU_ACCEL_ODR=12.5
IMU_GYRO_ODR=100
IMU_POWER_MODE=accel_ln
IMU_INT1_MODE=latched
IMU_INT1_DRIVE=push_pull
IMU_INT1_POLARITY=high
IMU_TILT_DETECT=true
IMU_TILT_WAIT=2
REGISTER_DEBUG_ALLOW_WRITES=1
DISPLAY_CONTENT=temperature
`
	cfg, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("MQTTBroker=%q", cfg.MQTTBroker)
	}
	if cfg.TopicIMU != "node/imu" {
		t.Errorf("TopicIMU=%q", cfg.TopicIMU)
	}
	if cfg.TopicPose != "inertial/pose" {
		t.Errorf("default TopicPose lost: %q", cfg.TopicPose)
	}
	if cfg.IMUI2CAddr != icm42670.AddrSecondary {
		t.Errorf("IMUI2CAddr=%#x", cfg.IMUI2CAddr)
	}
	if cfg.IMUAccelRange != icm42670.G4 || cfg.IMUGyroRange != icm42670.Deg500 {
		t.Errorf("ranges %v %v", cfg.IMUAccelRange, cfg.IMUGyroRange)
	}
	if cfg.IMUAccelODR != icm42670.AccelODR12_5Hz || cfg.IMUGyroODR != icm42670.GyroODR100Hz {
		t.Errorf("ODRs %v %v", cfg.IMUAccelODR, cfg.IMUGyroODR)
	}
	if cfg.IMUPowerMode != icm42670.AccelLowNoise {
		t.Errorf("IMUPowerMode=%v", cfg.IMUPowerMode)
	}
	want := icm42670.InterruptConfig{Mode: icm42670.IntLatched, Drive: icm42670.IntPushPull, Polarity: icm42670.IntActiveHigh}
	if cfg.IMUInt1 != want {
		t.Errorf("IMUInt1=%v", cfg.IMUInt1)
	}
	if !cfg.IMUTiltDetect || cfg.IMUTiltWait != icm42670.TiltWait2s {
		t.Errorf("tilt %t %v", cfg.IMUTiltDetect, cfg.IMUTiltWait)
	}
	if !cfg.RegisterDebugAllowWrites {
		t.Error("RegisterDebugAllowWrites not set")
	}
	if cfg.DisplayContent != "temperature" {
		t.Errorf("DisplayContent=%q", cfg.DisplayContent)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing broker", "IMU_ACCEL_RANGE=2\n", "MQTT_BROKER is required"},
		{"unknown key", "MQTT_BROKER=x\nFOO=1\n", `line 2: unknown config key: "FOO"`},
		{"no equals", "MQTT_BROKER\n", "invalid config line 1"},
		{"bad range", "MQTT_BROKER=x\nIMU_ACCEL_RANGE=3\n", "invalid IMU_ACCEL_RANGE"},
		{"gyro low-power rate", "MQTT_BROKER=x\nIMU_GYRO_ODR=6.25\n", "invalid IMU_GYRO_ODR"},
		{"bad address", "MQTT_BROKER=x\nIMU_I2C_ADDR=0x42\n", "IMU_I2C_ADDR must be 0x68 or 0x69"},
		{"zero polls", "MQTT_BROKER=x\nIMU_CLOCK_READY_POLLS=0\n", "IMU_CLOCK_READY_POLLS must be positive"},
		{"bad bool", "MQTT_BROKER=x\nIMU_TILT_DETECT=maybe\n", "invalid IMU_TILT_DETECT"},
		{"bad content", "MQTT_BROKER=x\nDISPLAY_CONTENT=gps\n", "invalid DISPLAY_CONTENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadAndGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inertial.conf")
	if err := os.WriteFile(path, []byte("MQTT_BROKER=tcp://broker:1883\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Fatal("Load of a missing file succeeded")
	}
	if err := InitGlobal(path); err != nil {
		t.Fatalf("InitGlobal: %v", err)
	}
	if got := Get(); got == nil || got.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("Get()=%+v", got)
	}
	cfg := Default()
	cfg.MQTTBroker = "other"
	Set(cfg)
	if Get().MQTTBroker != "other" {
		t.Fatal("Set did not replace the global configuration")
	}
}
