package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/inertial_node/icm42670"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMU  string
	TopicPose string
	TopicTilt string

	// IMU Hardware
	IMUI2CBus  string // i2creg name, "" for the first bus
	IMUI2CAddr uint16 // 0x68 or 0x69

	// IMU Sensor Configuration
	IMUAccelRange      icm42670.AccelRange
	IMUGyroRange       icm42670.GyroRange
	IMUAccelODR        icm42670.AccelODR
	IMUGyroODR         icm42670.GyroODR
	IMUPowerMode       icm42670.PowerMode
	IMUInt1            icm42670.InterruptConfig
	IMUTiltDetect      bool
	IMUTiltWait        icm42670.TiltWaitTime
	IMUClockReadyPolls int

	// Timing
	IMUSampleInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort            int
	RegisterDebugPort        int
	RegisterDebugAllowWrites bool

	// Display
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // "imu", "orientation" or "temperature"
}

// Package-level singleton. InitGlobal sets it once; Get reads it under a
// read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

var (
	accelRanges = map[string]icm42670.AccelRange{
		"2": icm42670.G2, "4": icm42670.G4, "8": icm42670.G8, "16": icm42670.G16,
	}
	gyroRanges = map[string]icm42670.GyroRange{
		"250": icm42670.Deg250, "500": icm42670.Deg500, "1000": icm42670.Deg1000, "2000": icm42670.Deg2000,
	}
	accelODRs = map[string]icm42670.AccelODR{
		"1600": icm42670.AccelODR1600Hz, "800": icm42670.AccelODR800Hz, "400": icm42670.AccelODR400Hz,
		"200": icm42670.AccelODR200Hz, "100": icm42670.AccelODR100Hz, "50": icm42670.AccelODR50Hz,
		"25": icm42670.AccelODR25Hz, "12.5": icm42670.AccelODR12_5Hz, "6.25": icm42670.AccelODR6_25Hz,
		"3.125": icm42670.AccelODR3_125Hz, "1.5625": icm42670.AccelODR1_5625Hz,
	}
	gyroODRs = map[string]icm42670.GyroODR{
		"1600": icm42670.GyroODR1600Hz, "800": icm42670.GyroODR800Hz, "400": icm42670.GyroODR400Hz,
		"200": icm42670.GyroODR200Hz, "100": icm42670.GyroODR100Hz, "50": icm42670.GyroODR50Hz,
		"25": icm42670.GyroODR25Hz, "12.5": icm42670.GyroODR12_5Hz,
	}
	powerModes = map[string]icm42670.PowerMode{
		"sleep":    icm42670.Sleep,
		"standby":  icm42670.Standby,
		"accel_lp": icm42670.AccelLowPower,
		"accel_ln": icm42670.AccelLowNoise,
		"gyro_ln":  icm42670.GyroLowNoise,
		"6axis_ln": icm42670.SixAxisLowNoise,
	}
	tiltWaits = map[string]icm42670.TiltWaitTime{
		"0": icm42670.TiltWait0s, "2": icm42670.TiltWait2s, "4": icm42670.TiltWait4s, "6": icm42670.TiltWait6s,
	}
	displayContents = map[string]bool{"imu": true, "orientation": true, "temperature": true}
)

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer:  "inertial-node-producer",
		MQTTClientIDConsole:   "inertial-node-console",
		MQTTClientIDWeb:       "inertial-node-web",
		MQTTClientIDDisplay:   "inertial-node-display",
		TopicIMU:              "inertial/imu",
		TopicPose:             "inertial/pose",
		TopicTilt:             "inertial/tilt",
		IMUI2CAddr:            icm42670.AddrPrimary,
		IMUAccelRange:         icm42670.DefaultAccelRange(),
		IMUGyroRange:          icm42670.DefaultGyroRange(),
		IMUAccelODR:           icm42670.DefaultAccelODR(),
		IMUGyroODR:            icm42670.DefaultGyroODR(),
		IMUPowerMode:          icm42670.SixAxisLowNoise,
		IMUInt1:               icm42670.DefaultInterruptConfig(),
		IMUTiltWait:           icm42670.DefaultTiltWaitTime(),
		IMUClockReadyPolls:    icm42670.DefaultOpts.ClockReadyPolls,
		IMUSampleInterval:     50,
		ConsoleLogInterval:    500,
		WebServerPort:         8080,
		RegisterDebugPort:     8081,
		DisplayUpdateInterval: 250,
		DisplayContent:        "imu",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func lookup[T any](key, value string, m map[string]T) (T, error) {
	v, ok := m[value]
	if !ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return v, fmt.Errorf("invalid %s %q (one of %s)", key, value, strings.Join(keys, ", "))
	}
	return v, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseAddr(key, value string) (uint16, error) {
	v, err := strconv.ParseUint(value, 0, 7)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(v), nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_TILT":
		c.TopicTilt = value

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		c.IMUI2CAddr, err = parseAddr(key, value)

	// IMU Sensor Configuration
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = lookup(key, value, accelRanges)
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = lookup(key, value, gyroRanges)
	case "IMU_ACCEL_ODR":
		c.IMUAccelODR, err = lookup(key, value, accelODRs)
	case "IMU_GYRO_ODR":
		c.IMUGyroODR, err = lookup(key, value, gyroODRs)
	case "IMU_POWER_MODE":
		c.IMUPowerMode, err = lookup(key, value, powerModes)
	case "IMU_INT1_MODE":
		c.IMUInt1.Mode, err = lookup(key, value, map[string]icm42670.IntMode{
			"pulsed": icm42670.IntPulsed, "latched": icm42670.IntLatched,
		})
	case "IMU_INT1_DRIVE":
		c.IMUInt1.Drive, err = lookup(key, value, map[string]icm42670.IntDrive{
			"open_drain": icm42670.IntOpenDrain, "push_pull": icm42670.IntPushPull,
		})
	case "IMU_INT1_POLARITY":
		c.IMUInt1.Polarity, err = lookup(key, value, map[string]icm42670.IntPolarity{
			"low": icm42670.IntActiveLow, "high": icm42670.IntActiveHigh,
		})
	case "IMU_TILT_DETECT":
		c.IMUTiltDetect, err = parseBool(key, value)
	case "IMU_TILT_WAIT":
		c.IMUTiltWait, err = lookup(key, value, tiltWaits)
	case "IMU_CLOCK_READY_POLLS":
		c.IMUClockReadyPolls, err = parseInt(key, value)

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_PORT":
		c.RegisterDebugPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_ALLOW_WRITES":
		c.RegisterDebugAllowWrites, err = parseBool(key, value)

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)
	case "DISPLAY_CONTENT":
		if !displayContents[value] {
			return fmt.Errorf("invalid DISPLAY_CONTENT %q (imu, orientation or temperature)", value)
		}
		c.DisplayContent = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUI2CAddr != icm42670.AddrPrimary && c.IMUI2CAddr != icm42670.AddrSecondary {
		return fmt.Errorf("IMU_I2C_ADDR must be 0x68 or 0x69, got %#x", c.IMUI2CAddr)
	}
	if c.IMUClockReadyPolls <= 0 {
		return fmt.Errorf("IMU_CLOCK_READY_POLLS must be positive, got %d", c.IMUClockReadyPolls)
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL must be positive, got %d", c.IMUSampleInterval)
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive, got %d", c.ConsoleLogInterval)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Set replaces the global configuration. Used by tools that build their
// configuration without a file.
func Set(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	globalConfig = cfg
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
