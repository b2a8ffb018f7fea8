package sensors

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/relabs-tech/inertial_node/icm42670"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/imu"
)

// ErrNoIMU is returned by the manager before a source is attached.
var ErrNoIMU = errors.New("sensors: IMU not initialized")

// ErrWritesDisabled is returned by WriteRegister unless register writes were
// enabled.
var ErrWritesDisabled = errors.New("sensors: register writes disabled")

// IMUManager serializes every access to the shared ICM-42670 between the
// sampling loop, the HTTP API and the register debugger.
type IMUManager struct {
	mu          sync.Mutex
	src         *IMUSource
	cfg         *config.Config
	open        func(*config.Config) (*IMUSource, error)
	allowWrites bool
}

var (
	imuManager     *IMUManager
	imuManagerOnce sync.Once
)

// GetIMUManager returns the process-wide manager.
func GetIMUManager() *IMUManager {
	imuManagerOnce.Do(func() {
		imuManager = &IMUManager{open: NewIMUSource}
	})
	return imuManager
}

// NewIMUManager returns a manager that opens its source with open.
func NewIMUManager(open func(*config.Config) (*IMUSource, error)) *IMUManager {
	return &IMUManager{open: open}
}

// Init opens the IMU described by cfg, replacing any previous one.
func (m *IMUManager) Init(cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(cfg)
}

func (m *IMUManager) initLocked(cfg *config.Config) error {
	if m.src != nil {
		if err := m.src.Close(); err != nil {
			log.Printf("sensors: closing previous IMU: %v", err)
		}
		m.src = nil
	}
	src, err := m.open(cfg)
	if err != nil {
		return err
	}
	m.src = src
	m.cfg = cfg
	m.allowWrites = cfg.RegisterDebugAllowWrites
	return nil
}

// Reinitialize reopens the IMU with the configuration of the last Init.
func (m *IMUManager) Reinitialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return ErrNoIMU
	}
	return m.initLocked(m.cfg)
}

// Close releases the IMU.
func (m *IMUManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.src == nil {
		return nil
	}
	err := m.src.Close()
	m.src = nil
	return err
}

func (m *IMUManager) with(fn func(*IMUSource) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.src == nil {
		return ErrNoIMU
	}
	return fn(m.src)
}

// Name returns the bus and address of the IMU.
func (m *IMUManager) Name() string {
	var name string
	m.with(func(s *IMUSource) error {
		name = s.Name()
		return nil
	})
	return name
}

// ReadSample reads one sample.
func (m *IMUManager) ReadSample() (imu.Sample, error) {
	var out imu.Sample
	err := m.with(func(s *IMUSource) error {
		var err error
		out, err = s.Next()
		return err
	})
	return out, err
}

// TiltDetected reports, and clears, a pending tilt event.
func (m *IMUManager) TiltDetected() (bool, error) {
	var out bool
	err := m.with(func(s *IMUSource) error {
		var err error
		out, err = s.TiltDetected()
		return err
	})
	return out, err
}

// ReadRegister reads one register in any bank.
func (m *IMUManager) ReadRegister(r icm42670.Reg) (uint8, error) {
	var v uint8
	err := m.with(func(s *IMUSource) error {
		var err error
		v, err = s.dev.ReadRegister(r)
		return err
	})
	return v, err
}

// WriteRegister writes one register in any bank.
func (m *IMUManager) WriteRegister(r icm42670.Reg, v uint8) error {
	return m.with(func(s *IMUSource) error {
		if !m.allowWrites {
			return ErrWritesDisabled
		}
		return s.dev.WriteRegister(r, v)
	})
}

// ReadAllRegisters reads every register of bank. Write-only or
// side-effecting registers (FIFO_DATA, status registers cleared on read,
// the gateway data port) are skipped.
func (m *IMUManager) ReadAllRegisters(bank icm42670.Bank) (map[icm42670.Reg]uint8, error) {
	out := map[icm42670.Reg]uint8{}
	err := m.with(func(s *IMUSource) error {
		for _, r := range icm42670.Registers() {
			if r.Descriptor().Bank != bank || skipOnDump(r) {
				continue
			}
			v, err := s.dev.ReadRegister(r)
			if err != nil {
				return fmt.Errorf("read %s: %w", r, err)
			}
			out[r] = v
		}
		return nil
	})
	return out, err
}

func skipOnDump(r icm42670.Reg) bool {
	switch r {
	case icm42670.FifoData, icm42670.IntStatus, icm42670.IntStatus2, icm42670.IntStatus3,
		icm42670.IntStatusDrdy, icm42670.MR:
		return true
	}
	return false
}

// SoftReset resets the device registers and applies the configuration again.
func (m *IMUManager) SoftReset() error {
	return m.with(func(s *IMUSource) error {
		if err := s.dev.SoftReset(); err != nil {
			return err
		}
		return s.configure(m.cfg)
	})
}

// GetRegisterMap returns the register metadata of the ICM-42670.
func (m *IMUManager) GetRegisterMap() []RegisterInfo {
	return getICM42670RegisterMap()
}
