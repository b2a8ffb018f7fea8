// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import "fmt"

// Bank identifies the register set a register lives in.
//
// Bank0 is addressed directly on the bus. The MREG banks sit behind the
// BLK_SEL/MADDR/M_R/M_W gateway in Bank0 and can only be reached through it.
type Bank uint8

const (
	Bank0 Bank = iota
	MReg1
	MReg2
	MReg3
)

// blockSelect returns the BLK_SEL_R/BLK_SEL_W code routing the gateway to b.
func (b Bank) blockSelect() uint8 {
	switch b {
	case MReg2:
		return 0x28
	case MReg3:
		return 0x50
	default:
		return 0x00
	}
}

func (b Bank) String() string {
	switch b {
	case Bank0:
		return "BANK0"
	case MReg1:
		return "MREG1"
	case MReg2:
		return "MREG2"
	case MReg3:
		return "MREG3"
	default:
		return fmt.Sprintf("Bank(%d)", uint8(b))
	}
}

// Register describes one hardware register.
type Register struct {
	Name     string
	Addr     uint8
	Bank     Bank
	ReadOnly bool
}

// Reg names a register of the ICM-42670 register map.
type Reg uint8

// Bank 0.
const (
	MclkRdy Reg = iota
	DeviceConfig
	SignalPathReset
	DriveConfig1
	DriveConfig2
	DriveConfig3
	IntConfig
	TempData1
	TempData0
	AccelDataX1
	AccelDataX0
	AccelDataY1
	AccelDataY0
	AccelDataZ1
	AccelDataZ0
	GyroDataX1
	GyroDataX0
	GyroDataY1
	GyroDataY0
	GyroDataZ1
	GyroDataZ0
	TmstFsynch
	TmstFsyncl
	ApexData4
	ApexData5
	PwrMgmt0
	GyroConfig0
	AccelConfig0
	TempConfig0
	GyroConfig1
	AccelConfig1
	ApexConfig0
	ApexConfig1
	WomConfig
	FifoConfig1
	FifoConfig2
	FifoConfig3
	IntSource0
	IntSource1
	IntSource3
	IntSource4
	FifoLostPkt0
	FifoLostPkt1
	ApexData0
	ApexData1
	ApexData2
	ApexData3
	IntfConfig0
	IntfConfig1
	IntStatusDrdy
	IntStatus
	IntStatus2
	IntStatus3
	FifoCountH
	FifoCountL
	FifoData
	WhoAmI
	BlkSelW
	MaddrW
	MW
	BlkSelR
	MaddrR
	MR

	// MREG1.
	TmstConfig1
	FifoConfig5
	FifoConfig6
	FsyncConfig
	IntConfig0
	IntConfig1
	SensorConfig3
	StConfig
	Selftest
	IntfConfig6
	IntfConfig10
	IntfConfig7
	OtpConfig
	IntSource6
	IntSource7
	IntSource8
	IntSource9
	IntSource10
	ApexConfig2
	ApexConfig3
	ApexConfig4
	ApexConfig5
	ApexConfig9
	ApexConfig10
	ApexConfig11
	AccelWomXThr
	AccelWomYThr
	AccelWomZThr
	OffsetUser0
	OffsetUser1
	OffsetUser2
	OffsetUser3
	OffsetUser4
	OffsetUser5
	OffsetUser6
	OffsetUser7
	OffsetUser8
	StStatus1
	StStatus2
	FdrConfig
	ApexConfig12

	// MREG2.
	OtpCtrl7

	// MREG3.
	XaStData
	YaStData
	ZaStData
	XgStData
	YgStData
	ZgStData

	numRegs
)

var registerMap = [numRegs]Register{
	MclkRdy:         {"MCLK_RDY", 0x00, Bank0, true},
	DeviceConfig:    {"DEVICE_CONFIG", 0x01, Bank0, false},
	SignalPathReset: {"SIGNAL_PATH_RESET", 0x02, Bank0, false},
	DriveConfig1:    {"DRIVE_CONFIG1", 0x03, Bank0, false},
	DriveConfig2:    {"DRIVE_CONFIG2", 0x04, Bank0, false},
	DriveConfig3:    {"DRIVE_CONFIG3", 0x05, Bank0, false},
	IntConfig:       {"INT_CONFIG", 0x06, Bank0, false},
	TempData1:       {"TEMP_DATA1", 0x09, Bank0, true},
	TempData0:       {"TEMP_DATA0", 0x0A, Bank0, true},
	AccelDataX1:     {"ACCEL_DATA_X1", 0x0B, Bank0, true},
	AccelDataX0:     {"ACCEL_DATA_X0", 0x0C, Bank0, true},
	AccelDataY1:     {"ACCEL_DATA_Y1", 0x0D, Bank0, true},
	AccelDataY0:     {"ACCEL_DATA_Y0", 0x0E, Bank0, true},
	AccelDataZ1:     {"ACCEL_DATA_Z1", 0x0F, Bank0, true},
	AccelDataZ0:     {"ACCEL_DATA_Z0", 0x10, Bank0, true},
	GyroDataX1:      {"GYRO_DATA_X1", 0x11, Bank0, true},
	GyroDataX0:      {"GYRO_DATA_X0", 0x12, Bank0, true},
	GyroDataY1:      {"GYRO_DATA_Y1", 0x13, Bank0, true},
	GyroDataY0:      {"GYRO_DATA_Y0", 0x14, Bank0, true},
	GyroDataZ1:      {"GYRO_DATA_Z1", 0x15, Bank0, true},
	GyroDataZ0:      {"GYRO_DATA_Z0", 0x16, Bank0, true},
	TmstFsynch:      {"TMST_FSYNCH", 0x17, Bank0, true},
	TmstFsyncl:      {"TMST_FSYNCL", 0x18, Bank0, true},
	ApexData4:       {"APEX_DATA4", 0x1D, Bank0, true},
	ApexData5:       {"APEX_DATA5", 0x1E, Bank0, true},
	PwrMgmt0:        {"PWR_MGMT0", 0x1F, Bank0, false},
	GyroConfig0:     {"GYRO_CONFIG0", 0x20, Bank0, false},
	AccelConfig0:    {"ACCEL_CONFIG0", 0x21, Bank0, false},
	TempConfig0:     {"TEMP_CONFIG0", 0x22, Bank0, false},
	GyroConfig1:     {"GYRO_CONFIG1", 0x23, Bank0, false},
	AccelConfig1:    {"ACCEL_CONFIG1", 0x24, Bank0, false},
	ApexConfig0:     {"APEX_CONFIG0", 0x25, Bank0, false},
	ApexConfig1:     {"APEX_CONFIG1", 0x26, Bank0, false},
	WomConfig:       {"WOM_CONFIG", 0x27, Bank0, false},
	FifoConfig1:     {"FIFO_CONFIG1", 0x28, Bank0, false},
	FifoConfig2:     {"FIFO_CONFIG2", 0x29, Bank0, false},
	FifoConfig3:     {"FIFO_CONFIG3", 0x2A, Bank0, false},
	IntSource0:      {"INT_SOURCE0", 0x2B, Bank0, false},
	IntSource1:      {"INT_SOURCE1", 0x2C, Bank0, false},
	IntSource3:      {"INT_SOURCE3", 0x2D, Bank0, false},
	IntSource4:      {"INT_SOURCE4", 0x2E, Bank0, false},
	FifoLostPkt0:    {"FIFO_LOST_PKT0", 0x2F, Bank0, true},
	FifoLostPkt1:    {"FIFO_LOST_PKT1", 0x30, Bank0, true},
	ApexData0:       {"APEX_DATA0", 0x31, Bank0, true},
	ApexData1:       {"APEX_DATA1", 0x32, Bank0, true},
	ApexData2:       {"APEX_DATA2", 0x33, Bank0, true},
	ApexData3:       {"APEX_DATA3", 0x34, Bank0, true},
	IntfConfig0:     {"INTF_CONFIG0", 0x35, Bank0, false},
	IntfConfig1:     {"INTF_CONFIG1", 0x36, Bank0, false},
	IntStatusDrdy:   {"INT_STATUS_DRDY", 0x39, Bank0, true},
	IntStatus:       {"INT_STATUS", 0x3A, Bank0, true},
	IntStatus2:      {"INT_STATUS2", 0x3B, Bank0, true},
	IntStatus3:      {"INT_STATUS3", 0x3C, Bank0, true},
	FifoCountH:      {"FIFO_COUNTH", 0x3D, Bank0, true},
	FifoCountL:      {"FIFO_COUNTL", 0x3E, Bank0, true},
	FifoData:        {"FIFO_DATA", 0x3F, Bank0, false},
	WhoAmI:          {"WHO_AM_I", 0x75, Bank0, true},
	BlkSelW:         {"BLK_SEL_W", 0x79, Bank0, false},
	MaddrW:          {"MADDR_W", 0x7A, Bank0, false},
	MW:              {"M_W", 0x7B, Bank0, false},
	BlkSelR:         {"BLK_SEL_R", 0x7C, Bank0, false},
	MaddrR:          {"MADDR_R", 0x7D, Bank0, false},
	MR:              {"M_R", 0x7E, Bank0, true},

	TmstConfig1:   {"TMST_CONFIG1", 0x00, MReg1, false},
	FifoConfig5:   {"FIFO_CONFIG5", 0x01, MReg1, false},
	FifoConfig6:   {"FIFO_CONFIG6", 0x02, MReg1, false},
	FsyncConfig:   {"FSYNC_CONFIG", 0x03, MReg1, false},
	IntConfig0:    {"INT_CONFIG0", 0x04, MReg1, false},
	IntConfig1:    {"INT_CONFIG1", 0x05, MReg1, false},
	SensorConfig3: {"SENSOR_CONFIG3", 0x06, MReg1, false},
	StConfig:      {"ST_CONFIG", 0x13, MReg1, false},
	Selftest:      {"SELFTEST", 0x14, MReg1, false},
	IntfConfig6:   {"INTF_CONFIG6", 0x23, MReg1, false},
	IntfConfig10:  {"INTF_CONFIG10", 0x25, MReg1, false},
	IntfConfig7:   {"INTF_CONFIG7", 0x28, MReg1, false},
	OtpConfig:     {"OTP_CONFIG", 0x2B, MReg1, false},
	IntSource6:    {"INT_SOURCE6", 0x2F, MReg1, false},
	IntSource7:    {"INT_SOURCE7", 0x30, MReg1, false},
	IntSource8:    {"INT_SOURCE8", 0x31, MReg1, false},
	IntSource9:    {"INT_SOURCE9", 0x32, MReg1, false},
	IntSource10:   {"INT_SOURCE10", 0x33, MReg1, false},
	ApexConfig2:   {"APEX_CONFIG2", 0x44, MReg1, false},
	ApexConfig3:   {"APEX_CONFIG3", 0x45, MReg1, false},
	ApexConfig4:   {"APEX_CONFIG4", 0x46, MReg1, false},
	ApexConfig5:   {"APEX_CONFIG5", 0x47, MReg1, false},
	ApexConfig9:   {"APEX_CONFIG9", 0x48, MReg1, false},
	ApexConfig10:  {"APEX_CONFIG10", 0x49, MReg1, false},
	ApexConfig11:  {"APEX_CONFIG11", 0x4A, MReg1, false},
	AccelWomXThr:  {"ACCEL_WOM_X_THR", 0x4B, MReg1, false},
	AccelWomYThr:  {"ACCEL_WOM_Y_THR", 0x4C, MReg1, false},
	AccelWomZThr:  {"ACCEL_WOM_Z_THR", 0x4D, MReg1, false},
	OffsetUser0:   {"OFFSET_USER0", 0x4E, MReg1, false},
	OffsetUser1:   {"OFFSET_USER1", 0x4F, MReg1, false},
	OffsetUser2:   {"OFFSET_USER2", 0x50, MReg1, false},
	OffsetUser3:   {"OFFSET_USER3", 0x51, MReg1, false},
	OffsetUser4:   {"OFFSET_USER4", 0x52, MReg1, false},
	OffsetUser5:   {"OFFSET_USER5", 0x53, MReg1, false},
	OffsetUser6:   {"OFFSET_USER6", 0x54, MReg1, false},
	OffsetUser7:   {"OFFSET_USER7", 0x55, MReg1, false},
	OffsetUser8:   {"OFFSET_USER8", 0x56, MReg1, false},
	StStatus1:     {"ST_STATUS1", 0x63, MReg1, true},
	StStatus2:     {"ST_STATUS2", 0x64, MReg1, true},
	FdrConfig:     {"FDR_CONFIG", 0x66, MReg1, false},
	ApexConfig12:  {"APEX_CONFIG12", 0x67, MReg1, false},

	OtpCtrl7: {"OTP_CTRL7", 0x06, MReg2, false},

	XaStData: {"XA_ST_DATA", 0x00, MReg3, false},
	YaStData: {"YA_ST_DATA", 0x01, MReg3, false},
	ZaStData: {"ZA_ST_DATA", 0x02, MReg3, false},
	XgStData: {"XG_ST_DATA", 0x03, MReg3, false},
	YgStData: {"YG_ST_DATA", 0x04, MReg3, false},
	ZgStData: {"ZG_ST_DATA", 0x05, MReg3, false},
}

// Descriptor returns the register r names.
func (r Reg) Descriptor() Register {
	if r >= numRegs {
		return Register{Name: fmt.Sprintf("Reg(%d)", uint8(r))}
	}
	return registerMap[r]
}

func (r Reg) String() string {
	return r.Descriptor().Name
}

// valid reports whether r is part of the register map.
func (r Reg) valid() bool {
	return r < numRegs
}

// Registers returns every register key in map order.
func Registers() []Reg {
	out := make([]Reg, 0, numRegs)
	for r := Reg(0); r < numRegs; r++ {
		out = append(out, r)
	}
	return out
}

// Lookup resolves a register by its datasheet name, e.g. "PWR_MGMT0".
func Lookup(name string) (Reg, bool) {
	for r := Reg(0); r < numRegs; r++ {
		if registerMap[r].Name == name {
			return r, true
		}
	}
	return 0, false
}

// LookupAddr resolves a register by bank and address.
func LookupAddr(bank Bank, addr uint8) (Reg, bool) {
	for r := Reg(0); r < numRegs; r++ {
		if registerMap[r].Bank == bank && registerMap[r].Addr == addr {
			return r, true
		}
	}
	return 0, false
}

// RegPair is a 16-bit value split over two registers.
type RegPair struct {
	Hi, Lo Reg
}

var (
	AccelX = RegPair{AccelDataX1, AccelDataX0}
	AccelY = RegPair{AccelDataY1, AccelDataY0}
	AccelZ = RegPair{AccelDataZ1, AccelDataZ0}
	GyroX  = RegPair{GyroDataX1, GyroDataX0}
	GyroY  = RegPair{GyroDataY1, GyroDataY0}
	GyroZ  = RegPair{GyroDataZ1, GyroDataZ0}
	Temp   = RegPair{TempData1, TempData0}
)
