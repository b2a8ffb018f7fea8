// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/inertial_node/icm42670"
)

// RegisterInfo describes one register for the register debugger.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Bank        string     `json:"bank"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R" or "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BitField describes a field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values"`
}

type registerDoc struct {
	description string
	def         string
	fields      []BitField
}

// icm42670RegisterDocs documents the registers this node configures.
// Registers without an entry are listed by name only.
var icm42670RegisterDocs = map[icm42670.Reg]registerDoc{
	icm42670.MclkRdy: {"Internal clock status", "0x00", []BitField{
		{Bits: "3", Name: "MCLK_RDY", Description: "Internal clock running, MREG banks reachable", Values: "0=Stopped, 1=Running"},
	}},
	icm42670.SignalPathReset: {"Signal path reset", "0x00", []BitField{
		{Bits: "4", Name: "SOFT_RESET_DEVICE_CONFIG", Description: "Reset all registers, wait 1ms", Values: "1=Reset"},
		{Bits: "2", Name: "FIFO_FLUSH", Description: "Flush the FIFO", Values: "1=Flush"},
	}},
	icm42670.IntConfig: {"Interrupt pin configuration", "0x00", []BitField{
		{Bits: "5", Name: "INT2_MODE", Description: "INT2 mode", Values: "0=Pulsed, 1=Latched"},
		{Bits: "4", Name: "INT2_DRIVE_CIRCUIT", Description: "INT2 drive", Values: "0=Open drain, 1=Push-pull"},
		{Bits: "3", Name: "INT2_POLARITY", Description: "INT2 polarity", Values: "0=Active low, 1=Active high"},
		{Bits: "2", Name: "INT1_MODE", Description: "INT1 mode", Values: "0=Pulsed, 1=Latched"},
		{Bits: "1", Name: "INT1_DRIVE_CIRCUIT", Description: "INT1 drive", Values: "0=Open drain, 1=Push-pull"},
		{Bits: "0", Name: "INT1_POLARITY", Description: "INT1 polarity", Values: "0=Active low, 1=Active high"},
	}},
	icm42670.TempData1:   {"Temperature high byte, °C = raw/128 + 25", "", nil},
	icm42670.TempData0:   {"Temperature low byte", "", nil},
	icm42670.AccelDataX1: {"Accelerometer X-Axis High Byte", "", nil},
	icm42670.AccelDataX0: {"Accelerometer X-Axis Low Byte", "", nil},
	icm42670.AccelDataY1: {"Accelerometer Y-Axis High Byte", "", nil},
	icm42670.AccelDataY0: {"Accelerometer Y-Axis Low Byte", "", nil},
	icm42670.AccelDataZ1: {"Accelerometer Z-Axis High Byte", "", nil},
	icm42670.AccelDataZ0: {"Accelerometer Z-Axis Low Byte", "", nil},
	icm42670.GyroDataX1:  {"Gyroscope X-Axis High Byte", "", nil},
	icm42670.GyroDataX0:  {"Gyroscope X-Axis Low Byte", "", nil},
	icm42670.GyroDataY1:  {"Gyroscope Y-Axis High Byte", "", nil},
	icm42670.GyroDataY0:  {"Gyroscope Y-Axis Low Byte", "", nil},
	icm42670.GyroDataZ1:  {"Gyroscope Z-Axis High Byte", "", nil},
	icm42670.GyroDataZ0:  {"Gyroscope Z-Axis Low Byte", "", nil},
	icm42670.PwrMgmt0: {"Power management", "0x00", []BitField{
		{Bits: "7", Name: "ACCEL_LP_CLK_SEL", Description: "Accel low-power clock", Values: "0=Wake-up oscillator, 1=RC oscillator"},
		{Bits: "4", Name: "IDLE", Description: "Keep RC oscillator on with sensors off", Values: "0=Off, 1=On"},
		{Bits: "3:2", Name: "GYRO_MODE", Description: "Gyroscope mode", Values: "0=Off, 1=Standby, 3=Low noise"},
		{Bits: "1:0", Name: "ACCEL_MODE", Description: "Accelerometer mode", Values: "0=Off, 2=Low power, 3=Low noise"},
	}},
	icm42670.GyroConfig0: {"Gyroscope configuration", "0x06", []BitField{
		{Bits: "6:5", Name: "GYRO_UI_FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±2000°/s, 1=±1000°/s, 2=±500°/s, 3=±250°/s"},
		{Bits: "3:0", Name: "GYRO_ODR", Description: "Gyro Output Data Rate", Values: "5=1.6kHz, 6=800Hz, 7=400Hz, 8=200Hz, 9=100Hz, 10=50Hz, 11=25Hz, 12=12.5Hz"},
	}},
	icm42670.AccelConfig0: {"Accelerometer configuration", "0x06", []BitField{
		{Bits: "6:5", Name: "ACCEL_UI_FS_SEL", Description: "Accel Full Scale Range", Values: "0=±16g, 1=±8g, 2=±4g, 3=±2g"},
		{Bits: "3:0", Name: "ACCEL_ODR", Description: "Accel Output Data Rate", Values: "5=1.6kHz ... 12=12.5Hz, 13=6.25Hz, 14=3.125Hz, 15=1.5625Hz"},
	}},
	icm42670.ApexConfig1: {"APEX feature enables", "0x02", []BitField{
		{Bits: "4", Name: "TILT_ENABLE", Description: "Tilt detection", Values: "0=Disabled, 1=Enabled"},
		{Bits: "1:0", Name: "DMP_ODR", Description: "APEX processing rate", Values: "0=25Hz, 1=400Hz, 2=50Hz, 3=100Hz"},
	}},
	icm42670.FifoConfig1: {"FIFO configuration", "0x01", []BitField{
		{Bits: "1", Name: "FIFO_MODE", Description: "FIFO full behaviour", Values: "0=Stream, 1=Stop on full"},
		{Bits: "0", Name: "FIFO_BYPASS", Description: "FIFO bypass", Values: "0=FIFO in use, 1=Bypassed"},
	}},
	icm42670.IntfConfig0: {"Interface configuration", "0x30", []BitField{
		{Bits: "6", Name: "FIFO_COUNT_FORMAT", Description: "FIFO count unit", Values: "0=Bytes, 1=Records"},
		{Bits: "5", Name: "FIFO_COUNT_ENDIAN", Description: "FIFO count byte order", Values: "0=Little endian, 1=Big endian"},
	}},
	icm42670.IntStatus3: {"APEX interrupt status, cleared on read", "0x00", []BitField{
		{Bits: "3", Name: "TILT_DET_INT", Description: "Tilt detected", Values: ""},
	}},
	icm42670.WhoAmI:  {"Device identity", "0x67", nil},
	icm42670.BlkSelW: {"MREG write bank select", "0x00", nil},
	icm42670.MaddrW:  {"MREG write address", "0x00", nil},
	icm42670.MW:      {"MREG write data", "0x00", nil},
	icm42670.BlkSelR: {"MREG read bank select", "0x00", nil},
	icm42670.MaddrR:  {"MREG read address", "0x00", nil},
	icm42670.MR:      {"MREG read data", "0x00", nil},
	icm42670.IntSource6: {"MREG1 interrupt routing to INT1", "0x00", []BitField{
		{Bits: "3", Name: "TILT_DET_INT1_EN", Description: "Route tilt detection to INT1", Values: "0=Disabled, 1=Enabled"},
	}},
	icm42670.IntSource7: {"MREG1 interrupt routing to INT2", "0x00", []BitField{
		{Bits: "3", Name: "TILT_DET_INT2_EN", Description: "Route tilt detection to INT2", Values: "0=Disabled, 1=Enabled"},
	}},
	icm42670.ApexConfig5: {"MREG1 tilt detector timing", "0x80", []BitField{
		{Bits: "7:6", Name: "TILT_WAIT_TIME_SEL", Description: "Time the tilt must last", Values: "0=0s, 1=2s, 2=4s, 3=6s"},
	}},
}

// getICM42670RegisterMap returns metadata for all ICM-42670 registers, in
// register map order.
func getICM42670RegisterMap() []RegisterInfo {
	regs := icm42670.Registers()
	out := make([]RegisterInfo, 0, len(regs))
	for _, r := range regs {
		d := r.Descriptor()
		access := "RW"
		if d.ReadOnly {
			access = "R"
		}
		doc := icm42670RegisterDocs[r]
		out = append(out, RegisterInfo{
			Address:     fmt.Sprintf("0x%02X", d.Addr),
			Name:        d.Name,
			Bank:        d.Bank.String(),
			Description: doc.description,
			Access:      access,
			Default:     doc.def,
			BitFields:   doc.fields,
		})
	}
	return out
}
