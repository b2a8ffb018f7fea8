// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_node/icm42670"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const deviceName = "icm42670"

// RegisterResponse is every message the register debugger sends.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "status", "error"
	Device      string                 `json:"device,omitempty"`
	Bank        string                 `json:"bank,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"` // register name -> value, for bulk reads
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      string                 `json:"status,omitempty"`
	RegisterMap []sensors.RegisterInfo `json:"register_map,omitempty"`
}

type registerDebugSession struct {
	conn *websocket.Conn
	mgr  *sensors.IMUManager
}

// HandleRegisterDebugWS serves the register debugger over a WebSocket,
// against the process-wide IMU manager.
func HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	NewRegisterDebugHandler(sensors.GetIMUManager())(w, r)
}

// NewRegisterDebugHandler returns a WebSocket handler reading and writing
// the registers of the IMU held by mgr.
//
// Requests are JSON objects with an "action" of get_map, read, read_all,
// write, init or reset. A register is named either by "name" (datasheet
// name) or by "bank" (BANK0, MREG1..MREG3, default BANK0) and "addr".
func NewRegisterDebugHandler(mgr *sensors.IMUManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("register_debug: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		s := &registerDebugSession{conn: conn, mgr: mgr}
		if err := s.sendRegisterMap(); err != nil {
			log.Printf("register_debug: error sending register map: %v", err)
			return
		}

		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("register_debug: websocket error: %v", err)
				}
				return
			}

			action, ok := msg["action"].(string)
			if !ok {
				s.sendError("missing or invalid action field")
				continue
			}

			switch action {
			case "get_map":
				s.sendRegisterMap()
			case "read":
				s.handleRead(msg)
			case "read_all":
				s.handleReadAll(msg)
			case "write":
				s.handleWrite(msg)
			case "init":
				s.handleStatus("initialized", s.mgr.Reinitialize)
			case "reset":
				s.handleStatus("reset", s.mgr.SoftReset)
			default:
				s.sendError(fmt.Sprintf("unknown action: %s", action))
			}
		}
	}
}

func parseBank(s string) (icm42670.Bank, error) {
	switch strings.ToUpper(s) {
	case "", "BANK0":
		return icm42670.Bank0, nil
	case "MREG1":
		return icm42670.MReg1, nil
	case "MREG2":
		return icm42670.MReg2, nil
	case "MREG3":
		return icm42670.MReg3, nil
	}
	return 0, fmt.Errorf("unknown bank: %s", s)
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return uint8(v), nil
}

func resolveRegister(msg map[string]interface{}) (icm42670.Reg, error) {
	if name, _ := msg["name"].(string); name != "" {
		r, ok := icm42670.Lookup(strings.ToUpper(name))
		if !ok {
			return 0, fmt.Errorf("unknown register: %s", name)
		}
		return r, nil
	}

	bankStr, _ := msg["bank"].(string)
	bank, err := parseBank(bankStr)
	if err != nil {
		return 0, err
	}
	addrStr, _ := msg["addr"].(string)
	if addrStr == "" {
		return 0, fmt.Errorf("missing name or addr field")
	}
	addr, err := parseByte(addrStr)
	if err != nil {
		return 0, fmt.Errorf("invalid address format: %s", addrStr)
	}
	r, ok := icm42670.LookupAddr(bank, addr)
	if !ok {
		return 0, fmt.Errorf("no register at %s 0x%02X", bank, addr)
	}
	return r, nil
}

func registerData(r icm42670.Reg, v uint8) RegisterResponse {
	d := r.Descriptor()
	return RegisterResponse{
		Type:      "register_data",
		Device:    deviceName,
		Bank:      d.Bank.String(),
		Name:      d.Name,
		Address:   fmt.Sprintf("0x%02X", d.Addr),
		Value:     fmt.Sprintf("0x%02X", v),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (s *registerDebugSession) handleRead(msg map[string]interface{}) {
	r, err := resolveRegister(msg)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	v, err := s.mgr.ReadRegister(r)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}
	s.conn.WriteJSON(registerData(r, v))
}

func (s *registerDebugSession) handleReadAll(msg map[string]interface{}) {
	bankStr, _ := msg["bank"].(string)
	bank, err := parseBank(bankStr)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	regs, err := s.mgr.ReadAllRegisters(bank)
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	values := make(map[string]string, len(regs))
	for r, v := range regs {
		values[r.String()] = fmt.Sprintf("0x%02X", v)
	}
	s.conn.WriteJSON(RegisterResponse{
		Type:      "register_data",
		Device:    deviceName,
		Bank:      bank.String(),
		Registers: values,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (s *registerDebugSession) handleWrite(msg map[string]interface{}) {
	r, err := resolveRegister(msg)
	if err != nil {
		s.sendError(err.Error())
		return
	}
	valueStr, _ := msg["value"].(string)
	if valueStr == "" {
		s.sendError("missing value field")
		return
	}
	v, err := parseByte(valueStr)
	if err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}
	if err := s.mgr.WriteRegister(r, v); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}
	resp := registerData(r, v)
	resp.Message = "write successful"
	s.conn.WriteJSON(resp)
}

func (s *registerDebugSession) handleStatus(status string, fn func() error) {
	if err := fn(); err != nil {
		s.sendError(fmt.Sprintf("%s error: %v", status, err))
		return
	}
	s.conn.WriteJSON(RegisterResponse{
		Type:    "status",
		Device:  deviceName,
		Status:  status,
		Message: fmt.Sprintf("IMU %s on %s", status, s.mgr.Name()),
	})
}

func (s *registerDebugSession) sendRegisterMap() error {
	return s.conn.WriteJSON(RegisterResponse{
		Type:        "register_map",
		Device:      deviceName,
		RegisterMap: s.mgr.GetRegisterMap(),
	})
}

func (s *registerDebugSession) sendError(message string) {
	s.conn.WriteJSON(RegisterResponse{
		Type:    "error",
		Message: message,
	})
}

// HandleIMUData serves one live sample of the process-wide IMU as JSON.
func HandleIMUData(w http.ResponseWriter, r *http.Request) {
	NewIMUDataHandler(sensors.GetIMUManager())(w, r)
}

// NewIMUDataHandler returns a handler serving one live sample read from mgr.
func NewIMUDataHandler(mgr *sensors.IMUManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		s, err := mgr.ReadSample()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(s)
	}
}
