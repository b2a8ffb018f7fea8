// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_node/icm42670"
	"github.com/relabs-tech/inertial_node/internal/config"
	"github.com/relabs-tech/inertial_node/internal/sensors"
)

func dialRegisterDebug(t *testing.T, mgr *sensors.IMUManager) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewRegisterDebugHandler(mgr))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var hello RegisterResponse
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Type != "register_map" || len(hello.RegisterMap) != len(icm42670.Registers()) {
		t.Fatalf("greeting %s with %d registers", hello.Type, len(hello.RegisterMap))
	}
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req map[string]interface{}) RegisterResponse {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	var resp RegisterResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestRegisterDebugRead(t *testing.T) {
	_, mgr := newSimManager(t, config.Default())
	conn := dialRegisterDebug(t, mgr)

	tests := []struct {
		name string
		req  map[string]interface{}
		reg  string
		val  string
	}{
		{"by name", map[string]interface{}{"action": "read", "name": "who_am_i"}, "WHO_AM_I", "0x67"},
		{"bank0 by addr", map[string]interface{}{"action": "read", "addr": "0x75"}, "WHO_AM_I", "0x67"},
		{"mreg1 by addr", map[string]interface{}{"action": "read", "bank": "MREG1", "addr": "0x47"}, "APEX_CONFIG5", "0x80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := roundTrip(t, conn, tt.req)
			if resp.Type != "register_data" || resp.Name != tt.reg || resp.Value != tt.val {
				t.Fatalf("%+v", resp)
			}
		})
	}
}

func TestRegisterDebugErrors(t *testing.T) {
	_, mgr := newSimManager(t, config.Default())
	conn := dialRegisterDebug(t, mgr)

	for _, req := range []map[string]interface{}{
		{"action": "bogus"},
		{"name": "WHO_AM_I"},
		{"action": "read"},
		{"action": "read", "name": "NOPE"},
		{"action": "read", "bank": "MREG9", "addr": "0x00"},
		{"action": "read", "addr": "0x7F"},
		{"action": "read", "addr": "zz"},
		{"action": "write", "name": "OFFSET_USER0", "value": "0x12"},
		{"action": "write", "name": "OFFSET_USER0"},
	} {
		if resp := roundTrip(t, conn, req); resp.Type != "error" || resp.Message == "" {
			t.Errorf("%v: %+v", req, resp)
		}
	}
}

func TestRegisterDebugWriteAndDump(t *testing.T) {
	cfg := config.Default()
	cfg.RegisterDebugAllowWrites = true
	sim, mgr := newSimManager(t, cfg)
	conn := dialRegisterDebug(t, mgr)

	resp := roundTrip(t, conn, map[string]interface{}{"action": "write", "bank": "MREG1", "addr": "0x4E", "value": "0x12"})
	if resp.Type != "register_data" || resp.Name != "OFFSET_USER0" || resp.Message != "write successful" {
		t.Fatalf("%+v", resp)
	}
	if got := sim.MRegValue(1, 0x4E); got != 0x12 {
		t.Fatalf("OFFSET_USER0=%#02x", got)
	}

	resp = roundTrip(t, conn, map[string]interface{}{"action": "read_all", "bank": "mreg1"})
	if resp.Bank != "MREG1" || resp.Registers["OFFSET_USER0"] != "0x12" || resp.Registers["APEX_CONFIG5"] != "0x80" {
		t.Fatalf("%+v", resp)
	}
	if _, ok := resp.Registers["WHO_AM_I"]; ok {
		t.Error("bank0 register in MREG1 dump")
	}
}

func TestRegisterDebugInitAndReset(t *testing.T) {
	cfg := config.Default()
	cfg.IMUAccelRange = icm42670.G8
	sim, mgr := newSimManager(t, cfg)
	conn := dialRegisterDebug(t, mgr)

	sim.Reset()
	resp := roundTrip(t, conn, map[string]interface{}{"action": "reset"})
	if resp.Type != "status" || resp.Status != "reset" {
		t.Fatalf("%+v", resp)
	}
	if got := sim.Reg(0x21); got != 0x26 {
		t.Errorf("ACCEL_CONFIG0=%#02x, configuration not reapplied after reset", got)
	}

	resp = roundTrip(t, conn, map[string]interface{}{"action": "init"})
	if resp.Type != "status" || resp.Status != "initialized" {
		t.Fatalf("%+v", resp)
	}

	resp = roundTrip(t, conn, map[string]interface{}{"action": "get_map"})
	if resp.Type != "register_map" {
		t.Fatalf("%+v", resp)
	}
}
