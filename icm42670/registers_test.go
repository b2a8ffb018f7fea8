// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package icm42670

import "testing"

func TestRegisterMap(t *testing.T) {
	type key struct {
		bank Bank
		addr uint8
	}
	seen := map[key]Reg{}
	names := map[string]Reg{}
	for _, r := range Registers() {
		d := r.Descriptor()
		if d.Name == "" {
			t.Fatalf("Reg(%d) has no entry", r)
		}
		if d.Addr > 0x7F {
			t.Errorf("%s: address %#x out of range", d.Name, d.Addr)
		}
		k := key{d.Bank, d.Addr}
		if prev, ok := seen[k]; ok {
			t.Errorf("%s and %s share %s %#02x", prev, r, d.Bank, d.Addr)
		}
		seen[k] = r
		if prev, ok := names[d.Name]; ok {
			t.Errorf("Reg(%d) and Reg(%d) share name %s", prev, r, d.Name)
		}
		names[d.Name] = r
	}
}

func TestRegisterKnownEntries(t *testing.T) {
	tests := []struct {
		r        Reg
		addr     uint8
		bank     Bank
		readOnly bool
	}{
		{MclkRdy, 0x00, Bank0, true},
		{PwrMgmt0, 0x1F, Bank0, false},
		{IntStatus3, 0x3C, Bank0, true},
		{WhoAmI, 0x75, Bank0, true},
		{MR, 0x7E, Bank0, true},
		{IntSource6, 0x2F, MReg1, false},
		{ApexConfig5, 0x47, MReg1, false},
		{StStatus2, 0x64, MReg1, true},
		{OtpCtrl7, 0x06, MReg2, false},
		{ZgStData, 0x05, MReg3, false},
	}
	for _, tt := range tests {
		d := tt.r.Descriptor()
		if d.Addr != tt.addr || d.Bank != tt.bank || d.ReadOnly != tt.readOnly {
			t.Errorf("%s: got %#02x %s ro=%t", d.Name, d.Addr, d.Bank, d.ReadOnly)
		}
	}
}

func TestLookup(t *testing.T) {
	r, ok := Lookup("APEX_CONFIG5")
	if !ok || r != ApexConfig5 {
		t.Fatalf("Lookup(APEX_CONFIG5)=%v, %t", r, ok)
	}
	if _, ok := Lookup("NOPE"); ok {
		t.Fatal("Lookup(NOPE) succeeded")
	}
	r, ok = LookupAddr(MReg3, 0x02)
	if !ok || r != ZaStData {
		t.Fatalf("LookupAddr(MREG3, 0x02)=%v, %t", r, ok)
	}
	if _, ok := LookupAddr(MReg2, 0x00); ok {
		t.Fatal("LookupAddr(MREG2, 0x00) succeeded")
	}
}

func TestBlockSelect(t *testing.T) {
	want := map[Bank]uint8{MReg1: 0x00, MReg2: 0x28, MReg3: 0x50}
	for b, code := range want {
		if got := b.blockSelect(); got != code {
			t.Errorf("%s: %#02x want %#02x", b, got, code)
		}
	}
}
