// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ffutop/modbus-client/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
target:
  address: "192.168.1.10:502"
  unit_id: 3
  timeout: 2s
scan:
  interval: 500ms
  store:
    type: MMAP
    path: /tmp/snapshot.bin
  ranges:
    - table: holding_registers
      address: 100
      quantity: 8
    - table: coils
      address: 0
      quantity: 16
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Target.Address != "192.168.1.10:502" || cfg.Target.UnitID != 3 {
		t.Errorf("target = %+v", cfg.Target)
	}
	if cfg.Target.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", cfg.Target.Timeout)
	}
	if cfg.Scan.Interval != 500*time.Millisecond {
		t.Errorf("interval = %v", cfg.Scan.Interval)
	}
	if cfg.Scan.Store.Type != "mmap" {
		t.Errorf("store type = %q, want lowercased mmap", cfg.Scan.Store.Type)
	}
	if len(cfg.Scan.Ranges) != 2 {
		t.Fatalf("ranges = %+v", cfg.Scan.Ranges)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
target:
  address: "127.0.0.1:502"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Target.UnitID != 1 {
		t.Errorf("default unit id = %d, want 1", cfg.Target.UnitID)
	}
	if cfg.Target.Timeout != 10*time.Second {
		t.Errorf("default timeout = %v", cfg.Target.Timeout)
	}
	if cfg.Scan.Interval != time.Second {
		t.Errorf("default interval = %v", cfg.Scan.Interval)
	}
	if cfg.Scan.Store.Type != "memory" {
		t.Errorf("default store type = %q", cfg.Scan.Store.Type)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing address", "log:\n  level: info\n"},
		{"bad table", "target:\n  address: \"a:1\"\nscan:\n  ranges:\n    - table: registers\n      quantity: 1\n"},
		{"zero quantity", "target:\n  address: \"a:1\"\nscan:\n  ranges:\n    - table: coils\n      quantity: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	tests := []struct {
		name string
		want store.Table
	}{
		{"coils", store.TableCoils},
		{"discrete_inputs", store.TableDiscreteInputs},
		{"Holding_Registers", store.TableHoldingRegisters},
		{"input_registers", store.TableInputRegisters},
	}
	for _, tt := range tests {
		got, err := ParseTable(tt.name)
		if err != nil {
			t.Errorf("ParseTable(%q) failed: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if _, err := ParseTable("registers"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestOpenStorage(t *testing.T) {
	if _, err := (StoreConfig{Type: "memory"}).OpenStorage(); err != nil {
		t.Errorf("memory: %v", err)
	}
	if _, err := (StoreConfig{Type: "file"}).OpenStorage(); err == nil {
		t.Error("file storage without path must fail")
	}
	if _, err := (StoreConfig{Type: "sqlite"}).OpenStorage(); err == nil {
		t.Error("unknown storage type must fail")
	}

	path := filepath.Join(t.TempDir(), "snap.bin")
	st, err := (StoreConfig{Type: "mmap", Path: path}).OpenStorage()
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	if _, err := st.Load(); err != nil {
		t.Fatalf("mmap load: %v", err)
	}
	st.Close()
}
