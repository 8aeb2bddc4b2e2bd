// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ffutop/modbus-client/internal/store"
)

// Config defines the global configuration structure
type Config struct {
	Target TargetConfig `mapstructure:"target"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Log    LogConfig    `mapstructure:"log"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// TargetConfig defines the device the client connects to
type TargetConfig struct {
	Address string        `mapstructure:"address"` // e.g. "192.168.1.100:502"
	UnitID  uint8         `mapstructure:"unit_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScanConfig defines the polling loop
type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Store    StoreConfig   `mapstructure:"store"`
	Ranges   []RangeConfig `mapstructure:"ranges"`
}

// RangeConfig defines one polled address range
type RangeConfig struct {
	Table    string `mapstructure:"table"` // "coils", "discrete_inputs", "holding_registers", "input_registers"
	Address  uint16 `mapstructure:"address"`
	Quantity uint16 `mapstructure:"quantity"`
}

// StoreConfig defines snapshot storage settings
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory", "file", "mmap"
	Path string `mapstructure:"path"` // File path for "file"/"mmap" type
}

// LoadConfig loads configuration from file
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/modbuscli/")
		v.AddConfigPath("$HOME/.modbuscli")
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("target.unit_id", 1)
	v.SetDefault("target.timeout", 10*time.Second)
	v.SetDefault("scan.interval", time.Second)
	v.SetDefault("scan.store.type", "memory")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to found config file: %w", err)
		}

		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate / Fixups
	if config.Target.Address == "" {
		return nil, fmt.Errorf("target.address is required")
	}
	config.Scan.Store.Type = strings.ToLower(config.Scan.Store.Type)
	for i := range config.Scan.Ranges {
		r := &config.Scan.Ranges[i]
		if _, err := ParseTable(r.Table); err != nil {
			return nil, fmt.Errorf("scan.ranges[%d]: %w", i, err)
		}
		if r.Quantity == 0 {
			return nil, fmt.Errorf("scan.ranges[%d]: quantity must be greater than 0", i)
		}
	}

	return &config, nil
}

// ParseTable maps a config table name to its store table.
func ParseTable(name string) (store.Table, error) {
	switch strings.ToLower(name) {
	case "coils":
		return store.TableCoils, nil
	case "discrete_inputs":
		return store.TableDiscreteInputs, nil
	case "holding_registers":
		return store.TableHoldingRegisters, nil
	case "input_registers":
		return store.TableInputRegisters, nil
	default:
		return 0, fmt.Errorf("unknown table %q", name)
	}
}

// OpenStorage builds the configured snapshot storage.
func (c StoreConfig) OpenStorage() (store.Storage, error) {
	switch c.Type {
	case "", "memory":
		return store.NewMemoryStorage(), nil
	case "file":
		if c.Path == "" {
			return nil, fmt.Errorf("store path is required for file storage")
		}
		return store.NewFileStorage(c.Path), nil
	case "mmap":
		if c.Path == "" {
			return nil, fmt.Errorf("store path is required for mmap storage")
		}
		return store.NewMmapStorage(c.Path), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", c.Type)
	}
}
