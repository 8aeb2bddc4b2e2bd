// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ffutop/modbus-client/internal/config"
	"github.com/ffutop/modbus-client/internal/scan"
	"github.com/ffutop/modbus-client/transport/tcp"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "Configuration file path (scan mode).")
	op := pflag.String("op", "scan", "Operation: scan, read-coils, read-discrete, read-holding, read-input, write-coil, write-register, write-registers.")
	address := pflag.StringP("address", "A", "", "Target device address, e.g. 192.168.1.100:502.")
	unitID := pflag.Uint8P("unit", "u", 1, "Unit/slave id.")
	addr := pflag.Uint16("addr", 0, "Start address.")
	quantity := pflag.Uint16P("quantity", "n", 1, "Number of coils/registers to read.")
	value := pflag.String("value", "", "Value to write: on/off for write-coil, a number for write-register, a comma-separated list for write-registers.")
	timeout := pflag.DurationP("timeout", "W", 10*time.Second, "Response wait time.")
	logLevel := pflag.StringP("log_level", "v", "info", "Log verbosity level (debug, info, warn, error).")
	logFile := pflag.StringP("log_file", "L", "", "Log file name ('-' for logging to STDOUT only).")
	pflag.Parse()

	if *op == "scan" {
		cfg, err := config.LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		setupLogger(cfg.Log)
		if err := runScan(cfg); err != nil {
			slog.Error("Scan stopped with error", "err", err)
			os.Exit(1)
		}
		return
	}

	setupLogger(config.LogConfig{Level: *logLevel, File: *logFile})
	if *address == "" {
		fmt.Println("--address is required for one-shot operations")
		os.Exit(1)
	}
	if err := runOneShot(*op, *address, *unitID, *addr, *quantity, *value, *timeout); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

// runScan polls the configured ranges until SIGINT/SIGTERM.
func runScan(cfg *config.Config) error {
	client := tcp.NewClient(cfg.Target.Address)
	client.Timeout = cfg.Target.Timeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	storage, err := cfg.Scan.Store.OpenStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	ranges := make([]scan.Range, 0, len(cfg.Scan.Ranges))
	for _, r := range cfg.Scan.Ranges {
		table, err := config.ParseTable(r.Table)
		if err != nil {
			return err
		}
		ranges = append(ranges, scan.Range{Table: table, Address: r.Address, Quantity: r.Quantity})
	}

	poller := scan.NewPoller(client, cfg.Target.UnitID, cfg.Scan.Interval, ranges, storage)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("Shutting down...")
		cancel()
	}()

	slog.Info("Starting Modbus scan", "target", cfg.Target.Address, "unit", cfg.Target.UnitID)
	return poller.Run(ctx)
}

// runOneShot performs a single read or write against the device.
func runOneShot(op, address string, unitID uint8, addr, quantity uint16, value string, timeout time.Duration) error {
	client := tcp.NewClient(address)
	client.Timeout = timeout

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	switch op {
	case "read-coils", "read-discrete":
		var packed []byte
		var err error
		if op == "read-coils" {
			packed, err = client.ReadCoils(ctx, unitID, addr, quantity)
		} else {
			packed, err = client.ReadDiscreteInputs(ctx, unitID, addr, quantity)
		}
		if err != nil {
			return err
		}
		if len(packed) < (int(quantity)+7)/8 {
			return fmt.Errorf("device returned %d bytes for %d coils", len(packed), quantity)
		}
		for i := 0; i < int(quantity); i++ {
			on := (packed[i/8]>>uint(i%8))&1 != 0
			fmt.Printf("%d: %v\n", int(addr)+i, on)
		}
	case "read-holding", "read-input":
		var values []uint16
		var err error
		if op == "read-holding" {
			values, err = client.ReadHoldingRegisters(ctx, unitID, addr, quantity)
		} else {
			values, err = client.ReadInputRegisters(ctx, unitID, addr, quantity)
		}
		if err != nil {
			return err
		}
		for i, v := range values {
			fmt.Printf("%d: %d (0x%04X)\n", int(addr)+i, v, v)
		}
	case "write-coil":
		on, err := parseBoolValue(value)
		if err != nil {
			return err
		}
		if err := client.WriteSingleCoil(ctx, unitID, addr, on); err != nil {
			return err
		}
		fmt.Printf("wrote coil %d: %v\n", addr, on)
	case "write-register":
		v, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("bad --value %q: %w", value, err)
		}
		if err := client.WriteSingleRegister(ctx, unitID, addr, uint16(v)); err != nil {
			return err
		}
		fmt.Printf("wrote register %d: %d\n", addr, v)
	case "write-registers":
		values, err := parseRegisterList(value)
		if err != nil {
			return err
		}
		count, err := client.WriteMultipleRegisters(ctx, unitID, addr, values)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d registers starting at %d\n", count, addr)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

func parseBoolValue(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("bad --value %q: want on or off", value)
	}
}

func parseRegisterList(value string) ([]uint16, error) {
	if value == "" {
		return nil, fmt.Errorf("--value is required for write-registers")
	}
	parts := strings.Split(value, ",")
	values := make([]uint16, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("bad --value %q: %w", part, err)
		}
		values = append(values, uint16(v))
	}
	return values, nil
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
