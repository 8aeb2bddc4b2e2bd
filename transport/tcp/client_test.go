// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.
package tcp

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ffutop/modbus-client/modbus"
)

func TestClient_ReadHoldingRegisters(t *testing.T) {
	slave := newFakeSlave(t, registerSlave([]uint16{100, 200, 300, 400}))

	client := NewClient(slave.addr())
	client.Timeout = 1 * time.Second
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	values, err := client.ReadHoldingRegisters(ctx, 1, 1, 2)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters failed: %v", err)
	}
	if len(values) != 2 || values[0] != 200 || values[1] != 300 {
		t.Errorf("values = %v, want [200 300]", values)
	}

	// Transaction ids keep incrementing across requests on one connection.
	if _, err := client.ReadHoldingRegisters(ctx, 1, 0, 1); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
}

func TestClient_ExceptionResponse(t *testing.T) {
	slave := newFakeSlave(t, registerSlave([]uint16{1}))

	client := NewClient(slave.addr())
	client.Timeout = 1 * time.Second
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	_, err := client.ReadHoldingRegisters(ctx, 1, 5, 10)
	var mbErr *modbus.Error
	if !errors.As(err, &mbErr) {
		t.Fatalf("expected *modbus.Error, got %v", err)
	}
	if mbErr.ExceptionCode != modbus.ExceptionIllegalDataAddress {
		t.Errorf("exception code %v", mbErr.ExceptionCode)
	}
}

func TestClient_TransactionIDMismatch(t *testing.T) {
	// A server answering with the wrong transaction id fails the request
	// at the Client layer.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 512)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		conn.Write([]byte{0x7F, 0x7F, 0x00, 0x00, 0x00, 0x03, 0x01, 0x03, 0x00})
	}()

	client := NewClient(listener.Addr().String())
	client.Timeout = 1 * time.Second
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.ReadHoldingRegisters(ctx, 1, 0, 1); err == nil {
		t.Error("expected transaction id mismatch error")
	}
}

func TestClient_Timeout(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	go func() {
		conn, _ := listener.Accept()
		if conn != nil {
			// Read but never write back.
			buf := make([]byte, 64)
			conn.Read(buf)
			time.Sleep(2 * time.Second)
			conn.Close()
		}
	}()

	client := NewClient(listener.Addr().String())
	client.Timeout = 200 * time.Millisecond
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.ReadCoils(ctx, 1, 0, 1); err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestClient_NotConnected(t *testing.T) {
	client := NewClient("127.0.0.1:1")
	if _, err := client.ReadCoils(context.Background(), 1, 0, 1); err == nil {
		t.Error("expected error before Connect")
	}
}

func TestClient_CanceledContext(t *testing.T) {
	slave := newFakeSlave(t, registerSlave([]uint16{1}))

	client := NewClient(slave.addr())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.ReadHoldingRegisters(ctx, 1, 0, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
