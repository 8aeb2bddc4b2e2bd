// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ffutop/modbus-client/modbus"
	"github.com/ffutop/modbus-client/transport"
)

const tcpTimeout = 10 * time.Second

// Client is a connection-owning Modbus TCP client. It keeps one connection
// alive, assigns transaction ids from an incrementing counter and verifies
// that each response carries the request's id. A mutex serializes
// transactions, so one Client may be shared across goroutines; each call
// still maps to exactly one request/response exchange on the wire.
type Client struct {
	Address string
	Timeout time.Duration

	transactionID uint32 // Atomic counter

	mu   sync.Mutex
	conn net.Conn
}

// NewClient allocates and initializes a Client.
func NewClient(address string) *Client {
	return &Client{
		Address: address,
		Timeout: tcpTimeout,
	}
}

// Connect dials the server.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	d := net.Dialer{Timeout: c.Timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Address)
	if err != nil {
		return fmt.Errorf("modbus: failed to connect to %s: %w", c.Address, err)
	}
	c.conn = conn
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// send runs one transaction under the lock with a fresh transaction id and
// verifies the response id against it.
func (c *Client) send(ctx context.Context, uid byte, fc modbus.FunctionCode, payload []byte) (*ApplicationDataUnit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("modbus: not connected to %s", c.Address)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tid := uint16(atomic.AddUint32(&c.transactionID, 1))
	t := &transport.Conn{C: c.conn, Timeout: c.Timeout}

	resp, err := Command(t, tid, 0, uid, fc, payload)
	if err != nil {
		return nil, err
	}
	if resp.Header.TransactionID != tid {
		return nil, fmt.Errorf("modbus: response transaction id '%v' does not match request '%v'",
			resp.Header.TransactionID, tid)
	}
	slog.Debug("recv from modbus tcp slave", "tid", tid, "function", resp.Pdu.FunctionCode,
		"data", hex.EncodeToString(resp.Pdu.Data))
	return resp, nil
}

// ReadCoils reads quantity coils starting at address, packed wire-form.
func (c *Client) ReadCoils(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error) {
	resp, err := c.send(ctx, uid, modbus.FuncCodeReadCoils, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeBytes(resp.Pdu.Data)
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address.
func (c *Client) ReadDiscreteInputs(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error) {
	resp, err := c.send(ctx, uid, modbus.FuncCodeReadDiscreteInputs, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeBytes(resp.Pdu.Data)
}

// ReadHoldingRegisters reads quantity holding registers starting at address.
func (c *Client) ReadHoldingRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error) {
	resp, err := c.send(ctx, uid, modbus.FuncCodeReadHoldingRegisters, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeRegisters(resp.Pdu.Data)
}

// ReadInputRegisters reads quantity input registers starting at address.
func (c *Client) ReadInputRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error) {
	resp, err := c.send(ctx, uid, modbus.FuncCodeReadInputRegisters, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeRegisters(resp.Pdu.Data)
}

// WriteSingleCoil sets one coil ON or OFF.
func (c *Client) WriteSingleCoil(ctx context.Context, uid byte, address uint16, on bool) error {
	_, err := c.send(ctx, uid, modbus.FuncCodeWriteSingleCoil, coilPayload(address, on))
	return err
}

// WriteSingleRegister writes one holding register.
func (c *Client) WriteSingleRegister(ctx context.Context, uid byte, address, value uint16) error {
	payload := make([]byte, 4)
	payload[0] = byte(address >> 8)
	payload[1] = byte(address)
	payload[2] = byte(value >> 8)
	payload[3] = byte(value)
	_, err := c.send(ctx, uid, modbus.FuncCodeWriteSingleRegister, payload)
	return err
}

// WriteMultipleRegisters writes consecutive holding registers and returns
// the echoed register count.
func (c *Client) WriteMultipleRegisters(ctx context.Context, uid byte, address uint16, values []uint16) (uint16, error) {
	resp, err := c.send(ctx, uid, modbus.FuncCodeWriteMultipleRegisters, registersPayload(address, values))
	if err != nil {
		return 0, err
	}
	_, count, err := decodeEcho(resp.Pdu.Data)
	return count, err
}
