// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"encoding/binary"
	"fmt"

	"github.com/ffutop/modbus-client/modbus"
	"github.com/ffutop/modbus-client/transport"
)

// Typed request helpers for the data-access function codes. Each runs one
// Command transaction with an explicit transaction id; the Client methods
// wrap these with automatic id assignment.

// ReadCoils reads quantity coils starting at address. The result is the
// packed byte form of the wire: eight coils per byte, LSB first, the last
// byte zero-padded. Unpacking into individual bits is the caller's job.
func ReadCoils(t transport.Transport, tid, pid uint16, uid byte, address, quantity uint16) ([]byte, error) {
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadCoils, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeBytes(resp.Pdu.Data)
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address,
// packed like ReadCoils.
func ReadDiscreteInputs(t transport.Transport, tid, pid uint16, uid byte, address, quantity uint16) ([]byte, error) {
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadDiscreteInputs, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeBytes(resp.Pdu.Data)
}

// ReadHoldingRegisters reads quantity holding registers starting at address.
func ReadHoldingRegisters(t transport.Transport, tid, pid uint16, uid byte, address, quantity uint16) ([]uint16, error) {
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadHoldingRegisters, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeRegisters(resp.Pdu.Data)
}

// ReadInputRegisters reads quantity input registers starting at address.
func ReadInputRegisters(t transport.Transport, tid, pid uint16, uid byte, address, quantity uint16) ([]uint16, error) {
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadInputRegisters, rangePayload(address, quantity))
	if err != nil {
		return nil, err
	}
	return decodeRegisters(resp.Pdu.Data)
}

// WriteSingleCoil sets one coil ON or OFF. The response payload is an echo
// and is not decoded further; the absence of an exception signals success.
func WriteSingleCoil(t transport.Transport, tid, pid uint16, uid byte, address uint16, on bool) error {
	_, err := Command(t, tid, pid, uid, modbus.FuncCodeWriteSingleCoil, coilPayload(address, on))
	return err
}

// WriteSingleRegister writes one holding register.
func WriteSingleRegister(t transport.Transport, tid, pid uint16, uid byte, address, value uint16) error {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], value)
	_, err := Command(t, tid, pid, uid, modbus.FuncCodeWriteSingleRegister, payload)
	return err
}

// WriteMultipleRegisters writes values to consecutive holding registers
// starting at address and returns the register count echoed by the server.
func WriteMultipleRegisters(t transport.Transport, tid, pid uint16, uid byte, address uint16, values []uint16) (uint16, error) {
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeWriteMultipleRegisters, registersPayload(address, values))
	if err != nil {
		return 0, err
	}
	_, count, err := decodeEcho(resp.Pdu.Data)
	return count, err
}

// WriteMultipleCoils writes consecutive coils starting at address and
// returns the coil count echoed by the server.
func WriteMultipleCoils(t transport.Transport, tid, pid uint16, uid byte, address uint16, values []bool) (uint16, error) {
	byteCount := (len(values) + 7) / 8
	payload := make([]byte, 5+byteCount)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], uint16(len(values)))
	payload[4] = byte(byteCount)
	for i, on := range values {
		if on {
			payload[5+i/8] |= 1 << uint(i%8)
		}
	}
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeWriteMultipleCoils, payload)
	if err != nil {
		return 0, err
	}
	_, count, err := decodeEcho(resp.Pdu.Data)
	return count, err
}

// MaskWriteRegister applies (current AND andMask) OR (orMask AND NOT
// andMask) to the register at address. The response is an echo.
func MaskWriteRegister(t transport.Transport, tid, pid uint16, uid byte, address, andMask, orMask uint16) error {
	payload := make([]byte, 6)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], andMask)
	binary.BigEndian.PutUint16(payload[4:], orMask)
	_, err := Command(t, tid, pid, uid, modbus.FuncCodeMaskWriteRegister, payload)
	return err
}

// ReadWriteMultipleRegisters writes values starting at writeAddress, then
// reads readQuantity registers starting at readAddress, in one transaction.
func ReadWriteMultipleRegisters(t transport.Transport, tid, pid uint16, uid byte, readAddress, readQuantity, writeAddress uint16, values []uint16) ([]uint16, error) {
	payload := make([]byte, 9+2*len(values))
	binary.BigEndian.PutUint16(payload[0:], readAddress)
	binary.BigEndian.PutUint16(payload[2:], readQuantity)
	binary.BigEndian.PutUint16(payload[4:], writeAddress)
	binary.BigEndian.PutUint16(payload[6:], uint16(len(values)))
	payload[8] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(payload[9+2*i:], v)
	}
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadWriteMultipleRegisters, payload)
	if err != nil {
		return nil, err
	}
	return decodeRegisters(resp.Pdu.Data)
}

// ReadFIFOQueue reads the FIFO queue at the given pointer address.
func ReadFIFOQueue(t transport.Transport, tid, pid uint16, uid byte, address uint16) ([]uint16, error) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, address)
	resp, err := Command(t, tid, pid, uid, modbus.FuncCodeReadFIFOQueue, payload)
	if err != nil {
		return nil, err
	}
	return decodeFIFO(resp.Pdu.Data)
}

// rangePayload is the shared start-address + quantity request shape.
func rangePayload(address, quantity uint16) []byte {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], quantity)
	return payload
}

// coilPayload encodes a single-coil write: 0xFF00 for ON, 0x0000 for OFF.
func coilPayload(address uint16, on bool) []byte {
	var value uint16
	if on {
		value = 0xFF00
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], value)
	return payload
}

// registersPayload encodes a multi-register write: address, register count,
// byte count, then the values.
func registersPayload(address uint16, values []uint16) []byte {
	payload := make([]byte, 5+2*len(values))
	binary.BigEndian.PutUint16(payload[0:], address)
	binary.BigEndian.PutUint16(payload[2:], uint16(len(values)))
	payload[4] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(payload[5+2*i:], v)
	}
	return payload
}

// decodeBytes reads a one-byte count prefix followed by exactly that many
// bytes.
func decodeBytes(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: response payload is empty", modbus.ErrDecode)
	}
	n := int(data[0])
	if len(data) < 1+n {
		return nil, fmt.Errorf("%w: response announces %v bytes, carries %v", modbus.ErrDecode, n, len(data)-1)
	}
	return data[1 : 1+n], nil
}

// decodeRegisters reads a one-byte byte-count prefix followed by that many
// bytes of big-endian 16-bit registers.
func decodeRegisters(data []byte) ([]uint16, error) {
	raw, err := decodeBytes(data)
	if err != nil {
		return nil, err
	}
	values := make([]uint16, len(raw)/2)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return values, nil
}

// decodeEcho reads the echoed address + count of a write response.
func decodeEcho(data []byte) (address, count uint16, err error) {
	if len(data) < 4 {
		return 0, 0, fmt.Errorf("%w: write echo carries %v bytes, want 4", modbus.ErrDecode, len(data))
	}
	return binary.BigEndian.Uint16(data[0:]), binary.BigEndian.Uint16(data[2:]), nil
}

// decodeFIFO reads a FIFO response: 16-bit byte count, 16-bit FIFO count,
// then the queued registers.
func decodeFIFO(data []byte) ([]uint16, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: FIFO response carries %v bytes, want at least 4", modbus.ErrDecode, len(data))
	}
	count := int(binary.BigEndian.Uint16(data[2:]))
	if len(data) < 4+2*count {
		return nil, fmt.Errorf("%w: FIFO response announces %v registers, carries %v bytes", modbus.ErrDecode, count, len(data)-4)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[4+2*i:])
	}
	return values, nil
}
