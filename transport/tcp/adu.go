// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"encoding/binary"
	"fmt"

	"github.com/ffutop/modbus-client/modbus"
)

const (
	// HeaderSize is the fixed MBAP header size.
	HeaderSize = 7

	tcpMinSize = 8
	tcpMaxSize = 260
)

// Header is the 7-byte MBAP header. Length counts every byte after the
// length field itself: unit identifier, function code and payload.
type Header struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
	UnitID        byte
}

// Encode serializes the header, big-endian throughout.
func (h Header) Encode() []byte {
	raw := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(raw[0:], h.TransactionID)
	binary.BigEndian.PutUint16(raw[2:], h.ProtocolID)
	binary.BigEndian.PutUint16(raw[4:], h.Length)
	raw[6] = h.UnitID
	return raw
}

// DecodeHeader parses the MBAP header from raw.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header length '%v' does not meet minimum '%v'",
			modbus.ErrDecode, len(raw), HeaderSize)
	}
	return Header{
		TransactionID: binary.BigEndian.Uint16(raw[0:]),
		ProtocolID:    binary.BigEndian.Uint16(raw[2:]),
		Length:        binary.BigEndian.Uint16(raw[4:]),
		UnitID:        raw[6],
	}, nil
}

// Verify checks that resp answers the request this header belongs to.
func (h Header) Verify(resp Header) error {
	if resp.TransactionID != h.TransactionID {
		return fmt.Errorf("modbus: response transaction id '%v' does not match request '%v'",
			resp.TransactionID, h.TransactionID)
	}
	return nil
}

// ApplicationDataUnit is the full Modbus TCP frame: MBAP header plus PDU.
// It is built once per request or response and not mutated afterwards.
type ApplicationDataUnit struct {
	Header Header
	Pdu    modbus.ProtocolDataUnit
}

// NewADU assembles a request ADU, deriving the header length field from the
// payload (unit id + function code + payload bytes).
func NewADU(tid, pid uint16, uid byte, fc modbus.FunctionCode, payload []byte) *ApplicationDataUnit {
	return &ApplicationDataUnit{
		Header: Header{
			TransactionID: tid,
			ProtocolID:    pid,
			Length:        uint16(2 + len(payload)),
			UnitID:        uid,
		},
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: fc,
			Data:         payload,
		},
	}
}

// Encode serializes the full ADU.
func (adu *ApplicationDataUnit) Encode() ([]byte, error) {
	length := len(adu.Pdu.Data) + tcpMinSize
	if length > tcpMaxSize {
		return nil, fmt.Errorf("modbus: length of frame '%v' must not be bigger than '%v'", length, tcpMaxSize)
	}
	raw := make([]byte, length)
	copy(raw, adu.Header.Encode())
	raw[7] = byte(adu.Pdu.FunctionCode)
	copy(raw[8:], adu.Pdu.Data)
	return raw, nil
}

// Decode parses an ADU from raw. The payload size is derived from the header
// length field, never from the buffer end: exactly Length-2 bytes follow the
// function code, and a buffer shorter than that fails before any slicing.
func Decode(raw []byte) (*ApplicationDataUnit, error) {
	header, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if len(raw) < tcpMinSize {
		return nil, fmt.Errorf("%w: frame length '%v' does not meet minimum '%v'",
			modbus.ErrDecode, len(raw), tcpMinSize)
	}
	if header.Length < 2 {
		return nil, fmt.Errorf("%w: header length field '%v' below minimum '2'",
			modbus.ErrDecode, header.Length)
	}
	need := int(header.Length) - 2
	if len(raw) < tcpMinSize+need {
		return nil, fmt.Errorf("%w: frame carries %v payload bytes, header announces %v",
			modbus.ErrDecode, len(raw)-tcpMinSize, need)
	}
	return &ApplicationDataUnit{
		Header: header,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: modbus.FunctionCode(raw[7]),
			Data:         raw[8 : 8+need],
		},
	}, nil
}
