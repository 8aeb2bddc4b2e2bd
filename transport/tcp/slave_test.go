// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.
package tcp

import (
	"net"
	"testing"

	"github.com/ffutop/modbus-client/modbus"
)

// fakeSlave is a loopback Modbus TCP server for tests. Each accepted
// connection is served by handler: request PDU in, response PDU out. The
// MBAP header is echoed with the response length recomputed.
type fakeSlave struct {
	listener net.Listener
	handler  func(uid byte, pdu modbus.ProtocolDataUnit) modbus.ProtocolDataUnit
}

func newFakeSlave(t *testing.T, handler func(uid byte, pdu modbus.ProtocolDataUnit) modbus.ProtocolDataUnit) *fakeSlave {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeSlave{listener: listener, handler: handler}
	t.Cleanup(func() { listener.Close() })
	go s.serve()
	return s
}

func (s *fakeSlave) addr() string {
	return s.listener.Addr().String()
}

func (s *fakeSlave) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *fakeSlave) handleConnection(conn net.Conn) {
	defer conn.Close()
	for {
		buf := make([]byte, tcpMaxSize+1)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		adu, err := Decode(buf[:n])
		if err != nil {
			continue
		}

		respPdu := s.handler(adu.Header.UnitID, adu.Pdu)
		resp := NewADU(adu.Header.TransactionID, adu.Header.ProtocolID, adu.Header.UnitID,
			respPdu.FunctionCode, respPdu.Data)
		raw, err := resp.Encode()
		if err != nil {
			continue
		}
		if _, err := conn.Write(raw); err != nil {
			return
		}
	}
}

// registerSlave answers read-holding-register requests from a fixed table
// and rejects everything else with an illegal-function exception.
func registerSlave(registers []uint16) func(byte, modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	return func(uid byte, pdu modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
		if pdu.FunctionCode != modbus.FuncCodeReadHoldingRegisters || len(pdu.Data) < 4 {
			return modbus.ProtocolDataUnit{
				FunctionCode: pdu.FunctionCode.Exception(),
				Data:         []byte{byte(modbus.ExceptionIllegalFunction)},
			}
		}
		address := int(pdu.Data[0])<<8 | int(pdu.Data[1])
		quantity := int(pdu.Data[2])<<8 | int(pdu.Data[3])
		if address+quantity > len(registers) {
			return modbus.ProtocolDataUnit{
				FunctionCode: pdu.FunctionCode.Exception(),
				Data:         []byte{byte(modbus.ExceptionIllegalDataAddress)},
			}
		}
		data := make([]byte, 1+2*quantity)
		data[0] = byte(2 * quantity)
		for i := 0; i < quantity; i++ {
			v := registers[address+i]
			data[1+2*i] = byte(v >> 8)
			data[2+2*i] = byte(v)
		}
		return modbus.ProtocolDataUnit{FunctionCode: pdu.FunctionCode, Data: data}
	}
}
