// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package tcp

import (
	"fmt"

	"github.com/ffutop/modbus-client/modbus"
	"github.com/ffutop/modbus-client/transport"
)

// maxResponseSize bounds the single response read. Modbus TCP ADUs never
// exceed 260 bytes, so 512 leaves headroom.
const maxResponseSize = 512

// Command runs one synchronous transaction: encode the request ADU, write
// it, read the response in a single bounded Recv, decode it and surface a
// protocol-level exception as *modbus.Error.
//
// The response arrives via one Recv call. A response fragmented across
// several TCP segments is reported as a decode failure, not re-read. The
// response transaction id is not checked against the request either; both
// are caller concerns at this layer (Client adds the id check).
func Command(t transport.Transport, tid, pid uint16, uid byte, fc modbus.FunctionCode, payload []byte) (*ApplicationDataUnit, error) {
	raw, err := NewADU(tid, pid, uid, fc, payload).Encode()
	if err != nil {
		return nil, err
	}
	if _, err := t.Send(raw); err != nil {
		return nil, fmt.Errorf("modbus: send failed: %w", err)
	}

	respRaw, err := t.Recv(maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("modbus: recv failed: %w", err)
	}

	resp, err := Decode(respRaw)
	if err != nil {
		return nil, err
	}

	if resp.Pdu.FunctionCode.IsException() {
		if len(resp.Pdu.Data) < 1 {
			return nil, fmt.Errorf("%w: exception response carries no exception code", modbus.ErrDecode)
		}
		ec, err := modbus.DecodeExceptionCode(resp.Pdu.Data[0])
		if err != nil {
			return nil, err
		}
		return nil, &modbus.Error{
			FunctionCode:  resp.Pdu.FunctionCode.Base(),
			ExceptionCode: ec,
		}
	}
	return resp, nil
}
