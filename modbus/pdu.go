// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "errors"

// ErrDecode marks every malformed-frame failure: short buffers, truncated
// payloads, unknown exception bytes. Callers classify with errors.Is; a
// transport failure is never wrapped in it.
var ErrDecode = errors.New("modbus: malformed frame")

// ProtocolDataUnit (PDU) is the transport-independent portion of a Modbus
// message: function code plus data.
type ProtocolDataUnit struct {
	FunctionCode FunctionCode
	Data         []byte
}
