// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// ExceptionCode is the one-byte reason a server attaches to an exception
// response.
type ExceptionCode byte

// Exception codes (Modbus Application Protocol Specification V1.1b §7).
const (
	ExceptionIllegalFunction                    ExceptionCode = 0x01
	ExceptionIllegalDataAddress                 ExceptionCode = 0x02
	ExceptionIllegalDataValue                   ExceptionCode = 0x03
	ExceptionSlaveDeviceFailure                 ExceptionCode = 0x04
	ExceptionAcknowledge                        ExceptionCode = 0x05
	ExceptionSlaveDeviceBusy                    ExceptionCode = 0x06
	ExceptionMemoryParityError                  ExceptionCode = 0x08
	ExceptionGatewayPathUnavailable             ExceptionCode = 0x0A
	ExceptionGatewayTargetDeviceFailedToRespond ExceptionCode = 0x0B
)

var exceptionNames = map[ExceptionCode]string{
	ExceptionIllegalFunction:                    "illegal function",
	ExceptionIllegalDataAddress:                 "illegal data address",
	ExceptionIllegalDataValue:                   "illegal data value",
	ExceptionSlaveDeviceFailure:                 "slave device failure",
	ExceptionAcknowledge:                        "acknowledge",
	ExceptionSlaveDeviceBusy:                    "slave device busy",
	ExceptionMemoryParityError:                  "memory parity error",
	ExceptionGatewayPathUnavailable:             "gateway path unavailable",
	ExceptionGatewayTargetDeviceFailedToRespond: "gateway target device failed to respond",
}

// DecodeExceptionCode maps a byte to its exception code. Unlike function
// codes there is no catch-all class: an unknown byte means the response is
// malformed and fails with ErrDecode.
func DecodeExceptionCode(b byte) (ExceptionCode, error) {
	ec := ExceptionCode(b)
	if exceptionNames[ec] == "" {
		return 0, fmt.Errorf("%w: unknown exception code 0x%02X", ErrDecode, b)
	}
	return ec, nil
}

func (e ExceptionCode) String() string {
	if name := exceptionNames[e]; name != "" {
		return name
	}
	return fmt.Sprintf("unknown(0x%02X)", byte(e))
}

// Error is the typed failure for a protocol-level rejection: the server
// answered, but with an exception response. FunctionCode carries the
// offending request code with the exception flag already cleared.
type Error struct {
	FunctionCode  FunctionCode
	ExceptionCode ExceptionCode
}

func (e *Error) Error() string {
	return fmt.Sprintf("modbus: exception '%v' (%v), function '%v'",
		byte(e.ExceptionCode), e.ExceptionCode, e.FunctionCode)
}
