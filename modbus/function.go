// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// FunctionCode is the one-byte Modbus function code carried in every PDU.
type FunctionCode byte

// Public function codes (Modbus Application Protocol Specification V1.1b §5).
const (
	FuncCodeReadCoils                      FunctionCode = 0x01
	FuncCodeReadDiscreteInputs             FunctionCode = 0x02
	FuncCodeReadHoldingRegisters           FunctionCode = 0x03
	FuncCodeReadInputRegisters             FunctionCode = 0x04
	FuncCodeWriteSingleCoil                FunctionCode = 0x05
	FuncCodeWriteSingleRegister            FunctionCode = 0x06
	FuncCodeReadExceptionStatus            FunctionCode = 0x07
	FuncCodeDiagnostics                    FunctionCode = 0x08
	FuncCodeGetCommEventCounter            FunctionCode = 0x0B
	FuncCodeGetCommEventLog                FunctionCode = 0x0C
	FuncCodeWriteMultipleCoils             FunctionCode = 0x0F
	FuncCodeWriteMultipleRegisters         FunctionCode = 0x10
	FuncCodeReportSlaveID                  FunctionCode = 0x11
	FuncCodeReadFileRecord                 FunctionCode = 0x14
	FuncCodeWriteFileRecord                FunctionCode = 0x15
	FuncCodeMaskWriteRegister              FunctionCode = 0x16
	FuncCodeReadWriteMultipleRegisters     FunctionCode = 0x17
	FuncCodeReadFIFOQueue                  FunctionCode = 0x18
	FuncCodeEncapsulatedInterfaceTransport FunctionCode = 0x2B
)

// ExceptionFlag is OR-ed into the request function code by a server
// rejecting the request. The exception reason follows as a one-byte code.
const ExceptionFlag FunctionCode = 0x80

// FunctionClass partitions the 256 possible function-code bytes.
type FunctionClass int

const (
	// ClassStandard is one of the named public codes above.
	ClassStandard FunctionClass = iota
	// ClassUserDefined covers the vendor ranges 65..72 and 100..110.
	ClassUserDefined
	// ClassReserved covers codes reserved for legacy products.
	ClassReserved
	// ClassException is any code with the 0x80 flag set.
	ClassException
	// ClassOther is everything else.
	ClassOther
)

var standardNames = map[FunctionCode]string{
	FuncCodeReadCoils:                      "ReadCoils",
	FuncCodeReadDiscreteInputs:             "ReadDiscreteInputs",
	FuncCodeReadHoldingRegisters:           "ReadHoldingRegisters",
	FuncCodeReadInputRegisters:             "ReadInputRegisters",
	FuncCodeWriteSingleCoil:                "WriteSingleCoil",
	FuncCodeWriteSingleRegister:            "WriteSingleRegister",
	FuncCodeReadExceptionStatus:            "ReadExceptionStatus",
	FuncCodeDiagnostics:                    "Diagnostics",
	FuncCodeGetCommEventCounter:            "GetCommEventCounter",
	FuncCodeGetCommEventLog:                "GetCommEventLog",
	FuncCodeWriteMultipleCoils:             "WriteMultipleCoils",
	FuncCodeWriteMultipleRegisters:         "WriteMultipleRegisters",
	FuncCodeReportSlaveID:                  "ReportSlaveID",
	FuncCodeReadFileRecord:                 "ReadFileRecord",
	FuncCodeWriteFileRecord:                "WriteFileRecord",
	FuncCodeMaskWriteRegister:              "MaskWriteRegister",
	FuncCodeReadWriteMultipleRegisters:     "ReadWriteMultipleRegisters",
	FuncCodeReadFIFOQueue:                  "ReadFIFOQueue",
	FuncCodeEncapsulatedInterfaceTransport: "EncapsulatedInterfaceTransport",
}

// reservedCodes per V1.1b Annex A. None of them collides with the named
// public codes or the user-defined ranges.
var reservedCodes = map[FunctionCode]bool{
	9: true, 10: true, 13: true, 14: true,
	41: true, 42: true, 90: true, 91: true,
	125: true, 126: true, 127: true,
}

// Class classifies the code. The checks are ordered: named public codes
// first, then the user-defined ranges, then the reserved set, then the
// exception flag. Everything unclassified is ClassOther.
func (c FunctionCode) Class() FunctionClass {
	switch {
	case standardNames[c] != "":
		return ClassStandard
	case (c >= 65 && c <= 72) || (c >= 100 && c <= 110):
		return ClassUserDefined
	case reservedCodes[c]:
		return ClassReserved
	case c&ExceptionFlag != 0:
		return ClassException
	default:
		return ClassOther
	}
}

// IsException reports whether the exception flag is set.
func (c FunctionCode) IsException() bool {
	return c&ExceptionFlag != 0
}

// Exception returns the code with the exception flag set.
func (c FunctionCode) Exception() FunctionCode {
	return c | ExceptionFlag
}

// Base returns the code with the exception flag cleared. The flag is only
// ever set once by the protocol, so this is a single masking, not a loop.
func (c FunctionCode) Base() FunctionCode {
	return c &^ ExceptionFlag
}

func (c FunctionCode) String() string {
	switch c.Class() {
	case ClassStandard:
		return standardNames[c]
	case ClassUserDefined:
		return fmt.Sprintf("UserDefined(0x%02X)", byte(c))
	case ClassReserved:
		return fmt.Sprintf("Reserved(0x%02X)", byte(c))
	case ClassException:
		return fmt.Sprintf("Exception(%v)", c.Base())
	default:
		return fmt.Sprintf("Other(0x%02X)", byte(c))
	}
}
