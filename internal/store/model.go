// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

import (
	"fmt"
	"sync"
)

const (
	MaxAddress = 65535
)

// Table identifies one of the four Modbus data tables.
type Table int

const (
	TableCoils Table = iota
	TableDiscreteInputs
	TableHoldingRegisters
	TableInputRegisters
)

func (t Table) String() string {
	switch t {
	case TableCoils:
		return "coils"
	case TableDiscreteInputs:
		return "discrete_inputs"
	case TableHoldingRegisters:
		return "holding_registers"
	case TableInputRegisters:
		return "input_registers"
	default:
		return fmt.Sprintf("table(%d)", int(t))
	}
}

// Snapshot holds the last values observed on a polled device, one flat
// table per Modbus data type covering the full 16-bit address space.
// Bit tables store 1 (ON) or 0 (OFF) per address.
type Snapshot struct {
	mu sync.RWMutex

	// 0x Coils.
	Coils []byte
	// 1x Discrete Inputs.
	DiscreteInputs []byte
	// 4x Holding Registers.
	HoldingRegisters []uint16
	// 3x Input Registers.
	InputRegisters []uint16
}

// NewSnapshot creates a snapshot initialized to zero.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Coils:            make([]byte, MaxAddress+1),
		DiscreteInputs:   make([]byte, MaxAddress+1),
		HoldingRegisters: make([]uint16, MaxAddress+1),
		InputRegisters:   make([]uint16, MaxAddress+1),
	}
}

// SetBits records quantity coil/discrete-input states starting at address
// from the packed wire form (eight per byte, LSB first).
func (s *Snapshot) SetBits(table Table, address, quantity uint16, packed []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bits, err := s.bitTable(table)
	if err != nil {
		return err
	}
	if err := validateRange(address, quantity); err != nil {
		return err
	}
	if len(packed) < (int(quantity)+7)/8 {
		return fmt.Errorf("store: %v packed bytes cannot cover %v bits", len(packed), quantity)
	}
	for i := 0; i < int(quantity); i++ {
		bits[int(address)+i] = (packed[i/8] >> uint(i%8)) & 1
	}
	return nil
}

// SetRegisters records register values starting at address.
func (s *Snapshot) SetRegisters(table Table, address uint16, values []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, err := s.registerTable(table)
	if err != nil {
		return err
	}
	if err := validateRange(address, uint16(len(values))); err != nil {
		return err
	}
	copy(regs[address:], values)
	return nil
}

// Bits returns quantity bit states starting at address in packed form.
func (s *Snapshot) Bits(table Table, address, quantity uint16) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bits, err := s.bitTable(table)
	if err != nil {
		return nil, err
	}
	if err := validateRange(address, quantity); err != nil {
		return nil, err
	}
	packed := make([]byte, (int(quantity)+7)/8)
	for i := 0; i < int(quantity); i++ {
		if bits[int(address)+i] != 0 {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return packed, nil
}

// Registers returns quantity register values starting at address.
func (s *Snapshot) Registers(table Table, address, quantity uint16) ([]uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regs, err := s.registerTable(table)
	if err != nil {
		return nil, err
	}
	if err := validateRange(address, quantity); err != nil {
		return nil, err
	}
	values := make([]uint16, quantity)
	copy(values, regs[address:int(address)+int(quantity)])
	return values, nil
}

func (s *Snapshot) bitTable(table Table) ([]byte, error) {
	switch table {
	case TableCoils:
		return s.Coils, nil
	case TableDiscreteInputs:
		return s.DiscreteInputs, nil
	default:
		return nil, fmt.Errorf("store: %v is not a bit table", table)
	}
}

func (s *Snapshot) registerTable(table Table) ([]uint16, error) {
	switch table {
	case TableHoldingRegisters:
		return s.HoldingRegisters, nil
	case TableInputRegisters:
		return s.InputRegisters, nil
	default:
		return nil, fmt.Errorf("store: %v is not a register table", table)
	}
}

func validateRange(address, quantity uint16) error {
	if quantity == 0 {
		return fmt.Errorf("store: quantity must be greater than 0")
	}
	if int(address)+int(quantity) > MaxAddress+1 {
		return fmt.Errorf("store: address range out of bounds")
	}
	return nil
}
