// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.
package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ffutop/modbus-client/internal/store"
)

// fakeReader serves canned tables and counts reads.
type fakeReader struct {
	mu       sync.Mutex
	holding  []uint16
	coils    []byte // packed
	readErr  error
	requests int
}

func (f *fakeReader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeReader) bump() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return f.readErr
}

func (f *fakeReader) ReadCoils(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.coils, nil
}

func (f *fakeReader) ReadDiscreteInputs(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.coils, nil
}

func (f *fakeReader) ReadHoldingRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.holding[address : int(address)+int(quantity)], nil
}

func (f *fakeReader) ReadInputRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error) {
	if err := f.bump(); err != nil {
		return nil, err
	}
	return f.holding[address : int(address)+int(quantity)], nil
}

func TestPoller_RecordsValues(t *testing.T) {
	reader := &fakeReader{
		holding: []uint16{10, 20, 30, 40},
		coils:   []byte{0x05},
	}
	storage := store.NewMemoryStorage()
	p := NewPoller(reader, 1, 10*time.Millisecond, []Range{
		{Table: store.TableHoldingRegisters, Address: 1, Quantity: 2},
		{Table: store.TableCoils, Address: 0, Quantity: 3},
	}, storage)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// Wait until at least one full cycle happened.
	deadline := time.After(2 * time.Second)
	for reader.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("poller never completed a cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestPoller_SnapshotContents(t *testing.T) {
	reader := &fakeReader{
		holding: []uint16{10, 20, 30, 40},
		coils:   []byte{0x05},
	}

	// Drive one cycle directly against a snapshot.
	storage := store.NewMemoryStorage()
	snapshot, err := storage.Load()
	if err != nil {
		t.Fatal(err)
	}
	p := NewPoller(reader, 1, time.Hour, []Range{
		{Table: store.TableHoldingRegisters, Address: 1, Quantity: 2},
		{Table: store.TableCoils, Address: 0, Quantity: 3},
	}, storage)
	p.pollOnce(context.Background(), snapshot)

	values, err := snapshot.Registers(store.TableHoldingRegisters, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if values[0] != 20 || values[1] != 30 {
		t.Errorf("registers = %v, want [20 30]", values)
	}
	packed, err := snapshot.Bits(store.TableCoils, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if packed[0] != 0x05 {
		t.Errorf("coils = % X, want 05", packed)
	}
}

func TestPoller_KeepsGoingOnError(t *testing.T) {
	reader := &fakeReader{readErr: errors.New("device unreachable")}
	storage := store.NewMemoryStorage()
	snapshot, err := storage.Load()
	if err != nil {
		t.Fatal(err)
	}
	p := NewPoller(reader, 1, time.Hour, []Range{
		{Table: store.TableHoldingRegisters, Address: 0, Quantity: 1},
		{Table: store.TableInputRegisters, Address: 0, Quantity: 1},
	}, storage)

	p.pollOnce(context.Background(), snapshot)
	if reader.count() != 2 {
		t.Errorf("poller stopped after a failed range: %d reads, want 2", reader.count())
	}
}
