// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ffutop/modbus-client/internal/store"
)

// Reader is the slice of the TCP client the poller needs.
type Reader interface {
	ReadCoils(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error)
	ReadDiscreteInputs(ctx context.Context, uid byte, address, quantity uint16) ([]byte, error)
	ReadHoldingRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(ctx context.Context, uid byte, address, quantity uint16) ([]uint16, error)
}

// Range is one polled address range in one data table.
type Range struct {
	Table    store.Table
	Address  uint16
	Quantity uint16
}

// Poller reads the configured ranges from one device on a fixed interval
// and records the observed values in a snapshot store. A failed range read
// is logged and skipped; the loop keeps running until the context ends.
type Poller struct {
	client   Reader
	uid      byte
	interval time.Duration
	ranges   []Range
	storage  store.Storage
}

// NewPoller allocates a poller. The storage remains owned by the caller;
// the poller loads it on Run and saves it on shutdown, but does not close it.
func NewPoller(client Reader, uid byte, interval time.Duration, ranges []Range, storage store.Storage) *Poller {
	return &Poller{
		client:   client,
		uid:      uid,
		interval: interval,
		ranges:   ranges,
		storage:  storage,
	}
}

// Run polls until ctx is done, then saves the snapshot.
func (p *Poller) Run(ctx context.Context) error {
	snapshot, err := p.storage.Load()
	if err != nil {
		return fmt.Errorf("scan: failed to load snapshot: %w", err)
	}

	slog.Info("poller started", "unit", p.uid, "interval", p.interval, "ranges", len(p.ranges))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx, snapshot)
	for {
		select {
		case <-ctx.Done():
			slog.Info("poller stopping", "unit", p.uid)
			if err := p.storage.Save(snapshot); err != nil {
				return fmt.Errorf("scan: failed to save snapshot: %w", err)
			}
			return nil
		case <-ticker.C:
			p.pollOnce(ctx, snapshot)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, snapshot *store.Snapshot) {
	for _, r := range p.ranges {
		if ctx.Err() != nil {
			return
		}
		if err := p.pollRange(ctx, snapshot, r); err != nil {
			slog.Error("poll failed", "unit", p.uid, "table", r.Table, "address", r.Address, "quantity", r.Quantity, "err", err)
			continue
		}
		p.storage.OnWrite(r.Table, r.Address, r.Quantity)
		slog.Debug("poll ok", "unit", p.uid, "table", r.Table, "address", r.Address, "quantity", r.Quantity)
	}
}

func (p *Poller) pollRange(ctx context.Context, snapshot *store.Snapshot, r Range) error {
	switch r.Table {
	case store.TableCoils:
		packed, err := p.client.ReadCoils(ctx, p.uid, r.Address, r.Quantity)
		if err != nil {
			return err
		}
		return snapshot.SetBits(r.Table, r.Address, r.Quantity, packed)
	case store.TableDiscreteInputs:
		packed, err := p.client.ReadDiscreteInputs(ctx, p.uid, r.Address, r.Quantity)
		if err != nil {
			return err
		}
		return snapshot.SetBits(r.Table, r.Address, r.Quantity, packed)
	case store.TableHoldingRegisters:
		values, err := p.client.ReadHoldingRegisters(ctx, p.uid, r.Address, r.Quantity)
		if err != nil {
			return err
		}
		return snapshot.SetRegisters(r.Table, r.Address, values)
	case store.TableInputRegisters:
		values, err := p.client.ReadInputRegisters(ctx, p.uid, r.Address, r.Quantity)
		if err != nil {
			return err
		}
		return snapshot.SetRegisters(r.Table, r.Address, values)
	default:
		return fmt.Errorf("scan: unknown table %v", r.Table)
	}
}
