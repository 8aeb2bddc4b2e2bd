// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package store

// Storage persists a polled snapshot across runs.
type Storage interface {
	// Load loads the snapshot from storage, creating an empty one if
	// nothing was persisted yet.
	Load() (*Snapshot, error)

	// Save saves the current snapshot.
	Save(s *Snapshot) error

	// OnWrite is a hook called after a poll cycle updated a range. It
	// allows the storage to persist incrementally.
	OnWrite(table Table, address, quantity uint16)

	// Close releases the underlying resources.
	Close() error
}
