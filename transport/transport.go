// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package transport

import (
	"io"
	"net"
	"time"
)

// Transport is a bidirectional byte stream carrying Modbus TCP ADUs, e.g. a
// TCP connection or a test double. It owns its lifecycle and timeout policy;
// the codec layer above performs exactly one Send followed by one Recv per
// transaction and never retries.
//
// A Transport is not safe for concurrent use. Callers interleaving requests
// from several goroutines must serialize access themselves.
type Transport interface {
	// Send writes p and returns the number of bytes written.
	Send(p []byte) (int, error)

	// Recv performs a single read of at most maxBytes and returns whatever
	// arrived. It returns an empty slice and no error on orderly close.
	Recv(maxBytes int) ([]byte, error)
}

// Conn adapts a net.Conn to the Transport contract. A non-zero Timeout is
// applied as a fresh deadline before every Send and Recv.
type Conn struct {
	C       net.Conn
	Timeout time.Duration
}

func (c *Conn) Send(p []byte) (int, error) {
	if c.Timeout > 0 {
		if err := c.C.SetWriteDeadline(time.Now().Add(c.Timeout)); err != nil {
			return 0, err
		}
	}
	return c.C.Write(p)
}

func (c *Conn) Recv(maxBytes int) ([]byte, error) {
	if c.Timeout > 0 {
		if err := c.C.SetReadDeadline(time.Now().Add(c.Timeout)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, maxBytes)
	n, err := c.C.Read(buf)
	if err == io.EOF {
		return buf[:0], nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
