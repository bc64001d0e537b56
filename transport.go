// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"
)

const (
	readBuffer  = 4096
	writeBuffer = 16384
)

// channel is the byte stream to the server. It knows nothing about frames.
type channel struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	m    *metrics

	closed atomic.Bool
}

func newChannel(conn net.Conn, m *metrics) *channel {
	return &channel{
		conn: conn,
		r:    bufio.NewReaderSize(conn, readBuffer),
		w:    bufio.NewWriterSize(conn, writeBuffer),
		m:    m,
	}
}

// write queues b. Bytes that overflow the buffer may reach the server before
// the next flush; errors surface from flush either way.
func (ch *channel) write(b []byte) {
	ch.w.Write(b)
}

func (ch *channel) flush() error {
	n := ch.w.Buffered()
	if err := ch.w.Flush(); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	ch.m.bytesWritten.Add(float64(n))
	return nil
}

// readFull blocks until len(buf) bytes have been read.
func (ch *channel) readFull(buf []byte) error {
	if _, err := io.ReadFull(ch.r, buf); err != nil {
		return &TransportError{Op: "read", Err: err}
	}
	ch.m.bytesRead.Add(float64(len(buf)))
	return nil
}

// close shuts the stream. It is safe to call from any goroutine; only the
// first call closes, later ones return ErrClosed.
func (ch *channel) close() error {
	if !ch.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return ch.conn.Close()
}

func (ch *channel) isClosed() bool { return ch.closed.Load() }
