// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Conn represents a connection to an X server.
//
// A Conn is meant to be driven by one goroutine. Its methods are serialized
// by a mutex, so concurrent calls are safe but block each other, including
// while AwaitReply waits on the server.
type Conn struct {
	mu sync.Mutex

	ch            *channel
	order         binary.ByteOrder
	setup         *SetupInfo
	defaultScreen int
	maxLength     int

	seq     uint16 // sequence number of the last request sent
	pending *pendingTable
	events  queue[Event]
	errors  queue[*ProtocolError]
	ext     *extensionRegistry

	atoms     map[string]Atom
	atomNames map[Atom]string
	lastXid   uint32

	err error
	log *logrus.Entry
	m   *metrics
}

// Id is used for all X identifiers, such as windows, pixmaps, and GCs.
type Id uint32

// Atom identifies an interned string.
type Atom uint32

// Open connects to the display named by $DISPLAY.
func Open(opts ...Option) (*Conn, error) {
	return OpenDisplay("", opts...)
}

// OpenDisplay is just like Open, but allows a specific DISPLAY
// string to be used.
// If 'display' is empty it will be taken from WithDisplay or
// os.Getenv("DISPLAY").
//
// Examples:
//	OpenDisplay(":1") -> net.Dial("unix", "/tmp/.X11-unix/X1")
//	OpenDisplay("/tmp/launch-123/:0") -> net.Dial("unix", "/tmp/launch-123/:0")
//	OpenDisplay("hostname:2.1") -> net.Dial("tcp", "hostname:6002")
//	OpenDisplay("tcp/hostname:1.0") -> net.Dial("tcp", "hostname:6001")
func OpenDisplay(display string, opts ...Option) (*Conn, error) {
	cfg := newConfig(opts)
	if display == "" {
		display = cfg.display
	}
	addr, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}

	if !cfg.authSet {
		name, data, err := readAuthority(addr.host, addr.display)
		if err != nil {
			cfg.logger.WithError(err).Debug("connecting without authorization")
		}
		cfg.authName, cfg.authData = name, data
	}

	conn, err := cfg.dial(addr.network, addr.address)
	if err != nil {
		return nil, &TransportError{Op: "dial " + addr.address, Err: err}
	}
	c, err := newConn(conn, cfg, addr.screen, display)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewConn performs the connection setup over an established stream. It does
// not consult the Xauthority file; pass WithAuth when the server wants
// credentials.
func NewConn(conn net.Conn, opts ...Option) (*Conn, error) {
	cfg := newConfig(opts)
	return newConn(conn, cfg, 0, conn.RemoteAddr().String())
}

func newConn(conn net.Conn, cfg config, screen int, display string) (*Conn, error) {
	c := &Conn{
		order:     cfg.order,
		pending:   newPendingTable(),
		ext:       newExtensionRegistry(),
		atoms:     make(map[string]Atom),
		atomNames: make(map[Atom]string),
		log:       cfg.logger.WithField("display", display),
		m:         newMetrics(cfg.registerer),
	}
	c.events.limit = cfg.queueLimit
	c.errors.limit = cfg.queueLimit
	c.ch = newChannel(conn, c.m)

	if err := c.handshake(cfg.authName, cfg.authData); err != nil {
		return nil, err
	}
	if screen >= len(c.setup.Roots) {
		c.ch.close()
		return nil, &MisuseError{Msg: fmt.Sprintf("screen %d requested but the server has %d", screen, len(c.setup.Roots))}
	}
	c.defaultScreen = screen
	c.maxLength = int(c.setup.MaximumRequestLength)

	c.log.WithFields(logrus.Fields{
		"vendor":  c.setup.Vendor,
		"release": c.setup.ReleaseNumber,
		"screens": len(c.setup.Roots),
	}).Debug("connected")
	return c, nil
}

// Close closes the connection to the X server. It may be called from another
// goroutine to abort a blocked AwaitReply.
func (c *Conn) Close() error {
	return c.ch.close()
}

// Err returns the error that terminated the connection, or nil.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive()
}

// fatal records err as the connection's terminal error and shuts the
// transport. Only the first fatal error is kept.
func (c *Conn) fatal(err error) error {
	if c.err != nil {
		return c.err
	}
	c.dropPending()
	var terr *TransportError
	if c.ch.isClosed() && errors.As(err, &terr) {
		c.err = ErrClosed
		return c.err
	}
	c.err = err
	c.log.WithError(err).Error("connection failed")
	c.ch.close()
	return err
}

// dropPending forgets every outstanding cookie of a dead connection.
func (c *Conn) dropPending() {
	c.m.pending.Sub(float64(c.pending.len()))
	c.pending = newPendingTable()
}

// alive returns the connection's terminal error, recording ErrClosed once
// Close has been called.
func (c *Conn) alive() error {
	if c.err == nil && c.ch.isClosed() {
		c.dropPending()
		c.err = ErrClosed
	}
	return c.err
}

// Setup returns the information the server sent at connection setup.
func (c *Conn) Setup() *SetupInfo { return c.setup }

// Screens returns the screens of the display.
func (c *Conn) Screens() []ScreenInfo { return c.setup.Roots }

// DefaultScreen returns the Screen info for the default screen, which is
// 0 or the one given in the display argument to OpenDisplay.
func (c *Conn) DefaultScreen() *ScreenInfo { return &c.setup.Roots[c.defaultScreen] }

// ByteOrder is the order of multi-byte integers on this connection.
func (c *Conn) ByteOrder() binary.ByteOrder { return c.order }

// NewId generates a new unused ID for use with requests like CreateWindow.
// If no new ids can be generated, the id returned is 0 and the error is
// ErrIdsExhausted; the connection stays usable.
func (c *Conn) NewId() (Id, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// TODO: Use the XC-MISC extension to reclaim released ids.
	inc := c.setup.ResourceIdMask & -c.setup.ResourceIdMask
	max := c.setup.ResourceIdMask
	if c.lastXid > 0 && c.lastXid >= max-inc+1 {
		return 0, ErrIdsExhausted
	}
	c.lastXid += inc
	return Id(c.lastXid | c.setup.ResourceIdBase), nil
}

// SendRequest encodes req into the output buffer and returns its cookie. It
// does not wait for the network; call Flush or AwaitReply to send. Requests
// without a reply get an unchecked cookie: their errors are queued for
// Errors instead.
func (c *Conn) SendRequest(req Request) (*Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendRequest(req, false)
}

// SendRequestChecked is like SendRequest, but an error caused by a request
// without a reply is delivered to the cookie's Check instead of the queue.
func (c *Conn) SendRequestChecked(req Request) (*Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendRequest(req, true)
}

func (c *Conn) sendRequest(req Request, checked bool) (*Cookie, error) {
	if err := c.alive(); err != nil {
		return nil, err
	}
	if err := c.guardWrap(); err != nil {
		return nil, err
	}

	major, err := c.majorOpcode(req)
	if err != nil {
		return nil, c.fatal(err)
	}
	buf, err := encodeRequest(req, major, c.order, c.maxLength)
	if err != nil {
		return nil, c.fatal(err)
	}

	c.seq++
	ck := &Cookie{conn: c, Sequence: c.seq, checked: checked}
	kind := "void"
	if rr, ok := req.(ReplyRequest); ok {
		ck.reply = rr.NewReply()
		ck.checked = true
		kind = "reply"
	}
	if ck.checked {
		if err := c.pending.add(ck); err != nil {
			return nil, c.fatal(&MisuseError{Msg: err.Error()})
		}
		c.m.pending.Inc()
	}
	c.ch.write(buf)
	c.m.requests.WithLabelValues(kind).Inc()
	return ck, nil
}

// guardWrap forces a round trip when the next sequence number would get too
// far ahead of the oldest pending request to be correlated unambiguously.
func (c *Conn) guardWrap() error {
	oldest := c.pending.oldest()
	if oldest == nil || seqDistance(oldest.Sequence, c.seq+1) < maxInFlight {
		return nil
	}
	c.log.WithField("sequence", c.seq).Debug("forcing a round trip before the sequence number wraps")
	return c.sync()
}

// Flush sends every buffered request to the server.
func (c *Conn) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flush()
}

func (c *Conn) flush() error {
	if err := c.alive(); err != nil {
		return err
	}
	if err := c.ch.flush(); err != nil {
		return c.fatal(err)
	}
	return nil
}

// AwaitReply flushes, then reads from the server until the request behind
// ck is answered. Events and unrelated errors read meanwhile are queued. The
// result is a ProtocolError if the server rejected the request.
func (c *Conn) AwaitReply(ck *Cookie) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaitReply(ck)
}

func (c *Conn) awaitReply(ck *Cookie) (Reply, error) {
	if err := c.owned(ck); err != nil {
		return nil, err
	}
	if ck.reply == nil && ck.state != cookieConsumed {
		return nil, c.fatal(&MisuseError{Msg: fmt.Sprintf(
			"request %d has no reply; use Check", ck.Sequence)})
	}
	if err := c.waitFor(ck); err != nil {
		return nil, err
	}
	return ck.consume()
}

// check waits for a checked request without a reply.
func (c *Conn) check(ck *Cookie) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.owned(ck); err != nil {
		return err
	}
	if ck.state != cookieConsumed {
		if ck.reply != nil {
			return c.fatal(&MisuseError{Msg: fmt.Sprintf(
				"request %d expects a reply; use AwaitReply", ck.Sequence)})
		}
		if !ck.checked {
			return c.fatal(&MisuseError{Msg: fmt.Sprintf(
				"request %d was sent unchecked", ck.Sequence)})
		}
	}
	if ck.state == cookiePending {
		// Nothing answers a successful request without a reply, but any
		// later answer proves it succeeded.
		if err := c.sync(); err != nil {
			return err
		}
	}
	if err := c.waitFor(ck); err != nil {
		return err
	}
	_, err := ck.consume()
	return err
}

func (c *Conn) owned(ck *Cookie) error {
	if ck == nil {
		return c.fatal(&MisuseError{Msg: "nil cookie"})
	}
	if ck.conn != c {
		return c.fatal(&MisuseError{Msg: fmt.Sprintf("cookie %d belongs to another connection", ck.Sequence)})
	}
	return nil
}

// waitFor pumps frames until ck is resolved.
func (c *Conn) waitFor(ck *Cookie) error {
	if ck.state == cookieConsumed {
		return c.fatal(&MisuseError{Msg: fmt.Sprintf(
			"cookie %d was already consumed", ck.Sequence)})
	}
	if ck.state != cookiePending {
		return nil
	}
	if err := c.flush(); err != nil {
		return err
	}
	for ck.state == cookiePending {
		if err := c.readFrame(); err != nil {
			return err
		}
	}
	return nil
}

// Sync makes a round trip to the server. When it returns, every request sent
// before has been processed and its errors are queued.
func (c *Conn) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sync()
}

func (c *Conn) sync() error {
	if err := c.alive(); err != nil {
		return err
	}
	c.seq++
	ck := &Cookie{conn: c, Sequence: c.seq, checked: true, reply: &GetInputFocusReply{}}
	buf, err := encodeRequest(&GetInputFocusRequest{}, GetInputFocusOpcode, c.order, c.maxLength)
	if err != nil {
		return c.fatal(err)
	}
	if err := c.pending.add(ck); err != nil {
		return c.fatal(&MisuseError{Msg: err.Error()})
	}
	c.m.pending.Inc()
	c.ch.write(buf)
	c.m.requests.WithLabelValues("reply").Inc()
	_, err = c.awaitReply(ck)
	return err
}

// Errors drains the queue of protocol errors that no pending request
// claimed. It never reads from the server.
func (c *Conn) Errors() []*ProtocolError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.drain()
}

// Events drains the queue of events read so far. It never reads from the
// server.
func (c *Conn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.drain()
}

// PollForEvent returns the next queued event, if any, without reading from
// the server.
func (c *Conn) PollForEvent() (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events.pop()
}

// WaitForEvent returns the next event from the server.
// It will block until an event is available.
func (c *Conn) WaitForEvent() (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if ev, ok := c.events.pop(); ok {
			return ev, nil
		}
		if err := c.flush(); err != nil {
			return Event{}, err
		}
		if err := c.readFrame(); err != nil {
			return Event{}, err
		}
	}
}
