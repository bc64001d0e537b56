// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrQueueOverflow is the fatal error recorded when an unsolicited event or
// error queue bounded by WithQueueLimit fills up.
var ErrQueueOverflow = errors.New("x11: unsolicited queue overflow")

// ErrIdsExhausted is returned by NewId once the resource id range given by
// the server is used up. It does not affect the connection.
var ErrIdsExhausted = errors.New("x11: there are no more available resource identifiers")

// ErrClosed is returned by operations on a connection closed with Close.
var ErrClosed = errors.New("x11: connection closed")

// TransportError reports a failure of the underlying byte stream.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return "x11: " + e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// HandshakeFailure classifies a HandshakeError.
type HandshakeFailure int

const (
	VersionMismatch HandshakeFailure = iota
	AuthRefused
	AuthRequired
	MalformedSetup
)

func (f HandshakeFailure) String() string {
	switch f {
	case VersionMismatch:
		return "protocol version mismatch"
	case AuthRefused:
		return "connection refused"
	case AuthRequired:
		return "further authentication required"
	case MalformedSetup:
		return "malformed setup"
	}
	return fmt.Sprintf("HandshakeFailure(%d)", int(f))
}

// HandshakeError is returned by Open when the server does not accept the
// connection or its setup reply cannot be decoded.
type HandshakeError struct {
	Kind   HandshakeFailure
	Reason string // text sent by the server, or a description of the defect
	Major  uint16 // server protocol version, when known
	Minor  uint16
}

func (e *HandshakeError) Error() string {
	if e.Reason == "" {
		return "x11: handshake: " + e.Kind.String()
	}
	return fmt.Sprintf("x11: handshake: %s: %s", e.Kind, e.Reason)
}

// ProtocolError is an error frame sent by the server.
type ProtocolError struct {
	Code        byte
	Name        string // e.g. "BadWindow", or "RANDR:BadOutput"
	Extension   string // "" for core errors
	Sequence    uint16
	BadValue    uint32 // resource id, atom or value, depending on Code
	MinorOpcode uint16
	MajorOpcode byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("x11: %s (code %d) on sequence %d: bad value %d, opcode %d:%d",
		e.Name, e.Code, e.Sequence, e.BadValue, e.MajorOpcode, e.MinorOpcode)
}

// SequenceId returns the sequence number of the request that failed.
func (e *ProtocolError) SequenceId() uint16 { return e.Sequence }

// BadId returns the offending resource id.
func (e *ProtocolError) BadId() Id { return Id(e.BadValue) }

// DecodeError means the inbound stream can no longer be framed reliably.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string { return "x11: decode: " + e.Msg }

// UnrecognizedError is an event or error code that neither the core protocol
// nor any extension queried on this connection accounts for.
type UnrecognizedError struct {
	What string // "event" or "error"
	Code byte
}

func (e *UnrecognizedError) Error() string {
	return fmt.Sprintf("x11: unrecognized %s code %d", e.What, e.Code)
}

// EncodingError is a request that does not serialize to what it declares.
type EncodingError struct {
	Request string
	Msg     string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("x11: encoding %s: %s", e.Request, e.Msg)
}

// MisuseError is an API call that can never succeed, like awaiting a cookie
// twice.
type MisuseError struct {
	Msg string
}

func (e *MisuseError) Error() string { return "x11: misuse: " + e.Msg }

// IsFatal reports whether err terminates the connection it came from.
// Protocol errors and ErrIdsExhausted are the only recoverable kinds.
func IsFatal(err error) bool {
	if err == nil || errors.Is(err, ErrIdsExhausted) {
		return false
	}
	var perr *ProtocolError
	return !errors.As(err, &perr)
}

// Core error codes.
const (
	BadRequest        = 1
	BadValue          = 2
	BadWindow         = 3
	BadPixmap         = 4
	BadAtom           = 5
	BadCursor         = 6
	BadFont           = 7
	BadMatch          = 8
	BadDrawable       = 9
	BadAccess         = 10
	BadAlloc          = 11
	BadColormap       = 12
	BadGContext       = 13
	BadIDChoice       = 14
	BadName           = 15
	BadLength         = 16
	BadImplementation = 17
)

var coreErrorNames = [...]string{
	BadRequest:        "BadRequest",
	BadValue:          "BadValue",
	BadWindow:         "BadWindow",
	BadPixmap:         "BadPixmap",
	BadAtom:           "BadAtom",
	BadCursor:         "BadCursor",
	BadFont:           "BadFont",
	BadMatch:          "BadMatch",
	BadDrawable:       "BadDrawable",
	BadAccess:         "BadAccess",
	BadAlloc:          "BadAlloc",
	BadColormap:       "BadColormap",
	BadGContext:       "BadGContext",
	BadIDChoice:       "BadIDChoice",
	BadName:           "BadName",
	BadLength:         "BadLength",
	BadImplementation: "BadImplementation",
}
