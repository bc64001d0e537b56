// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxReplyBytes bounds the variable part of a reply or generic event. A
// larger length field means the stream is out of step.
const maxReplyBytes = 256 << 20

// readFrame reads one frame from the server and routes it. It returns the
// connection's fatal error, if any.
func (c *Conn) readFrame() error {
	if err := c.alive(); err != nil {
		return err
	}
	buf := make([]byte, 32)
	if err := c.ch.readFull(buf); err != nil {
		return c.fatal(err)
	}
	switch buf[0] {
	case 0:
		return c.handleError(buf)
	case 1:
		return c.handleReply(buf)
	default:
		return c.handleEvent(buf)
	}
}

// readTail extends a 32-byte frame by the 4-byte units its length field at
// offset 4 declares.
func (c *Conn) readTail(head []byte, what string) ([]byte, error) {
	words := c.order.Uint32(head[4:])
	if words == 0 {
		return head, nil
	}
	if uint64(words)*4 > maxReplyBytes {
		return nil, &DecodeError{Msg: fmt.Sprintf("%s declares %d words", what, words)}
	}
	frame := make([]byte, 32+int(words)*4)
	copy(frame, head)
	if err := c.ch.readFull(frame[32:]); err != nil {
		if cause := errors.Cause(err.(*TransportError).Err); cause == io.ErrUnexpectedEOF || cause == io.EOF {
			return nil, &DecodeError{Msg: fmt.Sprintf(
				"%s declares %d bytes but the stream ended first", what, len(frame))}
		}
		return nil, err
	}
	return frame, nil
}

func (c *Conn) handleReply(head []byte) error {
	seq := c.order.Uint16(head[2:])
	frame, err := c.readTail(head, fmt.Sprintf("reply to sequence %d", seq))
	if err != nil {
		return c.fatal(err)
	}
	if err := c.retire(seq); err != nil {
		return err
	}

	ck := c.pending.lookup(seq)
	if ck == nil || ck.reply == nil {
		return c.fatal(&DecodeError{Msg: fmt.Sprintf("reply to sequence %d matches no pending request", seq)})
	}
	r := NewReader(c.order, frame)
	r.Skip(1)
	if err := ck.reply.Decode(r); err != nil {
		var derr *DecodeError
		if !errors.As(err, &derr) {
			err = &DecodeError{Msg: err.Error()}
		}
		return c.fatal(errors.Wrapf(err, "reply to sequence %d", seq))
	}
	c.m.replies.Inc()
	if mr, ok := ck.reply.(MultiReply); ok && mr.More() {
		return nil
	}
	ck.resolve(nil)
	c.pending.remove(seq)
	c.m.pending.Dec()
	return nil
}

func (c *Conn) handleError(buf []byte) error {
	perr, err := c.decodeError(buf)
	if err != nil {
		return c.fatal(err)
	}
	if err := c.retire(perr.Sequence); err != nil {
		return err
	}

	if ck := c.pending.lookup(perr.Sequence); ck != nil {
		ck.resolve(perr)
		c.pending.remove(perr.Sequence)
		c.m.pending.Dec()
		c.m.errors.WithLabelValues("true").Inc()
		return nil
	}
	c.m.errors.WithLabelValues("false").Inc()
	c.log.WithFields(logrus.Fields{
		"sequence": perr.Sequence,
		"error":    perr.Name,
	}).Debug("unsolicited protocol error")
	if !c.errors.push(perr) {
		return c.fatal(errors.Wrapf(ErrQueueOverflow, "%d errors queued", c.errors.len()))
	}
	return nil
}

func (c *Conn) decodeError(buf []byte) (*ProtocolError, error) {
	perr := &ProtocolError{
		Code:        buf[1],
		Sequence:    c.order.Uint16(buf[2:]),
		BadValue:    c.order.Uint32(buf[4:]),
		MinorOpcode: c.order.Uint16(buf[8:]),
		MajorOpcode: buf[10],
	}
	if int(perr.Code) < len(coreErrorNames) && coreErrorNames[perr.Code] != "" {
		perr.Name = coreErrorNames[perr.Code]
		return perr, nil
	}
	info, name, ok := c.ext.errorOwner(perr.Code)
	if !ok {
		return nil, &UnrecognizedError{What: "error", Code: perr.Code}
	}
	perr.Extension = info.Name
	perr.Name = name
	return perr, nil
}

func (c *Conn) handleEvent(head []byte) error {
	ev := Event{
		Code:      head[0] & 0x7f,
		SendEvent: head[0]&0x80 != 0,
	}
	if ev.Code != KeymapNotify {
		ev.Sequence = c.order.Uint16(head[2:])
	}

	switch {
	case ev.Code < KeyPress:
		// 0 and 1 are error and reply; only the send-event bit got us here.
		return c.fatal(&UnrecognizedError{What: "event", Code: ev.Code})
	case ev.Code == GenericEvent:
		frame, err := c.readTail(head, "generic event")
		if err != nil {
			return c.fatal(err)
		}
		ev.Data = frame
		// Generic events name their extension by major opcode.
		if info, ok := c.ext.byMajor[head[1]]; ok {
			ev.Extension = info.Name
			ev.Index = int(c.order.Uint16(head[8:]))
		}
	case ev.Code <= lastCoreEvent:
		ev.Data = head
		ev.Index = int(ev.Code)
	default:
		info, index, ok := c.ext.eventOwner(ev.Code)
		if !ok {
			return c.fatal(&UnrecognizedError{What: "event", Code: ev.Code})
		}
		ev.Data = head
		ev.Extension = info.Name
		ev.Index = index
	}

	c.m.events.Inc()
	if !c.events.push(ev) {
		return c.fatal(errors.Wrapf(ErrQueueOverflow, "%d events queued", c.events.len()))
	}
	return nil
}

// retire settles the pending requests issued before seq now that the server
// has answered seq. Checked requests among them succeeded. A request still
// waiting for a reply was skipped, which the server never does, so the
// stream is out of step.
func (c *Conn) retire(seq uint16) error {
	succeeded, skipped := c.pending.retireBefore(seq)
	c.m.pending.Sub(float64(len(succeeded) + len(skipped)))
	if len(skipped) > 0 {
		return c.fatal(&DecodeError{Msg: fmt.Sprintf(
			"answer to sequence %d arrived before the reply to sequence %d", seq, skipped[0].Sequence)})
	}
	return nil
}
