// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Request is a value that serializes into one request frame.
type Request interface {
	// Extension names the extension defining the request, "" for core
	// requests.
	Extension() string

	// Opcode is the major opcode of a core request, or the minor opcode of
	// an extension request.
	Opcode() byte

	// Data is the second header byte of a core request. Extension requests
	// carry their minor opcode there and ignore it.
	Data() byte

	// Size is the length of the frame in bytes, header included, before
	// padding.
	Size() int

	// Encode writes everything after the 4-byte header.
	Encode(w *Writer)
}

// ReplyRequest is a request the server answers with a reply.
type ReplyRequest interface {
	Request
	NewReply() Reply
}

// Reply decodes a reply frame. Decode starts reading at offset 1, just past
// the reply discriminant, so a reply reads its data byte, sequence number and
// length before its own fields.
type Reply interface {
	Decode(r *Reader) error
}

// MultiReply is a reply spread over several frames sharing one sequence
// number. Its request stays pending while More reports true.
type MultiReply interface {
	Reply
	More() bool
}

// Validator is implemented by requests whose fields must agree with each
// other beyond what Size can express. Validate runs before encoding.
type Validator interface {
	Validate() error
}

// RequestDecoder is implemented by requests that can be read back from their
// encoded form. DecodeRequest receives the header's data byte and a Reader
// positioned after the header.
type RequestDecoder interface {
	DecodeRequest(data byte, r *Reader) error
}

// coreRequest supplies the defaults of core requests.
type coreRequest struct{}

func (coreRequest) Extension() string { return "" }

func (coreRequest) Data() byte { return 0 }

func requestName(req Request) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", req), "*")
}

// encodeRequest serializes req with the given major opcode. maxLength is the
// server's maximum request length in 4-byte units; zero means no limit beyond
// the 16-bit length field.
func encodeRequest(req Request, major byte, order binary.ByteOrder, maxLength int) ([]byte, error) {
	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &EncodingError{Request: requestName(req), Msg: err.Error()}
		}
	}
	w := NewWriter(order)
	w.Put8(major)
	if req.Extension() != "" {
		w.Put8(req.Opcode())
	} else {
		w.Put8(req.Data())
	}
	w.Put16(0)
	req.Encode(w)

	if pad(w.Len()) != pad(req.Size()) {
		return nil, &EncodingError{Request: requestName(req),
			Msg: fmt.Sprintf("declares %d bytes, encodes %d", req.Size(), w.Len())}
	}
	w.Pad()

	words := w.Len() / 4
	if words > 0xffff || (maxLength > 0 && words > maxLength) {
		return nil, &EncodingError{Request: requestName(req),
			Msg: fmt.Sprintf("%d words exceeds the maximum request length", words)}
	}
	buf := w.Bytes()
	order.PutUint16(buf[2:], uint16(words))
	return buf, nil
}
