// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"encoding/binary"
	"fmt"
)

// Pad a length to align on 4 bytes.
func pad(n int) int { return (n + 3) & ^3 }

// Voodoo to count the number of bits set in a value list mask.
func popCount(mask0 int) int {
	mask := uint32(mask0)
	n := 0
	for i := uint32(0); i < 32; i++ {
		if mask&(1<<i) != 0 {
			n++
		}
	}
	return n
}

// nativeOrder is the byte order a connection declares unless WithByteOrder
// says otherwise.
func nativeOrder() binary.ByteOrder {
	return normalizeOrder(binary.NativeEndian)
}

// normalizeOrder maps any ByteOrder onto binary.LittleEndian or
// binary.BigEndian so it can be compared and named on the wire.
func normalizeOrder(order binary.ByteOrder) binary.ByteOrder {
	if order.Uint16([]byte{1, 0}) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// orderByte is the first byte of the setup request for the given order.
func orderByte(order binary.ByteOrder) byte {
	if order == binary.BigEndian {
		return 'B'
	}
	return 'l'
}

// Writer accumulates an outgoing frame in the connection's byte order.
type Writer struct {
	order binary.ByteOrder
	buf   []byte
}

// NewWriter returns a Writer that encodes integers in the given order.
func NewWriter(order binary.ByteOrder) *Writer {
	return &Writer{order: order}
}

func (w *Writer) Put8(v byte) { w.buf = append(w.buf, v) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.Put8(1)
	} else {
		w.Put8(0)
	}
}

func (w *Writer) Put16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Put32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) PutBytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) PutString(s string) { w.buf = append(w.buf, s...) }

// Skip writes n zero bytes of unused space.
func (w *Writer) Skip(n int) { w.buf = append(w.buf, make([]byte, n)...) }

// Pad appends zero bytes up to the next 4-byte boundary.
func (w *Writer) Pad() { w.Skip(pad(len(w.buf)) - len(w.buf)) }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Bytes() []byte { return w.buf }

// Reader decodes an incoming frame. Reading past the end of the frame does not
// panic; it records a DecodeError returned by Err and yields zero values, so
// decoders can read a whole structure and check once.
type Reader struct {
	order binary.ByteOrder
	buf   []byte
	off   int
	err   error
}

// NewReader returns a Reader over buf positioned at offset 0.
func NewReader(order binary.ByteOrder, buf []byte) *Reader {
	return &Reader{order: order, buf: buf}
}

func (r *Reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = &DecodeError{Msg: fmt.Sprintf(
			"read of %d bytes at offset %d overruns %d byte frame", n, r.off, len(r.buf))}
		return false
	}
	return true
}

func (r *Reader) Get8() byte {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *Reader) GetBool() bool { return r.Get8() != 0 }

func (r *Reader) Get16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := r.order.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *Reader) Get32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := r.order.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

// GetBytes returns a copy of the next n bytes.
func (r *Reader) GetBytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := make([]byte, n)
	copy(b, r.buf[r.off:])
	r.off += n
	return b
}

func (r *Reader) GetString(n int) string { return string(r.GetBytes(n)) }

func (r *Reader) Skip(n int) {
	if r.need(n) {
		r.off += n
	}
}

// Align skips to the next 4-byte boundary.
func (r *Reader) Align() { r.Skip(pad(r.off) - r.off) }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) Err() error { return r.err }

// Str is the counted string used by ListExtensions and ListFonts replies: a
// length byte followed by that many bytes, no padding between entries.
type Str struct {
	Name string
}

func readStrList(r *Reader, n int) []Str {
	list := make([]Str, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		l := int(r.Get8())
		list = append(list, Str{Name: r.GetString(l)})
	}
	return list
}

func writeStrList(w *Writer, list []Str) {
	for _, s := range list {
		w.Put8(byte(len(s.Name)))
		w.PutString(s.Name)
	}
}
