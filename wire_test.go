package x11

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPad(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 4, 3: 4, 4: 4, 5: 8, 22: 24} {
		assert.Equal(t, want, pad(n), "pad(%d)", n)
	}
	assert.Equal(t, 3, popCount(CwBackPixel|CwEventMask|CwCursor))
}

func TestByteOrder(t *testing.T) {
	assert.Equal(t, byte('l'), orderByte(binary.LittleEndian))
	assert.Equal(t, byte('B'), orderByte(binary.BigEndian))
	assert.Equal(t, binary.BigEndian, normalizeOrder(binary.BigEndian))
	native := nativeOrder()
	assert.True(t, native == binary.LittleEndian || native == binary.BigEndian)
}

func TestWriterReader(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		w := NewWriter(order)
		w.Put8(7)
		w.PutBool(true)
		w.Put16(0x1234)
		w.Put32(0xdeadbeef)
		w.PutString("abc")
		w.Pad()
		writeStrList(w, []Str{{"RANDR"}, {""}, {"XKEYBOARD"}})

		r := NewReader(order, w.Bytes())
		assert.Equal(t, byte(7), r.Get8())
		assert.True(t, r.GetBool())
		assert.Equal(t, uint16(0x1234), r.Get16())
		assert.Equal(t, uint32(0xdeadbeef), r.Get32())
		assert.Equal(t, "abc", r.GetString(3))
		r.Align()
		assert.Equal(t, 12, r.Offset())
		assert.Equal(t, []Str{{"RANDR"}, {""}, {"XKEYBOARD"}}, readStrList(r, 3))
		assert.NoError(t, r.Err())
		assert.Equal(t, 0, r.Remaining())
	}

	le := NewWriter(binary.LittleEndian)
	le.Put16(1)
	assert.Equal(t, []byte{1, 0}, le.Bytes())
	be := NewWriter(binary.BigEndian)
	be.Put16(1)
	assert.Equal(t, []byte{0, 1}, be.Bytes())
}

func TestReaderOverrun(t *testing.T) {
	r := NewReader(binary.LittleEndian, []byte{1, 2, 3})
	assert.Equal(t, uint16(0x0201), r.Get16())
	assert.Equal(t, uint32(0), r.Get32())
	var derr *DecodeError
	require.True(t, errors.As(r.Err(), &derr))

	// The error is sticky.
	assert.Equal(t, byte(0), r.Get8())
	assert.Nil(t, r.GetBytes(1))
	assert.Equal(t, 2, r.Offset())

	r = NewReader(binary.LittleEndian, []byte{5, 'a', 'b'})
	list := readStrList(r, 1)
	assert.Error(t, r.Err())
	assert.Len(t, list, 1)
}

func TestEncodeRequest(t *testing.T) {
	buf, err := encodeRequest(&InternAtomRequest{OnlyIfExists: true, Name: "WM_NAME"},
		InternAtomOpcode, binary.LittleEndian, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		16, 1, 4, 0,
		7, 0, 0, 0,
		'W', 'M', '_', 'N', 'A', 'M', 'E', 0,
	}, buf)

	var back InternAtomRequest
	require.NoError(t, back.DecodeRequest(buf[1], NewReader(binary.LittleEndian, buf[4:])))
	assert.Equal(t, InternAtomRequest{OnlyIfExists: true, Name: "WM_NAME"}, back)

	buf, err = encodeRequest(&GetInputFocusRequest{}, GetInputFocusOpcode, binary.BigEndian, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{43, 0, 0, 1}, buf)

	// Extension requests carry their minor opcode in byte 1.
	buf, err = encodeRequest(fakeExtRequest{minor: 42}, 140, binary.LittleEndian, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{140, 42, 1, 0}, buf)

	_, err = encodeRequest(&ListFontsRequest{Pattern: string(make([]byte, 1<<18))},
		ListFontsOpcode, binary.LittleEndian, 0)
	var eerr *EncodingError
	assert.True(t, errors.As(err, &eerr), "longer than the length field allows")
}
