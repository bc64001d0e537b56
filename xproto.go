// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"fmt"

	"github.com/pkg/errors"
)

// Core request opcodes.
const (
	CreateWindowOpcode      = 1
	DestroyWindowOpcode     = 4
	MapWindowOpcode         = 8
	GetGeometryOpcode       = 14
	InternAtomOpcode        = 16
	GetAtomNameOpcode       = 17
	ChangePropertyOpcode    = 18
	GetPropertyOpcode       = 20
	GetInputFocusOpcode     = 43
	ListFontsOpcode         = 49
	ListFontsWithInfoOpcode = 50
	QueryExtensionOpcode    = 98
	ListExtensionsOpcode    = 99
	NoOperationOpcode       = 127
)

// Predefined atoms.
const (
	AtomNone     Atom = 0
	AtomPrimary  Atom = 1
	AtomAtom     Atom = 4
	AtomCardinal Atom = 6
	AtomString   Atom = 31
	AtomWindow   Atom = 33
	AtomWmName   Atom = 39
	AtomWmClass  Atom = 67
)

// Window classes for CreateWindow.
const (
	WindowClassCopyFromParent = 0
	WindowClassInputOutput    = 1
	WindowClassInputOnly      = 2
)

// CreateWindow value mask bits, in wire order.
const (
	CwBackPixmap       = 1 << 0
	CwBackPixel        = 1 << 1
	CwBorderPixmap     = 1 << 2
	CwBorderPixel      = 1 << 3
	CwBitGravity       = 1 << 4
	CwWinGravity       = 1 << 5
	CwBackingStore     = 1 << 6
	CwBackingPlanes    = 1 << 7
	CwBackingPixel     = 1 << 8
	CwOverrideRedirect = 1 << 9
	CwSaveUnder        = 1 << 10
	CwEventMask        = 1 << 11
	CwDontPropagate    = 1 << 12
	CwColormap         = 1 << 13
	CwCursor           = 1 << 14
)

// Event mask bits for the CwEventMask value.
const (
	EventMaskKeyPress        = 1 << 0
	EventMaskKeyRelease      = 1 << 1
	EventMaskButtonPress     = 1 << 2
	EventMaskButtonRelease   = 1 << 3
	EventMaskExposure        = 1 << 15
	EventMaskStructureNotify = 1 << 17
	EventMaskPropertyChange  = 1 << 22
)

// Property change modes.
const (
	PropModeReplace = 0
	PropModePrepend = 1
	PropModeAppend  = 2
)

// GetPropertyTypeAny matches a property of any type.
const GetPropertyTypeAny Atom = 0

// replyHeader reads the fields every reply starts with after its
// discriminant, returning the data byte.
func replyHeader(r *Reader, seq *uint16, length *uint32) byte {
	data := r.Get8()
	*seq = r.Get16()
	*length = r.Get32()
	return data
}

// send is SendRequest for the typed helpers. A failure to send is carried in
// the cookie.
func (c *Conn) send(req Request, checked bool) *Cookie {
	var ck *Cookie
	var err error
	if checked {
		ck, err = c.SendRequestChecked(req)
	} else {
		ck, err = c.SendRequest(req)
	}
	if err != nil {
		return failedCookie(err)
	}
	return ck
}

// VoidCookie is a cookie used only for requests without a reply.
type VoidCookie struct {
	*Cookie
}

// CreateWindowRequest creates an unmapped window. ValueList holds one value
// per bit set in ValueMask, in bit order.
type CreateWindowRequest struct {
	coreRequest
	Depth       byte
	Wid         Id
	Parent      Id
	X, Y        int16
	Width       uint16
	Height      uint16
	BorderWidth uint16
	Class       uint16
	Visual      VisualId
	ValueMask   uint32
	ValueList   []uint32
}

func (*CreateWindowRequest) Opcode() byte { return CreateWindowOpcode }

func (r *CreateWindowRequest) Data() byte { return r.Depth }

func (r *CreateWindowRequest) Size() int { return 32 + 4*popCount(int(r.ValueMask)) }

func (r *CreateWindowRequest) Encode(w *Writer) {
	w.Put32(uint32(r.Wid))
	w.Put32(uint32(r.Parent))
	w.Put16(uint16(r.X))
	w.Put16(uint16(r.Y))
	w.Put16(r.Width)
	w.Put16(r.Height)
	w.Put16(r.BorderWidth)
	w.Put16(r.Class)
	w.Put32(uint32(r.Visual))
	w.Put32(r.ValueMask)
	for _, v := range r.ValueList {
		w.Put32(v)
	}
}

func (r *CreateWindowRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Depth = data
	r.Wid = Id(rd.Get32())
	r.Parent = Id(rd.Get32())
	r.X = int16(rd.Get16())
	r.Y = int16(rd.Get16())
	r.Width = rd.Get16()
	r.Height = rd.Get16()
	r.BorderWidth = rd.Get16()
	r.Class = rd.Get16()
	r.Visual = VisualId(rd.Get32())
	r.ValueMask = rd.Get32()
	n := popCount(int(r.ValueMask))
	r.ValueList = make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		r.ValueList = append(r.ValueList, rd.Get32())
	}
	return rd.Err()
}

// CreateWindow sends an unchecked CreateWindow request.
func (c *Conn) CreateWindow(req *CreateWindowRequest) VoidCookie {
	return VoidCookie{c.send(req, false)}
}

// CreateWindowChecked sends a checked CreateWindow request.
func (c *Conn) CreateWindowChecked(req *CreateWindowRequest) VoidCookie {
	return VoidCookie{c.send(req, true)}
}

// DestroyWindowRequest destroys a window and its subwindows.
type DestroyWindowRequest struct {
	coreRequest
	Window Id
}

func (*DestroyWindowRequest) Opcode() byte { return DestroyWindowOpcode }

func (*DestroyWindowRequest) Size() int { return 8 }

func (r *DestroyWindowRequest) Encode(w *Writer) { w.Put32(uint32(r.Window)) }

func (r *DestroyWindowRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Window = Id(rd.Get32())
	return rd.Err()
}

func (c *Conn) DestroyWindow(window Id) VoidCookie {
	return VoidCookie{c.send(&DestroyWindowRequest{Window: window}, false)}
}

func (c *Conn) DestroyWindowChecked(window Id) VoidCookie {
	return VoidCookie{c.send(&DestroyWindowRequest{Window: window}, true)}
}

// MapWindowRequest maps a window.
type MapWindowRequest struct {
	coreRequest
	Window Id
}

func (*MapWindowRequest) Opcode() byte { return MapWindowOpcode }

func (*MapWindowRequest) Size() int { return 8 }

func (r *MapWindowRequest) Encode(w *Writer) { w.Put32(uint32(r.Window)) }

func (r *MapWindowRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Window = Id(rd.Get32())
	return rd.Err()
}

func (c *Conn) MapWindow(window Id) VoidCookie {
	return VoidCookie{c.send(&MapWindowRequest{Window: window}, false)}
}

func (c *Conn) MapWindowChecked(window Id) VoidCookie {
	return VoidCookie{c.send(&MapWindowRequest{Window: window}, true)}
}

// GetGeometryRequest asks for the geometry of a drawable.
type GetGeometryRequest struct {
	coreRequest
	Drawable Id
}

func (*GetGeometryRequest) Opcode() byte { return GetGeometryOpcode }

func (*GetGeometryRequest) Size() int { return 8 }

func (r *GetGeometryRequest) Encode(w *Writer) { w.Put32(uint32(r.Drawable)) }

func (r *GetGeometryRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Drawable = Id(rd.Get32())
	return rd.Err()
}

func (*GetGeometryRequest) NewReply() Reply { return &GetGeometryReply{} }

type GetGeometryReply struct {
	Sequence    uint16
	Length      uint32
	Depth       byte
	Root        Id
	X, Y        int16
	Width       uint16
	Height      uint16
	BorderWidth uint16
}

func (v *GetGeometryReply) Decode(r *Reader) error {
	v.Depth = replyHeader(r, &v.Sequence, &v.Length)
	v.Root = Id(r.Get32())
	v.X = int16(r.Get16())
	v.Y = int16(r.Get16())
	v.Width = r.Get16()
	v.Height = r.Get16()
	v.BorderWidth = r.Get16()
	r.Skip(10)
	return r.Err()
}

// GetGeometryCookie is a cookie used only for GetGeometry requests.
type GetGeometryCookie struct {
	*Cookie
}

func (c *Conn) GetGeometry(drawable Id) GetGeometryCookie {
	return GetGeometryCookie{c.send(&GetGeometryRequest{Drawable: drawable}, false)}
}

// Reply blocks and returns the reply data for a GetGeometry request.
func (cook GetGeometryCookie) Reply() (*GetGeometryReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*GetGeometryReply), nil
}

// InternAtomRequest returns the atom for a name, creating it unless
// OnlyIfExists is set.
type InternAtomRequest struct {
	coreRequest
	OnlyIfExists bool
	Name         string
}

func (*InternAtomRequest) Opcode() byte { return InternAtomOpcode }

func (r *InternAtomRequest) Data() byte {
	if r.OnlyIfExists {
		return 1
	}
	return 0
}

func (r *InternAtomRequest) Size() int { return 8 + len(r.Name) }

func (r *InternAtomRequest) Encode(w *Writer) {
	w.Put16(uint16(len(r.Name)))
	w.Skip(2)
	w.PutString(r.Name)
}

func (r *InternAtomRequest) DecodeRequest(data byte, rd *Reader) error {
	r.OnlyIfExists = data != 0
	n := int(rd.Get16())
	rd.Skip(2)
	r.Name = rd.GetString(n)
	return rd.Err()
}

func (*InternAtomRequest) NewReply() Reply { return &InternAtomReply{} }

type InternAtomReply struct {
	Sequence uint16
	Length   uint32
	Atom     Atom // AtomNone if OnlyIfExists and the name is unknown
}

func (v *InternAtomReply) Decode(r *Reader) error {
	replyHeader(r, &v.Sequence, &v.Length)
	v.Atom = Atom(r.Get32())
	r.Skip(20)
	return r.Err()
}

// InternAtomCookie is a cookie used only for InternAtom requests.
type InternAtomCookie struct {
	*Cookie
	name string
}

func (c *Conn) InternAtom(onlyIfExists bool, name string) InternAtomCookie {
	req := &InternAtomRequest{OnlyIfExists: onlyIfExists, Name: name}
	return InternAtomCookie{c.send(req, false), name}
}

// Reply blocks and returns the reply data for an InternAtom request. The
// mapping is remembered by the connection.
func (cook InternAtomCookie) Reply() (*InternAtomReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	v := rep.(*InternAtomReply)
	if cook.conn != nil && v.Atom != AtomNone {
		cook.conn.cacheAtom(cook.name, v.Atom)
	}
	return v, nil
}

// GetAtomNameRequest returns the name of an atom.
type GetAtomNameRequest struct {
	coreRequest
	Atom Atom
}

func (*GetAtomNameRequest) Opcode() byte { return GetAtomNameOpcode }

func (*GetAtomNameRequest) Size() int { return 8 }

func (r *GetAtomNameRequest) Encode(w *Writer) { w.Put32(uint32(r.Atom)) }

func (r *GetAtomNameRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Atom = Atom(rd.Get32())
	return rd.Err()
}

func (*GetAtomNameRequest) NewReply() Reply { return &GetAtomNameReply{} }

type GetAtomNameReply struct {
	Sequence uint16
	Length   uint32
	Name     string
}

func (v *GetAtomNameReply) Decode(r *Reader) error {
	replyHeader(r, &v.Sequence, &v.Length)
	n := int(r.Get16())
	r.Skip(22)
	v.Name = r.GetString(n)
	return r.Err()
}

// GetAtomNameCookie is a cookie used only for GetAtomName requests.
type GetAtomNameCookie struct {
	*Cookie
	atom Atom
}

func (c *Conn) GetAtomName(atom Atom) GetAtomNameCookie {
	return GetAtomNameCookie{c.send(&GetAtomNameRequest{Atom: atom}, false), atom}
}

// Reply blocks and returns the reply data for a GetAtomName request. The
// mapping is remembered by the connection.
func (cook GetAtomNameCookie) Reply() (*GetAtomNameReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	v := rep.(*GetAtomNameReply)
	if cook.conn != nil {
		cook.conn.cacheAtom(v.Name, cook.atom)
	}
	return v, nil
}

// ChangePropertyRequest sets or extends a window property. Value holds the
// raw bytes; its length must be a multiple of Format/8.
type ChangePropertyRequest struct {
	coreRequest
	Mode     byte
	Window   Id
	Property Atom
	Type     Atom
	Format   byte // 8, 16 or 32
	Value    []byte
}

func (*ChangePropertyRequest) Opcode() byte { return ChangePropertyOpcode }

func (r *ChangePropertyRequest) Data() byte { return r.Mode }

func (r *ChangePropertyRequest) Size() int { return 24 + len(r.Value) }

// Validate checks that Value holds a whole number of Format-sized units.
func (r *ChangePropertyRequest) Validate() error {
	switch r.Format {
	case 8, 16, 32:
	default:
		return errors.Errorf("property format %d is not 8, 16 or 32", r.Format)
	}
	if len(r.Value)%int(r.Format/8) != 0 {
		return errors.Errorf("%d value bytes are not a whole number of %d-bit units", len(r.Value), r.Format)
	}
	return nil
}

func (r *ChangePropertyRequest) Encode(w *Writer) {
	w.Put32(uint32(r.Window))
	w.Put32(uint32(r.Property))
	w.Put32(uint32(r.Type))
	w.Put8(r.Format)
	w.Skip(3)
	w.Put32(uint32(len(r.Value) / int(r.Format/8)))
	w.PutBytes(r.Value)
}

func (r *ChangePropertyRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Mode = data
	r.Window = Id(rd.Get32())
	r.Property = Atom(rd.Get32())
	r.Type = Atom(rd.Get32())
	r.Format = rd.Get8()
	rd.Skip(3)
	units := int(rd.Get32())
	if r.Format != 8 && r.Format != 16 && r.Format != 32 {
		return &DecodeError{Msg: fmt.Sprintf("property format %d", r.Format)}
	}
	r.Value = rd.GetBytes(units * int(r.Format/8))
	return rd.Err()
}

func (c *Conn) ChangeProperty(req *ChangePropertyRequest) VoidCookie {
	return VoidCookie{c.send(req, false)}
}

func (c *Conn) ChangePropertyChecked(req *ChangePropertyRequest) VoidCookie {
	return VoidCookie{c.send(req, true)}
}

// GetPropertyRequest reads part of a window property. LongOffset and
// LongLength count 4-byte units.
type GetPropertyRequest struct {
	coreRequest
	Delete     bool
	Window     Id
	Property   Atom
	Type       Atom
	LongOffset uint32
	LongLength uint32
}

func (*GetPropertyRequest) Opcode() byte { return GetPropertyOpcode }

func (r *GetPropertyRequest) Data() byte {
	if r.Delete {
		return 1
	}
	return 0
}

func (*GetPropertyRequest) Size() int { return 24 }

func (r *GetPropertyRequest) Encode(w *Writer) {
	w.Put32(uint32(r.Window))
	w.Put32(uint32(r.Property))
	w.Put32(uint32(r.Type))
	w.Put32(r.LongOffset)
	w.Put32(r.LongLength)
}

func (r *GetPropertyRequest) DecodeRequest(data byte, rd *Reader) error {
	r.Delete = data != 0
	r.Window = Id(rd.Get32())
	r.Property = Atom(rd.Get32())
	r.Type = Atom(rd.Get32())
	r.LongOffset = rd.Get32()
	r.LongLength = rd.Get32()
	return rd.Err()
}

func (*GetPropertyRequest) NewReply() Reply { return &GetPropertyReply{} }

type GetPropertyReply struct {
	Sequence   uint16
	Length     uint32
	Format     byte // 0 if the property does not exist
	Type       Atom
	BytesAfter uint32
	ValueLen   uint32 // in Format units
	Value      []byte
}

func (v *GetPropertyReply) Decode(r *Reader) error {
	v.Format = replyHeader(r, &v.Sequence, &v.Length)
	v.Type = Atom(r.Get32())
	v.BytesAfter = r.Get32()
	v.ValueLen = r.Get32()
	r.Skip(12)
	v.Value = r.GetBytes(int(v.ValueLen) * int(v.Format/8))
	return r.Err()
}

// GetPropertyCookie is a cookie used only for GetProperty requests.
type GetPropertyCookie struct {
	*Cookie
}

func (c *Conn) GetProperty(req *GetPropertyRequest) GetPropertyCookie {
	return GetPropertyCookie{c.send(req, false)}
}

// Reply blocks and returns the reply data for a GetProperty request.
func (cook GetPropertyCookie) Reply() (*GetPropertyReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*GetPropertyReply), nil
}

// GetInputFocusRequest asks for the focus window. Its reply is small and
// always sent, so it doubles as the round trip of Sync.
type GetInputFocusRequest struct {
	coreRequest
}

func (*GetInputFocusRequest) Opcode() byte { return GetInputFocusOpcode }

func (*GetInputFocusRequest) Size() int { return 4 }

func (*GetInputFocusRequest) Encode(w *Writer) {}

func (*GetInputFocusRequest) DecodeRequest(data byte, rd *Reader) error { return rd.Err() }

func (*GetInputFocusRequest) NewReply() Reply { return &GetInputFocusReply{} }

type GetInputFocusReply struct {
	Sequence uint16
	Length   uint32
	RevertTo byte
	Focus    Id
}

func (v *GetInputFocusReply) Decode(r *Reader) error {
	v.RevertTo = replyHeader(r, &v.Sequence, &v.Length)
	v.Focus = Id(r.Get32())
	r.Skip(20)
	return r.Err()
}

// GetInputFocusCookie is a cookie used only for GetInputFocus requests.
type GetInputFocusCookie struct {
	*Cookie
}

func (c *Conn) GetInputFocus() GetInputFocusCookie {
	return GetInputFocusCookie{c.send(&GetInputFocusRequest{}, false)}
}

// Reply blocks and returns the reply data for a GetInputFocus request.
func (cook GetInputFocusCookie) Reply() (*GetInputFocusReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*GetInputFocusReply), nil
}

// ListFontsRequest lists at most MaxNames font names matching Pattern.
type ListFontsRequest struct {
	coreRequest
	MaxNames uint16
	Pattern  string
}

func (*ListFontsRequest) Opcode() byte { return ListFontsOpcode }

func (r *ListFontsRequest) Size() int { return 8 + len(r.Pattern) }

func (r *ListFontsRequest) Encode(w *Writer) {
	w.Put16(r.MaxNames)
	w.Put16(uint16(len(r.Pattern)))
	w.PutString(r.Pattern)
}

func (r *ListFontsRequest) DecodeRequest(data byte, rd *Reader) error {
	r.MaxNames = rd.Get16()
	n := int(rd.Get16())
	r.Pattern = rd.GetString(n)
	return rd.Err()
}

func (*ListFontsRequest) NewReply() Reply { return &ListFontsReply{} }

type ListFontsReply struct {
	Sequence uint16
	Length   uint32
	Names    []Str
}

func (v *ListFontsReply) Decode(r *Reader) error {
	replyHeader(r, &v.Sequence, &v.Length)
	n := int(r.Get16())
	r.Skip(22)
	v.Names = readStrList(r, n)
	return r.Err()
}

// ListFontsCookie is a cookie used only for ListFonts requests.
type ListFontsCookie struct {
	*Cookie
}

func (c *Conn) ListFonts(maxNames uint16, pattern string) ListFontsCookie {
	return ListFontsCookie{c.send(&ListFontsRequest{MaxNames: maxNames, Pattern: pattern}, false)}
}

// Reply blocks and returns the reply data for a ListFonts request.
func (cook ListFontsCookie) Reply() (*ListFontsReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*ListFontsReply), nil
}

// ListFontsWithInfoRequest is ListFonts with the font metrics of each match.
// The server answers with one reply per font and a terminating reply.
type ListFontsWithInfoRequest struct {
	coreRequest
	MaxNames uint16
	Pattern  string
}

func (*ListFontsWithInfoRequest) Opcode() byte { return ListFontsWithInfoOpcode }

func (r *ListFontsWithInfoRequest) Size() int { return 8 + len(r.Pattern) }

func (r *ListFontsWithInfoRequest) Encode(w *Writer) {
	w.Put16(r.MaxNames)
	w.Put16(uint16(len(r.Pattern)))
	w.PutString(r.Pattern)
}

func (r *ListFontsWithInfoRequest) DecodeRequest(data byte, rd *Reader) error {
	r.MaxNames = rd.Get16()
	n := int(rd.Get16())
	r.Pattern = rd.GetString(n)
	return rd.Err()
}

func (*ListFontsWithInfoRequest) NewReply() Reply { return &ListFontsWithInfoReply{} }

// Font draw directions.
const (
	FontDrawLeftToRight = 0
	FontDrawRightToLeft = 1
)

type CharInfo struct {
	LeftSideBearing  int16
	RightSideBearing int16
	CharacterWidth   int16
	Ascent           int16
	Descent          int16
	Attributes       uint16
}

func readCharInfo(r *Reader) CharInfo {
	return CharInfo{
		LeftSideBearing:  int16(r.Get16()),
		RightSideBearing: int16(r.Get16()),
		CharacterWidth:   int16(r.Get16()),
		Ascent:           int16(r.Get16()),
		Descent:          int16(r.Get16()),
		Attributes:       r.Get16(),
	}
}

func (ci CharInfo) write(w *Writer) {
	w.Put16(uint16(ci.LeftSideBearing))
	w.Put16(uint16(ci.RightSideBearing))
	w.Put16(uint16(ci.CharacterWidth))
	w.Put16(uint16(ci.Ascent))
	w.Put16(uint16(ci.Descent))
	w.Put16(ci.Attributes)
}

type FontProp struct {
	Name  Atom
	Value uint32
}

// FontInfo is one font of a ListFontsWithInfo answer.
type FontInfo struct {
	Name           string
	MinBounds      CharInfo
	MaxBounds      CharInfo
	MinCharOrByte2 uint16
	MaxCharOrByte2 uint16
	DefaultChar    uint16
	DrawDirection  byte
	MinByte1       byte
	MaxByte1       byte
	AllCharsExist  bool
	FontAscent     int16
	FontDescent    int16
	RepliesHint    uint32
	Properties     []FontProp
}

// Write encodes f as it appears in a ListFontsWithInfo reply, after the
// 8-byte reply header. The name length travels in the header's data byte.
func (f FontInfo) Write(w *Writer) {
	f.MinBounds.write(w)
	w.Skip(4)
	f.MaxBounds.write(w)
	w.Skip(4)
	w.Put16(f.MinCharOrByte2)
	w.Put16(f.MaxCharOrByte2)
	w.Put16(f.DefaultChar)
	w.Put16(uint16(len(f.Properties)))
	w.Put8(f.DrawDirection)
	w.Put8(f.MinByte1)
	w.Put8(f.MaxByte1)
	w.PutBool(f.AllCharsExist)
	w.Put16(uint16(f.FontAscent))
	w.Put16(uint16(f.FontDescent))
	w.Put32(f.RepliesHint)
	for _, p := range f.Properties {
		w.Put32(uint32(p.Name))
		w.Put32(p.Value)
	}
	w.PutString(f.Name)
}

// ListFontsWithInfoReply collects the fonts of every reply in the series.
type ListFontsWithInfoReply struct {
	Sequence uint16
	Fonts    []FontInfo
	done     bool
}

func (v *ListFontsWithInfoReply) More() bool { return !v.done }

func (v *ListFontsWithInfoReply) Decode(r *Reader) error {
	var length uint32
	nameLen := int(replyHeader(r, &v.Sequence, &length))
	if nameLen == 0 {
		// The last reply of the series carries no font.
		v.done = true
		r.Skip(52)
		return r.Err()
	}

	var f FontInfo
	f.MinBounds = readCharInfo(r)
	r.Skip(4)
	f.MaxBounds = readCharInfo(r)
	r.Skip(4)
	f.MinCharOrByte2 = r.Get16()
	f.MaxCharOrByte2 = r.Get16()
	f.DefaultChar = r.Get16()
	nProps := int(r.Get16())
	f.DrawDirection = r.Get8()
	f.MinByte1 = r.Get8()
	f.MaxByte1 = r.Get8()
	f.AllCharsExist = r.GetBool()
	f.FontAscent = int16(r.Get16())
	f.FontDescent = int16(r.Get16())
	f.RepliesHint = r.Get32()
	f.Properties = make([]FontProp, 0, nProps)
	for i := 0; i < nProps && r.Err() == nil; i++ {
		f.Properties = append(f.Properties, FontProp{Name: Atom(r.Get32()), Value: r.Get32()})
	}
	f.Name = r.GetString(nameLen)
	if err := r.Err(); err != nil {
		return err
	}
	v.Fonts = append(v.Fonts, f)
	return nil
}

// ListFontsWithInfoCookie is a cookie used only for ListFontsWithInfo requests.
type ListFontsWithInfoCookie struct {
	*Cookie
}

func (c *Conn) ListFontsWithInfo(maxNames uint16, pattern string) ListFontsWithInfoCookie {
	req := &ListFontsWithInfoRequest{MaxNames: maxNames, Pattern: pattern}
	return ListFontsWithInfoCookie{c.send(req, false)}
}

// Reply blocks until the whole series has arrived.
func (cook ListFontsWithInfoCookie) Reply() (*ListFontsWithInfoReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*ListFontsWithInfoReply), nil
}

// QueryExtensionRequest asks whether the server has an extension. Most
// callers want Conn.Extension, which caches the answer.
type QueryExtensionRequest struct {
	coreRequest
	Name string
}

func (*QueryExtensionRequest) Opcode() byte { return QueryExtensionOpcode }

func (r *QueryExtensionRequest) Size() int { return 8 + len(r.Name) }

func (r *QueryExtensionRequest) Encode(w *Writer) {
	w.Put16(uint16(len(r.Name)))
	w.Skip(2)
	w.PutString(r.Name)
}

func (r *QueryExtensionRequest) DecodeRequest(data byte, rd *Reader) error {
	n := int(rd.Get16())
	rd.Skip(2)
	r.Name = rd.GetString(n)
	return rd.Err()
}

func (*QueryExtensionRequest) NewReply() Reply { return &QueryExtensionReply{} }

type QueryExtensionReply struct {
	Sequence    uint16
	Length      uint32
	Present     bool
	MajorOpcode byte
	FirstEvent  byte
	FirstError  byte
}

func (v *QueryExtensionReply) Decode(r *Reader) error {
	replyHeader(r, &v.Sequence, &v.Length)
	v.Present = r.GetBool()
	v.MajorOpcode = r.Get8()
	v.FirstEvent = r.Get8()
	v.FirstError = r.Get8()
	r.Skip(20)
	return r.Err()
}

// ListExtensionsRequest lists the names of the server's extensions.
type ListExtensionsRequest struct {
	coreRequest
}

func (*ListExtensionsRequest) Opcode() byte { return ListExtensionsOpcode }

func (*ListExtensionsRequest) Size() int { return 4 }

func (*ListExtensionsRequest) Encode(w *Writer) {}

func (*ListExtensionsRequest) DecodeRequest(data byte, rd *Reader) error { return rd.Err() }

func (*ListExtensionsRequest) NewReply() Reply { return &ListExtensionsReply{} }

type ListExtensionsReply struct {
	Sequence uint16
	Length   uint32
	Names    []Str
}

func (v *ListExtensionsReply) Decode(r *Reader) error {
	n := int(replyHeader(r, &v.Sequence, &v.Length))
	r.Skip(24)
	v.Names = readStrList(r, n)
	return r.Err()
}

// ListExtensionsCookie is a cookie used only for ListExtensions requests.
type ListExtensionsCookie struct {
	*Cookie
}

func (c *Conn) ListExtensions() ListExtensionsCookie {
	return ListExtensionsCookie{c.send(&ListExtensionsRequest{}, false)}
}

// Reply blocks and returns the reply data for a ListExtensions request.
func (cook ListExtensionsCookie) Reply() (*ListExtensionsReply, error) {
	rep, err := cook.Wait()
	if err != nil {
		return nil, err
	}
	return rep.(*ListExtensionsReply), nil
}

type NoOperationRequest struct {
	coreRequest
}

func (*NoOperationRequest) Opcode() byte { return NoOperationOpcode }

func (*NoOperationRequest) Size() int { return 4 }

func (*NoOperationRequest) Encode(w *Writer) {}

func (*NoOperationRequest) DecodeRequest(data byte, rd *Reader) error { return rd.Err() }

func (c *Conn) NoOperation() VoidCookie {
	return VoidCookie{c.send(&NoOperationRequest{}, false)}
}

func (c *Conn) cacheAtom(name string, atom Atom) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.atoms[name] = atom
	c.atomNames[atom] = name
}

// Atom interns name, answering from the connection's cache when it can.
func (c *Conn) Atom(name string) (Atom, error) {
	c.mu.Lock()
	atom, ok := c.atoms[name]
	c.mu.Unlock()
	if ok {
		return atom, nil
	}
	rep, err := c.InternAtom(false, name).Reply()
	if err != nil {
		return AtomNone, err
	}
	return rep.Atom, nil
}

// AtomName returns the name of atom, answering from the connection's cache
// when it can.
func (c *Conn) AtomName(atom Atom) (string, error) {
	c.mu.Lock()
	name, ok := c.atomNames[atom]
	c.mu.Unlock()
	if ok {
		return name, nil
	}
	rep, err := c.GetAtomName(atom).Reply()
	if err != nil {
		return "", err
	}
	return rep.Name, nil
}
