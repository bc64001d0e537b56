// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"fmt"
	"strings"
)

// Protocol version sent in the setup request.
const (
	ProtocolMajor = 11
	ProtocolMinor = 0
)

// Setup response status codes.
const (
	setupFailed       = 0
	setupSuccess      = 1
	setupAuthenticate = 2
)

// SetupInfo is the server's reply to a successful connection setup.
type SetupInfo struct {
	ProtocolMajorVersion     uint16
	ProtocolMinorVersion     uint16
	ReleaseNumber            uint32
	ResourceIdBase           uint32
	ResourceIdMask           uint32
	MotionBufferSize         uint32
	MaximumRequestLength     uint16 // in 4-byte units
	ImageByteOrder           byte
	BitmapFormatBitOrder     byte
	BitmapFormatScanlineUnit byte
	BitmapFormatScanlinePad  byte
	MinKeycode               byte
	MaxKeycode               byte
	Vendor                   string
	PixmapFormats            []Format
	Roots                    []ScreenInfo
}

// Format is a pixmap format supported by the server.
type Format struct {
	Depth        byte
	BitsPerPixel byte
	ScanlinePad  byte
}

// ScreenInfo describes one screen and its root window.
type ScreenInfo struct {
	Root                Id
	DefaultColormap     Id
	WhitePixel          uint32
	BlackPixel          uint32
	CurrentInputMasks   uint32
	WidthInPixels       uint16
	HeightInPixels      uint16
	WidthInMillimeters  uint16
	HeightInMillimeters uint16
	MinInstalledMaps    uint16
	MaxInstalledMaps    uint16
	RootVisual          VisualId
	BackingStores       byte
	SaveUnders          bool
	RootDepth           byte
	AllowedDepths       []DepthInfo
}

// DepthInfo lists the visuals available at one depth.
type DepthInfo struct {
	Depth   byte
	Visuals []VisualInfo
}

// VisualInfo is a visual type as reported by the server.
type VisualInfo struct {
	VisualId        VisualId
	Class           byte
	BitsPerRgbValue byte
	ColormapEntries uint16
	RedMask         uint32
	GreenMask       uint32
	BlueMask        uint32
}

// VisualId identifies a visual.
type VisualId uint32

// writeSetupRequest encodes the connection setup request.
func writeSetupRequest(w *Writer, authName string, authData []byte) {
	w.Put8(orderByte(w.order))
	w.Skip(1)
	w.Put16(ProtocolMajor)
	w.Put16(ProtocolMinor)
	w.Put16(uint16(len(authName)))
	w.Put16(uint16(len(authData)))
	w.Skip(2)
	w.PutString(authName)
	w.Pad()
	w.PutBytes(authData)
	w.Pad()
}

// handshake sends the setup request and reads the server's answer.
func (c *Conn) handshake(authName string, authData []byte) error {
	w := NewWriter(c.order)
	writeSetupRequest(w, authName, authData)
	c.ch.write(w.Bytes())
	if err := c.ch.flush(); err != nil {
		return err
	}

	hdr := make([]byte, 8)
	if err := c.ch.readFull(hdr); err != nil {
		return err
	}
	status := hdr[0]
	major := c.order.Uint16(hdr[2:])
	minor := c.order.Uint16(hdr[4:])
	body := make([]byte, int(c.order.Uint16(hdr[6:]))*4)
	if err := c.ch.readFull(body); err != nil {
		return err
	}

	switch status {
	case setupFailed:
		n := int(hdr[1])
		if n > len(body) {
			return &HandshakeError{Kind: MalformedSetup, Major: major, Minor: minor,
				Reason: fmt.Sprintf("reason of %d bytes in %d byte response", n, len(body))}
		}
		kind := AuthRefused
		if major != ProtocolMajor {
			kind = VersionMismatch
		}
		return &HandshakeError{Kind: kind, Major: major, Minor: minor, Reason: string(body[:n])}
	case setupAuthenticate:
		return &HandshakeError{Kind: AuthRequired, Reason: strings.TrimRight(string(body), "\x00")}
	case setupSuccess:
		if major != ProtocolMajor {
			return &HandshakeError{Kind: VersionMismatch, Major: major, Minor: minor,
				Reason: fmt.Sprintf("server speaks %d.%d", major, minor)}
		}
	default:
		return &HandshakeError{Kind: MalformedSetup, Reason: fmt.Sprintf("unknown status %d", status)}
	}

	setup, err := readSetupInfo(NewReader(c.order, body))
	if err != nil {
		return err
	}
	setup.ProtocolMajorVersion = major
	setup.ProtocolMinorVersion = minor
	c.setup = setup
	return nil
}

// readSetupInfo decodes the body of a successful setup response, i.e.
// everything after the 8-byte header.
func readSetupInfo(r *Reader) (*SetupInfo, error) {
	s := &SetupInfo{}
	s.ReleaseNumber = r.Get32()
	s.ResourceIdBase = r.Get32()
	s.ResourceIdMask = r.Get32()
	s.MotionBufferSize = r.Get32()
	vendorLen := int(r.Get16())
	s.MaximumRequestLength = r.Get16()
	numScreens := int(r.Get8())
	numFormats := int(r.Get8())
	s.ImageByteOrder = r.Get8()
	s.BitmapFormatBitOrder = r.Get8()
	s.BitmapFormatScanlineUnit = r.Get8()
	s.BitmapFormatScanlinePad = r.Get8()
	s.MinKeycode = r.Get8()
	s.MaxKeycode = r.Get8()
	r.Skip(4)

	s.Vendor = r.GetString(vendorLen)
	r.Align()

	if numFormats*8 > r.Remaining() {
		return nil, malformed("%d pixmap formats in %d remaining bytes", numFormats, r.Remaining())
	}
	s.PixmapFormats = make([]Format, numFormats)
	for i := range s.PixmapFormats {
		f := &s.PixmapFormats[i]
		f.Depth = r.Get8()
		f.BitsPerPixel = r.Get8()
		f.ScanlinePad = r.Get8()
		r.Skip(5)
	}

	s.Roots = make([]ScreenInfo, 0, numScreens)
	for i := 0; i < numScreens && r.Err() == nil; i++ {
		scr, err := readScreenInfo(r)
		if err != nil {
			return nil, err
		}
		s.Roots = append(s.Roots, scr)
	}

	if err := r.Err(); err != nil {
		return nil, malformed("%s", err.(*DecodeError).Msg)
	}
	if len(s.Roots) == 0 {
		return nil, malformed("server reports no screens")
	}
	if s.ResourceIdMask == 0 {
		return nil, malformed("empty resource id mask")
	}
	return s, nil
}

func readScreenInfo(r *Reader) (ScreenInfo, error) {
	var s ScreenInfo
	s.Root = Id(r.Get32())
	s.DefaultColormap = Id(r.Get32())
	s.WhitePixel = r.Get32()
	s.BlackPixel = r.Get32()
	s.CurrentInputMasks = r.Get32()
	s.WidthInPixels = r.Get16()
	s.HeightInPixels = r.Get16()
	s.WidthInMillimeters = r.Get16()
	s.HeightInMillimeters = r.Get16()
	s.MinInstalledMaps = r.Get16()
	s.MaxInstalledMaps = r.Get16()
	s.RootVisual = VisualId(r.Get32())
	s.BackingStores = r.Get8()
	s.SaveUnders = r.GetBool()
	s.RootDepth = r.Get8()
	numDepths := int(r.Get8())

	for i := 0; i < numDepths && r.Err() == nil; i++ {
		var d DepthInfo
		d.Depth = r.Get8()
		r.Skip(1)
		numVisuals := int(r.Get16())
		r.Skip(4)
		if numVisuals*24 > r.Remaining() {
			return s, malformed("%d visuals at depth %d in %d remaining bytes",
				numVisuals, d.Depth, r.Remaining())
		}
		d.Visuals = make([]VisualInfo, numVisuals)
		for j := range d.Visuals {
			v := &d.Visuals[j]
			v.VisualId = VisualId(r.Get32())
			v.Class = r.Get8()
			v.BitsPerRgbValue = r.Get8()
			v.ColormapEntries = r.Get16()
			v.RedMask = r.Get32()
			v.GreenMask = r.Get32()
			v.BlueMask = r.Get32()
			r.Skip(4)
		}
		s.AllowedDepths = append(s.AllowedDepths, d)
	}
	return s, nil
}

func malformed(format string, args ...interface{}) error {
	return &HandshakeError{Kind: MalformedSetup, Reason: fmt.Sprintf(format, args...)}
}
