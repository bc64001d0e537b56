// Package xtest provides an in-memory X server for tests: a dummy net.Conn
// whose peer parses the setup request and request frames the way a server
// does and answers through scripted handlers.
package xtest

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
)

// Opcodes the server answers by default.
const (
	opInternAtom     = 16
	opGetAtomName    = 17
	opGetInputFocus  = 43
	opQueryExtension = 98
	opListExtensions = 99
)

// Request is one request frame as the server received it.
type Request struct {
	Major byte
	Data  byte // minor opcode for extension requests
	Seq   uint16
	Body  []byte // everything after the 4-byte header, padding included
	Order binary.ByteOrder
}

// Handler answers a request with zero or more frames.
type Handler func(req Request) []byte

// Extension is what the server reports for an extension.
type Extension struct {
	Major      byte
	FirstEvent byte
	FirstError byte
}

// Setup is the content of a successful setup response.
type Setup struct {
	Release          uint32
	ResourceIdBase   uint32
	ResourceIdMask   uint32
	MaxRequestLength uint16
	Vendor           string
	Screens          int
}

// DefaultSetup looks like a typical single-screen X.Org server.
var DefaultSetup = Setup{
	Release:          12101004,
	ResourceIdBase:   0x04000000,
	ResourceIdMask:   0x001fffff,
	MaxRequestLength: 0xffff,
	Vendor:           "The X.Org Foundation",
	Screens:          1,
}

// Root is the root window id of screen i in a setup built by SetupSuccess.
func Root(i int) uint32 { return 0x1e1 + uint32(i) }

// Server is the peer of a DummyNetConn. Its fields must be set before the
// client connects.
type Server struct {
	Setup Setup
	// SetupResponse, if set, replaces the success response built from Setup.
	SetupResponse func(order binary.ByteOrder) []byte

	mu         sync.Mutex
	handlers   map[byte]Handler
	extensions map[string]Extension
	atoms      map[string]uint32
	names      map[uint32]string
	nextAtom   uint32

	in        []byte
	order     binary.ByteOrder
	setupDone bool
	authName  string
	authData  []byte
	seq       uint16
	requests  []Request
}

// NewServer returns a server that answers GetInputFocus, InternAtom,
// GetAtomName, QueryExtension and ListExtensions. Every other request gets no
// answer unless a handler is installed.
func NewServer() *Server {
	s := &Server{
		Setup:      DefaultSetup,
		handlers:   make(map[byte]Handler),
		extensions: make(map[string]Extension),
		atoms:      make(map[string]uint32),
		names:      make(map[uint32]string),
		nextAtom:   100,
	}
	s.handlers[opGetInputFocus] = s.getInputFocus
	s.handlers[opInternAtom] = s.internAtom
	s.handlers[opGetAtomName] = s.getAtomName
	s.handlers[opQueryExtension] = s.queryExtension
	s.handlers[opListExtensions] = s.listExtensions
	for name, atom := range map[string]uint32{"PRIMARY": 1, "ATOM": 4, "CARDINAL": 6, "STRING": 31, "WM_NAME": 39} {
		s.atoms[name] = atom
		s.names[atom] = name
	}
	return s
}

// Conn starts a DummyNetConn served by s.
func (s *Server) Conn(name string) *DummyNetConn {
	return NewDummyNetConn(name, s.Reply)
}

// Handle installs h for requests with the given major opcode, replacing any
// default.
func (s *Server) Handle(major byte, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[major] = h
}

// AddExtension makes the server report name as present.
func (s *Server) AddExtension(name string, ext Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions[name] = ext
}

// Requests returns the request frames received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests with the given major opcode were received.
func (s *Server) Count(major byte) int {
	n := 0
	for _, req := range s.Requests() {
		if req.Major == major {
			n++
		}
	}
	return n
}

// Auth returns the authorization the client sent.
func (s *Server) Auth() (string, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authName, s.authData
}

// Order returns the byte order the client declared, nil before setup.
func (s *Server) Order() binary.ByteOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// InternAtom returns the atom the server assigned to name, assigning one if
// needed.
func (s *Server) InternAtom(name string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intern(name)
}

func (s *Server) intern(name string) uint32 {
	if atom, ok := s.atoms[name]; ok {
		return atom
	}
	atom := s.nextAtom
	s.nextAtom++
	s.atoms[name] = atom
	s.names[atom] = name
	return atom
}

// Reply consumes bytes written by the client and returns the server's
// answer. Frames may be split across writes.
func (s *Server) Reply(b []byte) []byte {
	s.mu.Lock()
	s.in = append(s.in, b...)
	var out []byte
	if !s.setupDone {
		resp, ok := s.readSetup()
		if !ok {
			s.mu.Unlock()
			return nil
		}
		out = append(out, resp...)
	}

	var todo []Request
	for len(s.in) >= 4 {
		words := int(s.order.Uint16(s.in[2:]))
		if words == 0 {
			panic("xtest: request with zero length")
		}
		if len(s.in) < words*4 {
			break
		}
		s.seq++
		req := Request{
			Major: s.in[0],
			Data:  s.in[1],
			Seq:   s.seq,
			Body:  append([]byte(nil), s.in[4:words*4]...),
			Order: s.order,
		}
		s.in = s.in[words*4:]
		s.requests = append(s.requests, req)
		todo = append(todo, req)
	}
	handlers := make([]Handler, len(todo))
	for i, req := range todo {
		handlers[i] = s.handlers[req.Major]
	}
	s.mu.Unlock()

	for i, req := range todo {
		if handlers[i] != nil {
			out = append(out, handlers[i](req)...)
		}
	}
	return out
}

func (s *Server) readSetup() ([]byte, bool) {
	if len(s.in) < 12 {
		return nil, false
	}
	switch s.in[0] {
	case 'l':
		s.order = binary.LittleEndian
	case 'B':
		s.order = binary.BigEndian
	default:
		panic(fmt.Sprintf("xtest: byte order %q", s.in[0]))
	}
	nameLen := int(s.order.Uint16(s.in[6:]))
	dataLen := int(s.order.Uint16(s.in[8:]))
	total := 12 + pad(nameLen) + pad(dataLen)
	if len(s.in) < total {
		return nil, false
	}
	s.authName = string(s.in[12 : 12+nameLen])
	s.authData = append([]byte(nil), s.in[12+pad(nameLen):12+pad(nameLen)+dataLen]...)
	s.in = s.in[total:]
	s.setupDone = true

	if s.SetupResponse != nil {
		return s.SetupResponse(s.order), true
	}
	return SetupSuccess(s.order, s.Setup), true
}

func (s *Server) getInputFocus(req Request) []byte {
	body := NewFrame(req.Order)
	body.Put32(Root(0))
	return ReplyFrame(req.Order, req.Seq, 1, body.Bytes())
}

func (s *Server) internAtom(req Request) []byte {
	n := int(req.Order.Uint16(req.Body))
	name := string(req.Body[4 : 4+n])
	s.mu.Lock()
	atom, ok := s.atoms[name]
	if !ok && req.Data == 0 {
		atom = s.intern(name)
	}
	s.mu.Unlock()
	body := NewFrame(req.Order)
	body.Put32(atom)
	return ReplyFrame(req.Order, req.Seq, 0, body.Bytes())
}

func (s *Server) getAtomName(req Request) []byte {
	atom := req.Order.Uint32(req.Body)
	s.mu.Lock()
	name, ok := s.names[atom]
	s.mu.Unlock()
	if !ok {
		return ErrorFrame(req.Order, 5, req.Seq, atom, 0, opGetAtomName)
	}
	body := NewFrame(req.Order)
	body.Put16(uint16(len(name)))
	body.Skip(22)
	body.PutString(name)
	return ReplyFrame(req.Order, req.Seq, 0, body.Bytes())
}

func (s *Server) queryExtension(req Request) []byte {
	n := int(req.Order.Uint16(req.Body))
	name := string(req.Body[4 : 4+n])
	s.mu.Lock()
	ext, ok := s.extensions[name]
	s.mu.Unlock()
	body := NewFrame(req.Order)
	if ok {
		body.Put8(1)
		body.Put8(ext.Major)
		body.Put8(ext.FirstEvent)
		body.Put8(ext.FirstError)
	}
	return ReplyFrame(req.Order, req.Seq, 0, body.Bytes())
}

func (s *Server) listExtensions(req Request) []byte {
	s.mu.Lock()
	names := make([]string, 0, len(s.extensions))
	for name := range s.extensions {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)

	body := NewFrame(req.Order)
	body.Skip(24)
	for _, name := range names {
		body.Put8(byte(len(name)))
		body.PutString(name)
	}
	return ReplyFrame(req.Order, req.Seq, byte(len(names)), body.Bytes())
}

func pad(n int) int { return (n + 3) &^ 3 }

// Frame builds server-side bytes in the connection's byte order.
type Frame struct {
	order binary.ByteOrder
	buf   []byte
}

func NewFrame(order binary.ByteOrder) *Frame { return &Frame{order: order} }

func (f *Frame) Put8(v byte) { f.buf = append(f.buf, v) }

func (f *Frame) Put16(v uint16) {
	var b [2]byte
	f.order.PutUint16(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *Frame) Put32(v uint32) {
	var b [4]byte
	f.order.PutUint32(b[:], v)
	f.buf = append(f.buf, b[:]...)
}

func (f *Frame) PutString(s string) { f.buf = append(f.buf, s...) }

func (f *Frame) Skip(n int) { f.buf = append(f.buf, make([]byte, n)...) }

func (f *Frame) Bytes() []byte { return f.buf }

// ReplyFrame builds a reply. body is everything after the 8-byte header; it
// is padded to fill at least 32 bytes and a multiple of 4.
func ReplyFrame(order binary.ByteOrder, seq uint16, data byte, body []byte) []byte {
	size := 8 + len(body)
	if size < 32 {
		size = 32
	}
	size = pad(size)
	f := NewFrame(order)
	f.Put8(1)
	f.Put8(data)
	f.Put16(seq)
	f.Put32(uint32((size - 32) / 4))
	f.buf = append(f.buf, body...)
	f.Skip(size - len(f.buf))
	return f.buf
}

// ErrorFrame builds an error frame.
func ErrorFrame(order binary.ByteOrder, code byte, seq uint16, bad uint32, minor uint16, major byte) []byte {
	f := NewFrame(order)
	f.Put8(0)
	f.Put8(code)
	f.Put16(seq)
	f.Put32(bad)
	f.Put16(minor)
	f.Put8(major)
	f.Skip(21)
	return f.buf
}

// EventFrame builds a 32-byte event. body follows the sequence number and is
// truncated or padded to 28 bytes.
func EventFrame(order binary.ByteOrder, code byte, seq uint16, body []byte) []byte {
	f := NewFrame(order)
	f.Put8(code)
	f.Put8(0)
	f.Put16(seq)
	if len(body) > 28 {
		body = body[:28]
	}
	f.buf = append(f.buf, body...)
	f.Skip(32 - len(f.buf))
	return f.buf
}

// SetupSuccess builds a successful setup response with one 24-bit depth and
// one TrueColor visual per screen.
func SetupSuccess(order binary.ByteOrder, s Setup) []byte {
	body := NewFrame(order)
	body.Put32(s.Release)
	body.Put32(s.ResourceIdBase)
	body.Put32(s.ResourceIdMask)
	body.Put32(256) // motion buffer size
	body.Put16(uint16(len(s.Vendor)))
	body.Put16(s.MaxRequestLength)
	body.Put8(byte(s.Screens))
	body.Put8(2) // pixmap formats
	body.Put8(0) // image byte order
	body.Put8(0) // bitmap bit order
	body.Put8(32)
	body.Put8(32)
	body.Put8(8)   // min keycode
	body.Put8(255) // max keycode
	body.Skip(4)
	body.PutString(s.Vendor)
	body.Skip(pad(len(s.Vendor)) - len(s.Vendor))

	for _, format := range [][3]byte{{1, 1, 32}, {24, 32, 32}} {
		body.Put8(format[0])
		body.Put8(format[1])
		body.Put8(format[2])
		body.Skip(5)
	}

	for i := 0; i < s.Screens; i++ {
		body.Put32(Root(i))
		body.Put32(0x20) // default colormap
		body.Put32(0xffffff)
		body.Put32(0)
		body.Put32(0) // current input masks
		body.Put16(1920)
		body.Put16(1080)
		body.Put16(508)
		body.Put16(285)
		body.Put16(1)
		body.Put16(1)
		body.Put32(0x21) // root visual
		body.Put8(0)
		body.Put8(0)
		body.Put8(24) // root depth
		body.Put8(1)  // allowed depths

		body.Put8(24)
		body.Skip(1)
		body.Put16(1) // visuals
		body.Skip(4)

		body.Put32(0x21)
		body.Put8(4) // TrueColor
		body.Put8(8)
		body.Put16(256)
		body.Put32(0xff0000)
		body.Put32(0x00ff00)
		body.Put32(0x0000ff)
		body.Skip(4)
	}

	f := NewFrame(order)
	f.Put8(1)
	f.Put8(0)
	f.Put16(11)
	f.Put16(0)
	f.Put16(uint16(len(body.buf) / 4))
	f.buf = append(f.buf, body.buf...)
	return f.buf
}

// SetupFailure builds a setup response with status 0 (failed) or 2
// (authenticate) and a reason.
func SetupFailure(order binary.ByteOrder, status byte, major, minor uint16, reason string) []byte {
	f := NewFrame(order)
	f.Put8(status)
	f.Put8(byte(len(reason)))
	f.Put16(major)
	f.Put16(minor)
	f.Put16(uint16(pad(len(reason)) / 4))
	f.PutString(reason)
	f.Skip(pad(len(reason)) - len(reason))
	return f.buf
}
