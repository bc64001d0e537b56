package xtest

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"
)

type dAddr struct {
	s string
}

func (dAddr) Network() string  { return "dummy" }
func (a dAddr) String() string { return a.s }

var (
	ErrNotImplemented = errors.New("command not implemented")
	ErrClosed         = errors.New("server closed")
	ErrWrite          = errors.New("server write failed")
	ErrRead           = errors.New("server read failed")
)

type dNCIoResult struct {
	n   int
	err error
}
type dNCIo struct {
	b      []byte
	result chan dNCIoResult
}

type dNCCWriteLock struct{}
type dNCCWriteUnlock struct{}
type dNCCWriteError struct{}
type dNCCWriteSuccess struct{}
type dNCCReadLock struct{}
type dNCCReadUnlock struct{}
type dNCCReadError struct{}
type dNCCReadSuccess struct{}
type dNCCHangUp struct{}

// DummyNetConn is an in-memory net.Conn. Needs to be constructed via
// NewDummyNetConn.
type DummyNetConn struct {
	reply   func([]byte) []byte
	addr    dAddr
	in, out chan dNCIo
	control chan interface{}
	done    chan struct{}
}

// NewDummyNetConn runs a dummy server satisfying the net.Conn interface.
// 'name' is returned via LocalAddr().String() and RemoteAddr().String().
// 'reply' is run on every successful Write with the written bytes; its
// result is buffered and handed out by later Reads.
// It is the caller's responsibility to stop it with Close.
// By default, Write and Read are unlocked and do not fail.
func NewDummyNetConn(name string, reply func([]byte) []byte) *DummyNetConn {
	s := &DummyNetConn{
		reply,
		dAddr{name},
		make(chan dNCIo), make(chan dNCIo),
		make(chan interface{}),
		make(chan struct{}),
	}

	in, out := s.in, chan dNCIo(nil)
	buf := &bytes.Buffer{}
	errorRead, errorWrite := false, false
	lockRead, hungUp := false, false

	go func() {
		defer close(s.done)
		for {
			select {
			case dxsio := <-in:
				if errorWrite {
					dxsio.result <- dNCIoResult{0, ErrWrite}
					break
				}

				response := s.reply(dxsio.b)

				buf.Write(response)
				dxsio.result <- dNCIoResult{len(dxsio.b), nil}

				if !lockRead && (buf.Len() > 0 || hungUp) && out == nil {
					out = s.out
				}
			case dxsio := <-out:
				if errorRead {
					dxsio.result <- dNCIoResult{0, ErrRead}
					break
				}

				if buf.Len() == 0 && hungUp {
					dxsio.result <- dNCIoResult{0, io.EOF}
					break
				}
				n, err := buf.Read(dxsio.b)
				dxsio.result <- dNCIoResult{n, err}

				if buf.Len() == 0 && !hungUp {
					out = nil
				}
			case ci := <-s.control:
				if ci == nil {
					return
				}
				switch ci.(type) {
				case dNCCWriteLock:
					in = nil
				case dNCCWriteUnlock:
					in = s.in
				case dNCCWriteError:
					errorWrite = true
				case dNCCWriteSuccess:
					errorWrite = false
				case dNCCReadLock:
					out = nil
					lockRead = true
				case dNCCReadUnlock:
					lockRead = false
					if (buf.Len() > 0 || hungUp) && out == nil {
						out = s.out
					}
				case dNCCReadError:
					errorRead = true
				case dNCCReadSuccess:
					errorRead = false
				case dNCCHangUp:
					hungUp = true
					if !lockRead {
						out = s.out
					}
				default:
				}
			}
		}
	}()
	return s
}

// Close shuts down the dummy server. Every blocking or future method call
// will do nothing and result in error.
// The result is ErrClosed if the server was already closed.
func (s *DummyNetConn) Close() error {
	select {
	case s.control <- nil:
		<-s.done
		return nil
	case <-s.done:
	}
	return ErrClosed
}

// Write performs a write action to the server.
// If locked by WriteLock, it blocks until unlocked or closed.
//
// If set to fail via WriteError, the 'reply' function is NOT called and the
// result is (0, ErrWrite).
//
// Otherwise 'reply' is called and its result appended to the internal
// buffer, which unblocks Read unless reading is locked. The result is
// (len(b), nil).
//
// If the server was closed previously, the result is (0, ErrClosed).
func (s *DummyNetConn) Write(b []byte) (int, error) {
	resChan := make(chan dNCIoResult)
	select {
	case s.in <- dNCIo{b, resChan}:
		res := <-resChan
		return res.n, res.err
	case <-s.done:
	}
	return 0, ErrClosed
}

// Read performs a read action from the server.
// If locked by ReadLock, it blocks until unlocked with ReadUnlock or the
// server closes.
//
// If set to fail via ReadError, the result is (0, ErrRead). Otherwise it
// blocks until the internal buffer is not empty and reads from it. After
// HangUp an empty buffer reads as io.EOF.
//
// If the server was closed previously, the result is (0, io.EOF).
func (s *DummyNetConn) Read(b []byte) (int, error) {
	resChan := make(chan dNCIoResult)
	select {
	case s.out <- dNCIo{b, resChan}:
		res := <-resChan
		return res.n, res.err
	case <-s.done:
	}
	return 0, io.EOF
}

func (s *DummyNetConn) LocalAddr() net.Addr                { return s.addr }
func (s *DummyNetConn) RemoteAddr() net.Addr               { return s.addr }
func (s *DummyNetConn) SetDeadline(t time.Time) error      { return ErrNotImplemented }
func (s *DummyNetConn) SetReadDeadline(t time.Time) error  { return ErrNotImplemented }
func (s *DummyNetConn) SetWriteDeadline(t time.Time) error { return ErrNotImplemented }

func (s *DummyNetConn) Control(i interface{}) error {
	select {
	case s.control <- i:
		return nil
	case <-s.done:
	}
	return ErrClosed
}

// WriteLock locks writing. All write requests will be blocked until write is
// unlocked with WriteUnlock, or the server closes.
func (s *DummyNetConn) WriteLock() error {
	return s.Control(dNCCWriteLock{})
}

// WriteUnlock unlocks writing. All write requests blocked until now will be
// accepted.
func (s *DummyNetConn) WriteUnlock() error {
	return s.Control(dNCCWriteUnlock{})
}

// WriteError unlocks writing and makes Write result in (0, ErrWrite).
func (s *DummyNetConn) WriteError() error {
	if err := s.WriteUnlock(); err != nil {
		return err
	}
	return s.Control(dNCCWriteError{})
}

// WriteSuccess unlocks writing and makes Write succeed.
func (s *DummyNetConn) WriteSuccess() error {
	if err := s.WriteUnlock(); err != nil {
		return err
	}
	return s.Control(dNCCWriteSuccess{})
}

// ReadLock locks reading. Read will block even after a successful write.
func (s *DummyNetConn) ReadLock() error {
	return s.Control(dNCCReadLock{})
}

// ReadUnlock unlocks reading. If the internal buffer is not empty, the next
// read will not block.
func (s *DummyNetConn) ReadUnlock() error {
	return s.Control(dNCCReadUnlock{})
}

// ReadError unlocks reading and makes every blocked and following Read fail
// immediately.
func (s *DummyNetConn) ReadError() error {
	if err := s.ReadUnlock(); err != nil {
		return err
	}
	return s.Control(dNCCReadError{})
}

// ReadSuccess unlocks reading and makes Read serve the internal buffer again.
func (s *DummyNetConn) ReadSuccess() error {
	if err := s.ReadUnlock(); err != nil {
		return err
	}
	return s.Control(dNCCReadSuccess{})
}

// HangUp makes Read return io.EOF once the internal buffer is drained, as a
// peer closing its end would.
func (s *DummyNetConn) HangUp() error {
	return s.Control(dNCCHangUp{})
}
