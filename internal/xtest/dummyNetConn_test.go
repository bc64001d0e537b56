package xtest

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopback(t *testing.T) *DummyNetConn {
	t.Helper()
	s := NewDummyNetConn(t.Name(), func(b []byte) []byte { return b })
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDummyNetConnLoopback(t *testing.T) {
	defer LeaksMonitor("loopback").CheckTesting(t)
	s := loopback(t)

	n, err := s.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	b := make([]byte, 8)
	n, err = s.Read(b)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b[:n]))
	require.NoError(t, s.Close())
}

func TestDummyNetConnClose(t *testing.T) {
	defer LeaksMonitor("close").CheckTesting(t)
	s := NewDummyNetConn("close", func(b []byte) []byte { return b })

	require.NoError(t, s.Close())
	assert.Equal(t, ErrClosed, s.Close())

	_, err := s.Write([]byte("abc"))
	assert.Equal(t, ErrClosed, err)
	_, err = s.Read(make([]byte, 1))
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, ErrClosed, s.HangUp())
}

func TestDummyNetConnReadError(t *testing.T) {
	defer LeaksMonitor("read error").CheckTesting(t)
	s := loopback(t)

	_, err := s.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, s.ReadError())
	_, err = s.Read(make([]byte, 8))
	assert.Equal(t, ErrRead, err)

	require.NoError(t, s.ReadSuccess())
	b := make([]byte, 8)
	n, err := s.Read(b)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b[:n]))
	require.NoError(t, s.Close())
}

func TestDummyNetConnWriteError(t *testing.T) {
	defer LeaksMonitor("write error").CheckTesting(t)
	called := false
	s := NewDummyNetConn("write error", func(b []byte) []byte {
		called = true
		return b
	})
	defer s.Close()

	require.NoError(t, s.WriteError())
	n, err := s.Write([]byte("abc"))
	assert.Equal(t, ErrWrite, err)
	assert.Zero(t, n)
	require.NoError(t, s.Close())
	assert.False(t, called)
}

func TestDummyNetConnHangUp(t *testing.T) {
	defer LeaksMonitor("hang up").CheckTesting(t)
	s := loopback(t)

	_, err := s.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, s.HangUp())

	b := make([]byte, 8)
	n, err := s.Read(b)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b[:n]))
	for i := 0; i < 2; i++ {
		_, err = s.Read(b)
		assert.Equal(t, io.EOF, err)
	}
	require.NoError(t, s.Close())
}

func TestDummyNetConnHangUpEmpty(t *testing.T) {
	defer LeaksMonitor("hang up empty").CheckTesting(t)
	s := loopback(t)

	require.NoError(t, s.HangUp())
	_, err := s.Read(make([]byte, 8))
	assert.Equal(t, io.EOF, err)
	require.NoError(t, s.Close())
}
