package randr

import (
	"testing"

	"github.com/justshow/x11"
	"github.com/justshow/x11/internal/xtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMajor      = 140
	testFirstEvent = 89
	testFirstError = 147
)

// newServer returns a server with RANDR at the given version. GetMonitors
// answers with monitors, or with BadOutput if monitors is nil.
func newServer(major, minor uint32, monitors []MonitorInfo) *xtest.Server {
	s := xtest.NewServer()
	s.AddExtension(ExtName, xtest.Extension{Major: testMajor, FirstEvent: testFirstEvent, FirstError: testFirstError})
	s.Handle(testMajor, func(req xtest.Request) []byte {
		w := x11.NewWriter(req.Order)
		switch req.Data {
		case 0:
			w.Put32(major)
			w.Put32(minor)
		case 42:
			if monitors == nil {
				return xtest.ErrorFrame(req.Order, testFirstError, req.Seq, 7, 42, testMajor)
			}
			nOutputs := 0
			for _, m := range monitors {
				nOutputs += len(m.Outputs)
			}
			w.Put32(1234)
			w.Put32(uint32(len(monitors)))
			w.Put32(uint32(nOutputs))
			w.Skip(12)
			for _, m := range monitors {
				m.Write(w)
			}
		}
		return xtest.ReplyFrame(req.Order, req.Seq, 0, w.Bytes())
	})
	return s
}

func connect(t *testing.T, s *xtest.Server) *x11.Conn {
	t.Helper()
	nc := s.Conn(t.Name())
	c, err := x11.NewConn(nc)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
		nc.Close()
	})
	return c
}

func TestInit(t *testing.T) {
	c := connect(t, xtest.NewServer())
	assert.Error(t, Init(c), "extension absent")
	assert.NoError(t, c.Err(), "an absent extension is not fatal")

	c = connect(t, newServer(1, 2, nil))
	err := Init(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need 1.5")

	s := newServer(1, 6, nil)
	c = connect(t, s)
	require.NoError(t, Init(c))
	reqs := s.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, byte(testMajor), last.Major)
	assert.Equal(t, byte(0), last.Data)
	var sent QueryVersionRequest
	require.NoError(t, sent.DecodeRequest(last.Data, x11.NewReader(last.Order, last.Body)))
	assert.Equal(t, uint32(MajorVersion), sent.MajorVersion)
	assert.Equal(t, uint32(MinorVersion), sent.MinorVersion)
}

func TestGetMonitors(t *testing.T) {
	monitors := []MonitorInfo{
		{Name: 300, Primary: true, Automatic: true, Width: 1920, Height: 1080,
			WidthInMillimeters: 510, HeightInMillimeters: 290, Outputs: []Output{0x42}},
		{Name: 301, X: 1920, Y: -100, Width: 1280, Height: 1024,
			WidthInMillimeters: 340, HeightInMillimeters: 270, Outputs: []Output{0x43, 0x44}},
		{Name: 302, Width: 640, Height: 480},
	}
	s := newServer(1, 5, monitors)
	c := connect(t, s)
	require.NoError(t, Init(c))

	root := c.DefaultScreen().Root
	rep, err := GetMonitors(c, root, true).Reply()
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), rep.Timestamp)
	assert.Equal(t, uint32(3), rep.NOutputs)
	assert.Equal(t, monitors[:2], rep.Monitors[:2])
	assert.Empty(t, rep.Monitors[2].Outputs)
	assert.Equal(t, "1280x1024+1920+-100 340mmx270mm", rep.Monitors[1].String())

	reqs := s.Requests()
	var sent GetMonitorsRequest
	last := reqs[len(reqs)-1]
	require.NoError(t, sent.DecodeRequest(last.Data, x11.NewReader(last.Order, last.Body)))
	assert.Equal(t, GetMonitorsRequest{Window: root, GetActive: true}, sent)
}

func TestGetMonitorsError(t *testing.T) {
	c := connect(t, newServer(1, 5, nil))
	require.NoError(t, Init(c))

	_, err := GetMonitors(c, c.DefaultScreen().Root, false).Reply()
	var perr *x11.ProtocolError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, "RANDR:BadOutput", perr.Name)
	assert.Equal(t, ExtName, perr.Extension)
	assert.Equal(t, uint32(7), perr.BadValue)
	assert.Equal(t, uint16(42), perr.MinorOpcode)
	assert.False(t, x11.IsFatal(err))
	assert.NoError(t, c.Err())
}

func TestGetMonitorsBeforeInit(t *testing.T) {
	c := connect(t, newServer(1, 5, nil))
	_, err := GetMonitors(c, 1, false).Reply()
	var merr *x11.MisuseError
	assert.True(t, errors.As(err, &merr), "got %v", err)
}
