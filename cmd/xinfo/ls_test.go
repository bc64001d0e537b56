package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/justshow/x11"
	"github.com/justshow/x11/internal/xtest"
	"github.com/justshow/x11/randr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes xinfo with args against s.
func run(t *testing.T, s *xtest.Server, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	saved := open
	t.Cleanup(func() { open = saved })

	var displays []string
	open = func(display string) (*x11.Conn, error) {
		displays = append(displays, display)
		nc := s.Conn(t.Name())
		t.Cleanup(func() { nc.Close() })
		return x11.NewConn(nc)
	}

	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(append([]string{"--display", ":9"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	if len(displays) > 0 {
		assert.Equal(t, []string{":9"}, displays)
	}
	return out.String(), errOut.String(), err
}

func TestLsFonts(t *testing.T) {
	s := xtest.NewServer()
	s.Handle(50, func(req xtest.Request) []byte {
		var out []byte
		fonts := []x11.FontInfo{
			{Name: "fixed", MinCharOrByte2: 32, MaxCharOrByte2: 126, DefaultChar: 63,
				AllCharsExist: true, FontAscent: 11, FontDescent: 2,
				Properties: []x11.FontProp{{Name: 40}, {Name: 41}}},
			{Name: "-misc-arabic", MinCharOrByte2: 1, MaxCharOrByte2: 255, MaxByte1: 6,
				DrawDirection: x11.FontDrawRightToLeft, FontAscent: 9, FontDescent: 4},
		}
		for _, f := range fonts {
			w := x11.NewWriter(req.Order)
			f.Write(w)
			out = append(out, xtest.ReplyFrame(req.Order, req.Seq, byte(len(f.Name)), w.Bytes())...)
		}
		return append(out, xtest.ReplyFrame(req.Order, req.Seq, 0, make([]byte, 52))...)
	})

	stdout, _, err := run(t, s, "ls", "fonts")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"DIR  MIN  MAX EXIST DFLT PROP ASC DESC NAME",
		"<-- *  1 *255  some    0    0   9    4 -misc-arabic",
		"-->   32  126   all   63    2  11    2 fixed",
		"",
	}, "\n"), stdout)
}

func TestLsExtensions(t *testing.T) {
	s := xtest.NewServer()
	s.AddExtension("RANDR", xtest.Extension{Major: 140, FirstEvent: 89, FirstError: 147})
	s.AddExtension("BIG-REQUESTS", xtest.Extension{Major: 133})

	stdout, stderr, err := run(t, s, "ls", "extensions")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t,
		"BIG-REQUESTS => major opcode: 133, first event: 0, first error: 0\n"+
			"RANDR => major opcode: 140, first event: 89, first error: 147\n",
		stdout)
}

func TestLsMonitors(t *testing.T) {
	s := xtest.NewServer()
	s.AddExtension(randr.ExtName, xtest.Extension{Major: 140, FirstEvent: 89, FirstError: 147})
	name := s.InternAtom("DP-1")
	s.Handle(140, func(req xtest.Request) []byte {
		w := x11.NewWriter(req.Order)
		switch req.Data {
		case 0:
			w.Put32(1)
			w.Put32(6)
		default:
			w.Put32(0)
			w.Put32(1)
			w.Put32(1)
			w.Skip(12)
			randr.MonitorInfo{Name: x11.Atom(name), Primary: true, X: 0, Y: 0,
				Width: 2560, Height: 1440, WidthInMillimeters: 600, HeightInMillimeters: 340,
				Outputs: []randr.Output{0x4c}}.Write(w)
		}
		return xtest.ReplyFrame(req.Order, req.Seq, 0, w.Bytes())
	})

	stdout, stderr, err := run(t, s, "ls", "monitors")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "DP-1 2560x1440+0+0 (...) 600mmx340mm\n", stdout)
}

func TestLsMonitorsWithoutRandr(t *testing.T) {
	_, _, err := run(t, xtest.NewServer(), "ls", "monitors")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANDR")
}

func TestBadArgs(t *testing.T) {
	_, _, err := run(t, xtest.NewServer(), "ls", "fonts", "extra")
	assert.Error(t, err)
	_, _, err = run(t, xtest.NewServer(), "ls", "windows")
	assert.Error(t, err)
}
