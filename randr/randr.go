// Package randr implements the requests of the RandR extension that report
// monitor layout.
//
// Init must be called once per connection before any request of this package
// is sent.
package randr

import (
	"fmt"

	"github.com/justshow/x11"
	"github.com/pkg/errors"
)

// ExtName is the name the server knows the extension by.
const ExtName = "RANDR"

// The version this package speaks. GetMonitors appeared in 1.5.
const (
	MajorVersion = 1
	MinorVersion = 5
)

// Event indexes, relative to the extension's first event.
const (
	ScreenChangeNotify = 0
	Notify             = 1
)

// Error names in code order, relative to the extension's first error.
var errorNames = []string{"BadOutput", "BadCrtc", "BadMode", "BadProvider"}

func init() {
	x11.RegisterExtension(ExtName, 2, errorNames)
}

// Init must be called before using the RandR extension. It makes sure the
// server has the extension and agrees on a version that has GetMonitors.
func Init(c *x11.Conn) error {
	info, err := c.Extension(ExtName)
	if err != nil {
		return err
	}
	if info == nil {
		return errors.Errorf("randr: no extension named %s could be found on the X server", ExtName)
	}

	ver, err := QueryVersion(c, MajorVersion, MinorVersion).Reply()
	if err != nil {
		return errors.Wrap(err, "randr: querying version")
	}
	if ver.MajorVersion < MajorVersion ||
		(ver.MajorVersion == MajorVersion && ver.MinorVersion < MinorVersion) {
		return errors.Errorf("randr: server has version %d.%d, need %d.%d",
			ver.MajorVersion, ver.MinorVersion, MajorVersion, MinorVersion)
	}
	return nil
}

// Output identifies a video output.
type Output uint32

// request supplies what every RandR request has in common.
type request struct{}

func (request) Extension() string { return ExtName }

func (request) Data() byte { return 0 }

// send issues req, keeping a send failure for the cookie's Reply.
func send(c *x11.Conn, req x11.Request) cookie {
	ck, err := c.SendRequest(req)
	return cookie{ck, err}
}

type cookie struct {
	*x11.Cookie
	err error
}

func (ck cookie) wait() (x11.Reply, error) {
	if ck.err != nil {
		return nil, ck.err
	}
	return ck.Cookie.Wait()
}

// QueryVersionRequest tells the server which version the client speaks and
// asks for the version the server will use.
type QueryVersionRequest struct {
	request
	MajorVersion uint32
	MinorVersion uint32
}

func (*QueryVersionRequest) Opcode() byte { return 0 }

func (*QueryVersionRequest) Size() int { return 12 }

func (r *QueryVersionRequest) Encode(w *x11.Writer) {
	w.Put32(r.MajorVersion)
	w.Put32(r.MinorVersion)
}

func (r *QueryVersionRequest) DecodeRequest(data byte, rd *x11.Reader) error {
	r.MajorVersion = rd.Get32()
	r.MinorVersion = rd.Get32()
	return rd.Err()
}

func (*QueryVersionRequest) NewReply() x11.Reply { return &QueryVersionReply{} }

type QueryVersionReply struct {
	Sequence     uint16
	Length       uint32
	MajorVersion uint32
	MinorVersion uint32
}

func (v *QueryVersionReply) Decode(r *x11.Reader) error {
	r.Skip(1)
	v.Sequence = r.Get16()
	v.Length = r.Get32()
	v.MajorVersion = r.Get32()
	v.MinorVersion = r.Get32()
	r.Skip(16)
	return r.Err()
}

// QueryVersionCookie is a cookie used only for QueryVersion requests.
type QueryVersionCookie struct {
	cookie
}

// QueryVersion sends a QueryVersion request.
func QueryVersion(c *x11.Conn, major, minor uint32) QueryVersionCookie {
	return QueryVersionCookie{send(c, &QueryVersionRequest{MajorVersion: major, MinorVersion: minor})}
}

// Reply blocks and returns the reply data for a QueryVersion request.
func (cook QueryVersionCookie) Reply() (*QueryVersionReply, error) {
	rep, err := cook.wait()
	if err != nil {
		return nil, err
	}
	return rep.(*QueryVersionReply), nil
}

// GetMonitorsRequest lists the monitors of the screen window belongs to.
// With GetActive unset the server reports its current configuration without
// polling the hardware.
type GetMonitorsRequest struct {
	request
	Window    x11.Id
	GetActive bool
}

func (*GetMonitorsRequest) Opcode() byte { return 42 }

func (*GetMonitorsRequest) Size() int { return 12 }

func (r *GetMonitorsRequest) Encode(w *x11.Writer) {
	w.Put32(uint32(r.Window))
	w.PutBool(r.GetActive)
	w.Skip(3)
}

func (r *GetMonitorsRequest) DecodeRequest(data byte, rd *x11.Reader) error {
	r.Window = x11.Id(rd.Get32())
	r.GetActive = rd.GetBool()
	rd.Skip(3)
	return rd.Err()
}

func (*GetMonitorsRequest) NewReply() x11.Reply { return &GetMonitorsReply{} }

// MonitorInfo describes one monitor. Name is an atom; resolve it with
// Conn.AtomName.
type MonitorInfo struct {
	Name                x11.Atom
	Primary             bool
	Automatic           bool
	X, Y                int16
	Width               uint16
	Height              uint16
	WidthInMillimeters  uint32
	HeightInMillimeters uint32
	Outputs             []Output
}

func (m MonitorInfo) String() string {
	return fmt.Sprintf("%dx%d+%d+%d %dmmx%dmm", m.Width, m.Height, m.X, m.Y,
		m.WidthInMillimeters, m.HeightInMillimeters)
}

// Write encodes m as it appears in a GetMonitors reply.
func (m MonitorInfo) Write(w *x11.Writer) {
	w.Put32(uint32(m.Name))
	w.PutBool(m.Primary)
	w.PutBool(m.Automatic)
	w.Put16(uint16(len(m.Outputs)))
	w.Put16(uint16(m.X))
	w.Put16(uint16(m.Y))
	w.Put16(m.Width)
	w.Put16(m.Height)
	w.Put32(m.WidthInMillimeters)
	w.Put32(m.HeightInMillimeters)
	for _, o := range m.Outputs {
		w.Put32(uint32(o))
	}
}

func readMonitorInfo(r *x11.Reader) MonitorInfo {
	var m MonitorInfo
	m.Name = x11.Atom(r.Get32())
	m.Primary = r.GetBool()
	m.Automatic = r.GetBool()
	n := int(r.Get16())
	m.X = int16(r.Get16())
	m.Y = int16(r.Get16())
	m.Width = r.Get16()
	m.Height = r.Get16()
	m.WidthInMillimeters = r.Get32()
	m.HeightInMillimeters = r.Get32()
	if n*4 > r.Remaining() {
		// Let the reader record the overrun.
		r.Skip(n * 4)
		return m
	}
	m.Outputs = make([]Output, n)
	for i := range m.Outputs {
		m.Outputs[i] = Output(r.Get32())
	}
	return m
}

type GetMonitorsReply struct {
	Sequence  uint16
	Length    uint32
	Timestamp uint32
	NOutputs  uint32
	Monitors  []MonitorInfo
}

func (v *GetMonitorsReply) Decode(r *x11.Reader) error {
	r.Skip(1)
	v.Sequence = r.Get16()
	v.Length = r.Get32()
	v.Timestamp = r.Get32()
	n := int(r.Get32())
	v.NOutputs = r.Get32()
	r.Skip(12)
	// Each monitor takes at least 24 bytes.
	if n*24 > r.Remaining() {
		return &x11.DecodeError{Msg: fmt.Sprintf("%d monitors in %d bytes", n, r.Remaining())}
	}
	v.Monitors = make([]MonitorInfo, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		v.Monitors = append(v.Monitors, readMonitorInfo(r))
	}
	return r.Err()
}

// GetMonitorsCookie is a cookie used only for GetMonitors requests.
type GetMonitorsCookie struct {
	cookie
}

// GetMonitors sends a GetMonitors request.
func GetMonitors(c *x11.Conn, window x11.Id, getActive bool) GetMonitorsCookie {
	return GetMonitorsCookie{send(c, &GetMonitorsRequest{Window: window, GetActive: getActive})}
}

// Reply blocks and returns the reply data for a GetMonitors request.
func (cook GetMonitorsCookie) Reply() (*GetMonitorsReply, error) {
	rep, err := cook.wait()
	if err != nil {
		return nil, err
	}
	return rep.(*GetMonitorsReply), nil
}
