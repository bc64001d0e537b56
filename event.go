package x11

import (
	"fmt"
)

// Core event codes.
const (
	KeyPress         = 2
	KeyRelease       = 3
	ButtonPress      = 4
	ButtonRelease    = 5
	MotionNotify     = 6
	EnterNotify      = 7
	LeaveNotify      = 8
	FocusIn          = 9
	FocusOut         = 10
	KeymapNotify     = 11
	Expose           = 12
	GraphicsExpose   = 13
	NoExpose         = 14
	VisibilityNotify = 15
	CreateNotify     = 16
	DestroyNotify    = 17
	UnmapNotify      = 18
	MapNotify        = 19
	MapRequest       = 20
	ReparentNotify   = 21
	ConfigureNotify  = 22
	ConfigureRequest = 23
	GravityNotify    = 24
	ResizeRequest    = 25
	CirculateNotify  = 26
	CirculateRequest = 27
	PropertyNotify   = 28
	SelectionClear   = 29
	SelectionRequest = 30
	SelectionNotify  = 31
	ColormapNotify   = 32
	ClientMessage    = 33
	MappingNotify    = 34
	GenericEvent     = 35

	lastCoreEvent = GenericEvent
)

var coreEventNames = [...]string{
	KeyPress:         "KeyPress",
	KeyRelease:       "KeyRelease",
	ButtonPress:      "ButtonPress",
	ButtonRelease:    "ButtonRelease",
	MotionNotify:     "MotionNotify",
	EnterNotify:      "EnterNotify",
	LeaveNotify:      "LeaveNotify",
	FocusIn:          "FocusIn",
	FocusOut:         "FocusOut",
	KeymapNotify:     "KeymapNotify",
	Expose:           "Expose",
	GraphicsExpose:   "GraphicsExpose",
	NoExpose:         "NoExpose",
	VisibilityNotify: "VisibilityNotify",
	CreateNotify:     "CreateNotify",
	DestroyNotify:    "DestroyNotify",
	UnmapNotify:      "UnmapNotify",
	MapNotify:        "MapNotify",
	MapRequest:       "MapRequest",
	ReparentNotify:   "ReparentNotify",
	ConfigureNotify:  "ConfigureNotify",
	ConfigureRequest: "ConfigureRequest",
	GravityNotify:    "GravityNotify",
	ResizeRequest:    "ResizeRequest",
	CirculateNotify:  "CirculateNotify",
	CirculateRequest: "CirculateRequest",
	PropertyNotify:   "PropertyNotify",
	SelectionClear:   "SelectionClear",
	SelectionRequest: "SelectionRequest",
	SelectionNotify:  "SelectionNotify",
	ColormapNotify:   "ColormapNotify",
	ClientMessage:    "ClientMessage",
	MappingNotify:    "MappingNotify",
	GenericEvent:     "GenericEvent",
}

// Event is an event record as read off the wire. Its payload is left
// undecoded.
type Event struct {
	Code      byte   // event code with the send-event bit cleared
	SendEvent bool   // generated by another client with SendEvent
	Sequence  uint16 // last request processed; zero for KeymapNotify
	Extension string // owning extension, "" for core events
	Index     int    // Code relative to the extension's first event
	Data      []byte // the whole frame: 32 bytes, more for generic events
}

func (ev Event) String() string {
	if ev.Extension != "" {
		return fmt.Sprintf("%s event %d (code %d, sequence %d)", ev.Extension, ev.Index, ev.Code, ev.Sequence)
	}
	if int(ev.Code) >= len(coreEventNames) || coreEventNames[ev.Code] == "" {
		return fmt.Sprintf("event %d (sequence %d)", ev.Code, ev.Sequence)
	}
	return fmt.Sprintf("%s (code %d, sequence %d)", coreEventNames[ev.Code], ev.Code, ev.Sequence)
}

// queue is a FIFO of unsolicited events or errors. A positive limit caps it.
type queue[T any] struct {
	data  []T
	a, b  int
	limit int
}

// push appends item, reporting false when the queue is full.
func (q *queue[T]) push(item T) bool {
	if q.limit > 0 && q.b-q.a >= q.limit {
		return false
	}
	if q.b == len(q.data) {
		if q.a > 0 {
			copy(q.data, q.data[q.a:q.b])
			q.a, q.b = 0, q.b-q.a
		} else {
			newData := make([]T, (len(q.data)*3)/2+4)
			copy(newData, q.data)
			q.data = newData
		}
	}
	q.data[q.b] = item
	q.b++
	return true
}

func (q *queue[T]) pop() (T, bool) {
	var zero T
	if q.a == q.b {
		return zero, false
	}
	item := q.data[q.a]
	q.data[q.a] = zero
	q.a++
	return item, true
}

func (q *queue[T]) len() int { return q.b - q.a }

// drain empties the queue in order.
func (q *queue[T]) drain() []T {
	items := make([]T, 0, q.len())
	for {
		item, ok := q.pop()
		if !ok {
			return items
		}
		items = append(items, item)
	}
}
