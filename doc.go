/*
Package x11 implements the client side of the X11 core protocol: connection
setup and authentication, request encoding, and the matching of replies,
errors and events coming back from the server to the requests that caused
them.

It keeps the cookie/reply model of XCB. Sending a request returns a cookie
right away; the request is buffered and written out on the next Flush or
when something waits on it. Waiting on a reply cookie returns the reply or
the error the server sent for that request. Requests without a reply are
unchecked by default: errors they cause go to the unsolicited error queue,
drained with Errors. Their Checked variants return a cookie whose Check
reports the error instead.

A Conn does all of its work on the goroutine that calls it and starts none of
its own. It is safe for concurrent use; calls are serialized by a mutex.

Example

This is a terse example that connects to X, creates a window, listens to
StructureNotify and Key{Press,Release} events, maps the window and prints
every event received. A commented version lives in examples/window.

	package main

	import (
		"fmt"

		"github.com/justshow/x11"
	)

	func main() {
		X, err := x11.Open()
		if err != nil {
			fmt.Println(err)
			return
		}
		defer X.Close()

		screen := X.DefaultScreen()
		wid, _ := X.NewId()
		X.CreateWindow(&x11.CreateWindowRequest{
			Depth:     screen.RootDepth,
			Wid:       wid,
			Parent:    screen.Root,
			Width:     500,
			Height:    500,
			Class:     x11.WindowClassInputOutput,
			Visual:    screen.RootVisual,
			ValueMask: x11.CwBackPixel | x11.CwEventMask,
			ValueList: []uint32{ // values must be in the order defined by the protocol
				0xffffffff,
				x11.EventMaskStructureNotify |
					x11.EventMaskKeyPress |
					x11.EventMaskKeyRelease},
		})

		X.MapWindow(wid)
		for {
			ev, err := X.WaitForEvent()
			if err != nil {
				fmt.Println(err)
				return
			}
			fmt.Printf("Event: %s\n", ev)
			for _, xerr := range X.Errors() {
				fmt.Printf("Error: %s\n", xerr)
			}
		}
	}

Extensions

An extension package registers the number of events and the error names of
its extension from init, and its Init function asks the server for the
extension's opcodes with Conn.Extension. Requests of an extension cannot be
sent before that. See the randr sub-package.

Errors

A ProtocolError is an error frame sent by the server; the connection stays
usable. So does ErrIdsExhausted from NewId. Every other error returned by a
Conn is fatal: the connection is closed, and every later call returns the same
error. IsFatal tells them apart.

Sequence numbers

Sequence numbers are 16 bits wide on the wire and wrap around. Conn tracks
how far the newest request has run ahead of the oldest unanswered one and
forces a round trip before the two could be confused.

Logging and metrics

Connections log through logrus, to Logger unless WithLogger is given.
WithRegisterer exposes request, reply, error, event and byte counters to
Prometheus.
*/
package x11
