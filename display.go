// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const x11UnixDir = "/tmp/.X11-unix/X"

// displayAddr is a parsed DISPLAY string.
type displayAddr struct {
	network string // "unix" or "tcp"
	address string // socket path or host:port
	host    string // for Xauthority lookup; "" for local connections
	display string // display number
	screen  int
}

// parseDisplay interprets a DISPLAY string.
//
// Examples:
//	":1"                 -> unix /tmp/.X11-unix/X1
//	"unix/:1"            -> unix /tmp/.X11-unix/X1
//	"/tmp/launch-123/:0" -> unix /tmp/launch-123/:0
//	"hostname:2.1"       -> tcp hostname:6002, screen 1
//	"tcp/hostname:1.0"   -> tcp hostname:6001
func parseDisplay(display string) (displayAddr, error) {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return displayAddr{}, errors.New("x11: no display given and $DISPLAY is empty")
	}

	colon := strings.LastIndex(display, ":")
	if colon < 0 {
		return displayAddr{}, errors.Errorf("x11: bad display string %q", display)
	}

	var a displayAddr
	a.network = "unix"
	a.host = display[:colon]
	if strings.HasPrefix(a.host, "/") {
		// launchd-style socket path; the whole string names the socket.
		a.address = display
		a.host = ""
	}
	if i := strings.LastIndex(a.host, "/"); i >= 0 {
		proto := a.host[:i]
		a.host = a.host[i+1:]
		switch proto {
		case "unix":
		case "tcp", "inet":
			a.network = "tcp"
		default:
			return displayAddr{}, errors.Errorf("x11: unknown transport %q in display %q", proto, display)
		}
	} else if a.host != "" {
		a.network = "tcp"
	}

	number := display[colon+1:]
	if i := strings.Index(number, "."); i >= 0 {
		scr, err := strconv.Atoi(number[i+1:])
		if err != nil {
			return displayAddr{}, errors.Wrapf(err, "x11: bad screen in display %q", display)
		}
		a.screen = scr
		number = number[:i]
	}
	n, err := strconv.Atoi(number)
	if err != nil || n < 0 {
		return displayAddr{}, errors.Errorf("x11: bad display number in %q", display)
	}
	a.display = number

	switch {
	case a.address != "":
	case a.network == "tcp":
		a.address = a.host + ":" + strconv.Itoa(6000+n)
	default:
		a.address = x11UnixDir + number
	}
	return a, nil
}
