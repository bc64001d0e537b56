// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Address families of Xauthority entries, as per /usr/include/X11/Xauth.h.
const (
	familyLocal = 256
	familyWild  = 65535
)

func getU16BE(r io.Reader, b []byte) (uint16, error) {
	_, err := io.ReadFull(r, b[0:2])
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 + uint16(b[1]), nil
}

func getBytes(r io.Reader, b []byte) ([]byte, error) {
	n, err := getU16BE(r, b)
	if err != nil {
		return nil, err
	}
	if int(n) > len(b) {
		return nil, errors.New("xauthority: field too long for buffer")
	}
	_, err = io.ReadFull(r, b[0:n])
	if err != nil {
		return nil, err
	}
	return b[0:n], nil
}

func getString(r io.Reader, b []byte) (string, error) {
	b, err := getBytes(r, b)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// authorityFile locates the Xauthority file from $XAUTHORITY or $HOME.
func authorityFile() (string, error) {
	if fname := os.Getenv("XAUTHORITY"); fname != "" {
		return fname, nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", errors.New("xauthority not found: $XAUTHORITY, $HOME not set")
	}
	return filepath.Join(home, ".Xauthority"), nil
}

// readAuthority reads the X authority file for the DISPLAY.
// If hostname == "" or hostname == "localhost",
// readAuthority uses the system's hostname (as returned by os.Hostname) instead.
// A file without a matching entry yields an empty name and no error.
func readAuthority(hostname, display string) (name string, data []byte, err error) {
	fname, err := authorityFile()
	if err != nil {
		return "", nil, err
	}
	r, err := os.Open(fname)
	if err != nil {
		return "", nil, errors.Wrap(err, "xauthority")
	}
	defer r.Close()
	return findAuthority(bufio.NewReader(r), hostname, display)
}

// findAuthority scans Xauthority entries for the first one that matches the
// host and display number.
func findAuthority(r io.Reader, hostname, display string) (string, []byte, error) {
	// b is a scratch buffer to use and should be at least 256 bytes long
	// (i.e. it should be able to hold a hostname).
	var b [256]byte

	if hostname == "" || hostname == "localhost" {
		h, err := os.Hostname()
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}
		hostname = h
	}

	for {
		family, err := getU16BE(r, b[0:2])
		if err == io.EOF {
			return "", nil, nil
		}
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}

		addr, err := getString(r, b[0:])
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}

		disp, err := getString(r, b[0:])
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}

		name0, err := getString(r, b[0:])
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}

		data0, err := getBytes(r, b[0:])
		if err != nil {
			return "", nil, errors.Wrap(err, "xauthority")
		}

		if disp != "" && disp != display {
			continue
		}
		if family == familyWild || family == familyLocal && addr == hostname {
			data := make([]byte, len(data0))
			copy(data, data0)
			return name0, data, nil
		}
	}
}
