// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package x11

import (
	"encoding/binary"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Option configures a connection.
type Option func(*config)

type config struct {
	display    string
	authSet    bool
	authName   string
	authData   []byte
	order      binary.ByteOrder
	queueLimit int
	logger     *logrus.Logger
	registerer prometheus.Registerer
	dial       func(network, address string) (net.Conn, error)
}

func defaultConfig() config {
	return config{
		order:  nativeOrder(),
		logger: Logger,
		dial:   net.Dial,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDisplay selects the display instead of $DISPLAY. See OpenDisplay for
// the accepted forms.
func WithDisplay(display string) Option {
	return func(c *config) {
		c.display = display
	}
}

// WithAuth sends the given authorization protocol name and data instead of
// looking them up in the Xauthority file.
func WithAuth(name string, data []byte) Option {
	return func(c *config) {
		c.authSet = true
		c.authName = name
		c.authData = data
	}
}

// WithoutAuth sends an empty authorization.
func WithoutAuth() Option {
	return WithAuth("", nil)
}

// WithByteOrder declares the byte order used for all traffic. The default is
// the host's native order.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		c.order = normalizeOrder(order)
	}
}

// WithQueueLimit bounds the unsolicited event queue and the unsolicited error
// queue to n entries each. When either would grow past n the connection fails
// with ErrQueueOverflow. Zero, the default, leaves both unbounded.
func WithQueueLimit(n int) Option {
	return func(c *config) {
		c.queueLimit = n
	}
}

// WithLogger replaces the package Logger for one connection.
func WithLogger(lg *logrus.Logger) Option {
	return func(c *config) {
		c.logger = lg
	}
}

// WithRegisterer registers the connection's metrics with reg. Without it the
// metrics are still collected but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithDialer replaces net.Dial when OpenDisplay connects.
func WithDialer(dial func(network, address string) (net.Conn, error)) Option {
	return func(c *config) {
		c.dial = dial
	}
}
