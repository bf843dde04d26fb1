// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
)

const (
	clientLoggerName    = "connector"
	defaultInitialDelay = time.Second
	defaultMaximumDelay = 30 * time.Second
)

// State - connection state of a Client
type State int

// client states
const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateRegistered:
		return "Registered"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handler - receives every valid inbound envelope
type Handler interface {
	Handle(e *protocol.Envelope)
}

// RegisteredHandler - optional Handler extension, called on the run
// loop after every successful registration
type RegisteredHandler interface {
	Registered(c *Client)
}

// HandlerFunc - adapt a function to a Handler
type HandlerFunc func(e *protocol.Envelope)

// Handle - call the function
func (f HandlerFunc) Handle(e *protocol.Envelope) {
	f(e)
}

// Configuration - one relay endpoint
type Configuration struct {
	Address      string        `gluamapper:"web_socket_address" json:"web_socket_address"`
	Token        string        `gluamapper:"application_web_socket_call_id" json:"application_web_socket_call_id"`
	InitialDelay time.Duration `gluamapper:"-" json:"-"`
	MaximumDelay time.Duration `gluamapper:"-" json:"-"`
}

// Client - a reconnecting, registered relay connection
type Client struct {
	sync.Mutex

	log     *logger.L
	address string
	token   string
	dialer  Dialer
	handler Handler
	initial time.Duration
	maximum time.Duration

	state     State
	conn      Conn
	writeLock sync.Mutex

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// New - create a stopped client, a nil dialer selects WebSocketDialer
func New(configuration *Configuration, dialer Dialer, handler Handler) (*Client, error) {
	log := logger.New(clientLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == configuration || "" == configuration.Address || "" == configuration.Token || nil == handler {
		return nil, fault.ErrMissingParameters
	}

	if nil == dialer {
		dialer = WebSocketDialer{}
	}

	initial := configuration.InitialDelay
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	maximum := configuration.MaximumDelay
	if maximum <= 0 {
		maximum = defaultMaximumDelay
	}
	if maximum < initial {
		return nil, fmt.Errorf("%w: maximum delay below initial delay", fault.ErrInvalidConfiguration)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		log:     log,
		address: configuration.Address,
		token:   configuration.Token,
		dialer:  dialer,
		handler: handler,
		initial: initial,
		maximum: maximum,
		state:   StateDisconnected,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// Start - launch the run loop, only the first call has any effect
func (c *Client) Start() {
	c.Lock()
	defer c.Unlock()

	if c.started {
		return
	}
	c.started = true
	go c.loop()
}

// Run - background process form of Start/Close
func (c *Client) Run(args interface{}, shutdown <-chan struct{}) {
	c.Start()

	select {
	case <-shutdown:
		_ = c.Close()
	case <-c.done:
	}
}

// Address - relay address of this client
func (c *Client) Address() string {
	return c.address
}

// Token - own registration token
func (c *Client) Token() string {
	return c.token
}

// State - current state
func (c *Client) State() State {
	c.Lock()
	defer c.Unlock()
	return c.state
}

// Done - closed when the run loop has ended
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err - why the run loop ended, nil after Close
func (c *Client) Err() error {
	c.Lock()
	defer c.Unlock()
	return c.err
}

// Send - write an envelope, only while registered
func (c *Client) Send(e *protocol.Envelope) error {
	raw, err := e.Encode()
	if nil != err {
		return err
	}

	c.Lock()
	conn := c.conn
	state := c.state
	c.Unlock()

	if StateRegistered != state || nil == conn {
		return fault.ErrNotConnected
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return conn.WriteMessage(raw)
}

// Close - deregister (best effort) and stop the run loop
//
// waits for the loop to end, so must not be called from a Handler
func (c *Client) Close() error {
	c.stopOnce.Do(func() {
		err := c.Send(protocol.NewDeregister(c.token))
		if nil != err && fault.ErrNotConnected != err {
			c.log.Debugf("%s: deregister error: %s", c.address, err)
		}

		c.cancel()

		c.Lock()
		conn := c.conn
		started := c.started
		c.Unlock()

		if nil != conn {
			_ = conn.Close()
		}
		if !started {
			c.finish(nil)
		}
	})

	<-c.done
	return nil
}

func (c *Client) setState(state State, conn Conn) {
	c.Lock()
	c.state = state
	c.conn = conn
	c.Unlock()
}

func (c *Client) finish(err error) {
	c.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.err = err
	c.Unlock()
	close(c.done)
}

func (c *Client) stopping() bool {
	return nil != c.ctx.Err()
}

// the only goroutine that dials, so reconnects never race
func (c *Client) loop() {
	log := c.log
	delay := c.initial

	for {
		c.setState(StateConnecting, nil)
		log.Debugf("%s: connecting", c.address)

		conn, err := c.dialer.Dial(c.ctx, c.address)
		if nil == err {
			delay = c.initial
			err = c.session(conn)
		}
		c.setState(StateDisconnected, nil)

		if c.stopping() {
			log.Infof("%s: closed", c.address)
			c.finish(nil)
			return
		}

		if delay > c.maximum {
			log.Errorf("%s: giving up after error: %s", c.address, err)
			c.finish(fault.ErrConnectivityExhausted)
			return
		}

		log.Warnf("%s: error: %s  retry in: %s", c.address, err, delay)

		select {
		case <-time.After(delay):
		case <-c.ctx.Done():
			c.finish(nil)
			return
		}
		delay *= 2
	}
}

// register then deliver frames until the transport fails
func (c *Client) session(conn Conn) error {
	defer conn.Close()

	raw, err := protocol.NewRegister(c.token).Encode()
	if nil != err {
		return err
	}
	if err := conn.WriteMessage(raw); nil != err {
		return err
	}

	c.setState(StateRegistered, conn)
	c.log.Infof("%s: registered token: %q", c.address, c.token)

	// Close may have run before the state change
	if c.stopping() {
		return c.ctx.Err()
	}

	if r, ok := c.handler.(RegisteredHandler); ok {
		r.Registered(c)
	}

	for {
		data, err := conn.ReadMessage()
		if nil != err {
			return err
		}

		e, err := protocol.Decode(data)
		if nil != err {
			c.log.Warnf("%s: drop frame: %s", c.address, err)
			continue
		}
		c.handler.Handle(e)
	}
}
