// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
)

const (
	sendQueueSize      = 64
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = (pongTimeout * 9) / 10
	maximumMessageSize = 1 << 20
)

// one attached WebSocket client
type connection struct {
	log     *logger.L
	name    string
	ws      *websocket.Conn
	limiter *rate.Limiter

	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(log *logger.L, name string, ws *websocket.Conn, limiter *rate.Limiter) *connection {
	return &connection{
		log:     log,
		name:    name,
		ws:      ws,
		limiter: limiter,
		queue:   make(chan []byte, sendQueueSize),
		done:    make(chan struct{}),
	}
}

// Send - queue a frame for the writer, never blocks
func (c *connection) Send(raw []byte) error {
	select {
	case <-c.done:
		return fault.ErrNotConnected
	default:
	}

	select {
	case c.queue <- raw:
		return nil
	case <-c.done:
		return fault.ErrNotConnected
	default:
		return fault.ErrSendQueueFull
	}
}

func (c *connection) String() string {
	return c.name
}

// close is safe to call from either loop or from shutdown
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.ws.Close()
	})
}

// frames are handled strictly in arrival order
func (c *connection) readLoop(handle func(Connection, []byte)) {
	defer c.close()

	c.ws.SetReadLimit(maximumMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if nil != err {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("%s: read error: %s", c.name, err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongTimeout))

		if err := limit(c.limiter); nil != err {
			c.log.Warnf("%s: drop frame: %s", c.name, err)
			continue
		}

		handle(c, data)
	}
}

func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.queue:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); nil != err {
				c.log.Warnf("%s: write error: %s", c.name, err)
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); nil != err {
				c.log.Debugf("%s: ping error: %s", c.name, err)
				return
			}
		}
	}
}

// delay the caller until the limiter allows one more frame
func limit(limiter *rate.Limiter) error {
	r := limiter.Reserve()
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}
