// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connector

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout   = 15 * time.Second
	maximumMessageSize = 1 << 20
)

// Conn - one established transport
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer - opens a transport to a relay address
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// WebSocketDialer - the default Dialer
type WebSocketDialer struct {
	Dialer *websocket.Dialer
}

// Dial - open a WebSocket to address (ws:// or wss://)
func (d WebSocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := d.Dialer
	if nil == dialer {
		dialer = &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		}
	}

	ws, _, err := dialer.DialContext(ctx, address, nil)
	if nil != err {
		return nil, err
	}
	ws.SetReadLimit(maximumMessageSize)

	return &webSocketConn{ws: ws}, nil
}

type webSocketConn struct {
	ws *websocket.Conn
}

func (c *webSocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *webSocketConn) WriteMessage(data []byte) error {
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *webSocketConn) Close() error {
	return c.ws.Close()
}
