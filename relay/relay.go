// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
)

const relayLoggerName = "relay"

// Connection - the sending side of one attached client
type Connection interface {
	Send(raw []byte) error
	String() string
}

// Relay - the route table
type Relay struct {
	sync.Mutex

	log *logger.L

	routes map[string]Connection
	tokens map[Connection]map[string]struct{}
}

// New - create an empty route table
func New() (*Relay, error) {
	log := logger.New(relayLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	return &Relay{
		log:    log,
		routes: make(map[string]Connection),
		tokens: make(map[Connection]map[string]struct{}),
	}, nil
}

// Register - map token to the connection, a later registration of
// the same token replaces the earlier one
//
// an empty token is never registered, pre-session envelopes carry an
// empty call id
func (r *Relay) Register(token string, conn Connection) {
	if "" == token {
		r.log.Warnf("from: %s drop: empty token registration", conn)
		return
	}

	r.Lock()
	defer r.Unlock()

	if previous, ok := r.routes[token]; ok && previous != conn {
		delete(r.tokens[previous], token)
		r.log.Debugf("token: %q moved from: %s to: %s", token, previous, conn)
	}

	r.routes[token] = conn

	set, ok := r.tokens[conn]
	if !ok {
		set = make(map[string]struct{})
		r.tokens[conn] = set
	}
	set[token] = struct{}{}

	r.log.Infof("register token: %q on: %s", token, conn)
}

// Deregister - remove a token
func (r *Relay) Deregister(token string) {
	r.Lock()
	defer r.Unlock()

	conn, ok := r.routes[token]
	if !ok {
		return
	}
	delete(r.routes, token)
	delete(r.tokens[conn], token)

	r.log.Infof("deregister token: %q from: %s", token, conn)
}

// Disconnect - remove every token held by the connection
// and return how many were removed
func (r *Relay) Disconnect(conn Connection) int {
	r.Lock()
	defer r.Unlock()

	set := r.tokens[conn]
	delete(r.tokens, conn)

	n := 0
	for token := range set {
		if r.routes[token] == conn {
			delete(r.routes, token)
			n += 1
		}
	}

	r.log.Infof("disconnect: %s removed: %d tokens", conn, n)
	return n
}

// Forward - queue raw bytes for the holder of target
func (r *Relay) Forward(target string, raw []byte) error {
	r.Lock()
	conn, ok := r.routes[target]
	r.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", fault.ErrRouteNotFound, target)
	}

	return conn.Send(raw)
}

// Presence - online status of each id in request order
func (r *Relay) Presence(ids []string) []protocol.Status {
	r.Lock()
	defer r.Unlock()

	result := make([]protocol.Status, len(ids))
	for i, id := range ids {
		_, ok := r.routes[id]
		result[i] = protocol.Status{
			Id:     id,
			Status: ok,
		}
	}
	return result
}

// Handle - act on one inbound frame from conn
//
// malformed frames and frames for unknown targets are dropped,
// the sender is never told
func (r *Relay) Handle(conn Connection, raw []byte) {
	e, err := protocol.Decode(raw)
	if nil != err {
		r.log.Warnf("from: %s drop: %s", conn, err)
		return
	}

	switch e.Event {
	case protocol.EventPresentApplicationId:
		r.Register(e.Token(), conn)

	case protocol.EventPresentRemoveApplicationId:
		r.Deregister(e.Token())

	default:
		err := r.Forward(e.CallId, raw)
		if nil != err {
			if fault.IsErrNotFound(err) {
				r.log.Debugf("from: %s event: %q drop: %s", conn, e.Name, err)
			} else {
				r.log.Warnf("from: %s event: %q to: %q error: %s", conn, e.Name, e.CallId, err)
			}
			return
		}
		r.log.Tracef("from: %s event: %q to: %q", conn, e.Name, e.CallId)
	}
}
