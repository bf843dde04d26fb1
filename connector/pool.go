// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connector

import (
	"sync"
	"time"

	"github.com/bitmark-inc/spvrelay/fault"
)

// HandlerMaker - builds the Handler for frames arriving from one address
type HandlerMaker func(address string) Handler

// Pool - at most one running Client per relay address
type Pool struct {
	sync.Mutex

	token   string
	dialer  Dialer
	maker   HandlerMaker
	initial time.Duration
	maximum time.Duration
	clients map[string]*Client
}

// NewPool - every client of the pool registers the same token
func NewPool(token string, dialer Dialer, maker HandlerMaker) (*Pool, error) {
	if "" == token || nil == maker {
		return nil, fault.ErrMissingParameters
	}
	return &Pool{
		token:   token,
		dialer:  dialer,
		maker:   maker,
		clients: make(map[string]*Client),
	}, nil
}

// SetDelays - backoff for clients created after this call
func (p *Pool) SetDelays(initial time.Duration, maximum time.Duration) {
	p.Lock()
	defer p.Unlock()
	p.initial = initial
	p.maximum = maximum
}

// Get - the running client for address, started on first use
//
// a client whose loop has ended is replaced
func (p *Pool) Get(address string) (*Client, error) {
	p.Lock()
	defer p.Unlock()

	if c, ok := p.clients[address]; ok {
		select {
		case <-c.Done():
		default:
			return c, nil
		}
	}

	c, err := New(&Configuration{
		Address:      address,
		Token:        p.token,
		InitialDelay: p.initial,
		MaximumDelay: p.maximum,
	}, p.dialer, p.maker(address))
	if nil != err {
		return nil, err
	}
	p.clients[address] = c
	c.Start()

	return c, nil
}

// Remove - close and forget the client for address
func (p *Pool) Remove(address string) {
	p.Lock()
	c, ok := p.clients[address]
	delete(p.clients, address)
	p.Unlock()

	if ok {
		_ = c.Close()
	}
}

// Close - close every client
func (p *Pool) Close() {
	p.Lock()
	clients := p.clients
	p.clients = make(map[string]*Client)
	p.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}
