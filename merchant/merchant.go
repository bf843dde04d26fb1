// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merchant

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/blockdata"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/publish"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/spv"
)

const (
	merchantLoggerName = "merchant"
	verifyTimeout      = 2 * time.Minute
)

// Configuration - merchant identity and policy
type Configuration struct {
	ApplicationName         string   `gluamapper:"application_name" json:"application_name"`
	Token                   string   `gluamapper:"application_web_socket_call_id" json:"application_web_socket_call_id"`
	RelayAddress            string   `gluamapper:"web_socket_address" json:"web_socket_address"`
	RequireClientMerklePath bool     `gluamapper:"require_client_merkle_path" json:"require_client_merkle_path"`
	Listen                  []string `gluamapper:"listen" json:"listen"`
}

// Verifier - decides a bundle
type Verifier interface {
	Verify(ctx context.Context, bundle *spv.Bundle) *spv.Result
}

// Sender - writes envelopes to the relay
type Sender interface {
	Send(e *protocol.Envelope) error
}

// Publisher - receives every verdict
type Publisher interface {
	Publish(v *publish.Verdict) error
}

// Merchant - endpoint state
type Merchant struct {
	sync.Mutex

	log *logger.L

	name        string
	token       string
	address     string
	listen      []string
	requirePath bool

	store     session.Store
	verifier  Verifier
	proofs    blockdata.ProofSource
	publisher Publisher
	sender    Sender

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New - create a merchant, proofs and publisher may be nil
func New(configuration *Configuration, store session.Store, verifier Verifier, proofs blockdata.ProofSource, publisher Publisher) (*Merchant, error) {
	log := logger.New(merchantLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == configuration || nil == store || nil == verifier {
		return nil, fault.ErrMissingParameters
	}
	if "" == configuration.Token || "" == configuration.RelayAddress {
		log.Error("application_web_socket_call_id and web_socket_address are required")
		return nil, fault.ErrMissingParameters
	}
	if !configuration.RequireClientMerklePath && nil == proofs {
		log.Warn("no proof source: submissions without merkle paths cannot be completed")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Merchant{
		log:         log,
		name:        configuration.ApplicationName,
		token:       configuration.Token,
		address:     configuration.RelayAddress,
		listen:      configuration.Listen,
		requirePath: configuration.RequireClientMerklePath,
		store:       store,
		verifier:    verifier,
		proofs:      proofs,
		publisher:   publisher,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// SetSender - attach the relay connection
func (m *Merchant) SetSender(sender Sender) {
	m.Lock()
	m.sender = sender
	m.Unlock()
}

func (m *Merchant) getSender() Sender {
	m.Lock()
	defer m.Unlock()
	return m.sender
}

// Handle - dispatch one inbound envelope
//
// handshakes are applied in arrival order, proof submissions are
// verified in their own goroutine
func (m *Merchant) Handle(e *protocol.Envelope) {
	if err := e.Accept(protocol.EventPresentData, protocol.EventPresentSpvData); nil != err {
		m.log.Warnf("session: %d  rejected: %s", e.Id, err)
		return
	}

	switch e.Event {
	case protocol.EventPresentData:
		if err := m.handshake(e); nil != err {
			m.log.Warnf("session: %d  handshake dropped: %s", e.Id, err)
		}

	case protocol.EventPresentSpvData:
		m.Lock()
		if nil != m.ctx.Err() {
			m.Unlock()
			m.log.Warnf("session: %d  proof dropped during shutdown", e.Id)
			return
		}
		m.wg.Add(1)
		m.Unlock()

		go func() {
			defer m.wg.Done()
			if err := m.submission(e); nil != err {
				m.log.Warnf("session: %d  submission dropped: %s", e.Id, err)
			}
		}()
	}
}

// Close - cancel and wait for verifications in progress
func (m *Merchant) Close() {
	m.Lock()
	m.cancel()
	m.Unlock()

	m.wg.Wait()
}
