// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/connector"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/tunnel"
)

const (
	payerLoggerName = "payer"
	replyQueueSize  = 16
)

// Configuration - payer identity
type Configuration struct {
	Token string `gluamapper:"application_web_socket_call_id" json:"application_web_socket_call_id"`
}

// Reply - a decrypted message from a merchant
type Reply struct {
	Address   string
	SessionId uint64
	Text      string
}

// Payer - endpoint state
type Payer struct {
	sync.Mutex

	log     *logger.L
	token   string
	store   session.Store
	pool    *connector.Pool
	replies chan Reply

	// closed once the handshake for the current session has been sent
	sent map[string]chan struct{}
}

// New - create a payer, a nil dialer selects WebSocket
func New(configuration *Configuration, store session.Store, dialer connector.Dialer) (*Payer, error) {
	log := logger.New(payerLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == configuration || "" == configuration.Token || nil == store {
		return nil, fault.ErrMissingParameters
	}

	p := &Payer{
		log:     log,
		token:   configuration.Token,
		store:   store,
		replies: make(chan Reply, replyQueueSize),
		sent:    make(map[string]chan struct{}),
	}

	pool, err := connector.NewPool(configuration.Token, dialer, func(address string) connector.Handler {
		return &endpoint{
			payer:   p,
			address: address,
		}
	})
	if nil != err {
		return nil, err
	}
	p.pool = pool

	return p, nil
}

// Pool - the relay connections, one per merchant address
func (p *Payer) Pool() *connector.Pool {
	return p.pool
}

// Replies - decrypted merchant replies
func (p *Payer) Replies() <-chan Reply {
	return p.replies
}

// Scan - pair with the merchant named by an invitation token
//
// a merchant already known at the same address is replaced
func (p *Payer) Scan(token string) (*session.Record, error) {
	inv, err := protocol.DecodeInvitation(token)
	if nil != err {
		return nil, err
	}

	keys, err := tunnel.GenerateKeyMaterial()
	if nil != err {
		return nil, err
	}

	if previous, err := p.store.FindByTransportAddress(inv.SocketAddress); nil == err {
		p.log.Infof("replace merchant: %q at: %q", previous.Name, previous.TransportAddress)
		if err := p.store.Remove(previous.LocalId); nil != err {
			return nil, err
		}
	}

	r := &session.Record{
		RemoteId:         inv.Id,
		PeerCallId:       inv.CallId,
		PeerPublicKey:    inv.PublicKeyHex,
		PeerLabel:        inv.IvHex,
		TransportAddress: inv.SocketAddress,
		Name:             inv.Name,
		Keys:             *keys,
	}
	id, err := p.store.Create(r)
	if nil != err {
		return nil, err
	}
	r.LocalId = id

	p.Lock()
	p.sent[inv.SocketAddress] = make(chan struct{})
	p.Unlock()

	p.log.Infof("merchant: %q  session: %d  at: %q", inv.Name, id, inv.SocketAddress)

	// a new client announces itself when it registers, an
	// existing one is already registered
	client, err := p.pool.Get(inv.SocketAddress)
	if nil != err {
		return nil, err
	}
	if connector.StateRegistered == client.State() {
		if err := p.handshake(client, inv.SocketAddress); nil != err {
			p.log.Warnf("handshake to: %q  error: %s", inv.SocketAddress, err)
		}
	}

	return r, nil
}

// SendProof - encrypt a submission for the merchant at address
func (p *Payer) SendProof(address string, submission *protocol.ProofSubmission) error {
	r, err := p.store.FindByTransportAddress(address)
	if nil != err {
		return err
	}

	data, err := json.Marshal(submission)
	if nil != err {
		return err
	}

	chunks, err := tunnel.Encrypt(data, r.PeerPublicKey, r.PeerLabel)
	if nil != err {
		return err
	}

	client, err := p.pool.Get(address)
	if nil != err {
		return err
	}

	return client.Send(protocol.NewData(protocol.EventPresentSpvData, r.RemoteId, r.PeerCallId, chunks))
}

// WaitHandshake - block until the merchant at address has been sent
// this payer's key material on the current connection
func (p *Payer) WaitHandshake(ctx context.Context, address string) error {
	select {
	case <-p.handshakeSent(address):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Payer) handshakeSent(address string) chan struct{} {
	p.Lock()
	defer p.Unlock()

	ch, ok := p.sent[address]
	if !ok {
		ch = make(chan struct{})
		p.sent[address] = ch
	}
	return ch
}

func (p *Payer) markHandshake(address string) {
	p.Lock()
	defer p.Unlock()

	ch, ok := p.sent[address]
	if !ok {
		ch = make(chan struct{})
		p.sent[address] = ch
	}

	select {
	case <-ch:
	default:
		close(ch)
	}
}

// Close - deregister from every relay
func (p *Payer) Close() {
	p.pool.Close()
}

// send own token and key material to the merchant at address
func (p *Payer) handshake(client *connector.Client, address string) error {
	r, err := p.store.FindByTransportAddress(address)
	if nil != err {
		return err
	}

	data, err := json.Marshal(&protocol.Handshake{
		CallId:       p.token,
		PublicKeyHex: r.Keys.PublicKey,
		IvHex:        r.Keys.Label,
	})
	if nil != err {
		return err
	}

	chunks, err := tunnel.Encrypt(data, r.PeerPublicKey, r.PeerLabel)
	if nil != err {
		return err
	}

	err = client.Send(protocol.NewData(protocol.EventPresentData, r.RemoteId, r.PeerCallId, chunks))
	if nil != err {
		return err
	}

	p.log.Debugf("handshake sent to: %q  session: %d", address, r.RemoteId)
	p.markHandshake(address)
	return nil
}

// frames arriving from one relay address
type endpoint struct {
	payer   *Payer
	address string
}

func (h *endpoint) Registered(c *connector.Client) {
	if err := h.payer.handshake(c, h.address); nil != err {
		h.payer.log.Warnf("handshake to: %q  error: %s", h.address, err)
	}
}

func (h *endpoint) Handle(e *protocol.Envelope) {
	p := h.payer

	if err := e.Accept(protocol.EventPresentData); nil != err {
		p.log.Warnf("from: %q  rejected: %s", h.address, err)
		return
	}

	r, err := p.store.FindByTransportAddress(h.address)
	if nil != err {
		p.log.Warnf("from: %q  no merchant: %s", h.address, err)
		return
	}

	plaintext, err := tunnel.Decrypt(e.Message, &r.Keys)
	if nil != err {
		p.log.Warnf("from: %q  drop reply: %s", h.address, err)
		return
	}

	reply := Reply{
		Address:   h.address,
		SessionId: r.LocalId,
		Text:      string(plaintext),
	}

	select {
	case p.replies <- reply:
	default:
		p.log.Warnf("from: %q  reply queue full, dropped: %q", h.address, reply.Text)
	}
}
