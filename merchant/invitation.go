// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merchant

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/tunnel"
)

const (
	readWriteTimeout = 30 * time.Second
	shutdownTimeout  = 5 * time.Second
	invitationPath   = "/invitation"
)

// Invitation - a new session and the token a payer scans
type Invitation struct {
	Id    uint64 `json:"id"`
	Token string `json:"token"`
}

// NewInvitation - generate fresh keys, store an unpaired session and
// encode the invitation for it
func (m *Merchant) NewInvitation() (*Invitation, error) {
	keys, err := tunnel.GenerateKeyMaterial()
	if nil != err {
		return nil, err
	}

	id, err := m.store.Create(&session.Record{
		TransportAddress: m.address,
		Name:             m.name,
		Keys:             *keys,
	})
	if nil != err {
		return nil, err
	}

	inv := &protocol.Invitation{
		SocketAddress: m.address,
		Id:            int64(id),
		Name:          m.name,
		CallId:        m.token,
		IvHex:         keys.Label,
		PublicKeyHex:  keys.PublicKey,
	}
	token, err := inv.Encode()
	if nil != err {
		_ = m.store.Remove(id)
		return nil, err
	}

	m.log.Infof("session: %d  invitation created", id)

	return &Invitation{
		Id:    id,
		Token: token,
	}, nil
}

// Handler - HTTP routes of the merchant
func (m *Merchant) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(invitationPath, m.invitation)
	return mux
}

// GET /invitation
func (m *Merchant) invitation(w http.ResponseWriter, req *http.Request) {
	if http.MethodGet != req.Method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	inv, err := m.NewInvitation()
	if nil != err {
		m.log.Errorf("invitation error: %s", err)
		http.Error(w, "could not create invitation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(inv); nil != err {
		m.log.Errorf("invitation response error: %s", err)
	}
}

// Run - background process serving the invitation API until shutdown,
// then waits for verifications in progress
func (m *Merchant) Run(args interface{}, shutdown <-chan struct{}) {
	log := m.log
	handler := m.Handler()

	servers := make([]*http.Server, 0, len(m.listen))
	for _, listen := range m.listen {
		if strings.HasPrefix(listen, "*:") {
			listen = "[::]" + listen[1:]
		}

		ln, err := net.Listen("tcp", listen)
		if nil != err {
			log.Errorf("listen: %q  error: %s", listen, err)
			continue
		}

		server := &http.Server{
			Handler:        handler,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		servers = append(servers, server)

		log.Infof("starting server on: %q", listen)
		go func(server *http.Server, ln net.Listener) {
			err := server.Serve(ln)
			if nil != err && http.ErrServerClosed != err {
				log.Errorf("serve error: %s", err)
			}
		}(server, ln)
	}
	if 0 == len(servers) && 0 != len(m.listen) {
		fault.Criticalf("merchant: no invitation listener started from: %q", m.listen)
	}

	<-shutdown

	log.Info("shutting down…")
	for _, server := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = server.Shutdown(ctx)
		cancel()
	}
	m.Close()
	log.Info("stopped")
}
