// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/counter"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/util"
)

const (
	serverLoggerName   = "relay-server"
	minConnectionCount = 1
	readHeaderTimeout  = 10 * time.Second
	shutdownTimeout    = 5 * time.Second
	defaultRateLimit   = 20.0 // frames/second per connection
	defaultRateBurst   = 40

	onlineStatusPath = "/check-online-status"
)

// Configuration - relay listener
type Configuration struct {
	Listen             []string `gluamapper:"listen" json:"listen"`
	MaximumConnections uint64   `gluamapper:"maximum_connections" json:"maximum_connections"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
	RateLimit          float64  `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst          int      `gluamapper:"rate_burst" json:"rate_burst"`
}

// Server - WebSocket front end for a Relay
type Server struct {
	sync.Mutex

	log   *logger.L
	relay *Relay

	listen      []string
	maximum     uint64
	rateLimit   rate.Limit
	rateBurst   int
	tlsConfig   *tls.Config
	fingerprint util.FingerprintBytes

	upgrader    websocket.Upgrader
	mux         *http.ServeMux
	connections counter.Counter
	serial      counter.Counter
	live        map[*connection]struct{}
}

// NewServer - validate the configuration and build the handlers
func NewServer(configuration *Configuration, relay *Relay) (*Server, error) {
	log := logger.New(serverLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == configuration || nil == relay {
		return nil, fault.ErrMissingParameters
	}

	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid maximum connection limit: %d", configuration.MaximumConnections)
		return nil, fmt.Errorf("%w: maximum_connections", fault.ErrInvalidConfiguration)
	}

	rateLimit := configuration.RateLimit
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	rateBurst := configuration.RateBurst
	if rateBurst <= 0 {
		rateBurst = defaultRateBurst
	}

	s := &Server{
		log:       log,
		relay:     relay,
		listen:    configuration.Listen,
		maximum:   configuration.MaximumConnections,
		rateLimit: rate.Limit(rateLimit),
		rateBurst: rateBurst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		live: make(map[*connection]struct{}),
	}

	if "" != configuration.Certificate || "" != configuration.PrivateKey {
		tlsConfig, fingerprint, err := loadCertificate(configuration.Certificate, configuration.PrivateKey)
		if nil != err {
			log.Errorf("certificate: %q  error: %s", configuration.Certificate, err)
			return nil, err
		}
		s.tlsConfig = tlsConfig
		s.fingerprint = fingerprint
		log.Infof("certificate SHA3-256 fingerprint: %s", fingerprint)
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc(onlineStatusPath, s.onlineStatus)
	s.mux.HandleFunc("/", s.webSocket)

	return s, nil
}

// load a PEM certificate and key pair from files
func loadCertificate(certificateFile string, keyFile string) (*tls.Config, util.FingerprintBytes, error) {
	var fingerprint util.FingerprintBytes

	if "" == certificateFile || "" == keyFile {
		return nil, fingerprint, fmt.Errorf("%w: both certificate and private_key are required", fault.ErrInvalidConfiguration)
	}

	certificate, err := ioutil.ReadFile(certificateFile)
	if nil != err {
		return nil, fingerprint, err
	}
	key, err := ioutil.ReadFile(keyFile)
	if nil != err {
		return nil, fingerprint, err
	}

	keyPair, err := tls.X509KeyPair(certificate, key)
	if nil != err {
		return nil, fingerprint, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{
			keyPair,
		},
		NextProtos: []string{"http/1.1"},
	}

	return tlsConfig, util.Fingerprint(keyPair.Certificate[0]), nil
}

// Handler - the HTTP routes of the relay
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Fingerprint - TLS certificate fingerprint, zero when TLS is off
func (s *Server) Fingerprint() util.FingerprintBytes {
	return s.fingerprint
}

// ConnectionCount - number of attached clients
func (s *Server) ConnectionCount() uint64 {
	return s.connections.Uint64()
}

func (s *Server) webSocket(w http.ResponseWriter, req *http.Request) {
	if "/" != req.URL.Path {
		http.NotFound(w, req)
		return
	}

	if !s.connections.IncrementBelow(s.maximum) {
		s.log.Warnf("reject: %s  error: %s", req.RemoteAddr, fault.ErrTooManyConnections)
		http.Error(w, fault.ErrTooManyConnections.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, req, nil)
	if nil != err {
		s.connections.Decrement()
		s.log.Warnf("upgrade: %s  error: %s", req.RemoteAddr, err)
		return
	}

	name := fmt.Sprintf("%s#%d", req.RemoteAddr, s.serial.Increment())
	conn := newConnection(s.log, name, ws, rate.NewLimiter(s.rateLimit, s.rateBurst))

	s.Lock()
	s.live[conn] = struct{}{}
	s.Unlock()

	s.log.Infof("connected: %s  count: %d", name, s.connections.Uint64())

	go conn.writeLoop()
	go func() {
		conn.readLoop(s.relay.Handle)

		s.relay.Disconnect(conn)

		s.Lock()
		delete(s.live, conn)
		s.Unlock()

		n := s.connections.Decrement()
		s.log.Infof("disconnected: %s  count: %d", name, n)
	}()
}

// GET /check-online-status?ids=a&ids=b (or ids=a,b)
func (s *Server) onlineStatus(w http.ResponseWriter, req *http.Request) {
	if http.MethodGet != req.Method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ids := make([]string, 0, 4)
	for _, value := range req.URL.Query()["ids"] {
		for _, id := range strings.Split(value, ",") {
			id = strings.TrimSpace(id)
			if "" != id {
				ids = append(ids, id)
			}
		}
	}

	if 0 == len(ids) {
		http.Error(w, "ids must be a non-empty array", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.relay.Presence(ids)); nil != err {
		s.log.Errorf("online status response error: %s", err)
	}
}

// Run - background process serving every listen address until shutdown
func (s *Server) Run(args interface{}, shutdown <-chan struct{}) {
	log := s.log

	servers := make([]*http.Server, 0, len(s.listen))
	for _, listen := range s.listen {
		address := listenAddress(listen)

		ln, err := net.Listen("tcp", address)
		if nil != err {
			log.Errorf("listen: %q  error: %s", address, err)
			continue
		}
		if nil != s.tlsConfig {
			ln = tls.NewListener(ln, s.tlsConfig)
		}

		server := &http.Server{
			Handler:           s.mux,
			ReadHeaderTimeout: readHeaderTimeout,
			MaxHeaderBytes:    1 << 20,
		}
		servers = append(servers, server)

		log.Infof("starting server on: %q  tls: %t", address, nil != s.tlsConfig)
		go func(server *http.Server, ln net.Listener) {
			err := server.Serve(ln)
			if nil != err && http.ErrServerClosed != err {
				log.Errorf("serve error: %s", err)
			}
		}(server, ln)
	}
	if 0 == len(servers) && 0 != len(s.listen) {
		fault.Criticalf("relay: no listener started from: %q", s.listen)
	}

	<-shutdown

	log.Info("shutting down…")
	for _, server := range servers {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = server.Shutdown(ctx)
		cancel()
	}

	// hijacked connections are not closed by Shutdown
	s.Lock()
	for conn := range s.live {
		conn.close()
	}
	s.Unlock()

	log.Info("stopped")
}

// change "*:PORT" to "[::]:PORT"
// on the assumption that this will listen on tcp4 and tcp6
func listenAddress(listen string) string {
	if strings.HasPrefix(listen, "*:") {
		return "[::]" + listen[1:]
	}
	return listen
}
