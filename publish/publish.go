// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"encoding/json"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/spv"
	"github.com/bitmark-inc/spvrelay/zmqutil"
)

const (
	publishLoggerName = "publish"
	zapDomain         = "publish"
	queueSize         = 256

	// TopicVerdict - first frame of every verdict message
	TopicVerdict = "verdict"
)

// Configuration - broadcast addresses and optional CURVE keys
type Configuration struct {
	Broadcast  []string `gluamapper:"broadcast" json:"broadcast"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
}

// Verdict - one merchant decision
type Verdict struct {
	SessionId uint64      `json:"sessionId"`
	TxId      string      `json:"txId,omitempty"`
	Valid     bool        `json:"valid"`
	Result    *spv.Result `json:"result"`
	Timestamp time.Time   `json:"timestamp"`
}

type message struct {
	topic string
	body  []byte
}

// Publisher - owns the PUB socket, only its Run goroutine touches it
type Publisher struct {
	log    *logger.L
	socket *zmq.Socket
	queue  chan message
}

// New - bind the broadcast socket, no addresses gives a nil Publisher
// whose Publish does nothing
func New(configuration *Configuration) (*Publisher, error) {
	log := logger.New(publishLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == configuration || 0 == len(configuration.Broadcast) {
		log.Info("disabled")
		return nil, nil
	}

	var privateKey, publicKey []byte
	if "" != configuration.PrivateKey || "" != configuration.PublicKey {
		var err error
		privateKey, err = zmqutil.ReadPrivateKeyFile(configuration.PrivateKey)
		if nil != err {
			log.Errorf("read private key file: %q  error: %s", configuration.PrivateKey, err)
			return nil, err
		}
		publicKey, err = zmqutil.ReadPublicKeyFile(configuration.PublicKey)
		if nil != err {
			log.Errorf("read public key file: %q  error: %s", configuration.PublicKey, err)
			return nil, err
		}
		log.Tracef("public key: %x", publicKey)
	}

	socket, err := zmqutil.NewBind(log, zmq.PUB, zapDomain, privateKey, publicKey, configuration.Broadcast)
	if nil != err {
		return nil, err
	}

	return &Publisher{
		log:    log,
		socket: socket,
		queue:  make(chan message, queueSize),
	}, nil
}

// Publish - queue a verdict, dropped if the queue is full
func (p *Publisher) Publish(v *Verdict) error {
	if nil == p {
		return nil
	}

	body, err := json.Marshal(v)
	if nil != err {
		return err
	}

	select {
	case p.queue <- message{topic: TopicVerdict, body: body}:
		return nil
	default:
		p.log.Warnf("drop verdict for session: %d", v.SessionId)
		return fault.ErrSendQueueFull
	}
}

// Run - background sender, closes the socket on shutdown
func (p *Publisher) Run(args interface{}, shutdown <-chan struct{}) {
	log := p.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case m := <-p.queue:
			_, err := p.socket.SendMessage(m.topic, m.body)
			if nil != err {
				log.Errorf("send error: %s", err)
				continue
			}
			log.Debugf("sent: %s  %s", m.topic, m.body)
		}
	}

	log.Info("shutting down…")
	p.socket.Close()
	log.Info("stopped")
}
