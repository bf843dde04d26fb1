// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"strings"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
	sendHighWater     = 1000
)

// Endpoint - turn a configured address into a zmq endpoint
//
// "host:port" becomes "tcp://host:port", "*:port" binds every
// interface and anything containing "://" is used unchanged
func Endpoint(address string) (string, bool) {
	if strings.Contains(address, "://") {
		return address, strings.Contains(address, "[")
	}
	v6 := strings.HasPrefix(address, "[")
	return "tcp://" + address, v6
}

// NewBind - a server socket bound to every address
//
// with a nil privateKey the socket runs without CURVE encryption
func NewBind(log *logger.L, socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, addresses []string) (*zmq.Socket, error) {
	if 0 == len(addresses) {
		return nil, fault.ErrMissingParameters
	}

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	if nil != privateKey {
		if err := StartAuthentication(); nil != err {
			socket.Close()
			return nil, err
		}
		zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

		_ = socket.SetCurveServer(1)
		_ = socket.SetCurveSecretkey(string(privateKey))
		_ = socket.SetZapDomain(zapDomain)
		_ = socket.SetIdentity(string(publicKey))
	}

	_ = socket.SetLinger(0)
	_ = socket.SetSndhwm(sendHighWater)
	_ = socket.SetHeartbeatIvl(heartbeatInterval)
	_ = socket.SetHeartbeatTimeout(heartbeatTimeout)
	_ = socket.SetHeartbeatTtl(heartbeatTTL)

	for i, address := range addresses {
		bindTo, v6 := Endpoint(address)
		if v6 {
			_ = socket.SetIpv6(true)
		}
		if err := socket.Bind(bindTo); nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, bindTo, err)
			socket.Close()
			return nil, err
		}
		log.Infof("bind[%d]: %q  IPv6: %t", i, bindTo, v6)
	}

	return socket, nil
}
