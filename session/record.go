// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package session

import (
	"github.com/bitmark-inc/spvrelay/tunnel"
)

// Record - one paired counterpart
type Record struct {
	LocalId          uint64             `json:"id"`
	RemoteId         int64              `json:"remoteId"`
	PeerCallId       string             `json:"callId"`
	PeerPublicKey    string             `json:"secondPartyPublicKeyHex"`
	PeerLabel        string             `json:"secondPartyIvHex"`
	TransportAddress string             `json:"socketAddress"`
	Name             string             `json:"name"`
	Keys             tunnel.KeyMaterial `json:"encryptionKey"`
	Concluded        bool               `json:"concluded"`
}

// Patch - fields to change, nil fields are left alone
type Patch struct {
	PeerCallId       *string
	PeerPublicKey    *string
	PeerLabel        *string
	TransportAddress *string
	Name             *string
	Concluded        *bool
}

// IsPaired - true once the counterpart's key and label are known
func (r *Record) IsPaired() bool {
	return "" != r.PeerCallId && "" != r.PeerPublicKey && "" != r.PeerLabel
}

// apply a patch to a record
func (r *Record) apply(patch Patch) {
	if nil != patch.PeerCallId {
		r.PeerCallId = *patch.PeerCallId
	}
	if nil != patch.PeerPublicKey {
		r.PeerPublicKey = *patch.PeerPublicKey
	}
	if nil != patch.PeerLabel {
		r.PeerLabel = *patch.PeerLabel
	}
	if nil != patch.TransportAddress {
		r.TransportAddress = *patch.TransportAddress
	}
	if nil != patch.Name {
		r.Name = *patch.Name
	}
	if nil != patch.Concluded {
		r.Concluded = *patch.Concluded
	}
}

// return a copy so callers cannot alter stored state
func (r *Record) clone() *Record {
	c := *r
	return &c
}

// String - pointer helper for patches
func String(s string) *string {
	return &s
}

// Bool - pointer helper for patches
func Bool(b bool) *bool {
	return &b
}
