// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// FingerprintBytes - type to hold a certificate fingerprint
type FingerprintBytes [32]byte

// Fingerprint - compute the fingerprint of a DER certificate
//
// FreeBSD: openssl x509 -outform DER -in spv-relay.crt | sha3sum -a 256
func Fingerprint(certificate []byte) FingerprintBytes {
	return sha3.Sum256(certificate)
}

// String - hex representation
func (f FingerprintBytes) String() string {
	return hex.EncodeToString(f[:])
}
