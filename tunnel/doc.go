// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package tunnel - end to end encryption between paired parties
//
// each party generates an RSA-2048 key pair and a 16 byte random
// label for every pairing session.  Keys travel as hex of their PEM
// text (public: PKIX, private: PKCS#1) and the label as hex.
//
// a message is split into 180 byte chunks, each chunk encrypted with
// RSA-OAEP(SHA-256) using the ASCII bytes of the recipient's hex label
// as the OAEP label, and each ciphertext base64 encoded.
//
// decryption is all or nothing: a single bad chunk fails the message
package tunnel
