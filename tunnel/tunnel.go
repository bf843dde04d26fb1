// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tunnel

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"

	"github.com/bitmark-inc/spvrelay/fault"
)

// ChunkSize - plaintext bytes per RSA block
const ChunkSize = 180

// Encrypt - encrypt for a peer, chunk by chunk
func Encrypt(plaintext []byte, peerPublicKeyHex string, peerLabelHex string) ([]string, error) {
	if "" == peerPublicKeyHex || "" == peerLabelHex {
		return nil, fault.ErrNotPaired
	}

	publicKey, err := ParsePublicKey(peerPublicKeyHex)
	if nil != err {
		return nil, err
	}

	label := []byte(peerLabelHex)
	hash := sha256.New()

	chunkCount := (len(plaintext) + ChunkSize - 1) / ChunkSize
	if 0 == chunkCount {
		chunkCount = 1
	}

	chunks := make([]string, 0, chunkCount)
	for n := 0; n < chunkCount; n += 1 {
		start := n * ChunkSize
		end := start + ChunkSize
		if end > len(plaintext) {
			end = len(plaintext)
		}

		hash.Reset()
		ciphertext, err := rsa.EncryptOAEP(hash, rand.Reader, publicKey, plaintext[start:end], label)
		if nil != err {
			return nil, err
		}
		chunks = append(chunks, base64.StdEncoding.EncodeToString(ciphertext))
	}
	return chunks, nil
}

// Decrypt - decrypt chunks addressed to this party
//
// any failure discards the whole message
func Decrypt(chunks []string, keys *KeyMaterial) ([]byte, error) {
	if keys.IsEmpty() || 0 == len(chunks) {
		return nil, fault.ErrDecryptionFailure
	}

	privateKey, err := ParsePrivateKey(keys.PrivateKey)
	if nil != err {
		return nil, fault.ErrDecryptionFailure
	}

	label := []byte(keys.Label)
	hash := sha256.New()

	buffer := bytes.Buffer{}
	for _, chunk := range chunks {
		ciphertext, err := base64.StdEncoding.DecodeString(chunk)
		if nil != err {
			return nil, fault.ErrDecryptionFailure
		}

		hash.Reset()
		plaintext, err := rsa.DecryptOAEP(hash, rand.Reader, privateKey, ciphertext, label)
		if nil != err {
			return nil, fault.ErrDecryptionFailure
		}
		buffer.Write(plaintext)
	}
	return buffer.Bytes(), nil
}
