// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package tunnel

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"

	"github.com/bitmark-inc/spvrelay/fault"
)

// key parameters
const (
	KeyBits     = 2048
	LabelLength = 16

	publicKeyType  = "PUBLIC KEY"
	privateKeyType = "RSA PRIVATE KEY"
)

// KeyMaterial - one party's keys for a single session
//
// the private key is never sent to the peer
type KeyMaterial struct {
	PublicKey  string `json:"publicKeyHex"`
	PrivateKey string `json:"privateKeyHex"`
	Label      string `json:"ivHex"`
}

// GenerateKeyMaterial - fresh key pair and label
func GenerateKeyMaterial() (*KeyMaterial, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if nil != err {
		return nil, err
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if nil != err {
		return nil, err
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  publicKeyType,
		Bytes: publicDER,
	})
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  privateKeyType,
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	label := make([]byte, LabelLength)
	if _, err := rand.Read(label); nil != err {
		return nil, err
	}

	return &KeyMaterial{
		PublicKey:  hex.EncodeToString(publicPEM),
		PrivateKey: hex.EncodeToString(privatePEM),
		Label:      hex.EncodeToString(label),
	}, nil
}

// IsEmpty - true if no key has been generated
func (k *KeyMaterial) IsEmpty() bool {
	return nil == k || "" == k.PrivateKey || "" == k.Label
}

// ParsePublicKey - decode hex of PEM PKIX public key
func ParsePublicKey(publicKeyHex string) (*rsa.PublicKey, error) {
	block, err := decodePEM(publicKeyHex, publicKeyType)
	if nil != err {
		return nil, err
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidKey, err)
	}

	publicKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fault.ErrInvalidKey
	}
	return publicKey, nil
}

// ParsePrivateKey - decode hex of PEM PKCS#1 private key
func ParsePrivateKey(privateKeyHex string) (*rsa.PrivateKey, error) {
	block, err := decodePEM(privateKeyHex, privateKeyType)
	if nil != err {
		return nil, err
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidKey, err)
	}
	return privateKey, nil
}

func decodePEM(s string, blockType string) (*pem.Block, error) {
	text, err := hex.DecodeString(s)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidKey, err)
	}

	block, _ := pem.Decode(text)
	if nil == block || blockType != block.Type {
		return nil, fault.ErrInvalidKey
	}
	return block, nil
}
