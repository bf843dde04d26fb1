// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/util"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	keyLength     = 32
)

// MakeKeyPair - create a CURVE keypair and write each half to its file
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if util.EnsureFileExists(publicKeyFileName) || util.EnsureFileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	// zmq returns Z85 text, files hold tagged hex
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	publicText := taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	privateText := taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	if err := ioutil.WriteFile(publicKeyFileName, []byte(publicText), 0666); nil != err {
		return err
	}

	if err := ioutil.WriteFile(privateKeyFileName, []byte(privateText), 0600); nil != err {
		_ = os.Remove(publicKeyFileName)
		return err
	}

	return nil
}

// ReadPublicKeyFile - 32 byte public key from a tagged file
func ReadPublicKeyFile(fileName string) ([]byte, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	key, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.ErrInvalidPublicKeyFile
	}
	return key, nil
}

// ReadPrivateKeyFile - 32 byte private key from a tagged file
func ReadPrivateKeyFile(fileName string) ([]byte, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	key, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.ErrInvalidPrivateKeyFile
	}
	return key, nil
}

// ParseKey - decode "PUBLIC:hex" or "PRIVATE:hex"
func ParseKey(data string) ([]byte, bool, error) {
	s := strings.TrimSpace(data)

	tag, private, e := taggedPublic, false, fault.ErrInvalidPublicKeyFile
	if strings.HasPrefix(s, taggedPrivate) {
		tag, private, e = taggedPrivate, true, fault.ErrInvalidPrivateKeyFile
	} else if !strings.HasPrefix(s, taggedPublic) {
		return nil, false, fault.ErrInvalidPublicKeyFile
	}

	key, err := hex.DecodeString(s[len(tag):])
	if nil != err || keyLength != len(key) {
		return nil, false, e
	}
	return key, private, nil
}
