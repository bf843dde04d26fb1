// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
)

func TestScanFmt(t *testing.T) {

	// big endian
	stringDigest := "00000000440b921e1b77c6c0487ae5616de67f788f44ae2a5af6e2194d16b6f8"

	var d merkle.Digest
	n, err := fmt.Sscan(stringDigest, &d)
	if nil != err {
		t.Fatalf("hex to digest error: %v", err)
	}

	if 1 != n {
		t.Fatalf("scanned %d items expected to scan 1", n)
	}

	// bytes as little endian format
	expected := merkle.Digest{
		0xf8, 0xb6, 0x16, 0x4d,
		0x19, 0xe2, 0xf6, 0x5a,
		0x2a, 0xae, 0x44, 0x8f,
		0x78, 0x7f, 0xe6, 0x6d,
		0x61, 0xe5, 0x7a, 0x48,
		0xc0, 0xc6, 0x77, 0x1b,
		0x1e, 0x92, 0x0b, 0x44,
		0x00, 0x00, 0x00, 0x00,
	}

	if d != expected {
		t.Errorf("digest(LE) = %#v expected %#v", d, expected)
	}

	s := fmt.Sprintf("%s", d)
	if s != stringDigest {
		t.Errorf("string: digest = %s expected %s", s, stringDigest)
	}

	s = fmt.Sprintf("%#v", d)
	if s != "<SHA256d:"+stringDigest+">" {
		t.Errorf("hash-v: digest = %s expected %s", s, stringDigest)
	}
}

func TestDigest(t *testing.T) {
	d := merkle.NewDigest([]byte("hello world"))

	// big endian
	// printf '%s' 'hello world' | sha256sum | xxd -r -p | sha256sum, then byte reversed
	stringDigest := "2344b7a9b50f3cc2761a40722c05361f73119f4d5d6cc129da369e0db8d462bc"

	expected, err := merkle.DigestFromHex(stringDigest)
	assert.Nil(t, err, "wrong hex decode")
	assert.Equal(t, expected, d, "wrong digest")
	assert.False(t, d.IsZero(), "digest should not be zero")
	assert.True(t, merkle.Digest{}.IsZero(), "zero digest")
}

func TestDigestJSON(t *testing.T) {
	stringDigest := "fd15a76c260a519e6c6974d23b341857d6a0a751702583d81ba28297c9405c1e"
	d, err := merkle.DigestFromHex(stringDigest)
	assert.Nil(t, err, "wrong hex decode")

	b, err := json.Marshal(d)
	assert.Nil(t, err, "wrong marshal")
	assert.Equal(t, `"`+stringDigest+`"`, string(b), "wrong JSON")

	var back merkle.Digest
	err = json.Unmarshal(b, &back)
	assert.Nil(t, err, "wrong unmarshal")
	assert.Equal(t, d, back, "wrong digest after unmarshal")
}

func TestDigestInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"00",
		"zz15a76c260a519e6c6974d23b341857d6a0a751702583d81ba28297c9405c1e",
		"fd15a76c260a519e6c6974d23b341857d6a0a751702583d81ba28297c9405c1e00",
	} {
		_, err := merkle.DigestFromHex(s)
		assert.Equal(t, fault.ErrInvalidDigest, err, "expected invalid digest for: %q", s)
	}

	var d merkle.Digest
	err := merkle.DigestFromBytes(&d, []byte{1, 2, 3})
	assert.Equal(t, fault.ErrInvalidDigest, err, "wrong short buffer")
}
