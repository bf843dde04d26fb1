// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdata_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/spvrelay/blockdata"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/fixtures"
	"github.com/bitmark-inc/spvrelay/merkle"
)

const (
	sampleRoot   = "a8b23ef6e51cb087eca356cc0ab39164da1fc776b57955096d167c20bca0b3a0"
	sampleHeight = 839106
	sampleTxId   = "fd15a76c260a519e6c6974d23b341857d6a0a751702583d81ba28297c9405c1e"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func headerHex(t *testing.T, root merkle.Digest) string {
	header := wire.BlockHeader{
		Version:    0x20000000,
		MerkleRoot: chainhash.Hash(root),
		Bits:       0x1d00ffff,
		Nonce:      12345,
	}
	buffer := &bytes.Buffer{}
	err := header.Serialize(buffer)
	require.Nil(t, err, "serialise header")
	require.Equal(t, 80, buffer.Len(), "header size")
	return hex.EncodeToString(buffer.Bytes())
}

type explorer struct {
	calls  int32
	header string
	status int
}

func (e *explorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&e.calls, 1)
	if 0 != e.status {
		http.Error(w, "unavailable", e.status)
		return
	}
	switch r.URL.Path {
	case fmt.Sprintf("/block/height/%d", sampleHeight):
		fmt.Fprintf(w, `{"hash":"000000000000000002b1","height":%d,"merkleroot":%q}`, sampleHeight, sampleRoot)
	case fmt.Sprintf("/block/header/height/%d/raw", sampleHeight):
		fmt.Fprintf(w, `{"header":%q}`, e.header)
	case "/block/header/height/7/raw":
		fmt.Fprint(w, `{"header":"0011"}`)
	case "/tx/" + sampleTxId + "/proof":
		fmt.Fprint(w, `{"blockhash":"0000000000000000064f6cb2b41bcf2e37e2e14dfc0e1e2a4b0e3b0a9b8f1c3d",`+
			`"branches":[{"pos":"L","hash":"61b593f70db43df19f3d9cfce1ea408909c3fca233589422caddc46eed2d36bc"},`+
			`{"pos":"R","hash":"3cd37cc0d561c92a436b7574ea5509cb3c815b6f65168d0a2f0025d6fa5f9134"}],`+
			`"hash":"`+sampleTxId+`"}`)
	case "/tx/" + sampleTxId:
		fmt.Fprintf(w, `{"txid":%q,"blockheight":%d}`, sampleTxId, sampleHeight)
	default:
		http.NotFound(w, r)
	}
}

func newProvider(t *testing.T, server *httptest.Server, local bool) *blockdata.Provider {
	p, err := blockdata.New(&blockdata.Configuration{
		BaseAddress:             server.URL,
		GenerateMerkleRootLocal: local,
		RateLimit:               1000,
		RateBurst:               100,
	}, server.Client())
	require.Nil(t, err, "new provider")
	return p
}

func TestNewMissingBase(t *testing.T) {
	_, err := blockdata.New(&blockdata.Configuration{}, nil)
	assert.Equal(t, fault.ErrMissingParameters, err, "wrong error")
}

func TestMerkleRootLocal(t *testing.T) {
	e := &explorer{}
	server := httptest.NewServer(e)
	defer server.Close()

	p := newProvider(t, server, true)

	root, err := p.MerkleRoot(context.Background(), sampleHeight)
	assert.Nil(t, err, "root error")
	assert.Equal(t, sampleRoot, root.String(), "wrong root")

	// second call served from cache
	root, err = p.MerkleRoot(context.Background(), sampleHeight)
	assert.Nil(t, err, "cached root error")
	assert.Equal(t, sampleRoot, root.String(), "wrong cached root")
	assert.Equal(t, int32(1), atomic.LoadInt32(&e.calls), "cache not used")
}

func TestMerkleRootFromHeader(t *testing.T) {
	expected, err := merkle.DigestFromHex(sampleRoot)
	require.Nil(t, err, "root decode")

	e := &explorer{
		header: headerHex(t, expected),
	}
	server := httptest.NewServer(e)
	defer server.Close()

	p := newProvider(t, server, false)

	root, err := p.MerkleRoot(context.Background(), sampleHeight)
	assert.Nil(t, err, "root error")
	assert.Equal(t, expected, root, "wrong root")
}

func TestMerkleRootBadHeader(t *testing.T) {
	server := httptest.NewServer(&explorer{})
	defer server.Close()

	p := newProvider(t, server, false)

	_, err := p.MerkleRoot(context.Background(), 7)
	assert.True(t, fault.IsErrUnavailable(err), "expected unavailable, got: %v", err)
}

func TestMerkleRootUnavailable(t *testing.T) {
	server := httptest.NewServer(&explorer{status: http.StatusServiceUnavailable})
	defer server.Close()

	for _, local := range []bool{true, false} {
		p := newProvider(t, server, local)
		_, err := p.MerkleRoot(context.Background(), sampleHeight)
		assert.True(t, fault.IsErrUnavailable(err), "local: %t  expected unavailable, got: %v", local, err)
		assert.False(t, fault.IsErrInvalid(err), "local: %t  must not be a verification failure", local)
	}
}

func TestMerkleRootUnreachable(t *testing.T) {
	server := httptest.NewServer(&explorer{})
	p := newProvider(t, server, true)
	server.Close()

	_, err := p.MerkleRoot(context.Background(), sampleHeight)
	assert.True(t, fault.IsErrUnavailable(err), "expected unavailable, got: %v", err)
}

func TestMerkleRootZeroHeight(t *testing.T) {
	server := httptest.NewServer(&explorer{})
	defer server.Close()

	p := newProvider(t, server, true)
	_, err := p.MerkleRoot(context.Background(), 0)
	assert.Equal(t, fault.ErrInvalidBlockHeight, err, "wrong error")
}

func TestProof(t *testing.T) {
	server := httptest.NewServer(&explorer{})
	defer server.Close()

	p := newProvider(t, server, true)

	txId, err := merkle.DigestFromHex(sampleTxId)
	require.Nil(t, err, "txid decode")

	proof, err := p.Proof(context.Background(), txId)
	require.Nil(t, err, "proof error")
	assert.Equal(t, txId, proof.TxId, "wrong txid")
	assert.Equal(t, uint64(sampleHeight), proof.BlockHeight, "wrong height")
	require.Equal(t, 2, len(proof.Path), "wrong path length")
	assert.Equal(t, merkle.Left, proof.Path[0].Side, "wrong side")
	assert.Equal(t, "61b593f70db43df19f3d9cfce1ea408909c3fca233589422caddc46eed2d36bc", proof.Path[0].Hash.String(), "wrong hash")
	assert.Equal(t, "0000000000000000064f6cb2b41bcf2e37e2e14dfc0e1e2a4b0e3b0a9b8f1c3d", proof.BlockHash.String(), "wrong block hash")
}

func TestProofNotFound(t *testing.T) {
	server := httptest.NewServer(&explorer{})
	defer server.Close()

	p := newProvider(t, server, true)

	_, err := p.Proof(context.Background(), merkle.NewDigest([]byte("unknown")))
	assert.True(t, fault.IsErrUnavailable(err), "expected unavailable, got: %v", err)
}

func TestRootFromHeaderHex(t *testing.T) {
	_, err := blockdata.RootFromHeaderHex("zz")
	assert.True(t, fault.IsErrInvalid(err), "bad hex")

	_, err = blockdata.RootFromHeaderHex("00")
	assert.True(t, fault.IsErrInvalid(err), "short header")
}
