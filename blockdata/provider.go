// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdata

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
	"github.com/bitmark-inc/spvrelay/util"
)

// defaults for an explorer provider
const (
	defaultRateLimit   = 3.0 // requests/second
	defaultRateBurst   = 3
	defaultTimeout     = 20 * time.Second
	rootCacheExpiry    = 24 * time.Hour
	rootCacheCleanup   = time.Hour
	blockHeaderSize    = 80
	providerLoggerName = "blockdata"
)

// Configuration - explorer access
type Configuration struct {
	BaseAddress             string  `gluamapper:"api_base_address" json:"api_base_address"`
	GenerateMerkleRootLocal bool    `gluamapper:"generate_merkle_root_local" json:"generate_merkle_root_local"`
	RateLimit               float64 `gluamapper:"rate_limit" json:"rate_limit"`
	RateBurst               int     `gluamapper:"rate_burst" json:"rate_burst"`
}

// Provider - RootSource and ProofSource backed by a block explorer
type Provider struct {
	log     *logger.L
	client  *http.Client
	base    string
	local   bool
	roots   *cache.Cache
	limiter *rate.Limiter
}

// New - create a provider, a nil client selects a default one
func New(configuration *Configuration, client *http.Client) (*Provider, error) {
	if nil == configuration || "" == configuration.BaseAddress {
		return nil, fault.ErrMissingParameters
	}

	log := logger.New(providerLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	if nil == client {
		client = &http.Client{
			Timeout: defaultTimeout,
		}
	}

	limit := configuration.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := configuration.RateBurst
	if burst <= 0 {
		burst = defaultRateBurst
	}

	base := configuration.BaseAddress
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	log.Infof("explorer: %q  local root: %t  rate: %f/%d", base, configuration.GenerateMerkleRootLocal, limit, burst)

	return &Provider{
		log:     log,
		client:  client,
		base:    base,
		local:   configuration.GenerateMerkleRootLocal,
		roots:   cache.New(rootCacheExpiry, rootCacheCleanup),
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
	}, nil
}

// MerkleRoot - trusted root for the block at height
func (p *Provider) MerkleRoot(ctx context.Context, height uint64) (merkle.Digest, error) {
	if 0 == height {
		return merkle.Digest{}, fault.ErrInvalidBlockHeight
	}

	key := strconv.FormatUint(height, 10)
	if cached, found := p.roots.Get(key); found {
		return cached.(merkle.Digest), nil
	}

	var root merkle.Digest
	var err error
	if p.local {
		root, err = p.rootFromBlock(ctx, height)
	} else {
		root, err = p.rootFromHeader(ctx, height)
	}
	if nil != err {
		p.log.Warnf("merkle root for height: %d  error: %s", height, err)
		return merkle.Digest{}, err
	}

	p.log.Debugf("merkle root for height: %d  root: %s", height, root)
	p.roots.SetDefault(key, root)
	return root, nil
}

// use the root reported in the block summary
func (p *Provider) rootFromBlock(ctx context.Context, height uint64) (merkle.Digest, error) {
	var reply struct {
		MerkleRoot string `json:"merkleroot"`
	}
	err := p.fetch(ctx, fmt.Sprintf("block/height/%d", height), &reply)
	if nil != err {
		return merkle.Digest{}, err
	}

	root, err := merkle.DigestFromHex(reply.MerkleRoot)
	if nil != err {
		return merkle.Digest{}, unavailable(fmt.Errorf("merkleroot: %q  error: %s", reply.MerkleRoot, err))
	}
	return root, nil
}

// decode the raw header and extract its root
func (p *Provider) rootFromHeader(ctx context.Context, height uint64) (merkle.Digest, error) {
	var reply struct {
		Header string `json:"header"`
	}
	err := p.fetch(ctx, fmt.Sprintf("block/header/height/%d/raw", height), &reply)
	if nil != err {
		return merkle.Digest{}, err
	}

	root, err := RootFromHeaderHex(reply.Header)
	if nil != err {
		return merkle.Digest{}, unavailable(err)
	}
	return root, nil
}

// RootFromHeaderHex - merkle root field of an 80 byte serialised block header
func RootFromHeaderHex(s string) (merkle.Digest, error) {
	raw, err := hex.DecodeString(s)
	if nil != err {
		return merkle.Digest{}, fmt.Errorf("%w: %s", fault.ErrInvalidHeader, err)
	}
	if blockHeaderSize != len(raw) {
		return merkle.Digest{}, fmt.Errorf("%w: length: %d", fault.ErrInvalidHeader, len(raw))
	}

	var header wire.BlockHeader
	err = header.Deserialize(bytes.NewReader(raw))
	if nil != err {
		return merkle.Digest{}, fmt.Errorf("%w: %s", fault.ErrInvalidHeader, err)
	}
	return merkle.Digest(header.MerkleRoot), nil
}

// Proof - fetch the branch and block height of a confirmed transaction
func (p *Provider) Proof(ctx context.Context, txId merkle.Digest) (*Proof, error) {
	var proof struct {
		BlockHash string        `json:"blockhash"`
		Branches  []merkle.Step `json:"branches"`
	}
	err := p.fetch(ctx, fmt.Sprintf("tx/%s/proof", txId), &proof)
	if nil != err {
		return nil, err
	}

	var details struct {
		BlockHeight uint64 `json:"blockheight"`
	}
	err = p.fetch(ctx, fmt.Sprintf("tx/%s", txId), &details)
	if nil != err {
		return nil, err
	}

	if 0 == details.BlockHeight {
		return nil, unavailable(fmt.Errorf("tx: %s not confirmed", txId))
	}

	result := &Proof{
		TxId:        txId,
		BlockHeight: details.BlockHeight,
		Path:        proof.Branches,
	}
	if "" != proof.BlockHash {
		blockHash, err := merkle.DigestFromHex(proof.BlockHash)
		if nil != err {
			return nil, unavailable(fmt.Errorf("blockhash: %q  error: %s", proof.BlockHash, err))
		}
		result.BlockHash = blockHash
	}

	p.log.Debugf("proof for tx: %s  height: %d  steps: %d", txId, result.BlockHeight, len(result.Path))
	return result, nil
}

// throttled GET relative to the base address
func (p *Provider) fetch(ctx context.Context, path string, reply interface{}) error {
	if err := p.limiter.Wait(ctx); nil != err {
		return unavailable(err)
	}

	url := p.base + path
	p.log.Tracef("GET: %q", url)

	if err := util.FetchJSON(ctx, p.client, url, reply); nil != err {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %s", fault.ErrProofSourceUnavailable, err)
}
