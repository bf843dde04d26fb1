// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdata

import (
	"context"

	"github.com/bitmark-inc/spvrelay/merkle"
)

// RootSource - trusted merkle root of a block
type RootSource interface {
	MerkleRoot(ctx context.Context, height uint64) (merkle.Digest, error)
}

// ProofSource - inclusion proof of a confirmed transaction
type ProofSource interface {
	Proof(ctx context.Context, txId merkle.Digest) (*Proof, error)
}

// Proof - where a transaction was included
type Proof struct {
	TxId        merkle.Digest `json:"txId"`
	BlockHash   merkle.Digest `json:"blockHash"`
	BlockHeight uint64        `json:"blockHeight"`
	Path        merkle.Path   `json:"path"`
}
