// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spv

import (
	"github.com/bitmark-inc/spvrelay/merkle"
)

// FundingInput - a transaction spent by the current transaction
type FundingInput struct {
	RawTx       []byte
	BlockHeight uint64
	Path        merkle.Path
}

// Bundle - the evidence submitted by a payer
type Bundle struct {
	CurrentTx []byte
	Inputs    []FundingInput
}

// HasProofs - true if every funding input carries a branch and a height
func HasProofs(bundle *Bundle) bool {
	for _, input := range bundle.Inputs {
		if !input.hasProof() {
			return false
		}
	}
	return true
}

func (input FundingInput) hasProof() bool {
	return 0 != len(input.Path) && 0 != input.BlockHeight
}
