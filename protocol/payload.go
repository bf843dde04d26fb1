// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
	"github.com/bitmark-inc/spvrelay/spv"
)

// replies from a merchant to a proof submission
const (
	ReplyValid       = "transaction is valid"
	ReplyInvalid     = "transaction is invalid"
	ReplyUnavailable = "transaction could not be verified, try again later"
)

// Handshake - a party's token and public key material
type Handshake struct {
	CallId       string `json:"callId"`
	PublicKeyHex string `json:"publicKeyHex"`
	IvHex        string `json:"ivHex"`
}

// DecodeHandshake - parse and check required fields
func DecodeHandshake(data []byte) (*Handshake, error) {
	var h Handshake
	if err := json.Unmarshal(data, &h); nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidEnvelope, err)
	}
	if "" == h.CallId || "" == h.PublicKeyHex || "" == h.IvHex {
		return nil, fault.ErrMissingParameters
	}
	return &h, nil
}

// FundingInput - wire form of a funding transaction and its proof
type FundingInput struct {
	RawTx       string      `json:"rawTx"`
	BlockHeight uint64      `json:"blockheight"`
	Branch      merkle.Path `json:"branch"`
}

// ProofSubmission - wire form of a proof bundle
type ProofSubmission struct {
	CurrentTx string         `json:"currentTx"`
	Inputs    []FundingInput `json:"inputs"`
}

// DecodeProofSubmission - parse a submission
func DecodeProofSubmission(data []byte) (*ProofSubmission, error) {
	var p ProofSubmission
	if err := json.Unmarshal(data, &p); nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidEnvelope, err)
	}
	if "" == p.CurrentTx {
		return nil, fault.ErrMissingParameters
	}
	return &p, nil
}

// ToBundle - decode the hex fields
func (p *ProofSubmission) ToBundle() (*spv.Bundle, error) {
	current, err := hex.DecodeString(p.CurrentTx)
	if nil != err {
		return nil, fmt.Errorf("%w: currentTx: %s", fault.ErrMalformedTransaction, err)
	}

	bundle := &spv.Bundle{
		CurrentTx: current,
		Inputs:    make([]spv.FundingInput, len(p.Inputs)),
	}
	for i, input := range p.Inputs {
		raw, err := hex.DecodeString(input.RawTx)
		if nil != err {
			return nil, fmt.Errorf("%w: inputs[%d].rawTx: %s", fault.ErrMalformedTransaction, i, err)
		}
		bundle.Inputs[i] = spv.FundingInput{
			RawTx:       raw,
			BlockHeight: input.BlockHeight,
			Path:        input.Branch,
		}
	}
	return bundle, nil
}

// FromBundle - wire form of a bundle
func FromBundle(bundle *spv.Bundle) *ProofSubmission {
	p := &ProofSubmission{
		CurrentTx: hex.EncodeToString(bundle.CurrentTx),
		Inputs:    make([]FundingInput, len(bundle.Inputs)),
	}
	for i, input := range bundle.Inputs {
		branch := input.Path
		if nil == branch {
			branch = merkle.Path{}
		}
		p.Inputs[i] = FundingInput{
			RawTx:       hex.EncodeToString(input.RawTx),
			BlockHeight: input.BlockHeight,
			Branch:      branch,
		}
	}
	return p
}

// Status - presence of one token at the relay
type Status struct {
	Id     string `json:"id"`
	Status bool   `json:"status"`
}
