// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spv

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/spvrelay/blockdata"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
	"github.com/bitmark-inc/spvrelay/transaction"
)

const verifierLoggerName = "spv"

// ScriptEngine - external script interpreter
type ScriptEngine interface {
	VerifyScript(scriptSig []byte, scriptPubKey []byte, tx *transaction.Transaction, inputIndex int, flags uint32, amount int64) (bool, error)
}

// Configuration - verification policy
type Configuration struct {
	AcceptUnconfirmed bool
	ScriptFlags       uint32
}

// Verifier - checks proof bundles
type Verifier struct {
	log               *logger.L
	roots             blockdata.RootSource
	engine            ScriptEngine
	acceptUnconfirmed bool
	flags             uint32
}

// funding transaction after decoding
type funding struct {
	index int
	input FundingInput
	tx    *transaction.Transaction
}

// NewVerifier - create a verifier
func NewVerifier(configuration Configuration, roots blockdata.RootSource, engine ScriptEngine) (*Verifier, error) {
	if nil == roots || nil == engine {
		return nil, fault.ErrMissingParameters
	}

	log := logger.New(verifierLoggerName)
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	return &Verifier{
		log:               log,
		roots:             roots,
		engine:            engine,
		acceptUnconfirmed: configuration.AcceptUnconfirmed,
		flags:             configuration.ScriptFlags,
	}, nil
}

// Verify - run all stages over a bundle
func (v *Verifier) Verify(ctx context.Context, bundle *Bundle) *Result {
	if nil == bundle || 0 == len(bundle.CurrentTx) {
		return Reject(StageDecode, fault.ErrMalformedTransaction)
	}

	current, err := transaction.Parse(bundle.CurrentTx)
	if nil != err {
		v.log.Debugf("current transaction decode error: %s", err)
		return Reject(StageDecode, err)
	}

	v.log.Infof("verify tx: %s  inputs: %d  funding: %d", current.TxId, len(current.Inputs), len(bundle.Inputs))

	byId := make(map[merkle.Digest]*funding, len(bundle.Inputs))
	fundings := make([]*funding, 0, len(bundle.Inputs))
	for i, input := range bundle.Inputs {
		tx, err := transaction.Parse(input.RawTx)
		if nil != err {
			v.log.Debugf("funding[%d] decode error: %s", i, err)
			return Reject(StageDecode, fmt.Errorf("funding[%d]: %w", i, err))
		}
		f := &funding{
			index: i,
			input: input,
			tx:    tx,
		}
		fundings = append(fundings, f)
		byId[tx.TxId] = f
	}

	if result := v.checkIds(current, bundle, fundings); nil != result {
		return result
	}

	if result := v.checkLinkage(current, byId); nil != result {
		return result
	}

	if result := v.checkScripts(current, byId); nil != result {
		return result
	}

	if v.acceptUnconfirmed {
		v.log.Infof("tx: %s accepted without confirmation check", current.TxId)
		return &Result{
			Verdict: Accepted,
			Stage:   StageDone,
		}
	}

	return v.checkConfirmations(ctx, fundings)
}

// each recomputed id must match the codec and be referenced by the current transaction
func (v *Verifier) checkIds(current *transaction.Transaction, bundle *Bundle, fundings []*funding) *Result {
	if current.TxId != transaction.ComputeTxId(bundle.CurrentTx) {
		return Reject(StageIdIntegrity, fmt.Errorf("%w: current tx", fault.ErrIdMismatch))
	}

	referenced := make(map[merkle.Digest]struct{}, len(current.Inputs))
	for _, in := range current.Inputs {
		referenced[in.PreviousTxId] = struct{}{}
	}

	for _, f := range fundings {
		if f.tx.TxId != transaction.ComputeTxId(f.input.RawTx) {
			return Reject(StageIdIntegrity, fmt.Errorf("%w: funding[%d]", fault.ErrIdMismatch, f.index))
		}
		if _, ok := referenced[f.tx.TxId]; !ok {
			v.log.Debugf("funding[%d] id: %s not referenced by current tx", f.index, f.tx.TxId)
			return Reject(StageIdIntegrity, fmt.Errorf("%w: funding[%d] id: %s not referenced", fault.ErrIdMismatch, f.index, f.tx.TxId))
		}
	}
	return nil
}

// every input must be funded by an output with a locking script
func (v *Verifier) checkLinkage(current *transaction.Transaction, byId map[merkle.Digest]*funding) *Result {
	if 0 == len(current.Inputs) {
		return Reject(StageLinkage, fmt.Errorf("%w: no inputs", fault.ErrLinkageMissing))
	}
	for i, in := range current.Inputs {
		f, ok := byId[in.PreviousTxId]
		if !ok {
			v.log.Debugf("input[%d] funding tx: %s absent", i, in.PreviousTxId)
			return Reject(StageLinkage, fmt.Errorf("%w: input[%d] tx: %s", fault.ErrLinkageMissing, i, in.PreviousTxId))
		}
		out, ok := f.tx.Output(in.PreviousIndex)
		if !ok || 0 == len(out.ScriptPubKey) {
			v.log.Debugf("input[%d] funding output: %s:%d absent", i, in.PreviousTxId, in.PreviousIndex)
			return Reject(StageLinkage, fmt.Errorf("%w: input[%d] output: %s:%d", fault.ErrLinkageMissing, i, in.PreviousTxId, in.PreviousIndex))
		}
	}
	return nil
}

// interpreter must accept every input
func (v *Verifier) checkScripts(current *transaction.Transaction, byId map[merkle.Digest]*funding) *Result {
	for i, in := range current.Inputs {
		out, _ := byId[in.PreviousTxId].tx.Output(in.PreviousIndex)

		ok, err := v.engine.VerifyScript(in.ScriptSig, out.ScriptPubKey, current, i, v.flags, out.Value)
		if nil != err {
			v.log.Debugf("input[%d] script error: %s", i, err)
			return Reject(StageScript, fmt.Errorf("%w: input[%d]: %s", fault.ErrScriptInvalid, i, err))
		}
		if !ok {
			v.log.Debugf("input[%d] script false", i)
			return Reject(StageScript, fmt.Errorf("%w: input[%d]", fault.ErrScriptInvalid, i))
		}
	}
	return nil
}

// check every funding transaction against its block root concurrently
func (v *Verifier) checkConfirmations(ctx context.Context, fundings []*funding) *Result {
	results := make([]InputResult, len(fundings))

	var wg sync.WaitGroup
	for i, f := range fundings {
		wg.Add(1)
		go func(i int, f *funding) {
			defer wg.Done()
			results[i] = v.confirm(ctx, f)
		}(i, f)
	}
	wg.Wait()

	result := &Result{
		Verdict: Accepted,
		Stage:   StageDone,
		Inputs:  results,
	}

	// first input in order with the worst verdict supplies the reason
	for _, r := range results {
		if r.Verdict > result.Verdict {
			result.Verdict = r.Verdict
			result.Stage = StageConfirmation
			result.Err = r.Err
		}
	}

	v.log.Infof("confirmation verdict: %s", result.Verdict)
	return result
}

func (v *Verifier) confirm(ctx context.Context, f *funding) InputResult {
	r := InputResult{
		Index:   f.index,
		TxId:    f.tx.TxId,
		Verdict: Accepted,
	}

	if !f.input.hasProof() {
		r.Verdict = Rejected
		r.Err = fmt.Errorf("%w: funding[%d] tx: %s", fault.ErrMissingProof, f.index, f.tx.TxId)
		return r
	}

	root, err := v.roots.MerkleRoot(ctx, f.input.BlockHeight)
	if nil != err {
		v.log.Warnf("funding[%d] height: %d  root error: %s", f.index, f.input.BlockHeight, err)
		r.Verdict = Indeterminate
		if fault.IsErrUnavailable(err) {
			r.Err = err
		} else {
			r.Err = fmt.Errorf("%w: %s", fault.ErrProofSourceUnavailable, err)
		}
		return r
	}

	computed := merkle.ComputeRoot(f.tx.TxId, f.input.Path)
	if computed != root {
		v.log.Debugf("funding[%d] computed root: %s  trusted: %s", f.index, computed, root)
		r.Verdict = Rejected
		r.Err = fmt.Errorf("%w: funding[%d] height: %d", fault.ErrMerkleRootMismatch, f.index, f.input.BlockHeight)
		return r
	}

	return r
}
