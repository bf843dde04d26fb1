// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merchant

import (
	"context"
	"fmt"
	"time"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/publish"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/spv"
	"github.com/bitmark-inc/spvrelay/transaction"
	"github.com/bitmark-inc/spvrelay/tunnel"
)

// the envelope id is the local id of the merchant's session record
func (m *Merchant) record(e *protocol.Envelope) (*session.Record, error) {
	if e.Id <= 0 {
		return nil, fmt.Errorf("%w: id: %d", fault.ErrSessionNotFound, e.Id)
	}
	r, err := m.store.FindByLocalId(uint64(e.Id))
	if nil != err {
		return nil, fmt.Errorf("%w: id: %d", fault.ErrSessionNotFound, e.Id)
	}
	return r, nil
}

// a payer announcing its token and key material
func (m *Merchant) handshake(e *protocol.Envelope) error {
	r, err := m.record(e)
	if nil != err {
		return err
	}

	plaintext, err := tunnel.Decrypt(e.Message, &r.Keys)
	if nil != err {
		return err
	}

	h, err := protocol.DecodeHandshake(plaintext)
	if nil != err {
		return err
	}

	// our own announcement reflected back
	if h.CallId == m.token {
		m.log.Debugf("session: %d  ignore own call id", r.LocalId)
		return nil
	}

	// a verdict was sent, the pairing is fixed
	if r.Concluded {
		if h.CallId == r.PeerCallId && h.PublicKeyHex == r.PeerPublicKey && h.IvHex == r.PeerLabel {
			m.log.Debugf("session: %d  repeated handshake from: %q", r.LocalId, h.CallId)
			return nil
		}
		return fmt.Errorf("%w: session: %d  call id: %q", fault.ErrSessionConcluded, r.LocalId, h.CallId)
	}

	err = m.store.Update(r.LocalId, session.Patch{
		PeerCallId:    session.String(h.CallId),
		PeerPublicKey: session.String(h.PublicKeyHex),
		PeerLabel:     session.String(h.IvHex),
	})
	if nil != err {
		return err
	}

	m.log.Infof("session: %d  paired with: %q", r.LocalId, h.CallId)
	return nil
}

// a payer's encrypted proof bundle
func (m *Merchant) submission(e *protocol.Envelope) error {
	r, err := m.record(e)
	if nil != err {
		return err
	}
	if !r.IsPaired() {
		return fault.ErrNotPaired
	}

	plaintext, err := tunnel.Decrypt(e.Message, &r.Keys)
	if nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(m.ctx, verifyTimeout)
	defer cancel()

	bundle, result := m.prepare(ctx, plaintext)
	if nil == result {
		result = m.verifier.Verify(ctx, bundle)
	}

	m.log.Infof("session: %d  verdict: %s  stage: %s  reason: %s", r.LocalId, result.Verdict, result.Stage, result.Reason())

	m.publish(r, bundle, result)

	if err := m.store.Update(r.LocalId, session.Patch{Concluded: session.Bool(true)}); nil != err {
		m.log.Errorf("session: %d  conclude error: %s", r.LocalId, err)
	}

	return m.reply(r, replyText(result))
}

// decode the submission and fill in missing proofs, a non-nil
// result means the bundle is already decided
func (m *Merchant) prepare(ctx context.Context, plaintext []byte) (*spv.Bundle, *spv.Result) {
	submission, err := protocol.DecodeProofSubmission(plaintext)
	if nil != err {
		return nil, spv.Reject(spv.StageDecode, err)
	}

	bundle, err := submission.ToBundle()
	if nil != err {
		return nil, spv.Reject(spv.StageDecode, err)
	}

	if spv.HasProofs(bundle) {
		return bundle, nil
	}

	if m.requirePath {
		return bundle, spv.Reject(spv.StageConfirmation, fmt.Errorf("%w: client must supply merkle paths", fault.ErrMissingProof))
	}

	m.completeProofs(ctx, bundle)
	return bundle, nil
}

// fetch path and height for inputs that lack them, failures leave
// the input unchanged for the verifier to judge
func (m *Merchant) completeProofs(ctx context.Context, bundle *spv.Bundle) {
	if nil == m.proofs {
		return
	}

	for i := range bundle.Inputs {
		input := &bundle.Inputs[i]
		if 0 != len(input.Path) && 0 != input.BlockHeight {
			continue
		}

		txId := transaction.ComputeTxId(input.RawTx)
		proof, err := m.proofs.Proof(ctx, txId)
		if nil != err {
			m.log.Warnf("funding[%d]: %s  proof error: %s", i, txId, err)
			continue
		}

		input.Path = proof.Path
		input.BlockHeight = proof.BlockHeight
		m.log.Debugf("funding[%d]: %s  completed at height: %d", i, txId, proof.BlockHeight)
	}
}

func replyText(result *spv.Result) string {
	switch result.Verdict {
	case spv.Accepted:
		return protocol.ReplyValid
	case spv.Indeterminate:
		return protocol.ReplyUnavailable
	default:
		return protocol.ReplyInvalid
	}
}

// encrypt text for the paired payer and send it through the relay
func (m *Merchant) reply(r *session.Record, text string) error {
	chunks, err := tunnel.Encrypt([]byte(text), r.PeerPublicKey, r.PeerLabel)
	if nil != err {
		return err
	}

	sender := m.getSender()
	if nil == sender {
		return fault.ErrNotConnected
	}

	return sender.Send(protocol.NewData(protocol.EventPresentData, int64(r.LocalId), r.PeerCallId, chunks))
}

func (m *Merchant) publish(r *session.Record, bundle *spv.Bundle, result *spv.Result) {
	if nil == m.publisher {
		return
	}

	v := &publish.Verdict{
		SessionId: r.LocalId,
		Valid:     result.Ok(),
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
	if nil != bundle {
		v.TxId = transaction.ComputeTxId(bundle.CurrentTx).String()
	}

	if err := m.publisher.Publish(v); nil != err {
		m.log.Warnf("session: %d  publish error: %s", r.LocalId, err)
	}
}
