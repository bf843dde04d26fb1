// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
)

// Input - reference to a previous output and the script that unlocks it
type Input struct {
	PreviousTxId  merkle.Digest `json:"previousTxId"`
	PreviousIndex uint32        `json:"previousIndex"`
	ScriptSig     []byte        `json:"scriptSig"`
	Sequence      uint32        `json:"sequence"`
}

// Output - value in satoshis and the locking script
type Output struct {
	Value        int64  `json:"value"`
	ScriptPubKey []byte `json:"scriptPubKey"`
}

// Transaction - a decoded transaction
type Transaction struct {
	TxId     merkle.Digest `json:"txId"`
	Version  int32         `json:"version"`
	LockTime uint32        `json:"lockTime"`
	Inputs   []Input       `json:"inputs"`
	Outputs  []Output      `json:"outputs"`

	// the wire form and raw bytes are retained for the script interpreter
	msg *wire.MsgTx
	raw []byte
}

// ComputeTxId - double SHA-256 of the raw bytes
func ComputeTxId(raw []byte) merkle.Digest {
	return merkle.NewDigest(raw)
}

// Parse - decode a raw transaction, all bytes must be consumed
func Parse(raw []byte) (*Transaction, error) {
	if 0 == len(raw) {
		return nil, fault.ErrMalformedTransaction
	}

	msg := wire.NewMsgTx(wire.TxVersion)
	buffer := bytes.NewReader(raw)
	err := msg.DeserializeNoWitness(buffer)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrMalformedTransaction, err)
	}

	if 0 != buffer.Len() {
		return nil, fmt.Errorf("%w: %d trailing bytes", fault.ErrMalformedTransaction, buffer.Len())
	}

	tx := &Transaction{
		TxId:     ComputeTxId(raw),
		Version:  msg.Version,
		LockTime: msg.LockTime,
		Inputs:   make([]Input, len(msg.TxIn)),
		Outputs:  make([]Output, len(msg.TxOut)),
		msg:      msg,
		raw:      append([]byte{}, raw...),
	}

	for i, in := range msg.TxIn {
		tx.Inputs[i] = Input{
			PreviousTxId:  merkle.Digest(in.PreviousOutPoint.Hash),
			PreviousIndex: in.PreviousOutPoint.Index,
			ScriptSig:     in.SignatureScript,
			Sequence:      in.Sequence,
		}
	}
	for i, out := range msg.TxOut {
		tx.Outputs[i] = Output{
			Value:        out.Value,
			ScriptPubKey: out.PkScript,
		}
	}

	return tx, nil
}

// ParseHex - decode a hex encoded raw transaction
func ParseHex(s string) (*Transaction, error) {
	raw, err := hex.DecodeString(s)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrMalformedTransaction, err)
	}
	return Parse(raw)
}

// MsgTx - the wire form of the transaction
func (tx *Transaction) MsgTx() *wire.MsgTx {
	return tx.msg
}

// Bytes - the raw serialisation the transaction was parsed from
func (tx *Transaction) Bytes() []byte {
	return tx.raw
}

// Output - fetch an output by index
func (tx *Transaction) Output(index uint32) (Output, bool) {
	if uint64(index) >= uint64(len(tx.Outputs)) {
		return Output{}, false
	}
	return tx.Outputs[index], true
}
