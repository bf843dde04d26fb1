// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package interpreter - script verification using a fork id aware engine
package interpreter

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/libsv/go-bt/v2"
	"github.com/libsv/go-bt/v2/bscript"
	bsvscript "github.com/libsv/go-bt/v2/bscript/interpreter"
	"github.com/libsv/go-bt/v2/bscript/interpreter/scriptflag"
	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/transaction"
)

// DefaultFlags - P2SH evaluation, strict encoding and fork id signature hashes
const DefaultFlags = uint32(scriptflag.Bip16 | scriptflag.VerifyStrictEncoding | scriptflag.EnableSighashForkID)

const (
	acceptedExpiry  = 10 * time.Minute
	cleanupInterval = 15 * time.Minute
)

// Engine - executes scriptSig followed by scriptPubKey
type Engine struct {
	accepted *cache.Cache
}

// New - create an engine that remembers accepted inputs
func New() *Engine {
	return &Engine{
		accepted: cache.New(acceptedExpiry, cleanupInterval),
	}
}

// VerifyScript - true if the input at inputIndex unlocks scriptPubKey
func (e *Engine) VerifyScript(scriptSig []byte, scriptPubKey []byte, tx *transaction.Transaction, inputIndex int, flags uint32, amount int64) (bool, error) {
	if nil == tx || 0 == len(tx.Bytes()) {
		return false, fault.ErrMissingParameters
	}
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return false, fmt.Errorf("%w: input index: %d", fault.ErrScriptInvalid, inputIndex)
	}
	if amount < 0 {
		return false, fmt.Errorf("%w: negative amount: %d", fault.ErrScriptInvalid, amount)
	}

	key := acceptedKey(scriptSig, scriptPubKey, tx, inputIndex, flags, amount)
	if _, found := e.accepted.Get(key); found {
		return true, nil
	}

	// decoded afresh so the caller's transaction is never modified
	btTx, err := bt.NewTxFromBytes(tx.Bytes())
	if nil != err {
		return false, fmt.Errorf("%w: %s", fault.ErrMalformedTransaction, err)
	}

	lockingScript := bscript.NewFromBytes(scriptPubKey)
	input := btTx.Inputs[inputIndex]
	input.UnlockingScript = bscript.NewFromBytes(scriptSig)
	input.PreviousTxScript = lockingScript
	input.PreviousTxSatoshis = uint64(amount)

	previous := &bt.Output{
		Satoshis:      uint64(amount),
		LockingScript: lockingScript,
	}

	err = bsvscript.NewEngine().Execute(
		bsvscript.WithTx(btTx, inputIndex, previous),
		bsvscript.WithFlags(scriptflag.Flag(flags)),
	)
	if nil != err {
		return false, nil
	}

	e.accepted.SetDefault(key, struct{}{})
	return true, nil
}

// every argument that can change the outcome contributes to the key
func acceptedKey(scriptSig []byte, scriptPubKey []byte, tx *transaction.Transaction, inputIndex int, flags uint32, amount int64) string {
	var scalars [28]byte
	binary.LittleEndian.PutUint64(scalars[0:8], uint64(inputIndex))
	binary.LittleEndian.PutUint32(scalars[8:12], flags)
	binary.LittleEndian.PutUint64(scalars[12:20], uint64(amount))
	binary.LittleEndian.PutUint64(scalars[20:28], uint64(len(scriptSig)))

	h := sha256.New()
	h.Write(tx.TxId[:])
	h.Write(scalars[:])
	h.Write(scriptSig)
	h.Write(scriptPubKey)
	return hex.EncodeToString(h.Sum(nil))
}
