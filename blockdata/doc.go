// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockdata - trusted block data from a block explorer
//
// provides the merkle root of a block at a given height and the
// merkle proof of a confirmed transaction.  Two root modes exist:
//
//   generate_merkle_root_local = true   GET {base}block/height/{h}             -> {"merkleroot": "..."}
//   generate_merkle_root_local = false  GET {base}block/header/height/{h}/raw  -> {"header": "<80 bytes hex>"}
//
// proofs are built from:
//
//   GET {base}tx/{txid}/proof  -> {"blockhash": "...", "branches": [{"pos": "L", "hash": "..."}, ...]}
//   GET {base}tx/{txid}        -> {"blockheight": n}
//
// any transport failure is reported as fault.ErrProofSourceUnavailable
// so that callers can distinguish "cannot tell" from "wrong"
package blockdata
