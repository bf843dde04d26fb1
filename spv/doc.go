// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package spv - simplified payment verification of a proof bundle
//
// a bundle holds the transaction being paid plus the raw funding
// transactions it spends, each with the block height and merkle branch
// that prove its inclusion.  Verification runs in stages:
//
//   1. decode and id integrity    - every raw transaction parses and
//                                   its recomputed id is the id the
//                                   current transaction references
//   2. linkage                    - every input is funded by an entry
//                                   exposing the referenced output
//   3. script                     - external interpreter accepts every
//                                   scriptSig / scriptPubKey pair
//   4. confirmation               - every funding transaction's branch
//                                   leads to the trusted block root
//
// stages 1-3 stop at the first failure, stage 4 checks all funding
// transactions concurrently and the worst outcome is the verdict:
//
//   Rejected > Indeterminate > Accepted
package spv
