// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// bitcoin transaction handling
//
// decodes the legacy (non-witness) serialisation of a bitcoin style
// transaction:
//
//   version(4 LE) | vin count(varint) | vin... | vout count(varint) | vout... | locktime(4 LE)
//
//   vin:  previous txid(32 LE) | previous index(4 LE) | script length(varint) | scriptSig | sequence(4 LE)
//   vout: value(8 LE) | script length(varint) | scriptPubKey
//
// the transaction id is the double SHA-256 of the complete raw bytes,
// kept in the little endian order of the hash and printed big endian
package transaction
