// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package session - records of paired counterparts
//
// a record is created when a party first learns of a counterpart and
// is updated when the counterpart's public key and label arrive.
// Local ids start at 1 and are never reused by a store.
//
// two stores exist: an in-memory map and a leveldb database where
// each record is kept as JSON under:
//
//   'S' || id (8 bytes big endian)
package session
