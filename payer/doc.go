// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package payer - the sending endpoint
//
// scans a merchant invitation, pairs through the relay and submits
// encrypted proof bundles, merchant replies arrive on a channel
package payer
