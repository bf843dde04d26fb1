// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merchant - the receiving endpoint
//
// issues invitations, pairs with payers through the relay, verifies
// submitted proof bundles and replies with an encrypted verdict
package merchant
