// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package relay - rendezvous server routing opaque envelopes between
// WebSocket connections by registered token
//
// a connection registers one or more tokens with PresentApplicationId,
// every other envelope is forwarded verbatim to the connection that
// holds the token named in its callId
package relay
