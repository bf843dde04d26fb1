// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package protocol - messages exchanged through the relay
//
// every frame on the wire is a JSON envelope:
//
//   {"id": <int>, "event": <string>, "callId": <string>, "message": [<string>, ...]}
//
// events:
//
//   PresentApplicationId        register the tokens in message with the relay
//   PresentRemoveApplicationId  remove the tokens in message from the relay
//   PresentData                 encrypted handshake or reply for callId
//   PresentSpvData              encrypted proof submission for callId
//
// for the data events "id" is the recipient's local session id and
// "message" holds the encrypted chunks of a JSON payload
package protocol
