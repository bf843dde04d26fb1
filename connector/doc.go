// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package connector - keeps one registered connection to a relay
//
// a Client moves Disconnected -> Connecting -> Registered and back,
// reconnecting with a doubling delay until the delay passes the
// configured maximum
package connector
