// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publish - broadcast merchant verdicts on a ZMQ PUB socket
//
// each message has two parts: the topic ("verdict") and a JSON body
package publish
