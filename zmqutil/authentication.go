// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"sync"

	zmq "github.com/pebbe/zmq4"
)

var oneTimeAuthStart sync.Once

// StartAuthentication - start the ZAP handler once per process
func StartAuthentication() error {
	var err error
	oneTimeAuthStart.Do(func() {
		zmq.AuthSetVerbose(false)
		err = zmq.AuthStart()
	})
	return err
}
