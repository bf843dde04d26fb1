// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/spvrelay/background"
)

// counts work until shutdown, then records that it returned
type worker struct {
	name    string
	ticks   uint64
	stopped uint32
}

func (w *worker) Run(args interface{}, shutdown <-chan struct{}) {
	t := args.(*testing.T)
	if "" == w.name {
		t.Errorf("worker started without a name")
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			atomic.AddUint64(&w.ticks, 1)
		}
	}

	// slow exit so Stop must actually wait
	time.Sleep(10 * time.Millisecond)
	atomic.StoreUint32(&w.stopped, 1)
}

func TestBackground(t *testing.T) {
	relay := &worker{name: "relay"}
	publisher := &worker{name: "publisher"}

	p := background.Start(background.Processes{relay, publisher}, t)
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	for _, w := range []*worker{relay, publisher} {
		assert.Equal(t, uint32(1), atomic.LoadUint32(&w.stopped), "%s: Stop returned before Run", w.name)
		assert.NotZero(t, atomic.LoadUint64(&w.ticks), "%s: never ran", w.name)

		// no more work after Stop
		ticks := atomic.LoadUint64(&w.ticks)
		time.Sleep(5 * time.Millisecond)
		assert.Equal(t, ticks, atomic.LoadUint64(&w.ticks), "%s: still running", w.name)
	}

	// second stop must not panic on the closed channel
	p.Stop()
}

func TestEmpty(t *testing.T) {
	p := background.Start(nil, nil)
	p.Stop()
}

func TestProcessFunc(t *testing.T) {
	started := make(chan interface{}, 1)
	finished := false

	f := background.ProcessFunc(func(args interface{}, shutdown <-chan struct{}) {
		started <- args
		<-shutdown
		finished = true
	})

	p := background.Start(background.Processes{f}, "argument")
	assert.Equal(t, "argument", <-started, "wrong args")
	p.Stop()
	assert.True(t, finished, "function did not see shutdown")
}
