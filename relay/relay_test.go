// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package relay_test

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/fixtures"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/relay"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

type fakeConnection struct {
	sync.Mutex
	name     string
	received [][]byte
	err      error
}

func (f *fakeConnection) Send(raw []byte) error {
	f.Lock()
	defer f.Unlock()
	if nil != f.err {
		return f.err
	}
	f.received = append(f.received, raw)
	return nil
}

func (f *fakeConnection) String() string {
	return f.name
}

func (f *fakeConnection) frames() [][]byte {
	f.Lock()
	defer f.Unlock()
	return f.received
}

func newRelay(t *testing.T) *relay.Relay {
	r, err := relay.New()
	require.NoError(t, err, "relay.New")
	return r
}

func frame(t *testing.T, e *protocol.Envelope) []byte {
	raw, err := e.Encode()
	require.NoError(t, err, "encode")
	return raw
}

func TestForwardToRegistered(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}
	b := &fakeConnection{name: "b"}

	r.Handle(a, frame(t, protocol.NewRegister("A")))
	r.Handle(b, frame(t, protocol.NewRegister("B")))

	raw := []byte(`{"id":7,"event":"PresentData","callId":"A","message":["x","y"]}`)
	r.Handle(b, raw)

	assert.Equal(t, [][]byte{raw}, a.frames(), "verbatim forward")
	assert.Empty(t, b.frames(), "sender must not receive")
}

func TestForwardUnknownEvent(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}

	r.Register("A", a)

	raw := []byte(`{"id":1,"event":"SomethingNew","callId":"A","message":[]}`)
	r.Handle(a, raw)

	assert.Equal(t, [][]byte{raw}, a.frames(), "unknown events are forwarded")
}

func TestLastRegistrationWins(t *testing.T) {
	r := newRelay(t)
	first := &fakeConnection{name: "first"}
	second := &fakeConnection{name: "second"}

	r.Register("T", first)
	r.Register("T", second)

	raw := []byte(`{"id":1,"event":"PresentData","callId":"T","message":["m"]}`)
	require.NoError(t, r.Forward("T", raw), "forward")

	assert.Empty(t, first.frames(), "replaced connection")
	assert.Equal(t, [][]byte{raw}, second.frames(), "latest connection")

	// the replaced connection closing must not drop the new route
	assert.Equal(t, 0, r.Disconnect(first), "tokens removed")
	assert.Equal(t, []protocol.Status{{Id: "T", Status: true}}, r.Presence([]string{"T"}))
}

func TestForwardUnknownTarget(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}

	r.Register("A", a)

	err := r.Forward("nobody", []byte("{}"))
	assert.True(t, fault.IsErrNotFound(err), "expected not found: %v", err)

	r.Handle(a, []byte(`{"id":1,"event":"PresentData","callId":"nobody","message":["m"]}`))
	assert.Empty(t, a.frames(), "sender must not be notified")
}

func TestForwardSendFailure(t *testing.T) {
	r := newRelay(t)
	full := &fakeConnection{name: "full", err: fault.ErrSendQueueFull}

	r.Register("F", full)
	err := r.Forward("F", []byte("{}"))
	assert.Equal(t, fault.ErrSendQueueFull, err, "error")
}

func TestMalformedFrameDropped(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}
	r.Register("A", a)

	for _, raw := range []string{
		`not json`,
		`{"event":"PresentData","callId":"A","message":[]}`,
		`{"id":1,"event":"PresentData","callId":"A","message":"text"}`,
	} {
		r.Handle(a, []byte(raw))
	}
	assert.Empty(t, a.frames(), "malformed frames forwarded")
}

func TestEmptyTokenNotRegistered(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}
	b := &fakeConnection{name: "b"}

	r.Handle(a, []byte(`{"id":-1,"event":"PresentApplicationId","callId":"","message":[]}`))
	r.Handle(a, frame(t, protocol.NewRegister("")))
	assert.Equal(t, []protocol.Status{{Id: "", Status: false}}, r.Presence([]string{""}))

	// a pre-session envelope has no call id and must go nowhere
	r.Handle(b, []byte(`{"id":3,"event":"PresentData","callId":"","message":["m"]}`))
	assert.Empty(t, a.frames(), "delivered to empty token holder")

	err := r.Forward("", []byte("{}"))
	assert.True(t, fault.IsErrNotFound(err), "expected not found: %v", err)
}

func TestDeregister(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}

	r.Handle(a, frame(t, protocol.NewRegister("A")))
	r.Handle(a, frame(t, protocol.NewRegister("A2")))
	r.Handle(a, frame(t, protocol.NewDeregister("A")))

	assert.Equal(t, []protocol.Status{
		{Id: "A", Status: false},
		{Id: "A2", Status: true},
	}, r.Presence([]string{"A", "A2"}))

	// unknown token is ignored
	r.Deregister("never")
}

func TestDisconnectRemovesAllTokens(t *testing.T) {
	r := newRelay(t)
	a := &fakeConnection{name: "a"}
	b := &fakeConnection{name: "b"}

	for i := 0; i < 3; i += 1 {
		r.Register(fmt.Sprintf("a%d", i), a)
	}
	r.Register("b0", b)

	assert.Equal(t, 3, r.Disconnect(a), "removed count")
	assert.Equal(t, []protocol.Status{
		{Id: "a0", Status: false},
		{Id: "a1", Status: false},
		{Id: "a2", Status: false},
		{Id: "b0", Status: true},
	}, r.Presence([]string{"a0", "a1", "a2", "b0"}))

	assert.Equal(t, 0, r.Disconnect(a), "second disconnect")
}

func TestPresenceOrder(t *testing.T) {
	r := newRelay(t)
	r.Register("on", &fakeConnection{name: "c"})

	status := r.Presence([]string{"off", "on", "off"})
	assert.Equal(t, []protocol.Status{
		{Id: "off", Status: false},
		{Id: "on", Status: true},
		{Id: "off", Status: false},
	}, status)

	assert.Empty(t, r.Presence(nil), "empty query")
}
