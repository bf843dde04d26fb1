// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol_test

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merkle"
	"github.com/bitmark-inc/spvrelay/protocol"
)

func TestDecodeEnvelope(t *testing.T) {
	e, err := protocol.Decode([]byte(`{"id":-1,"event":"PresentApplicationId","callId":"","message":["abc","def"]}`))
	require.Nil(t, err, "decode error")
	assert.Equal(t, int64(-1), e.Id, "wrong id")
	assert.Equal(t, protocol.EventPresentApplicationId, e.Event, "wrong event")
	assert.Equal(t, "abcdef", e.Token(), "wrong token")

	e, err = protocol.Decode([]byte(`{"id":7,"event":"PresentSpvData","callId":"merchant","message":[]}`))
	require.Nil(t, err, "decode error")
	assert.Equal(t, protocol.EventPresentSpvData, e.Event, "wrong event")
	assert.Equal(t, "merchant", e.CallId, "wrong call id")
	assert.Equal(t, 0, len(e.Message), "wrong message")

	// callId may be absent on registration
	e, err = protocol.Decode([]byte(`{"id":-1,"event":"PresentRemoveApplicationId","message":["abc"]}`))
	require.Nil(t, err, "decode error")
	assert.Equal(t, "", e.CallId, "wrong call id")
}

func TestDecodeUnknownEvent(t *testing.T) {
	e, err := protocol.Decode([]byte(`{"id":3,"event":"SomethingElse","callId":"peer","message":["x"]}`))
	require.Nil(t, err, "decode error")
	assert.Equal(t, protocol.EventUnknown, e.Event, "should be unknown")
	assert.Equal(t, "SomethingElse", e.Name, "original name lost")
	assert.Equal(t, "peer", e.CallId, "wrong call id")
}

func TestAccept(t *testing.T) {
	e, err := protocol.Decode([]byte(`{"id":3,"event":"PresentSpvData","callId":"peer","message":["x"]}`))
	require.Nil(t, err, "decode error")
	assert.Nil(t, e.Accept(protocol.EventPresentData, protocol.EventPresentSpvData), "expected accept")

	err = e.Accept(protocol.EventPresentData)
	assert.True(t, errors.Is(err, fault.ErrUnknownEvent), "expected unknown event: %v", err)

	e, err = protocol.Decode([]byte(`{"id":3,"event":"SomethingElse","callId":"peer","message":["x"]}`))
	require.Nil(t, err, "decode error")
	err = e.Accept(protocol.EventPresentData, protocol.EventUnknown)
	assert.True(t, errors.Is(err, fault.ErrUnknownEvent), "expected unknown event: %v", err)
	assert.Contains(t, err.Error(), "SomethingElse", "name missing")

	err = protocol.NewRegister("me").Accept(protocol.EventPresentData)
	assert.Contains(t, err.Error(), "PresentApplicationId", "event missing")
}

func TestDecodeInvalidEnvelope(t *testing.T) {
	invalid := []string{
		``,
		`[]`,
		`{"event":"PresentData","callId":"x","message":[]}`,
		`{"id":1,"callId":"x","message":[]}`,
		`{"id":"one","event":"PresentData","callId":"x","message":[]}`,
		`{"id":1.5,"event":"PresentData","callId":"x","message":[]}`,
		`{"id":1,"event":"PresentData","callId":"x"}`,
		`{"id":1,"event":"PresentData","callId":"x","message":"abc"}`,
		`{"id":1,"event":"PresentData","callId":"x","message":[1,2]}`,
		`{"id":1,"event":7,"callId":"x","message":[]}`,
	}
	for _, s := range invalid {
		_, err := protocol.Decode([]byte(s))
		assert.True(t, fault.IsErrInvalid(err), "accepted: %s", s)
	}
}

func TestEncodeEnvelope(t *testing.T) {
	b, err := protocol.NewData(protocol.EventPresentData, 5, "peer", []string{"c1", "c2"}).Encode()
	require.Nil(t, err, "encode error")
	assert.JSONEq(t, `{"id":5,"event":"PresentData","callId":"peer","message":["c1","c2"]}`, string(b), "wrong JSON")

	b, err = protocol.NewRegister("token").Encode()
	require.Nil(t, err, "encode error")
	assert.JSONEq(t, `{"id":-1,"event":"PresentApplicationId","callId":"","message":["token"]}`, string(b), "wrong JSON")

	b, err = protocol.NewDeregister("token").Encode()
	require.Nil(t, err, "encode error")
	assert.JSONEq(t, `{"id":-1,"event":"PresentRemoveApplicationId","callId":"","message":["token"]}`, string(b), "wrong JSON")
}

func TestHandshake(t *testing.T) {
	h, err := protocol.DecodeHandshake([]byte(`{"callId":"client","publicKeyHex":"2d2d","ivHex":"0011"}`))
	require.Nil(t, err, "decode error")
	assert.Equal(t, "client", h.CallId, "wrong call id")
	assert.Equal(t, "2d2d", h.PublicKeyHex, "wrong key")
	assert.Equal(t, "0011", h.IvHex, "wrong iv")

	_, err = protocol.DecodeHandshake([]byte(`{"callId":"client"}`))
	assert.Equal(t, fault.ErrMissingParameters, err, "incomplete handshake")

	_, err = protocol.DecodeHandshake([]byte(`not json`))
	assert.True(t, fault.IsErrInvalid(err), "bad JSON")
}

func TestProofSubmission(t *testing.T) {
	data, err := ioutil.ReadFile("testdata/bundle.json")
	require.Nil(t, err, "read sample")

	p, err := protocol.DecodeProofSubmission(data)
	require.Nil(t, err, "decode error")
	require.Equal(t, 2, len(p.Inputs), "input count")
	assert.Equal(t, uint64(839106), p.Inputs[0].BlockHeight, "first height")
	assert.Equal(t, 12, len(p.Inputs[0].Branch), "first branch")
	assert.Equal(t, merkle.Left, p.Inputs[0].Branch[0].Side, "first side")

	bundle, err := p.ToBundle()
	require.Nil(t, err, "to bundle")
	assert.Equal(t, 406, len(bundle.CurrentTx), "current length")
	assert.Equal(t, 474, len(bundle.Inputs[0].RawTx), "first funding length")
	assert.Equal(t, uint64(842104), bundle.Inputs[1].BlockHeight, "second height")

	back := protocol.FromBundle(bundle)
	assert.Equal(t, p, back, "round trip differs")

	b, err := json.Marshal(back)
	require.Nil(t, err, "marshal")
	assert.JSONEq(t, string(data), string(b), "wire form differs")
}

func TestProofSubmissionInvalid(t *testing.T) {
	_, err := protocol.DecodeProofSubmission([]byte(`{"inputs":[]}`))
	assert.Equal(t, fault.ErrMissingParameters, err, "missing current")

	_, err = protocol.DecodeProofSubmission([]byte(`{"currentTx":"00","inputs":[{"rawTx":"00","blockheight":1,"branch":[{"pos":"Q","hash":"00"}]}]}`))
	assert.NotNil(t, err, "bad branch")

	p := &protocol.ProofSubmission{CurrentTx: "zz"}
	_, err = p.ToBundle()
	assert.True(t, fault.IsErrInvalid(err), "bad current hex")

	p = &protocol.ProofSubmission{
		CurrentTx: "00",
		Inputs:    []protocol.FundingInput{{RawTx: "0g"}},
	}
	_, err = p.ToBundle()
	assert.True(t, fault.IsErrInvalid(err), "bad funding hex")
}

func TestInvitationRoundTrip(t *testing.T) {
	inv := &protocol.Invitation{
		SocketAddress: "ws://relay.example.com:8080",
		Id:            12,
		Name:          "Corner Shop & Café",
		CallId:        "merchant-token",
		IvHex:         "00112233445566778899aabbccddeeff",
		PublicKeyHex:  "2d2d2d2d2d424547494e205055424c4943204b45592d2d2d2d2d",
	}

	token, err := inv.Encode()
	require.Nil(t, err, "encode error")

	back, err := protocol.DecodeInvitation(token)
	require.Nil(t, err, "decode error")
	assert.Equal(t, inv, back, "round trip differs")
}

func TestInvitationUnescapedURL(t *testing.T) {
	s := "ws://127.0.0.1:3000/?socketAddress=ws://127.0.0.1:3000&id=1&name=shop&callId=abc&ivHex=0011&publicKeyHex=2d2d"

	buffer := &bytes.Buffer{}
	w := zlib.NewWriter(buffer)
	_, err := w.Write([]byte(s))
	require.Nil(t, err, "compress")
	require.Nil(t, w.Close(), "close")

	inv, err := protocol.DecodeInvitation(base64.StdEncoding.EncodeToString(buffer.Bytes()))
	require.Nil(t, err, "decode error")
	assert.Equal(t, "ws://127.0.0.1:3000", inv.SocketAddress, "wrong address")
	assert.Equal(t, int64(1), inv.Id, "wrong id")
	assert.Equal(t, "shop", inv.Name, "wrong name")
	assert.Equal(t, "abc", inv.CallId, "wrong call id")
}

func TestInvitationInvalid(t *testing.T) {
	for _, token := range []string{
		"",
		"!!!",
		base64.StdEncoding.EncodeToString([]byte("not compressed")),
	} {
		_, err := protocol.DecodeInvitation(token)
		assert.True(t, fault.IsErrInvalid(err), "accepted: %q", token)
	}

	_, err := protocol.ParseInvitationURL("ws://x/?socketAddress=ws://x&id=1")
	assert.True(t, fault.IsErrInvalid(err), "missing fields")

	_, err = protocol.ParseInvitationURL("ws://x/?socketAddress=ws://x&id=one&callId=a&ivHex=b&publicKeyHex=c")
	assert.True(t, fault.IsErrInvalid(err), "bad id")

	_, err = protocol.ParseInvitationURL("ws://x/")
	assert.True(t, fault.IsErrInvalid(err), "no query")
}
