// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitmark-inc/spvrelay/fault"
)

// maximum size of an inflated invitation
const maximumInvitationSize = 16384

// Invitation - what a merchant shows to a payer to start pairing
//
// encoded as the base64 of the zlib deflated URL:
//
//   {socketAddress}/?socketAddress=..&id=..&name=..&callId=..&ivHex=..&publicKeyHex=..
type Invitation struct {
	SocketAddress string `json:"socketAddress"`
	Id            int64  `json:"id"`
	Name          string `json:"name"`
	CallId        string `json:"callId"`
	IvHex         string `json:"ivHex"`
	PublicKeyHex  string `json:"publicKeyHex"`
}

// URL - the uncompressed form
func (inv *Invitation) URL() string {
	fields := []struct {
		key   string
		value string
	}{
		{"socketAddress", inv.SocketAddress},
		{"id", strconv.FormatInt(inv.Id, 10)},
		{"name", inv.Name},
		{"callId", inv.CallId},
		{"ivHex", inv.IvHex},
		{"publicKeyHex", inv.PublicKeyHex},
	}

	query := make([]string, len(fields))
	for i, f := range fields {
		query[i] = f.key + "=" + url.QueryEscape(f.value)
	}
	return strings.TrimSuffix(inv.SocketAddress, "/") + "/?" + strings.Join(query, "&")
}

// Encode - compressed token suitable for a QR code
func (inv *Invitation) Encode() (string, error) {
	buffer := &bytes.Buffer{}
	w := zlib.NewWriter(buffer)
	if _, err := w.Write([]byte(inv.URL())); nil != err {
		return "", err
	}
	if err := w.Close(); nil != err {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}

// DecodeInvitation - reverse of Encode
func DecodeInvitation(token string) (*Invitation, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidInvitation, err)
	}

	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidInvitation, err)
	}
	defer r.Close()

	text, err := ioutil.ReadAll(io.LimitReader(r, maximumInvitationSize+1))
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidInvitation, err)
	}
	if len(text) > maximumInvitationSize {
		return nil, fmt.Errorf("%w: too large", fault.ErrInvalidInvitation)
	}

	return ParseInvitationURL(string(text))
}

// ParseInvitationURL - decode the uncompressed form
func ParseInvitationURL(s string) (*Invitation, error) {
	n := strings.Index(s, "?")
	if n < 0 {
		return nil, fmt.Errorf("%w: no query", fault.ErrInvalidInvitation)
	}

	values, err := url.ParseQuery(s[n+1:])
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidInvitation, err)
	}

	id, err := strconv.ParseInt(values.Get("id"), 10, 64)
	if nil != err {
		return nil, fmt.Errorf("%w: id: %s", fault.ErrInvalidInvitation, err)
	}

	inv := &Invitation{
		SocketAddress: values.Get("socketAddress"),
		Id:            id,
		Name:          values.Get("name"),
		CallId:        values.Get("callId"),
		IvHex:         values.Get("ivHex"),
		PublicKeyHex:  values.Get("publicKeyHex"),
	}
	if "" == inv.SocketAddress || "" == inv.CallId || "" == inv.IvHex || "" == inv.PublicKeyHex {
		return nil, fmt.Errorf("%w: missing fields", fault.ErrInvalidInvitation)
	}
	return inv, nil
}
