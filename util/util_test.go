// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/spvrelay/util"
)

func TestEnsureAbsolute(t *testing.T) {
	base := filepath.Join("/", "var", "lib", "spv")

	assert.Equal(t, filepath.Join(base, "relay.conf"), util.EnsureAbsolute(base, "relay.conf"), "relative path")
	assert.Equal(t, filepath.Join("/", "etc", "relay.conf"), util.EnsureAbsolute(base, "/etc/relay.conf"), "absolute path")
	assert.Equal(t, filepath.Join(base, "x"), util.EnsureAbsolute(base, "a/../x"), "cleaned path")
}

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, `{"merkleroot":"abcd","height":12}`)
		case "/bad":
			fmt.Fprint(w, `{"merkleroot":`)
		default:
			http.Error(w, "missing", http.StatusNotFound)
		}
	}))
	defer server.Close()

	var reply struct {
		MerkleRoot string `json:"merkleroot"`
		Height     uint64 `json:"height"`
	}

	err := util.FetchJSON(context.Background(), server.Client(), server.URL+"/ok", &reply)
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, "abcd", reply.MerkleRoot, "wrong root")
	assert.Equal(t, uint64(12), reply.Height, "wrong height")

	err = util.FetchJSON(context.Background(), server.Client(), server.URL+"/bad", &reply)
	assert.NotNil(t, err, "expected decode error")

	err = util.FetchJSON(context.Background(), server.Client(), server.URL+"/none", &reply)
	var statusError *util.StatusError
	assert.True(t, errors.As(err, &statusError), "expected status error")
	assert.Equal(t, http.StatusNotFound, statusError.StatusCode, "wrong status")
}

func TestFetchJSONCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var reply struct{}
	err := util.FetchJSON(ctx, server.Client(), server.URL, &reply)
	assert.NotNil(t, err, "expected cancelled request to fail")
}

func TestFingerprint(t *testing.T) {
	f := util.Fingerprint([]byte{})
	// sha3-256 of the empty string
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", f.String(), "wrong fingerprint")
}

func TestEnsureDirectory(t *testing.T) {
	base, err := ioutil.TempDir("", "util")
	assert.NoError(t, err, "temp dir")
	defer os.RemoveAll(base)

	dir := filepath.Join(base, "a", "b")
	assert.NoError(t, util.EnsureDirectory(dir), "create")
	assert.True(t, util.EnsureFileExists(dir), "exists")
	assert.NoError(t, util.EnsureDirectory(dir), "existing")

	file := filepath.Join(base, "file")
	assert.NoError(t, ioutil.WriteFile(file, []byte("x"), 0600), "write")
	assert.Error(t, util.EnsureDirectory(file), "file in the way")
	assert.False(t, util.EnsureFileExists(filepath.Join(base, "absent")), "absent")
}
