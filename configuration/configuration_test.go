// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/spvrelay/configuration"
	"github.com/bitmark-inc/spvrelay/fault"
)

type listenerType struct {
	Listen             []string `gluamapper:"listen"`
	MaximumConnections uint64   `gluamapper:"maximum_connections"`
}

type testConfiguration struct {
	DataDirectory string            `gluamapper:"data_directory"`
	Name          string            `gluamapper:"application_name"`
	Strict        bool              `gluamapper:"require_client_merkle_path"`
	RateLimit     float64           `gluamapper:"rate_limit"`
	Relay         listenerType      `gluamapper:"relay"`
	Levels        map[string]string `gluamapper:"levels"`
}

const sample = `
local name = "Corner " .. "Shop"
return {
    data_directory = ".",
    application_name = name,
    require_client_merkle_path = true,
    rate_limit = 2.5,
    relay = {
        listen = { "127.0.0.1:8080", "[::1]:8080" },
        maximum_connections = 50,
    },
    levels = {
        main = "info",
        DEFAULT = "error",
    },
}
`

func TestParseConfigurationString(t *testing.T) {
	options := &testConfiguration{
		Name: "default",
	}

	err := configuration.ParseConfigurationString(sample, options)
	require.NoError(t, err, "parse")

	assert.Equal(t, ".", options.DataDirectory, "data directory")
	assert.Equal(t, "Corner Shop", options.Name, "name")
	assert.True(t, options.Strict, "bool")
	assert.Equal(t, 2.5, options.RateLimit, "float")
	assert.Equal(t, []string{"127.0.0.1:8080", "[::1]:8080"}, options.Relay.Listen, "listen")
	assert.Equal(t, uint64(50), options.Relay.MaximumConnections, "maximum")
	assert.Equal(t, "error", options.Levels["DEFAULT"], "levels")
}

func TestDefaultsKept(t *testing.T) {
	options := &testConfiguration{
		Name:      "default",
		RateLimit: 7,
	}

	err := configuration.ParseConfigurationString(`return { data_directory = "/tmp" }`, options)
	require.NoError(t, err, "parse")
	assert.Equal(t, "default", options.Name, "name overwritten")
	assert.Equal(t, float64(7), options.RateLimit, "rate overwritten")
}

func TestParseErrors(t *testing.T) {
	options := &testConfiguration{}

	err := configuration.ParseConfigurationString(`return {`, options)
	assert.Error(t, err, "syntax error")

	err = configuration.ParseConfigurationString(`return 42`, options)
	assert.True(t, fault.IsErrInvalid(err), "not a table: %v", err)

	err = configuration.ParseConfigurationString(`return {}`, *options)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a pointer")
}

func TestParseConfigurationFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	require.NoError(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "test.conf")
	text := `
return {
    data_directory = arg[0] and ".",
    application_name = shop_name,
}
`
	require.NoError(t, ioutil.WriteFile(fileName, []byte(text), 0600), "write")

	options := &testConfiguration{}
	err = configuration.ParseConfigurationFile(fileName, options, map[string]string{
		"shop_name": "from command line",
	})
	require.NoError(t, err, "parse")
	assert.Equal(t, ".", options.DataDirectory, "data directory")
	assert.Equal(t, "from command line", options.Name, "variable")

	_, err = os.Stat(fileName)
	require.NoError(t, err, "file")

	err = configuration.ParseConfigurationFile(filepath.Join(dir, "missing.conf"), options, nil)
	assert.Error(t, err, "missing file")
}

func TestDataDirectory(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration")
	require.NoError(t, err, "temp dir")
	defer os.RemoveAll(dir)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "data"), 0700), "mkdir")
	fileName := filepath.Join(dir, "test.conf")

	d, err := configuration.DataDirectory(fileName, ".")
	require.NoError(t, err, "dot")
	assert.Equal(t, filepath.Clean(dir), d, "dot")

	d, err = configuration.DataDirectory(fileName, "data")
	require.NoError(t, err, "relative")
	assert.Equal(t, filepath.Join(dir, "data"), d, "relative")

	_, err = configuration.DataDirectory(fileName, "")
	assert.True(t, fault.IsErrInvalid(err), "empty: %v", err)

	_, err = configuration.DataDirectory(fileName, "~")
	assert.True(t, fault.IsErrInvalid(err), "tilde: %v", err)

	_, err = configuration.DataDirectory(fileName, "absent")
	assert.Error(t, err, "absent")

	require.NoError(t, ioutil.WriteFile(fileName, []byte("x"), 0600), "write")
	_, err = configuration.DataDirectory(fileName, "test.conf")
	assert.True(t, fault.IsErrInvalid(err), "file: %v", err)

	a, b, empty := "relay.crt", "/etc/relay.key", ""
	configuration.MakeAbsolute(dir, &a, &b, &empty)
	assert.Equal(t, filepath.Join(dir, "relay.crt"), a, "relative")
	assert.Equal(t, "/etc/relay.key", b, "absolute")
	assert.Equal(t, "", empty, "empty")
}
