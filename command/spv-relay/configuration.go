// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/spvrelay/configuration"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/relay"
	"github.com/bitmark-inc/spvrelay/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultCertificateFile = "relay.crt"
	defaultKeyFile         = "relay.key"

	defaultMaximumConnections = 1000

	defaultLogDirectory = "log"
	defaultLogFile      = "spv-relay.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size
)

// to hold log levels
type LoglevelMap map[string]string

var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// Configuration - top level of the relay configuration file
type Configuration struct {
	DataDirectory string               `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string               `gluamapper:"pidfile" json:"pidfile"`
	Relay         relay.Configuration  `gluamapper:"relay" json:"relay"`
	Logging       logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	options := &Configuration{
		DataDirectory: defaultDataDirectory,

		Relay: relay.Configuration{
			MaximumConnections: defaultMaximumConnections,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); nil != err {
		return nil, err
	}

	dataDirectory, err := configuration.DataDirectory(configurationFileName, options.DataDirectory)
	if nil != err {
		return nil, err
	}
	options.DataDirectory = dataDirectory

	// TLS is optional, but both files must be given together
	configuration.MakeAbsolute(dataDirectory,
		&options.PidFile,
		&options.Relay.Certificate,
		&options.Relay.PrivateKey,
		&options.Logging.Directory,
	)

	if filepath.Base(options.Logging.File) != options.Logging.File {
		return nil, fmt.Errorf("%w: files: %q is not plain name", fault.ErrInvalidConfiguration, options.Logging.File)
	}

	if err := util.EnsureDirectory(options.Logging.Directory); nil != err {
		return nil, err
	}

	return options, nil
}
