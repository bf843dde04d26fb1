// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/spvrelay/blockdata"
	"github.com/bitmark-inc/spvrelay/configuration"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/merchant"
	"github.com/bitmark-inc/spvrelay/publish"
	"github.com/bitmark-inc/spvrelay/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabase = "sessions.leveldb"

	defaultPublishPublicKeyFile  = "publish.public"
	defaultPublishPrivateKeyFile = "publish.private"

	defaultExplorer = "https://api.whatsonchain.com/v1/bsv/main/"

	defaultLogDirectory = "log"
	defaultLogFile      = "spv-merchant.log"
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

// Configuration - top level of the merchant configuration file
type Configuration struct {
	DataDirectory     string                  `gluamapper:"data_directory" json:"data_directory"`
	PidFile           string                  `gluamapper:"pidfile" json:"pidfile"`
	Database          string                  `gluamapper:"database" json:"database"`
	AcceptUnconfirmed bool                    `gluamapper:"accept_unconfirmed_input_transaction" json:"accept_unconfirmed_input_transaction"`
	Explorer          blockdata.Configuration `gluamapper:"explorer" json:"explorer"`
	Merchant          merchant.Configuration  `gluamapper:"merchant" json:"merchant"`
	Publishing        publish.Configuration   `gluamapper:"publish" json:"publish"`
	Logging           logger.Configuration    `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	options := &Configuration{
		DataDirectory: defaultDataDirectory,
		Database:      defaultDatabase,

		Explorer: blockdata.Configuration{
			BaseAddress: defaultExplorer,
		},

		Publishing: publish.Configuration{
			PublicKey:  defaultPublishPublicKeyFile,
			PrivateKey: defaultPublishPrivateKeyFile,
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

	if "" == options.Merchant.Token || "" == options.Merchant.RelayAddress {
		return nil, fmt.Errorf("%w: merchant application_web_socket_call_id and web_socket_address are required", fault.ErrInvalidConfiguration)
	}

	if "" == options.Database {
		return nil, fmt.Errorf("%w: database is required", fault.ErrInvalidConfiguration)
	}

	// keys are only read when broadcasting
	if 0 == len(options.Publishing.Broadcast) {
		options.Publishing.PublicKey = ""
		options.Publishing.PrivateKey = ""
	}

	configuration.MakeAbsolute(dataDirectory,
		&options.PidFile,
		&options.Database,
		&options.Publishing.PublicKey,
		&options.Publishing.PrivateKey,
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
