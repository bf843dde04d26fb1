// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/spvrelay/configuration"
	"github.com/bitmark-inc/spvrelay/payer"
	"github.com/bitmark-inc/spvrelay/util"
)

const (
	configurationFile = "spv-client.conf"

	defaultDatabase = "sessions.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "spv-client.log"
	defaultLogCount     = 10
	defaultLogSize      = 1024 * 1024
)

// Configuration - optional file in the data directory
type Configuration struct {
	Database string               `gluamapper:"database" json:"database"`
	Payer    payer.Configuration  `gluamapper:"payer" json:"payer"`
	Logging  logger.Configuration `gluamapper:"logging" json:"logging"`
}

// resolve and create the data directory
func dataDirectory(directory string) (string, error) {
	if "" == directory {
		base := os.Getenv("XDG_CONFIG_HOME")
		if "" == base {
			home, err := os.UserHomeDir()
			if nil != err {
				return "", fmt.Errorf("XDG_CONFIG_HOME environment is not set")
			}
			base = filepath.Join(home, ".config")
		}
		directory = filepath.Join(base, "spv-client")
	}

	directory, err := filepath.Abs(directory)
	if nil != err {
		return "", err
	}
	if err := util.EnsureDirectory(directory); nil != err {
		return "", err
	}
	return directory, nil
}

// defaults, then the configuration file if one exists
func getConfiguration(directory string, verbose bool) (*Configuration, error) {
	level := "error"
	if verbose {
		level = "info"
	}

	options := &Configuration{
		Database: defaultDatabase,
		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Console:   verbose,
			Levels: map[string]string{
				logger.DefaultTag: level,
			},
		},
	}

	fileName := filepath.Join(directory, configurationFile)
	if util.EnsureFileExists(fileName) {
		if err := configuration.ParseConfigurationFile(fileName, options, nil); nil != err {
			return nil, err
		}
	}

	configuration.MakeAbsolute(directory, &options.Database, &options.Logging.Directory)

	if err := util.EnsureDirectory(options.Logging.Directory); nil != err {
		return nil, err
	}

	return options, nil
}
