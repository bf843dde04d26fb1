// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/util"
)

// DataDirectory - resolve the configured data directory
//
// "." means the directory holding the configuration file, an empty
// value or "~" is rejected and the result must be an existing directory
func DataDirectory(configurationFileName string, dataDirectory string) (string, error) {
	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return "", err
	}
	configurationDirectory, _ := filepath.Split(configurationFileName)

	switch dataDirectory {
	case "", "~":
		return "", fmt.Errorf("%w: path: %q is not a valid directory", fault.ErrInvalidConfiguration, dataDirectory)
	case ".":
		dataDirectory = configurationDirectory
	default:
		dataDirectory = util.EnsureAbsolute(configurationDirectory, dataDirectory)
	}

	fileInfo, err := os.Stat(dataDirectory)
	if nil != err {
		return "", err
	}
	if !fileInfo.IsDir() {
		return "", fmt.Errorf("%w: path: %q is not a directory", fault.ErrInvalidConfiguration, dataDirectory)
	}

	return filepath.Clean(dataDirectory), nil
}

// MakeAbsolute - rewrite each non-empty path relative to directory
func MakeAbsolute(directory string, paths ...*string) {
	for _, p := range paths {
		if "" != *p {
			*p = util.EnsureAbsolute(directory, *p)
		}
	}
}
