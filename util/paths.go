// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/spvrelay/fault"
)

// EnsureAbsolute - relative paths are taken from directory
func EnsureAbsolute(directory string, filePath string) string {
	if filepath.IsAbs(filePath) {
		return filepath.Clean(filePath)
	}
	return filepath.Join(directory, filePath)
}

// EnsureFileExists - true if name can be stat'ed
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// EnsureDirectory - create a private directory if missing, fail if
// the path exists as something else
func EnsureDirectory(directory string) error {
	if err := os.MkdirAll(directory, 0700); nil != err {
		return err
	}
	info, err := os.Stat(directory)
	if nil != err {
		return err
	}
	if !info.IsDir() {
		return fault.ErrInvalidConfiguration
	}
	return nil
}
