// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/fixtures"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func TestInitialiseTwice(t *testing.T) {
	err := fault.Initialise()
	assert.Nil(t, err, "first initialise")
	defer fault.Finalise()

	err = fault.Initialise()
	assert.Equal(t, fault.ErrAlreadyInitialised, err, "second initialise")
}

func TestFinaliseAllowsReinitialise(t *testing.T) {
	assert.Nil(t, fault.Initialise(), "initialise")
	fault.Finalise()
	fault.Finalise()

	assert.Nil(t, fault.Initialise(), "initialise after finalise")
	fault.Finalise()
}

func TestCriticalfWithoutChannel(t *testing.T) {
	assert.NotPanics(t, func() {
		fault.Criticalf("value: %d", 42)
	})
}

func TestPanicIfError(t *testing.T) {
	assert.NotPanics(t, func() {
		fault.PanicIfError("no error", nil)
	})

	assert.PanicsWithValue(t, "open failed with error: bad thing", func() {
		fault.PanicIfError("open", errors.New("bad thing"))
	})
}

func TestPanic(t *testing.T) {
	assert.PanicsWithValue(t, "stop", func() {
		fault.Panic("stop")
	})
}
