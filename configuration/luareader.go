// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"reflect"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/bitmark-inc/spvrelay/fault"
)

// ParseConfigurationFile - read and execute a Lua file and assign
// the returned table to a configuration structure
//
// variables are set as Lua globals before the file runs, so a file
// can refer to values given on the command line
func ParseConfigurationFile(fileName string, config interface{}, variables map[string]string) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	// arg[0] = config file
	arg := &lua.LTable{}
	arg.Insert(0, lua.LString(fileName))
	L.SetGlobal("arg", arg)

	for name, value := range variables {
		L.SetGlobal(name, lua.LString(value))
	}

	if err := L.DoFile(fileName); nil != err {
		return err
	}

	return mapTable(L, config)
}

// ParseConfigurationString - as ParseConfigurationFile for inline text
func ParseConfigurationString(text string, config interface{}) error {
	L := lua.NewState()
	defer L.Close()

	L.OpenLibs()

	if err := L.DoString(text); nil != err {
		return err
	}

	return mapTable(L, config)
}

func mapTable(L *lua.LState, config interface{}) error {
	rv := reflect.ValueOf(config)
	if reflect.Ptr != rv.Kind() || rv.IsNil() || reflect.Struct != rv.Elem().Kind() {
		return fault.ErrInvalidStructPointer
	}

	table, ok := L.Get(L.GetTop()).(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: configuration must return a table", fault.ErrInvalidConfiguration)
	}

	mapper := gluamapper.Mapper{
		Option: gluamapper.Option{
			NameFunc: func(s string) string {
				return s
			},
			TagName: "gluamapper",
		},
	}
	return mapper.Map(table, config)
}
