// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/bitmark-inc/spvrelay/merchant"
	"github.com/bitmark-inc/spvrelay/protocol"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/zmqutil"
)

// setup command handler
//
// commands that run to create key files these commands cannot
// access the session database or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-publish-identity", "publish":
		publicKeyFilename := getFilenameWithDirectory(arguments, defaultPublishPublicKeyFile)
		privateKeyFilename := getFilenameWithDirectory(arguments, defaultPublishPrivateKeyFile)
		err := zmqutil.MakeKeyPair(publicKeyFilename, privateKeyFilename)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFilename, publicKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false // defer processing until configuration is read

	case "invite", "sessions":
		return false // defer processing until database is opened

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)        - display this message\n\n")
		fmt.Printf("  version                    (v)        - display version sting\n\n")

		fmt.Printf("  gen-publish-identity [DIR] (publish)  - create private key in: %q\n", "DIR/"+defaultPublishPrivateKeyFile)
		fmt.Printf("                                          and the public key in: %q\n", "DIR/"+defaultPublishPublicKeyFile)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)      - just run the program, same as no arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)      - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  invite                                - create a session and print its invitation\n")
		fmt.Printf("                                          only while the merchant is not running\n")
		fmt.Printf("\n")

		fmt.Printf("  sessions                              - list stored sessions\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		printJSON(options)

	default:
		return false
	}

	return true
}

// data command handler
// the session database is open so these commands can read and change it
func processDataCommand(arguments []string, m *merchant.Merchant, store session.Store) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "start", "run":
		return false // continue processing

	case "invite":
		inv, err := m.NewInvitation()
		if nil != err {
			exitwithstatus.Message("invitation error: %s", err)
		}
		reply, err := newInvitationReply(inv.Id, inv.Token)
		if nil != err {
			exitwithstatus.Message("invitation error: %s", err)
		}
		printJSON(reply)

	case "sessions":
		records, err := store.List()
		if nil != err {
			exitwithstatus.Message("session list error: %s", err)
		}
		summary := make([]sessionSummary, len(records))
		for i, r := range records {
			summary[i] = sessionSummary{
				Id:      r.LocalId,
				Name:    r.Name,
				Address: r.TransportAddress,
				CallId:  r.PeerCallId,
				Paired:  r.IsPaired(),
				Done:    r.Concluded,
			}
		}
		printJSON(summary)

	default:
		exitwithstatus.Message("error: no such command: %s", command)
	}

	return true
}

// session listing without key material
type sessionSummary struct {
	Id      uint64 `json:"id"`
	Name    string `json:"name"`
	Address string `json:"socketAddress"`
	CallId  string `json:"callId"`
	Paired  bool   `json:"paired"`
	Done    bool   `json:"concluded"`
}

// invitation output including the URL form of the token
type invitationReply struct {
	Id    uint64 `json:"id"`
	Token string `json:"token"`
	URL   string `json:"url"`
}

func newInvitationReply(id uint64, token string) (*invitationReply, error) {
	inv, err := protocol.DecodeInvitation(token)
	if nil != err {
		return nil, err
	}
	return &invitationReply{
		Id:    id,
		Token: token,
		URL:   inv.URL(),
	}, nil
}

func printJSON(data interface{}) {
	b, err := json.Marshal(data)
	if nil != err {
		exitwithstatus.Message("error: %s", err)
	}
	var out bytes.Buffer
	json.Indent(&out, b, "", "  ")
	out.WriteTo(os.Stdout)
	os.Stdout.WriteString("\n")
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
