// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/gorilla/websocket"

	"github.com/bitmark-inc/spvrelay/background"
	"github.com/bitmark-inc/spvrelay/blockdata"
	"github.com/bitmark-inc/spvrelay/connector"
	"github.com/bitmark-inc/spvrelay/fault"
	"github.com/bitmark-inc/spvrelay/interpreter"
	"github.com/bitmark-inc/spvrelay/merchant"
	"github.com/bitmark-inc/spvrelay/publish"
	"github.com/bitmark-inc/spvrelay/session"
	"github.com/bitmark-inc/spvrelay/spv"
	"github.com/bitmark-inc/spvrelay/zmqutil"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile, nil)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// last-gasp log channel
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: panic log setup failed with error: %s", program, err)
	}
	defer fault.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if nil != err {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	log.Infof("database: %q", theConfiguration.Database)
	log.Debugf("%s = %#v", "Explorer", theConfiguration.Explorer)
	log.Debugf("%s = %#v", "Merchant", theConfiguration.Merchant)
	log.Debugf("%s = %#v", "Publishing", theConfiguration.Publishing)

	// start the session storage
	log.Info("initialise sessions")
	store, err := session.NewLevelDB(theConfiguration.Database)
	if nil != err {
		log.Criticalf("session initialise error: %s", err)
		exitwithstatus.Message("session initialise error: %s", err)
	}
	defer store.Close()

	provider, err := blockdata.New(&theConfiguration.Explorer, nil)
	if nil != err {
		log.Criticalf("explorer initialise error: %s", err)
		exitwithstatus.Message("explorer initialise error: %s", err)
	}

	verifier, err := spv.NewVerifier(spv.Configuration{
		AcceptUnconfirmed: theConfiguration.AcceptUnconfirmed,
		ScriptFlags:       interpreter.DefaultFlags,
	}, provider, interpreter.New())
	if nil != err {
		log.Criticalf("verifier initialise error: %s", err)
		exitwithstatus.Message("verifier initialise error: %s", err)
	}

	// verdict broadcasting is optional
	if "" != theConfiguration.Publishing.PrivateKey {
		if err := zmqutil.StartAuthentication(); nil != err {
			log.Criticalf("zmq.AuthStart: error: %s", err)
			exitwithstatus.Message("zmq.AuthStart: error: %s", err)
		}
	}
	publisher, err := publish.New(&theConfiguration.Publishing)
	if nil != err {
		log.Criticalf("publish initialise error: %s", err)
		exitwithstatus.Message("publish initialise error: %s", err)
	}

	var verdicts merchant.Publisher
	if nil != publisher {
		verdicts = publisher
	}

	m, err := merchant.New(&theConfiguration.Merchant, store, verifier, provider, verdicts)
	if nil != err {
		log.Criticalf("merchant initialise error: %s", err)
		exitwithstatus.Message("merchant initialise error: %s", err)
	}

	// these commands are allowed to access the session database
	if len(arguments) > 0 && processDataCommand(arguments, m, store) {
		m.Close()
		return
	}

	client, err := connector.New(&connector.Configuration{
		Address: theConfiguration.Merchant.RelayAddress,
		Token:   theConfiguration.Merchant.Token,
	}, connector.WebSocketDialer{Dialer: websocket.DefaultDialer}, m)
	if nil != err {
		log.Criticalf("connector initialise error: %s", err)
		exitwithstatus.Message("connector initialise error: %s", err)
	}
	m.SetSender(client)

	processes := background.Processes{
		m,
		client,
	}
	if nil != publisher {
		processes = append(processes, publisher)
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-ch:
		log.Infof("received signal: %v", sig)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nreceived signal: %v\n", sig)
		}
	case <-client.Done():
		log.Criticalf("relay connection ended: %s", client.Err())
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nrelay connection ended: %s\n", client.Err())
		}
	}
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
