// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/spvrelay/payer"
	"github.com/bitmark-inc/spvrelay/session"
)

type metadata struct {
	directory string
	config    *Configuration
	timeout   time.Duration
	verbose   bool
	store     session.Store
	payer     *payer.Payer
	e         io.Writer
	w         io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "spv-client"
	app.Usage = "pay a merchant through an SPV relay"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "directory, d",
			Value: "",
			Usage: " data `DIR` [$XDG_CONFIG_HOME/spv-client]",
		},
		cli.StringFlag{
			Name:  "token, t",
			Value: "",
			Usage: " own relay call id `TOKEN` [from configuration]",
		},
		cli.DurationFlag{
			Name:  "timeout, w",
			Value: 30 * time.Second,
			Usage: " wait for the merchant up to `DURATION`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "scan",
			Usage:     "pair with the merchant named by an invitation",
			ArgsUsage: "TOKEN",
			Action:    runScan,
		},
		{
			Name:      "send-proof",
			Usage:     "send a proof bundle to a paired merchant and wait for the verdict",
			ArgsUsage: "ADDRESS FILE",
			Action:    runSendProof,
		},
		{
			Name:      "pay",
			Usage:     "scan an invitation then send a proof bundle",
			ArgsUsage: "TOKEN FILE",
			Action:    runPay,
		},
		{
			Name:   "sessions",
			Usage:  "list paired merchants",
			Action: runSessions,
		},
		{
			Name:  "version",
			Usage: "display spv-client version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// to suppress opening the data directory for certain commands
		command := c.Args().Get(0)
		if "version" == command || "help" == command || "h" == command || "" == command {
			return nil
		}

		directory, err := dataDirectory(c.GlobalString("directory"))
		if nil != err {
			return err
		}
		if verbose {
			fmt.Fprintf(e, "directory: %q\n", directory)
		}

		config, err := getConfiguration(directory, verbose)
		if nil != err {
			return err
		}
		if token := c.GlobalString("token"); "" != token {
			config.Payer.Token = token
		}

		if err := logger.Initialise(config.Logging); nil != err {
			return err
		}

		store, err := session.NewLevelDB(config.Database)
		if nil != err {
			logger.Finalise()
			return err
		}

		c.App.Metadata["config"] = &metadata{
			directory: directory,
			config:    config,
			timeout:   c.GlobalDuration("timeout"),
			verbose:   verbose,
			store:     store,
			e:         e,
			w:         w,
		}
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		if nil != m.payer {
			m.payer.Close()
		}
		err := m.store.Close()
		logger.Finalise()
		return err
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
