// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/spvrelay/payer"
	"github.com/bitmark-inc/spvrelay/protocol"
)

func runScan(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	token, err := checkArgument(c, 0, "invitation token")
	if nil != err {
		return err
	}

	_, err = scan(m, token)
	return err
}

func runSendProof(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	address, err := checkArgument(c, 0, "merchant address")
	if nil != err {
		return err
	}
	fileName, err := checkArgument(c, 1, "proof file")
	if nil != err {
		return err
	}

	submission, err := readSubmission(fileName)
	if nil != err {
		return err
	}

	if _, err := m.store.FindByTransportAddress(address); nil != err {
		return fmt.Errorf("merchant: %q  error: %s", address, err)
	}

	p, err := getPayer(m)
	if nil != err {
		return err
	}

	// a fresh connection repeats the handshake on registration
	if _, err := p.Pool().Get(address); nil != err {
		return err
	}

	return sendProof(m, address, submission)
}

func runPay(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	token, err := checkArgument(c, 0, "invitation token")
	if nil != err {
		return err
	}
	fileName, err := checkArgument(c, 1, "proof file")
	if nil != err {
		return err
	}

	submission, err := readSubmission(fileName)
	if nil != err {
		return err
	}

	address, err := scan(m, token)
	if nil != err {
		return err
	}

	return sendProof(m, address, submission)
}

func runSessions(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	records, err := m.store.List()
	if nil != err {
		return err
	}

	for _, r := range records {
		fmt.Fprintf(m.w, "%d  %q  %s  paired: %t\n", r.LocalId, r.Name, r.TransportAddress, r.IsPaired())
	}
	return nil
}

// pair with the merchant and wait for the handshake to be sent
func scan(m *metadata, token string) (string, error) {
	p, err := getPayer(m)
	if nil != err {
		return "", err
	}

	r, err := p.Scan(strings.TrimSpace(token))
	if nil != err {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := p.WaitHandshake(ctx, r.TransportAddress); nil != err {
		return "", fmt.Errorf("handshake to: %q  error: %s", r.TransportAddress, err)
	}

	fmt.Fprintf(m.w, "paired with: %q  at: %s  session: %d\n", r.Name, r.TransportAddress, r.LocalId)
	return r.TransportAddress, nil
}

// send the proof once paired and wait for the merchant's reply
func sendProof(m *metadata, address string, submission *protocol.ProofSubmission) error {
	p, err := getPayer(m)
	if nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := p.WaitHandshake(ctx, address); nil != err {
		return fmt.Errorf("handshake to: %q  error: %s", address, err)
	}

	if err := p.SendProof(address, submission); nil != err {
		return err
	}
	if m.verbose {
		fmt.Fprintf(m.e, "proof sent to: %s\n", address)
	}

	reply, err := waitReply(ctx, p.Replies(), address)
	if nil != err {
		return err
	}

	fmt.Fprintf(m.w, "%s\n", reply.Text)
	if protocol.ReplyValid != reply.Text {
		return fmt.Errorf("payment not accepted")
	}
	return nil
}

func waitReply(ctx context.Context, replies <-chan payer.Reply, address string) (*payer.Reply, error) {
	for {
		select {
		case reply := <-replies:
			if address == reply.Address {
				return &reply, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("no reply from: %q  error: %s", address, ctx.Err())
		}
	}
}

func getPayer(m *metadata) (*payer.Payer, error) {
	if nil != m.payer {
		return m.payer, nil
	}

	if "" == m.config.Payer.Token {
		return nil, fmt.Errorf("missing own call id: use --token or set payer.application_web_socket_call_id")
	}

	p, err := payer.New(&m.config.Payer, m.store, nil)
	if nil != err {
		return nil, err
	}

	// give up on an unreachable relay within the timeout
	initial := time.Second
	if m.timeout < initial {
		initial = m.timeout
	}
	p.Pool().SetDelays(initial, m.timeout)

	m.payer = p
	return p, nil
}

func readSubmission(fileName string) (*protocol.ProofSubmission, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	return protocol.DecodeProofSubmission(data)
}

func checkArgument(c *cli.Context, n int, name string) (string, error) {
	s := strings.TrimSpace(c.Args().Get(n))
	if "" == s {
		return "", fmt.Errorf("missing %s", name)
	}
	return s, nil
}
