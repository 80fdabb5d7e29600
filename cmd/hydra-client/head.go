// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blinklabs-io/gohydra/cmd/common"
	"github.com/blinklabs-io/gohydra/protocol"
)

// runHeadCommand sends a lifecycle command and waits for the head to change
// status or for the node to report that the command failed
func runHeadCommand(f *common.GlobalFlags, command string) {
	ctx, cancel := signalContext()
	defer cancel()
	p := createProvider(f)
	resultChan := make(chan string, 1)
	report := func(result string) {
		select {
		case resultChan <- result:
		default:
		}
	}
	p.OnMessage(func(msg protocol.Message) error {
		switch m := msg.(type) {
		case *protocol.MsgCommandFailed:
			report(fmt.Sprintf("command failed: %s", m.ClientInputTag()))
		case *protocol.MsgPostTxOnChainFailed:
			report(fmt.Sprintf("posting transaction on chain failed: %s", m.PostTxError))
		}
		return nil
	})
	connectProvider(ctx, p)
	defer func() {
		_ = p.Disconnect()
	}()
	// Wait for the greeting so that its status is not mistaken for the result
	time.Sleep(500 * time.Millisecond)
	initial := p.Status()
	p.OnStatusChange(func(status protocol.HeadStatus) error {
		if status != initial {
			report(fmt.Sprintf("head status: %s", status))
		}
		return nil
	})
	var send func(context.Context) error
	switch command {
	case "init":
		send = p.Init
	case "abort":
		send = p.Abort
	case "close":
		send = p.Close
	case "contest":
		send = p.Contest
	case "fanout":
		send = p.Fanout
	}
	if err := send(ctx); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("Sent %s command\n", command)
	select {
	case result := <-resultChan:
		fmt.Printf("%s\n", result)
	case <-time.After(f.Timeout):
		fmt.Printf("No response from node within %s\n", f.Timeout)
	case <-ctx.Done():
	}
}
