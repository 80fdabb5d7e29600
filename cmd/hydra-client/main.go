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
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	hydra "github.com/blinklabs-io/gohydra"
	"github.com/blinklabs-io/gohydra/cmd/common"
)

func main() {
	f := common.NewGlobalFlags()
	f.Parse()

	if len(f.Flagset.Args()) == 0 {
		fmt.Printf(
			"You must specify a subcommand (watch, init, abort, close, contest, fanout, submit-tx, snapshot, protocol-parameters)\n",
		)
		os.Exit(1)
	}
	switch f.Flagset.Arg(0) {
	case "watch":
		runWatch(f)
	case "init", "abort", "close", "contest", "fanout":
		runHeadCommand(f, f.Flagset.Arg(0))
	case "submit-tx":
		runSubmitTx(f)
	case "snapshot":
		runSnapshot(f)
	case "protocol-parameters":
		runProtocolParameters(f)
	default:
		fmt.Printf("Unknown subcommand: %s\n", f.Flagset.Arg(0))
		os.Exit(1)
	}
}

func createProvider(f *common.GlobalFlags) *hydra.Provider {
	p, err := common.NewProvider(f, common.NewLogger(f))
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	return p
}

func connectProvider(ctx context.Context, p *hydra.Provider) {
	if err := p.Connect(ctx); err != nil {
		fmt.Printf("Connection failed: %s\n", err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJson(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("ERROR: failed to encode output: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", out)
}
