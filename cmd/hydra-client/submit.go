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
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	hydra "github.com/blinklabs-io/gohydra"
	"github.com/blinklabs-io/gohydra/cmd/common"
	"github.com/blinklabs-io/gohydra/ledger"
	"github.com/blinklabs-io/gohydra/protocol"
)

type submitTxFlags struct {
	flagset   *flag.FlagSet
	txFile    string
	rawTxFile string
}

func newSubmitTxFlags() *submitTxFlags {
	f := &submitTxFlags{
		flagset: flag.NewFlagSet("submit-tx", flag.ExitOnError),
	}
	f.flagset.StringVar(
		&f.txFile,
		"tx-file",
		"",
		"path to the JSON transaction file to submit",
	)
	f.flagset.StringVar(
		&f.rawTxFile,
		"raw-tx-file",
		"",
		"path to the raw transaction file to submit",
	)
	return f
}

func runSubmitTx(f *common.GlobalFlags) {
	submitTxFlags := newSubmitTxFlags()
	err := submitTxFlags.flagset.Parse(f.Flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if submitTxFlags.txFile == "" && submitTxFlags.rawTxFile == "" {
		fmt.Printf("you must specify -tx-file or -raw-tx-file\n")
		os.Exit(1)
	}

	var cborHex string
	if submitTxFlags.txFile != "" {
		txData, err := os.ReadFile(submitTxFlags.txFile)
		if err != nil {
			fmt.Printf("Failed to load transaction file: %s\n", err)
			os.Exit(1)
		}
		var tx protocol.Transaction
		if err := json.Unmarshal(txData, &tx); err != nil {
			fmt.Printf("failed to parse transaction file: %s\n", err)
			os.Exit(1)
		}
		cborHex = tx.CborHex
	} else {
		txBytes, err := os.ReadFile(submitTxFlags.rawTxFile)
		if err != nil {
			fmt.Printf("Failed to load transaction file: %s\n", err)
			os.Exit(1)
		}
		cborHex = hex.EncodeToString(txBytes)
	}
	era, err := ledger.TransactionEra(cborHex)
	if err != nil {
		fmt.Printf("failed to decode transaction: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()
	p := createProvider(f)
	connectProvider(ctx, p)
	defer func() {
		_ = p.Disconnect()
	}()
	txId, err := p.SubmitTx(ctx, cborHex)
	if err != nil {
		var validationErr *hydra.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Printf("The transaction was rejected: %s\n", validationErr.Detail)
		} else {
			fmt.Printf("Error submitting transaction: %s\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("The %s transaction %s was accepted\n", era, txId)
}
