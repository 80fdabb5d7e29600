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

	"github.com/blinklabs-io/gohydra/cmd/common"
)

func runSnapshot(f *common.GlobalFlags) {
	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	defer cancel()
	p := createProvider(f)
	utxos, err := p.FetchSnapshotUTxO(ctx)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	printJson(utxos)
}

func runProtocolParameters(f *common.GlobalFlags) {
	ctx, cancel := context.WithTimeout(context.Background(), f.Timeout)
	defer cancel()
	p := createProvider(f)
	params, err := p.FetchProtocolParameters(ctx)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	printJson(params)
}
