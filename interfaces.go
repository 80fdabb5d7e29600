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

package hydra

import (
	"context"

	"github.com/blinklabs-io/gohydra/ledger"
)

// Fetcher resolves unspent outputs. Provider implements it against the
// head's snapshot, while a layer 1 chain client can implement it to resolve
// the outputs being committed
type Fetcher interface {
	// FetchUTxOs returns the outputs of the transaction txHash, limited to the
	// given output indexes when any are provided. An empty txHash matches all
	// transactions
	FetchUTxOs(ctx context.Context, txHash string, indexes ...uint32) ([]ledger.UTxO, error)
	// FetchAddressUTxOs returns the outputs locked at address
	FetchAddressUTxOs(ctx context.Context, address string) ([]ledger.UTxO, error)
}

// Submitter submits signed transactions and returns their ID
type Submitter interface {
	SubmitTx(ctx context.Context, cborHex string) (string, error)
}
