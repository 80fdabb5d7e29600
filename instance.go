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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/blinklabs-io/gohydra/ledger"
	"github.com/blinklabs-io/gohydra/protocol"
)

// Instance moves funds between layer 1 and a head. The fetcher resolves the
// layer 1 outputs being committed and the submitter publishes signed commit
// transactions on layer 1
type Instance struct {
	provider  *Provider
	fetcher   Fetcher
	submitter Submitter
}

type blueprintCommitRequest struct {
	BlueprintTx protocol.Transaction `json:"blueprintTx"`
	Utxo        ledger.UTxOs         `json:"utxo"`
}

func NewInstance(provider *Provider, fetcher Fetcher, submitter Submitter) *Instance {
	return &Instance{
		provider:  provider,
		fetcher:   fetcher,
		submitter: submitter,
	}
}

// CommitFunds drafts a commit transaction for the output txHash#index. It
// returns the CBOR hex of the unsigned commit transaction
func (i *Instance) CommitFunds(ctx context.Context, txHash string, index uint32) (string, error) {
	utxo, err := i.resolve(ctx, txHash, index)
	if err != nil {
		return "", err
	}
	return i.commit(ctx, ledger.NewUTxOs(utxo))
}

// CommitFundsRef is CommitFunds for a "hash#index" reference
func (i *Instance) CommitFundsRef(ctx context.Context, ref string) (string, error) {
	txRef, err := ledger.ParseTxRef(ref)
	if err != nil {
		return "", err
	}
	return i.CommitFunds(ctx, txRef.Hash, txRef.Index)
}

// IncrementalCommitFunds drafts a deposit into an open head
func (i *Instance) IncrementalCommitFunds(ctx context.Context, txHash string, index uint32) (string, error) {
	return i.CommitFunds(ctx, txHash, index)
}

// CommitBlueprint drafts a commit transaction that spends txHash#index
// through the given blueprint transaction. This allows committing outputs
// that need a transaction context, such as script outputs
func (i *Instance) CommitBlueprint(
	ctx context.Context,
	txHash string,
	index uint32,
	tx protocol.Transaction,
) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("invalid blueprint transaction: %w", err)
	}
	utxo, err := i.resolve(ctx, txHash, index)
	if err != nil {
		return "", err
	}
	return i.commit(
		ctx,
		blueprintCommitRequest{
			BlueprintTx: tx,
			Utxo:        ledger.NewUTxOs(utxo),
		},
	)
}

// IncrementalBlueprintCommit drafts a blueprint deposit into an open head
func (i *Instance) IncrementalBlueprintCommit(
	ctx context.Context,
	txHash string,
	index uint32,
	tx protocol.Transaction,
) (string, error) {
	return i.CommitBlueprint(ctx, txHash, index, tx)
}

// Decommit requests that the outputs of tx leave the head. It returns the
// node's response verbatim
func (i *Instance) Decommit(ctx context.Context, tx protocol.Transaction) (json.RawMessage, error) {
	if err := tx.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decommit transaction: %w", err)
	}
	return i.provider.PublishDecommit(ctx, tx, jsonHeaders())
}

// IncrementalDecommit requests that the outputs of tx leave an open head
func (i *Instance) IncrementalDecommit(ctx context.Context, tx protocol.Transaction) (json.RawMessage, error) {
	return i.Decommit(ctx, tx)
}

// SubmitCommit submits a signed commit transaction on layer 1 and returns its ID
func (i *Instance) SubmitCommit(ctx context.Context, signedCborHex string) (string, error) {
	if i.submitter == nil {
		return "", errors.New("no submitter configured")
	}
	return i.submitter.SubmitTx(ctx, signedCborHex)
}

func (i *Instance) resolve(ctx context.Context, txHash string, index uint32) (ledger.UTxO, error) {
	if _, err := ledger.ParseTxRef(ledger.NewTxRef(txHash, index).String()); err != nil {
		return ledger.UTxO{}, err
	}
	if i.fetcher == nil {
		return ledger.UTxO{}, errors.New("no fetcher configured")
	}
	utxos, err := i.fetcher.FetchUTxOs(ctx, txHash, index)
	if err != nil {
		return ledger.UTxO{}, fmt.Errorf("fetch UTxO: %w", err)
	}
	for _, utxo := range utxos {
		if utxo.Ref.Index == index {
			return utxo, nil
		}
	}
	return ledger.UTxO{}, fmt.Errorf("%w: %s", ErrUTxONotFound, ledger.NewTxRef(txHash, index))
}

func (i *Instance) commit(ctx context.Context, payload any) (string, error) {
	tx, err := i.provider.BuildCommit(ctx, payload, jsonHeaders())
	if err != nil {
		return "", err
	}
	if tx.CborHex == "" {
		return "", errors.New("commit response carries no transaction")
	}
	return tx.CborHex, nil
}

func jsonHeaders() http.Header {
	return http.Header{
		"Content-Type": []string{"application/json"},
	}
}
