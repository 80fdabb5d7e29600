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

package ledger

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/jinzhu/copier"
	"golang.org/x/crypto/blake2b"
)

// TxOut is a transaction output as represented by the Hydra API
type TxOut struct {
	Address         string           `json:"address"`
	Value           Assets           `json:"value"`
	Datum           *string          `json:"datum"`
	DatumHash       *string          `json:"datumhash"`
	InlineDatum     json.RawMessage  `json:"inlineDatum"`
	InlineDatumRaw  *string          `json:"inlineDatumRaw"`
	InlineDatumHash *string          `json:"inlineDatumhash"`
	ReferenceScript *ReferenceScript `json:"referenceScript"`
}

// UTxO is a single unspent output with its reference
type UTxO struct {
	Ref    TxRef
	Output TxOut
}

// UTxOs maps "hash#index" references to outputs, as in the snapshot/utxo and
// commit endpoints
type UTxOs map[string]TxOut

// NewUTxOs builds a UTxO map from a list of outputs
func NewUTxOs(utxos ...UTxO) UTxOs {
	ret := make(UTxOs, len(utxos))
	for _, utxo := range utxos {
		ret[utxo.Ref.String()] = utxo.Output
	}
	return ret
}

// List returns the outputs sorted by reference. Keys that are not valid
// references are skipped
func (u UTxOs) List() []UTxO {
	ret := make([]UTxO, 0, len(u))
	for key, output := range u {
		ref, err := ParseTxRef(key)
		if err != nil {
			continue
		}
		ret = append(ret, UTxO{Ref: ref, Output: output})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Ref.Hash != ret[j].Ref.Hash {
			return ret[i].Ref.Hash < ret[j].Ref.Hash
		}
		return ret[i].Ref.Index < ret[j].Ref.Index
	})
	return ret
}

// Get returns the output for a reference
func (u UTxOs) Get(ref TxRef) (TxOut, bool) {
	output, ok := u[ref.String()]
	return output, ok
}

// Filter returns the outputs for which match returns true
func (u UTxOs) Filter(match func(UTxO) bool) []UTxO {
	var ret []UTxO
	for _, utxo := range u.List() {
		if match(utxo) {
			ret = append(ret, utxo)
		}
	}
	return ret
}

// Clone returns a deep copy
func (u UTxOs) Clone() (UTxOs, error) {
	if u == nil {
		return nil, nil
	}
	ret := make(UTxOs, len(u))
	if err := copier.CopyWithOption(&ret, &u, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy UTxOs: %w", err)
	}
	return ret, nil
}

// NewUTxOFromLedger converts a UTxO decoded by the gouroboros ledger into the Hydra representation
func NewUTxOFromLedger(utxo lcommon.Utxo) (UTxO, error) {
	if utxo.Id == nil || utxo.Output == nil {
		return UTxO{}, errors.New("incomplete UTxO")
	}
	txId := utxo.Id.Id()
	output := TxOut{
		Address: utxo.Output.Address().String(),
		Value: Assets{
			UnitLovelace: utxo.Output.Amount(),
		},
	}
	if assets := utxo.Output.Assets(); assets != nil {
		for _, policyId := range assets.Policies() {
			for _, assetName := range assets.Assets(policyId) {
				unit := hex.EncodeToString(policyId.Bytes()) + hex.EncodeToString(assetName)
				output.Value[unit] += assets.Asset(policyId, assetName)
			}
		}
	}
	if datum := utxo.Output.Datum(); datum != nil && datum.Data != nil {
		datumCbor := datum.Cbor()
		datumHex := hex.EncodeToString(datumCbor)
		datumHash := blake2b.Sum256(datumCbor)
		datumHashHex := hex.EncodeToString(datumHash[:])
		datumJson, err := DatumJSON(datumHex)
		if err != nil {
			return UTxO{}, fmt.Errorf("decode inline datum: %w", err)
		}
		output.InlineDatum = datumJson
		output.InlineDatumRaw = &datumHex
		output.InlineDatumHash = &datumHashHex
	} else if datumHash := utxo.Output.DatumHash(); datumHash != nil && *datumHash != (lcommon.Blake2b256{}) {
		tmp := datumHash.String()
		output.DatumHash = &tmp
	}
	return UTxO{
		Ref:    NewTxRef(hex.EncodeToString(txId[:]), utxo.Id.Index()),
		Output: output,
	}, nil
}
