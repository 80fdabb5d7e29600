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

package protocol

import "fmt"

// Transaction types accepted by the Hydra node in a text envelope
const (
	TxTypeConway            = "Tx ConwayEra"
	TxTypeConwayUnwitnessed = "Unwitnessed Tx ConwayEra"
	TxTypeConwayWitnessed   = "Witnessed Tx ConwayEra"
)

// Transaction is a transaction in the Cardano text envelope format used by the Hydra API
type Transaction struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	CborHex     string  `json:"cborHex"`
	TxId        *string `json:"txId"`
}

// NewTransaction returns a text envelope for the provided CBOR hex. An empty txId is encoded as null
func NewTransaction(
	cborHex string,
	txType string,
	description string,
	txId string,
) Transaction {
	t := Transaction{
		Type:        txType,
		Description: description,
		CborHex:     cborHex,
	}
	if txId != "" {
		t.TxId = &txId
	}
	return t
}

// Id returns the transaction ID, or an empty string if none was provided
func (t Transaction) Id() string {
	if t.TxId == nil {
		return ""
	}
	return *t.TxId
}

// Validate checks that the envelope has a known type and a payload
func (t Transaction) Validate() error {
	switch t.Type {
	case TxTypeConway, TxTypeConwayUnwitnessed, TxTypeConwayWitnessed:
	default:
		return fmt.Errorf("unsupported transaction type: %q", t.Type)
	}
	if t.CborHex == "" {
		return fmt.Errorf("transaction has no CBOR payload")
	}
	return nil
}
