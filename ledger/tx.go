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
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/gouroboros/cbor"
	gledger "github.com/blinklabs-io/gouroboros/ledger"
	"github.com/blinklabs-io/gouroboros/ledger/allegra"
	"github.com/blinklabs-io/gouroboros/ledger/alonzo"
	"github.com/blinklabs-io/gouroboros/ledger/babbage"
	"github.com/blinklabs-io/gouroboros/ledger/byron"
	"github.com/blinklabs-io/gouroboros/ledger/conway"
	"github.com/blinklabs-io/gouroboros/ledger/leios"
	"github.com/blinklabs-io/gouroboros/ledger/mary"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
	"golang.org/x/crypto/blake2b"
)

// Era identifies the ledger era of a transaction
type Era struct {
	Id   uint
	Name string
}

func (e Era) String() string {
	return e.Name
}

var eraNames = map[uint]string{
	byron.TxTypeByron:     "Byron",
	shelley.TxTypeShelley: "Shelley",
	allegra.TxTypeAllegra: "Allegra",
	mary.TxTypeMary:       "Mary",
	alonzo.TxTypeAlonzo:   "Alonzo",
	babbage.TxTypeBabbage: "Babbage",
	conway.TxTypeConway:   "Conway",
	leios.TxTypeLeios:     "Leios",
}

func decodeCborHex(cborHex string) ([]byte, error) {
	data, err := hex.DecodeString(strings.TrimSpace(cborHex))
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty CBOR payload")
	}
	return data, nil
}

// TransactionIdFromCbor computes the ID of a transaction, the blake2b-256
// hash of its body, from its CBOR hex
func TransactionIdFromCbor(cborHex string) (string, error) {
	data, err := decodeCborHex(cborHex)
	if err != nil {
		return "", err
	}
	var txParts []cbor.RawMessage
	if _, err := cbor.Decode(data, &txParts); err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}
	if len(txParts) == 0 {
		return "", errors.New("transaction has no body")
	}
	hash := blake2b.Sum256(txParts[0])
	return hex.EncodeToString(hash[:]), nil
}

// TransactionEra determines the ledger era of a transaction from its CBOR hex
func TransactionEra(cborHex string) (Era, error) {
	data, err := decodeCborHex(cborHex)
	if err != nil {
		return Era{}, err
	}
	txType, err := gledger.DetermineTransactionType(data)
	if err != nil {
		return Era{}, err
	}
	name, ok := eraNames[txType]
	if !ok {
		name = fmt.Sprintf("Era(%d)", txType)
	}
	return Era{Id: txType, Name: name}, nil
}
