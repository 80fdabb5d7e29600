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
	"fmt"
	"strconv"
	"strings"
)

const TxHashHexLength = 64

// TxRef identifies a transaction output as "hash#index"
type TxRef struct {
	Hash  string
	Index uint32
}

func NewTxRef(hash string, index uint32) TxRef {
	return TxRef{
		Hash:  strings.ToLower(hash),
		Index: index,
	}
}

// ParseTxRef parses a reference in the "hash#index" form used as UTxO map keys
func ParseTxRef(ref string) (TxRef, error) {
	hash, indexStr, ok := strings.Cut(ref, "#")
	if !ok {
		return TxRef{}, &InvalidReferenceError{Ref: ref, Reason: "missing '#' separator"}
	}
	if len(hash) != TxHashHexLength {
		return TxRef{}, &InvalidReferenceError{
			Ref:    ref,
			Reason: fmt.Sprintf("hash must be %d hex characters", TxHashHexLength),
		}
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return TxRef{}, &InvalidReferenceError{Ref: ref, Reason: "hash is not hex"}
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return TxRef{}, &InvalidReferenceError{Ref: ref, Reason: "index is not a number"}
	}
	return NewTxRef(hash, uint32(index)), nil
}

func (r TxRef) String() string {
	return fmt.Sprintf("%s#%d", r.Hash, r.Index)
}
