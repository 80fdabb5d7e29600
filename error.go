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
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrValidationFailure = errors.New("transaction validation failure")
	// ErrSubmitTimeout is returned by SubmitTx when the node does not report
	// on the transaction within the submit timeout
	ErrSubmitTimeout = errors.New("timed out waiting for transaction result")
	ErrUTxONotFound  = errors.New("UTxO not found")
)

// ValidationError is returned by SubmitTx when the node rejects a transaction
// with TxInvalid. Detail holds the node's validationError object verbatim
type ValidationError struct {
	CborHex string
	TxId    string
	Detail  json.RawMessage
}

func (e *ValidationError) Error() string {
	if e.TxId != "" {
		return fmt.Sprintf("transaction %s rejected: %s", e.TxId, string(e.Detail))
	}
	return fmt.Sprintf("transaction rejected: %s", string(e.Detail))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailure
}

// Reason returns the "reason" field of the validation error, if present
func (e *ValidationError) Reason() string {
	var tmp struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(e.Detail, &tmp); err != nil {
		return ""
	}
	return tmp.Reason
}
