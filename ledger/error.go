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
	"errors"
	"fmt"
)

var (
	ErrInvalidReference = errors.New("invalid transaction reference")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidScriptRef = errors.New("invalid reference script")
)

// InvalidReferenceError is returned when a "hash#index" string cannot be parsed
type InvalidReferenceError struct {
	Ref    string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid transaction reference %q: %s", e.Ref, e.Reason)
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// InvalidAddressError is returned when an address fails decoding or does not
// belong to the expected network
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Address, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}
