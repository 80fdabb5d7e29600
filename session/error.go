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

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportUnavailable is returned by Send when the transport did not
	// become available within the retry window
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrConnectAborted is returned by Connect when Disconnect is called
	// while the dial is in progress
	ErrConnectAborted = errors.New("connect aborted")
	ErrDecodeFailure  = errors.New("decode failure")
)

// DecodeError reports an inbound frame that could not be parsed. The frame
// is dropped
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecodeFailure
}
