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

// Message provides a common interface for messages exchanged with a Hydra node
type Message interface {
	SetRaw([]byte)
	Raw() []byte
	Tag() string
}

// MessageBase holds the fields common to every Hydra API message. Server
// outputs also carry a sequence number and timestamp
type MessageBase struct {
	MessageTag string `json:"tag"`
	Seq        uint64 `json:"seq,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	rawJson    []byte
}

func (m *MessageBase) SetRaw(data []byte) {
	m.rawJson = make([]byte, len(data))
	copy(m.rawJson, data)
}

// Raw returns the original JSON of a decoded message
func (m *MessageBase) Raw() []byte {
	return m.rawJson
}

func (m *MessageBase) Tag() string {
	return m.MessageTag
}
