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
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR tag for embedded CBOR data items
const cborTagEncodedData = 24

const (
	ScriptTypeNative   = 0
	ScriptTypePlutusV1 = 1
	ScriptTypePlutusV2 = 2
	ScriptTypePlutusV3 = 3
)

// ScriptEnvelope is the text envelope of a script
type ScriptEnvelope struct {
	CborHex     string `json:"cborHex"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// ReferenceScript is the referenceScript field of a Hydra transaction output
type ReferenceScript struct {
	ScriptLanguage string         `json:"scriptLanguage"`
	Script         ScriptEnvelope `json:"script"`
}

// ScriptInfo describes a decoded script reference
type ScriptInfo struct {
	TypeId   uint64
	Type     string
	Language string
	Script   []byte
}

// ReferenceScriptInfo decodes a script reference, a tag 24 wrapped
// [type, script] pair, and reports its type and language
func ReferenceScriptInfo(scriptRefHex string) (ScriptInfo, error) {
	scriptRef, err := decodeCborHex(scriptRefHex)
	if err != nil {
		return ScriptInfo{}, fmt.Errorf("%w: %w", ErrInvalidScriptRef, err)
	}
	var tag cbor.RawTag
	if err := cbor.Unmarshal(scriptRef, &tag); err != nil {
		return ScriptInfo{}, fmt.Errorf("%w: %w", ErrInvalidScriptRef, err)
	}
	if tag.Number != cborTagEncodedData {
		return ScriptInfo{}, fmt.Errorf("%w: unexpected CBOR tag %d", ErrInvalidScriptRef, tag.Number)
	}
	var inner []byte
	if err := cbor.Unmarshal(tag.Content, &inner); err != nil {
		return ScriptInfo{}, fmt.Errorf("%w: %w", ErrInvalidScriptRef, err)
	}
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(inner, &parts); err != nil {
		return ScriptInfo{}, fmt.Errorf("%w: %w", ErrInvalidScriptRef, err)
	}
	if len(parts) != 2 {
		return ScriptInfo{}, fmt.Errorf("%w: expected 2 elements, got %d", ErrInvalidScriptRef, len(parts))
	}
	ret := ScriptInfo{}
	if err := cbor.Unmarshal(parts[0], &ret.TypeId); err != nil {
		return ScriptInfo{}, fmt.Errorf("%w: %w", ErrInvalidScriptRef, err)
	}
	ret.Script = []byte(parts[1])
	switch ret.TypeId {
	case ScriptTypeNative:
		ret.Type = "SimpleScript"
		ret.Language = "NativeScriptLanguage SimpleScript"
	case ScriptTypePlutusV1, ScriptTypePlutusV2, ScriptTypePlutusV3:
		ret.Type = fmt.Sprintf("PlutusScriptV%d", ret.TypeId)
		ret.Language = "PlutusScriptLanguage " + ret.Type
	default:
		return ScriptInfo{}, fmt.Errorf("%w: unknown script type %d", ErrInvalidScriptRef, ret.TypeId)
	}
	return ret, nil
}

// NewReferenceScript builds the referenceScript field for a script reference.
// An empty reference yields nil
func NewReferenceScript(scriptRefHex string) (*ReferenceScript, error) {
	if scriptRefHex == "" {
		return nil, nil
	}
	info, err := ReferenceScriptInfo(scriptRefHex)
	if err != nil {
		return nil, err
	}
	return &ReferenceScript{
		ScriptLanguage: info.Language,
		Script: ScriptEnvelope{
			CborHex: scriptRefHex,
			Type:    info.Type,
		},
	}, nil
}
