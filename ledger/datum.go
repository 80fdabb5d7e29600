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
	"fmt"

	"github.com/blinklabs-io/plutigo/data"
)

// DatumJSON decodes a CBOR hex Plutus datum into the detailed JSON schema
// used for the inlineDatum field
func DatumJSON(datumHex string) (json.RawMessage, error) {
	datumCbor, err := decodeCborHex(datumHex)
	if err != nil {
		return nil, err
	}
	pd, err := data.Decode(datumCbor)
	if err != nil {
		return nil, fmt.Errorf("decode datum: %w", err)
	}
	tmp, err := plutusDataToJson(pd)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tmp)
}

type jsonMapEntry struct {
	Key   any `json:"k"`
	Value any `json:"v"`
}

func plutusDataToJson(pd data.PlutusData) (any, error) {
	switch v := pd.(type) {
	case *data.Constr:
		fields := make([]any, 0, len(v.Fields))
		for _, field := range v.Fields {
			tmp, err := plutusDataToJson(field)
			if err != nil {
				return nil, err
			}
			fields = append(fields, tmp)
		}
		return map[string]any{
			"constructor": v.Tag,
			"fields":      fields,
		}, nil
	case *data.Integer:
		return map[string]any{"int": v.Inner}, nil
	case *data.ByteString:
		return map[string]any{"bytes": hex.EncodeToString(v.Inner)}, nil
	case *data.List:
		items := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			tmp, err := plutusDataToJson(item)
			if err != nil {
				return nil, err
			}
			items = append(items, tmp)
		}
		return map[string]any{"list": items}, nil
	case *data.Map:
		entries := make([]jsonMapEntry, 0, len(v.Pairs))
		for _, pair := range v.Pairs {
			key, err := plutusDataToJson(pair[0])
			if err != nil {
				return nil, err
			}
			value, err := plutusDataToJson(pair[1])
			if err != nil {
				return nil, err
			}
			entries = append(entries, jsonMapEntry{Key: key, Value: value})
		}
		return map[string]any{"map": entries}, nil
	}
	return nil, fmt.Errorf("unsupported datum type: %T", pd)
}
