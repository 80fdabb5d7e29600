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
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	UnitLovelace         = "lovelace"
	PolicyIdHexLength    = 56
	maxAssetNameHexChars = 64
)

// Assets maps an asset unit to its quantity. The unit is "lovelace" for ADA
// and the policy ID followed by the hex asset name for native tokens.
//
// On the wire the node nests tokens under their policy ID:
//
//	{"lovelace": 1000000, "<policyId>": {"<assetName>": 1}}
//
// Both that form and a flat unit map are accepted when decoding.
type Assets map[string]uint64

// Lovelace returns the ADA quantity
func (a Assets) Lovelace() uint64 {
	return a[UnitLovelace]
}

// SplitUnit splits a unit into policy ID and hex asset name. Lovelace and any
// unit shorter than a policy ID yield an empty policy
func SplitUnit(unit string) (string, string) {
	if unit == UnitLovelace || len(unit) < PolicyIdHexLength {
		return "", ""
	}
	return unit[:PolicyIdHexLength], unit[PolicyIdHexLength:]
}

// Add merges other into a, summing quantities of matching units
func (a Assets) Add(other Assets) {
	for unit, qty := range other {
		a[unit] += qty
	}
}

func (a Assets) MarshalJSON() ([]byte, error) {
	tmp := map[string]any{}
	for unit, qty := range a {
		if qty == 0 {
			continue
		}
		policyId, assetName := SplitUnit(unit)
		if policyId == "" {
			tmp[unit] = qty
			continue
		}
		policyAssets, ok := tmp[policyId].(map[string]uint64)
		if !ok {
			policyAssets = map[string]uint64{}
			tmp[policyId] = policyAssets
		}
		policyAssets[assetName] = qty
	}
	return json.Marshal(tmp)
}

func (a *Assets) UnmarshalJSON(data []byte) error {
	var tmp map[string]json.RawMessage
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	ret := Assets{}
	for key, value := range tmp {
		value = bytes.TrimSpace(value)
		if len(value) > 0 && value[0] == '{' {
			var policyAssets map[string]uint64
			if err := json.Unmarshal(value, &policyAssets); err != nil {
				return fmt.Errorf("decode assets for policy %s: %w", key, err)
			}
			for assetName, qty := range policyAssets {
				if len(assetName) > maxAssetNameHexChars {
					return fmt.Errorf("asset name too long: %s", assetName)
				}
				ret[key+assetName] += qty
			}
			continue
		}
		var qty uint64
		if err := json.Unmarshal(value, &qty); err != nil {
			return fmt.Errorf("decode quantity for %s: %w", key, err)
		}
		ret[key] += qty
	}
	*a = ret
	return nil
}
