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

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	AddressNetworkTestnet = 0
	AddressNetworkMainnet = 1

	addressHrpMainnet = "addr"
	addressHrpTestnet = "addr_test"
)

// ValidateAddress checks that a bech32 Shelley address decodes and that its
// header carries the expected network ID
func ValidateAddress(addr string, networkId uint8) error {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return &InvalidAddressError{Address: addr, Err: err}
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return &InvalidAddressError{Address: addr, Err: err}
	}
	if len(decoded) == 0 {
		return &InvalidAddressError{Address: addr, Err: errors.New("empty address payload")}
	}
	expectedHrp := addressHrpTestnet
	if networkId == AddressNetworkMainnet {
		expectedHrp = addressHrpMainnet
	}
	if hrp != expectedHrp {
		return &InvalidAddressError{
			Address: addr,
			Err:     fmt.Errorf("unexpected prefix %q, wanted %q", hrp, expectedHrp),
		}
	}
	if addrNetworkId := decoded[0] & 0x0f; addrNetworkId != networkId {
		return &InvalidAddressError{
			Address: addr,
			Err: fmt.Errorf(
				"address network ID %d does not match %d",
				addrNetworkId,
				networkId,
			),
		}
	}
	return nil
}
