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

type ProtocolVersion struct {
	Major uint `json:"major"`
	Minor uint `json:"minor"`
}

type ExecutionUnits struct {
	Memory uint64 `json:"memory"`
	Steps  uint64 `json:"steps"`
}

type ExecutionUnitPrices struct {
	PriceMemory float64 `json:"priceMemory"`
	PriceSteps  float64 `json:"priceSteps"`
}

// ProtocolParameters are the ledger parameters used inside the head, as
// served by the node's protocol-parameters endpoint
type ProtocolParameters struct {
	TxFeeFixed             uint64              `json:"txFeeFixed"`
	TxFeePerByte           uint64              `json:"txFeePerByte"`
	MaxBlockBodySize       uint64              `json:"maxBlockBodySize"`
	MaxTxSize              uint64              `json:"maxTxSize"`
	MaxBlockHeaderSize     uint64              `json:"maxBlockHeaderSize"`
	StakeAddressDeposit    uint64              `json:"stakeAddressDeposit"`
	StakePoolDeposit       uint64              `json:"stakePoolDeposit"`
	PoolRetireMaxEpoch     uint64              `json:"poolRetireMaxEpoch"`
	StakePoolTargetNum     uint64              `json:"stakePoolTargetNum"`
	PoolPledgeInfluence    float64             `json:"poolPledgeInfluence"`
	MonetaryExpansion      float64             `json:"monetaryExpansion"`
	TreasuryCut            float64             `json:"treasuryCut"`
	ProtocolVersion        ProtocolVersion     `json:"protocolVersion"`
	MinPoolCost            uint64              `json:"minPoolCost"`
	UtxoCostPerByte        uint64              `json:"utxoCostPerByte"`
	CostModels             map[string][]int64  `json:"costModels"`
	ExecutionUnitPrices    ExecutionUnitPrices `json:"executionUnitPrices"`
	MaxTxExecutionUnits    ExecutionUnits      `json:"maxTxExecutionUnits"`
	MaxBlockExecutionUnits ExecutionUnits      `json:"maxBlockExecutionUnits"`
	MaxValueSize           uint64              `json:"maxValueSize"`
	CollateralPercentage   uint64              `json:"collateralPercentage"`
	MaxCollateralInputs    uint64              `json:"maxCollateralInputs"`
	// Conway governance parameters
	DRepDeposit                uint64  `json:"dRepDeposit,omitempty"`
	DRepActivity               uint64  `json:"dRepActivity,omitempty"`
	GovActionDeposit           uint64  `json:"govActionDeposit,omitempty"`
	GovActionLifetime          uint64  `json:"govActionLifetime,omitempty"`
	CommitteeMinSize           uint64  `json:"committeeMinSize,omitempty"`
	CommitteeMaxTermLength     uint64  `json:"committeeMaxTermLength,omitempty"`
	MinFeeRefScriptCostPerByte float64 `json:"minFeeRefScriptCostPerByte,omitempty"`
}

// MinFee returns the linear fee for a transaction of the given size in bytes,
// ignoring script execution and reference script costs
func (p ProtocolParameters) MinFee(txSize uint64) uint64 {
	return p.TxFeeFixed + p.TxFeePerByte*txSize
}
