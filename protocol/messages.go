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

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gohydra/ledger"
)

// Client input tags
const (
	MessageTagInit     = "Init"
	MessageTagAbort    = "Abort"
	MessageTagNewTx    = "NewTx"
	MessageTagGetUTxO  = "GetUTxO"
	MessageTagDecommit = "Decommit"
	MessageTagRecover  = "Recover"
	MessageTagClose    = "Close"
	MessageTagContest  = "Contest"
	MessageTagFanout   = "Fanout"
)

// Server output tags
const (
	MessageTagGreetings               = "Greetings"
	MessageTagPeerConnected           = "PeerConnected"
	MessageTagPeerDisconnected        = "PeerDisconnected"
	MessageTagPeerHandshakeFailure    = "PeerHandshakeFailure"
	MessageTagHeadIsInitializing      = "HeadIsInitializing"
	MessageTagCommitted               = "Committed"
	MessageTagHeadIsOpen              = "HeadIsOpen"
	MessageTagHeadIsClosed            = "HeadIsClosed"
	MessageTagHeadIsContested         = "HeadIsContested"
	MessageTagReadyToFanout           = "ReadyToFanout"
	MessageTagHeadIsAborted           = "HeadIsAborted"
	MessageTagHeadIsFinalized         = "HeadIsFinalized"
	MessageTagTxValid                 = "TxValid"
	MessageTagTxInvalid               = "TxInvalid"
	MessageTagSnapshotConfirmed       = "SnapshotConfirmed"
	MessageTagGetUTxOResponse         = "GetUTxOResponse"
	MessageTagInvalidInput            = "InvalidInput"
	MessageTagPostTxOnChainFailed     = "PostTxOnChainFailed"
	MessageTagCommandFailed           = "CommandFailed"
	MessageTagIgnoredHeadInitializing = "IgnoredHeadInitializing"
	MessageTagDecommitInvalid         = "DecommitInvalid"
	MessageTagDecommitRequested       = "DecommitRequested"
	MessageTagDecommitApproved        = "DecommitApproved"
	MessageTagDecommitFinalized       = "DecommitFinalized"
	MessageTagCommitRecorded          = "CommitRecorded"
	MessageTagCommitApproved          = "CommitApproved"
	MessageTagCommitFinalized         = "CommitFinalized"
	MessageTagCommitRecovered         = "CommitRecovered"
)

// NewMessageFromJson parses a Hydra API message from JSON. Messages with an
// unrecognized tag are returned as *MsgUnknown
func NewMessageFromJson(data []byte) (Message, error) {
	var base MessageBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	var ret Message
	switch base.MessageTag {
	case MessageTagInit:
		ret = &MsgInit{}
	case MessageTagAbort:
		ret = &MsgAbort{}
	case MessageTagNewTx:
		ret = &MsgNewTx{}
	case MessageTagGetUTxO:
		ret = &MsgGetUTxO{}
	case MessageTagDecommit:
		ret = &MsgDecommit{}
	case MessageTagRecover:
		ret = &MsgRecover{}
	case MessageTagClose:
		ret = &MsgClose{}
	case MessageTagContest:
		ret = &MsgContest{}
	case MessageTagFanout:
		ret = &MsgFanout{}
	case MessageTagGreetings:
		ret = &MsgGreetings{}
	case MessageTagPeerConnected:
		ret = &MsgPeerConnected{}
	case MessageTagPeerDisconnected:
		ret = &MsgPeerDisconnected{}
	case MessageTagPeerHandshakeFailure:
		ret = &MsgPeerHandshakeFailure{}
	case MessageTagHeadIsInitializing:
		ret = &MsgHeadIsInitializing{}
	case MessageTagCommitted:
		ret = &MsgCommitted{}
	case MessageTagHeadIsOpen:
		ret = &MsgHeadIsOpen{}
	case MessageTagHeadIsClosed:
		ret = &MsgHeadIsClosed{}
	case MessageTagHeadIsContested:
		ret = &MsgHeadIsContested{}
	case MessageTagReadyToFanout:
		ret = &MsgReadyToFanout{}
	case MessageTagHeadIsAborted:
		ret = &MsgHeadIsAborted{}
	case MessageTagHeadIsFinalized:
		ret = &MsgHeadIsFinalized{}
	case MessageTagTxValid:
		ret = &MsgTxValid{}
	case MessageTagTxInvalid:
		ret = &MsgTxInvalid{}
	case MessageTagSnapshotConfirmed:
		ret = &MsgSnapshotConfirmed{}
	case MessageTagGetUTxOResponse:
		ret = &MsgGetUTxOResponse{}
	case MessageTagInvalidInput:
		ret = &MsgInvalidInput{}
	case MessageTagPostTxOnChainFailed:
		ret = &MsgPostTxOnChainFailed{}
	case MessageTagCommandFailed:
		ret = &MsgCommandFailed{}
	case MessageTagIgnoredHeadInitializing:
		ret = &MsgIgnoredHeadInitializing{}
	case MessageTagDecommitInvalid:
		ret = &MsgDecommitInvalid{}
	case MessageTagDecommitRequested:
		ret = &MsgDecommitRequested{}
	case MessageTagDecommitApproved:
		ret = &MsgDecommitApproved{}
	case MessageTagDecommitFinalized:
		ret = &MsgDecommitFinalized{}
	case MessageTagCommitRecorded:
		ret = &MsgCommitRecorded{}
	case MessageTagCommitApproved:
		ret = &MsgCommitApproved{}
	case MessageTagCommitFinalized:
		ret = &MsgCommitFinalized{}
	case MessageTagCommitRecovered:
		ret = &MsgCommitRecovered{}
	default:
		ret = &MsgUnknown{}
	}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("%s: decode error: %w", base.MessageTag, err)
	}
	// Store the raw message JSON
	ret.SetRaw(data)
	return ret, nil
}

// Party identifies a head participant by its Hydra verification key
type Party struct {
	Vkey string `json:"vkey"`
}

// Snapshot is a confirmed snapshot of the head's layer-2 state
type Snapshot struct {
	HeadId         string       `json:"headId"`
	Number         uint64       `json:"number"`
	Version        uint64       `json:"version"`
	Utxo           ledger.UTxOs `json:"utxo"`
	Confirmed      []string     `json:"confirmed"`
	UtxoToCommit   ledger.UTxOs `json:"utxoToCommit,omitempty"`
	UtxoToDecommit ledger.UTxOs `json:"utxoToDecommit,omitempty"`
}

type MsgInit struct {
	MessageBase
}

func NewMsgInit() *MsgInit {
	return &MsgInit{MessageBase: MessageBase{MessageTag: MessageTagInit}}
}

type MsgAbort struct {
	MessageBase
}

func NewMsgAbort() *MsgAbort {
	return &MsgAbort{MessageBase: MessageBase{MessageTag: MessageTagAbort}}
}

type MsgNewTx struct {
	MessageBase
	Transaction Transaction `json:"transaction"`
}

func NewMsgNewTx(tx Transaction) *MsgNewTx {
	return &MsgNewTx{
		MessageBase: MessageBase{MessageTag: MessageTagNewTx},
		Transaction: tx,
	}
}

type MsgGetUTxO struct {
	MessageBase
}

func NewMsgGetUTxO() *MsgGetUTxO {
	return &MsgGetUTxO{MessageBase: MessageBase{MessageTag: MessageTagGetUTxO}}
}

type MsgDecommit struct {
	MessageBase
	DecommitTx Transaction `json:"decommitTx"`
}

func NewMsgDecommit(tx Transaction) *MsgDecommit {
	return &MsgDecommit{
		MessageBase: MessageBase{MessageTag: MessageTagDecommit},
		DecommitTx:  tx,
	}
}

type MsgRecover struct {
	MessageBase
	RecoverTxId string `json:"recoverTxId"`
}

func NewMsgRecover(txId string) *MsgRecover {
	return &MsgRecover{
		MessageBase: MessageBase{MessageTag: MessageTagRecover},
		RecoverTxId: txId,
	}
}

type MsgClose struct {
	MessageBase
}

func NewMsgClose() *MsgClose {
	return &MsgClose{MessageBase: MessageBase{MessageTag: MessageTagClose}}
}

type MsgContest struct {
	MessageBase
}

func NewMsgContest() *MsgContest {
	return &MsgContest{MessageBase: MessageBase{MessageTag: MessageTagContest}}
}

type MsgFanout struct {
	MessageBase
}

func NewMsgFanout() *MsgFanout {
	return &MsgFanout{MessageBase: MessageBase{MessageTag: MessageTagFanout}}
}

// MsgGreetings is sent by the node to every client on connect
type MsgGreetings struct {
	MessageBase
	Me               Party           `json:"me"`
	HeadStatus       string          `json:"headStatus"`
	HydraHeadId      string          `json:"hydraHeadId,omitempty"`
	SnapshotUtxo     ledger.UTxOs    `json:"snapshotUtxo,omitempty"`
	HydraNodeVersion string          `json:"hydraNodeVersion,omitempty"`
	Env              json.RawMessage `json:"env,omitempty"`
	NetworkInfo      json.RawMessage `json:"networkInfo,omitempty"`
}

func (m *MsgGreetings) ReportedHeadStatus() (string, bool) {
	return m.HeadStatus, m.HeadStatus != ""
}

type MsgPeerConnected struct {
	MessageBase
	Peer string `json:"peer"`
}

type MsgPeerDisconnected struct {
	MessageBase
	Peer string `json:"peer"`
}

type MsgPeerHandshakeFailure struct {
	MessageBase
	RemoteHost    json.RawMessage `json:"remoteHost"`
	OurVersion    int             `json:"ourVersion"`
	TheirVersions []int           `json:"theirVersions"`
}

type MsgHeadIsInitializing struct {
	MessageBase
	HeadId  string  `json:"headId"`
	Parties []Party `json:"parties"`
}

type MsgCommitted struct {
	MessageBase
	HeadId string       `json:"headId"`
	Party  Party        `json:"party"`
	Utxo   ledger.UTxOs `json:"utxo"`
}

type MsgHeadIsOpen struct {
	MessageBase
	HeadId string       `json:"headId"`
	Utxo   ledger.UTxOs `json:"utxo"`
}

type MsgHeadIsClosed struct {
	MessageBase
	HeadId               string `json:"headId"`
	SnapshotNumber       uint64 `json:"snapshotNumber"`
	ContestationDeadline string `json:"contestationDeadline"`
}

type MsgHeadIsContested struct {
	MessageBase
	HeadId               string `json:"headId"`
	SnapshotNumber       uint64 `json:"snapshotNumber"`
	ContestationDeadline string `json:"contestationDeadline"`
}

type MsgReadyToFanout struct {
	MessageBase
	HeadId string `json:"headId"`
}

type MsgHeadIsAborted struct {
	MessageBase
	HeadId string       `json:"headId"`
	Utxo   ledger.UTxOs `json:"utxo"`
}

type MsgHeadIsFinalized struct {
	MessageBase
	HeadId string       `json:"headId"`
	Utxo   ledger.UTxOs `json:"utxo"`
}

// MsgTxValid reports that a submitted transaction applied to the head's local
// ledger. Older nodes echo the whole transaction, newer ones only its ID
type MsgTxValid struct {
	MessageBase
	HeadId        string       `json:"headId"`
	TransactionId string       `json:"transactionId,omitempty"`
	Transaction   *Transaction `json:"transaction,omitempty"`
}

// TxId returns the ID of the validated transaction
func (m *MsgTxValid) TxId() string {
	if m.TransactionId != "" {
		return m.TransactionId
	}
	if m.Transaction != nil {
		return m.Transaction.Id()
	}
	return ""
}

type MsgTxInvalid struct {
	MessageBase
	HeadId          string          `json:"headId"`
	Utxo            ledger.UTxOs    `json:"utxo"`
	Transaction     Transaction     `json:"transaction"`
	ValidationError json.RawMessage `json:"validationError"`
}

type MsgSnapshotConfirmed struct {
	MessageBase
	HeadId     string          `json:"headId"`
	Snapshot   Snapshot        `json:"snapshot"`
	Signatures json.RawMessage `json:"signatures,omitempty"`
}

type MsgGetUTxOResponse struct {
	MessageBase
	HeadId string       `json:"headId"`
	Utxo   ledger.UTxOs `json:"utxo"`
}

type MsgInvalidInput struct {
	MessageBase
	Reason string `json:"reason"`
	Input  string `json:"input"`
}

type MsgPostTxOnChainFailed struct {
	MessageBase
	PostChainTx json.RawMessage `json:"postChainTx"`
	PostTxError json.RawMessage `json:"postTxError"`
}

type MsgCommandFailed struct {
	MessageBase
	ClientInput json.RawMessage `json:"clientInput"`
	State       json.RawMessage `json:"state,omitempty"`
}

// ClientInputTag returns the tag of the command that failed
func (m *MsgCommandFailed) ClientInputTag() string {
	var tmp MessageBase
	if err := json.Unmarshal(m.ClientInput, &tmp); err != nil {
		return ""
	}
	return tmp.MessageTag
}

type MsgIgnoredHeadInitializing struct {
	MessageBase
	HeadId             string   `json:"headId"`
	ContestationPeriod int      `json:"contestationPeriod"`
	Parties            []Party  `json:"parties"`
	Participants       []string `json:"participants"`
}

type MsgDecommitInvalid struct {
	MessageBase
	HeadId                string          `json:"headId"`
	DecommitTx            Transaction     `json:"decommitTx"`
	DecommitInvalidReason json.RawMessage `json:"decommitInvalidReason"`
}

type MsgDecommitRequested struct {
	MessageBase
	HeadId         string       `json:"headId"`
	DecommitTx     Transaction  `json:"decommitTx"`
	UtxoToDecommit ledger.UTxOs `json:"utxoToDecommit"`
}

type MsgDecommitApproved struct {
	MessageBase
	HeadId         string       `json:"headId"`
	DecommitTxId   string       `json:"decommitTxId"`
	UtxoToDecommit ledger.UTxOs `json:"utxoToDecommit"`
}

type MsgDecommitFinalized struct {
	MessageBase
	HeadId       string `json:"headId"`
	DecommitTxId string `json:"decommitTxId"`
}

type MsgCommitRecorded struct {
	MessageBase
	HeadId         string       `json:"headId"`
	UtxoToCommit   ledger.UTxOs `json:"utxoToCommit"`
	PendingDeposit string       `json:"pendingDeposit"`
	Deadline       string       `json:"deadline"`
}

type MsgCommitApproved struct {
	MessageBase
	HeadId       string       `json:"headId"`
	UtxoToCommit ledger.UTxOs `json:"utxoToCommit"`
}

type MsgCommitFinalized struct {
	MessageBase
	HeadId      string `json:"headId"`
	DepositTxId string `json:"depositTxId"`
}

type MsgCommitRecovered struct {
	MessageBase
	HeadId        string       `json:"headId"`
	RecoveredUTxO ledger.UTxOs `json:"recoveredUTxO"`
	RecoveredTxId string       `json:"recoveredTxId"`
}

// MsgUnknown carries any message whose tag this package does not model.
// The original JSON is available via Raw()
type MsgUnknown struct {
	MessageBase
	HeadStatus string `json:"headStatus,omitempty"`
}

func (m *MsgUnknown) ReportedHeadStatus() (string, bool) {
	return m.HeadStatus, m.HeadStatus != ""
}

// ErrNoTransaction is returned when a message does not carry a transaction
var ErrNoTransaction = errors.New("message carries no transaction")

// TransactionOf returns the transaction carried by a TxValid or TxInvalid message
func TransactionOf(msg Message) (Transaction, error) {
	switch m := msg.(type) {
	case *MsgTxValid:
		if m.Transaction == nil {
			return Transaction{}, ErrNoTransaction
		}
		return *m.Transaction, nil
	case *MsgTxInvalid:
		return m.Transaction, nil
	}
	return Transaction{}, ErrNoTransaction
}
