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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeadId = "820d4ef1cfbb4c21a5a9a5cfe8f1bd7ed2bd2d70b3e1e26e8f1e29c5"

type testDefinition struct {
	Json    string
	Message Message
}

var outboundTests = []testDefinition{
	{
		Json:    `{"tag":"Init"}`,
		Message: NewMsgInit(),
	},
	{
		Json:    `{"tag":"Abort"}`,
		Message: NewMsgAbort(),
	},
	{
		Json:    `{"tag":"Close"}`,
		Message: NewMsgClose(),
	},
	{
		Json:    `{"tag":"Contest"}`,
		Message: NewMsgContest(),
	},
	{
		Json:    `{"tag":"Fanout"}`,
		Message: NewMsgFanout(),
	},
	{
		Json:    `{"tag":"GetUTxO"}`,
		Message: NewMsgGetUTxO(),
	},
	{
		Json: `{"tag":"NewTx","transaction":{"type":"Witnessed Tx ConwayEra","description":"","cborHex":"84a0a0f5f6","txId":null}}`,
		Message: NewMsgNewTx(
			NewTransaction("84a0a0f5f6", TxTypeConwayWitnessed, "", ""),
		),
	},
	{
		Json: `{"tag":"Decommit","decommitTx":{"type":"Tx ConwayEra","description":"decommit","cborHex":"84a0a0f5f6","txId":"abcd"}}`,
		Message: NewMsgDecommit(
			NewTransaction("84a0a0f5f6", TxTypeConway, "decommit", "abcd"),
		),
	},
	{
		Json:    `{"tag":"Recover","recoverTxId":"abcd"}`,
		Message: NewMsgRecover("abcd"),
	},
}

func TestOutboundEncode(t *testing.T) {
	for _, test := range outboundTests {
		data, err := json.Marshal(test.Message)
		if err != nil {
			t.Fatalf("failed to encode message: %s", err)
		}
		if string(data) != test.Json {
			t.Fatalf(
				"message did not encode to expected JSON\n  got: %s\n  wanted: %s",
				data,
				test.Json,
			)
		}
	}
}

func TestOutboundDecode(t *testing.T) {
	for _, test := range outboundTests {
		msg, err := NewMessageFromJson([]byte(test.Json))
		if err != nil {
			t.Fatalf("failed to decode JSON: %s", err)
		}
		// Set the raw JSON on the expected message for comparison
		test.Message.SetRaw([]byte(test.Json))
		if !reflect.DeepEqual(msg, test.Message) {
			t.Fatalf(
				"JSON did not decode to expected message object\n  got: %#v\n  wanted: %#v",
				msg,
				test.Message,
			)
		}
	}
}

func TestDecodeGreetings(t *testing.T) {
	data := `{
		"tag": "Greetings",
		"me": {"vkey": "b37aabd81024c043f53a069c91e51a5b52e4ea399ae17ee1fe3cb9c44db707eb"},
		"headStatus": "Open",
		"hydraHeadId": "` + testHeadId + `",
		"snapshotUtxo": {},
		"hydraNodeVersion": "0.22.0",
		"env": {"party": {"vkey": "b37a"}},
		"seq": 0,
		"timestamp": "2025-01-01T00:00:00Z"
	}`
	msg, err := NewMessageFromJson([]byte(data))
	require.NoError(t, err)
	greetings, ok := msg.(*MsgGreetings)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, MessageTagGreetings, greetings.Tag())
	assert.Equal(t, "Open", greetings.HeadStatus)
	assert.Equal(t, testHeadId, greetings.HydraHeadId)
	assert.Equal(t, "0.22.0", greetings.HydraNodeVersion)
	assert.Equal(t, "2025-01-01T00:00:00Z", greetings.Timestamp)
	assert.NotNil(t, greetings.SnapshotUtxo)
	assert.Equal(t, []byte(data), greetings.Raw())
}

func TestDecodeTxValid(t *testing.T) {
	msg, err := NewMessageFromJson([]byte(`{
		"tag": "TxValid",
		"headId": "` + testHeadId + `",
		"transactionId": "d36a2619a672494604e11bb447cbcf5231e9f2ba25c2169177edc941bd50ad6c",
		"seq": 12
	}`))
	require.NoError(t, err)
	txValid, ok := msg.(*MsgTxValid)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, uint64(12), txValid.Seq)
	assert.Equal(
		t,
		"d36a2619a672494604e11bb447cbcf5231e9f2ba25c2169177edc941bd50ad6c",
		txValid.TxId(),
	)
	_, err = TransactionOf(txValid)
	assert.ErrorIs(t, err, ErrNoTransaction)

	msg, err = NewMessageFromJson([]byte(`{
		"tag": "TxValid",
		"headId": "` + testHeadId + `",
		"transaction": {"type": "Witnessed Tx ConwayEra", "description": "", "cborHex": "84a0a0f5f6", "txId": "abcd"}
	}`))
	require.NoError(t, err)
	tx, err := TransactionOf(msg)
	require.NoError(t, err)
	assert.Equal(t, "84a0a0f5f6", tx.CborHex)
	assert.Equal(t, "abcd", msg.(*MsgTxValid).TxId())
}

func TestDecodeTxInvalid(t *testing.T) {
	msg, err := NewMessageFromJson([]byte(`{
		"tag": "TxInvalid",
		"headId": "` + testHeadId + `",
		"utxo": {},
		"transaction": {"type": "Witnessed Tx ConwayEra", "description": "", "cborHex": "84a0a0f5f6", "txId": null},
		"validationError": {"reason": "ValueNotConserved"}
	}`))
	require.NoError(t, err)
	txInvalid, ok := msg.(*MsgTxInvalid)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, "84a0a0f5f6", txInvalid.Transaction.CborHex)
	assert.Empty(t, txInvalid.Transaction.Id())
	assert.JSONEq(t, `{"reason": "ValueNotConserved"}`, string(txInvalid.ValidationError))
}

func TestDecodeSnapshotConfirmed(t *testing.T) {
	msg, err := NewMessageFromJson([]byte(`{
		"tag": "SnapshotConfirmed",
		"headId": "` + testHeadId + `",
		"snapshot": {
			"headId": "` + testHeadId + `",
			"number": 7,
			"version": 1,
			"confirmed": ["abcd"],
			"utxo": {
				"22fbebfedc02277dd550cc774c483cb842728d090ffeba8ae2168805f651fc4c#0": {
					"address": "addr_test1qr62w5ru0hpxl4r6vezgtegrfqve0dm2dp3yj2f7y4arrf223wd3fr6qcumc6873am478xnxmfp8lgpe6q6ju9ttjgnsfsqvwx",
					"value": {"lovelace": 42}
				}
			}
		}
	}`))
	require.NoError(t, err)
	snapshotConfirmed, ok := msg.(*MsgSnapshotConfirmed)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, uint64(7), snapshotConfirmed.Snapshot.Number)
	assert.Equal(t, []string{"abcd"}, snapshotConfirmed.Snapshot.Confirmed)
	assert.Len(t, snapshotConfirmed.Snapshot.Utxo, 1)
}

func TestDecodeCommandFailed(t *testing.T) {
	msg, err := NewMessageFromJson([]byte(`{"tag":"CommandFailed","clientInput":{"tag":"Close"},"state":{}}`))
	require.NoError(t, err)
	commandFailed, ok := msg.(*MsgCommandFailed)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, MessageTagClose, commandFailed.ClientInputTag())
}

func TestDecodeUnknown(t *testing.T) {
	data := `{"tag":"SomethingNew","foo":"bar"}`
	msg, err := NewMessageFromJson([]byte(data))
	require.NoError(t, err)
	unknown, ok := msg.(*MsgUnknown)
	require.True(t, ok, "unexpected message type: %T", msg)
	assert.Equal(t, "SomethingNew", unknown.Tag())
	assert.Equal(t, []byte(data), unknown.Raw())
}

func TestDecodeInvalid(t *testing.T) {
	testDefs := []string{
		`not json`,
		`[1, 2, 3]`,
		`{"tag": 5}`,
		`{"tag": "HeadIsClosed", "snapshotNumber": "seven"}`,
	}
	for _, data := range testDefs {
		if _, err := NewMessageFromJson([]byte(data)); err == nil {
			t.Fatalf("did not receive expected error for input: %s", data)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	assert.NoError(t, NewTransaction("84a0a0f5f6", TxTypeConwayWitnessed, "", "").Validate())
	assert.Error(t, NewTransaction("", TxTypeConwayWitnessed, "", "").Validate())
	assert.Error(t, NewTransaction("84a0a0f5f6", "Tx BabbageEra", "", "").Validate())
}
