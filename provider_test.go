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

package hydra_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	hydra "github.com/blinklabs-io/gohydra"
	"github.com/blinklabs-io/gohydra/internal/test/hydranode"
	"github.com/blinklabs-io/gohydra/ledger"
	"github.com/blinklabs-io/gohydra/protocol"
	"github.com/blinklabs-io/gohydra/rest"
	"github.com/blinklabs-io/gohydra/session"
	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	// Minimal transaction: empty body and witness set, valid, no metadata
	testTxCborHex = "84a0a0f5f6"
	testTxId      = "d36a2619a672494604e11bb447cbcf5231e9f2ba25c2169177edc941bd50ad6c"
	testOtherTxId = "22fbebfedc02277dd550cc774c483cb842728d090ffeba8ae2168805f651fc4c"

	testAddressMainnet = "addr1q862w5ru0hpxl4r6vezgtegrfqve0dm2dp3yj2f7y4arrf223wd3fr6qcumc6873am478xnxmfp8lgpe6q6ju9ttjgns2xavze"
	testAddressTestnet = "addr_test1qr62w5ru0hpxl4r6vezgtegrfqve0dm2dp3yj2f7y4arrf223wd3fr6qcumc6873am478xnxmfp8lgpe6q6ju9ttjgnsfsqvwx"

	testWaitTimeout = 5 * time.Second
)

var testSnapshotUtxo = fmt.Sprintf(
	`{
		"%[1]s#0": {"address": "%[3]s", "value": {"lovelace": 5000000}},
		"%[1]s#1": {"address": "%[4]s", "value": {"lovelace": 2000000}},
		"%[2]s#0": {"address": "%[3]s", "value": {"lovelace": 1000000}}
	}`,
	testTxId,
	testOtherTxId,
	testAddressTestnet,
	testAddressMainnet,
)

func newTestProvider(t *testing.T, node *hydranode.Node, options ...hydra.ProviderOptionFunc) *hydra.Provider {
	t.Helper()
	p, err := hydra.NewProvider(
		append(
			[]hydra.ProviderOptionFunc{
				hydra.WithHttpUrl(node.HttpUrl()),
				hydra.WithRetryInterval(50 * time.Millisecond),
				hydra.WithRetryWindow(2 * time.Second),
			},
			options...,
		)...,
	)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	return p
}

func connectTestProvider(t *testing.T, p *hydra.Provider) {
	t.Helper()
	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
}

func disconnectTestProvider(t *testing.T, p *hydra.Provider) {
	t.Helper()
	if err := p.Disconnect(); err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
}

func TestNewProviderNoUrl(t *testing.T) {
	if _, err := hydra.NewProvider(); err == nil {
		t.Fatalf("did not receive expected error")
	}
}

func TestNewProviderAddressNetwork(t *testing.T) {
	_, err := hydra.NewProvider(
		hydra.WithHttpUrl("http://127.0.0.1:4001"),
		hydra.WithAddress(testAddressMainnet),
		hydra.WithNetwork(ouroboros.NetworkPreview),
	)
	if !errors.Is(err, ledger.ErrInvalidAddress) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	_, err = hydra.NewProvider(
		hydra.WithHttpUrl("http://127.0.0.1:4001"),
		hydra.WithAddress(testAddressTestnet),
		hydra.WithNetwork(ouroboros.NetworkPreview),
	)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
}

func TestProviderAddressFilterQuery(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	p := newTestProvider(
		t,
		node,
		hydra.WithAddress(testAddressTestnet),
		hydra.WithHistory(true),
	)
	connectTestProvider(t, p)
	disconnectTestProvider(t, p)
	assert.Equal(
		t,
		[]string{"history=yes&address=" + testAddressTestnet},
		node.Queries(),
	)
}

func TestLifecycleCommands(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	testDefs := []struct {
		name    string
		command func(context.Context) error
		frame   string
	}{
		{name: "Init", command: p.Init, frame: `{"tag":"Init"}`},
		{name: "Abort", command: p.Abort, frame: `{"tag":"Abort"}`},
		{name: "Close", command: p.Close, frame: `{"tag":"Close"}`},
		{name: "Contest", command: p.Contest, frame: `{"tag":"Contest"}`},
		{name: "Fanout", command: p.Fanout, frame: `{"tag":"Fanout"}`},
		{name: "GetUTxO", command: p.GetUTxO, frame: `{"tag":"GetUTxO"}`},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			if err := testDef.command(context.Background()); err != nil {
				t.Fatalf("received unexpected error: %s", err)
			}
			frame, err := node.WaitForFrame(testWaitTimeout)
			if err != nil {
				t.Fatalf("received unexpected error: %s", err)
			}
			assert.JSONEq(t, testDef.frame, string(frame))
			// Sending a command does not change the head status
			assert.Equal(t, protocol.StatusConnected, p.Status())
		})
	}
}

func TestNewTxFrame(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	err := p.NewTx(
		context.Background(),
		testTxCborHex,
		protocol.TxTypeConway,
		"test tx",
		"",
	)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	frame, err := node.WaitForFrame(testWaitTimeout)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.JSONEq(
		t,
		`{"tag":"NewTx","transaction":{"type":"Tx ConwayEra","description":"test tx","cborHex":"84a0a0f5f6","txId":null}}`,
		string(frame),
	)
	if err := p.Decommit(context.Background(), testTxCborHex, protocol.TxTypeConwayWitnessed, ""); err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	frame, err = node.WaitForFrame(testWaitTimeout)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.JSONEq(
		t,
		`{"tag":"Decommit","decommitTx":{"type":"Witnessed Tx ConwayEra","description":"","cborHex":"84a0a0f5f6","txId":null}}`,
		string(frame),
	)
	if err := p.Recover(context.Background(), testTxId); err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	frame, err = node.WaitForFrame(testWaitTimeout)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.JSONEq(t, `{"tag":"Recover","recoverTxId":"`+testTxId+`"}`, string(frame))
}

func TestCommandInvalidInput(t *testing.T) {
	p, err := hydra.NewProvider(hydra.WithHttpUrl("http://127.0.0.1:4001"))
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	ctx := context.Background()
	assert.Error(t, p.NewTx(ctx, testTxCborHex, "Tx BabbageEra", "", ""))
	assert.Error(t, p.NewTx(ctx, "", protocol.TxTypeConway, "", ""))
	assert.Error(t, p.Decommit(ctx, "", protocol.TxTypeConway, ""))
	assert.Error(t, p.Recover(ctx, "abcd"))
	assert.Error(t, p.Recover(ctx, "zz"+testTxId[2:]))
}

func TestSubmitTxValid(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithConversation(
			[]hydranode.ConversationEntry{
				{
					Type:     hydranode.EntryTypeInput,
					InputTag: protocol.MessageTagNewTx,
					InputFunc: func(frame []byte) error {
						var msg protocol.MsgNewTx
						if err := json.Unmarshal(frame, &msg); err != nil {
							return err
						}
						if msg.Transaction.Type != protocol.TxTypeConwayWitnessed {
							return fmt.Errorf("unexpected transaction type: %s", msg.Transaction.Type)
						}
						return nil
					},
				},
				{
					Type: hydranode.EntryTypeOutput,
					OutputFrames: []string{
						// Verdicts on other transactions are ignored
						`{"tag":"TxValid","headId":"abcd","transactionId":"` + testOtherTxId + `"}`,
						`{"tag":"TxInvalid","headId":"abcd","utxo":{},"transaction":{"type":"Tx ConwayEra","description":"","cborHex":"84a0a0f5f7","txId":null},"validationError":{"reason":"other"}}`,
						`{"tag":"TxValid","headId":"abcd","transactionId":"` + testTxId + `"}`,
					},
				},
			},
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	subscribers := hydra.MessageSubscriberCount(p)
	txId, err := p.SubmitTx(context.Background(), testTxCborHex)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Equal(t, testTxId, txId)
	assert.Equal(t, subscribers, hydra.MessageSubscriberCount(p))
	select {
	case err := <-node.ErrorChan():
		t.Fatalf("mock node error: %s", err)
	default:
	}
}

func TestSubmitTxValidEchoedTransaction(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithConversation(
			[]hydranode.ConversationEntry{
				{
					Type:     hydranode.EntryTypeInput,
					InputTag: protocol.MessageTagNewTx,
				},
				{
					Type: hydranode.EntryTypeOutput,
					OutputFrames: []string{
						`{"tag":"TxValid","headId":"abcd","transaction":{"type":"Witnessed Tx ConwayEra","description":"","cborHex":"84a0a0f5f6","txId":"` + testTxId + `"}}`,
					},
				},
			},
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	txId, err := p.SubmitTx(context.Background(), testTxCborHex)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Equal(t, testTxId, txId)
}

func TestSubmitTxInvalid(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithConversation(
			[]hydranode.ConversationEntry{
				{
					Type:     hydranode.EntryTypeInput,
					InputTag: protocol.MessageTagNewTx,
				},
				{
					Type: hydranode.EntryTypeOutput,
					OutputFunc: func(lastInput []byte) []string {
						var msg protocol.MsgNewTx
						if err := json.Unmarshal(lastInput, &msg); err != nil {
							return nil
						}
						return []string{
							fmt.Sprintf(
								`{"tag":"TxInvalid","headId":"abcd","utxo":{},"transaction":{"type":"Tx ConwayEra","description":"","cborHex":%q,"txId":null},"validationError":{"reason":"ValueNotConserved"}}`,
								msg.Transaction.CborHex,
							),
						}
					},
				},
			},
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	subscribers := hydra.MessageSubscriberCount(p)
	_, err := p.SubmitTx(context.Background(), testTxCborHex)
	if !errors.Is(err, hydra.ErrValidationFailure) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	assert.Equal(t, subscribers, hydra.MessageSubscriberCount(p))
	var validationErr *hydra.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, testTxCborHex, validationErr.CborHex)
	assert.Equal(t, testTxId, validationErr.TxId)
	assert.JSONEq(t, `{"reason":"ValueNotConserved"}`, string(validationErr.Detail))
	assert.Equal(t, "ValueNotConserved", validationErr.Reason())
}

func TestSubmitTxTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	p := newTestProvider(t, node, hydra.WithSubmitTimeout(500*time.Millisecond))
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	subscribers := hydra.MessageSubscriberCount(p)
	errChan := make(chan error, 1)
	go func() {
		_, err := p.SubmitTx(context.Background(), testTxCborHex)
		errChan <- err
	}()
	// The pending submission holds one extra handler until it returns
	require.Eventually(
		t,
		func() bool { return hydra.MessageSubscriberCount(p) == subscribers+1 },
		testWaitTimeout,
		10*time.Millisecond,
	)
	select {
	case err := <-errChan:
		if !errors.Is(err, hydra.ErrSubmitTimeout) {
			t.Fatalf("did not get expected error: got %v", err)
		}
	case <-time.After(testWaitTimeout):
		t.Fatalf("timeout waiting for SubmitTx")
	}
	assert.Equal(t, subscribers, hydra.MessageSubscriberCount(p))
}

func TestSubmitTxContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	p := newTestProvider(t, node, hydra.WithSubmitTimeout(0))
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	subscribers := hydra.MessageSubscriberCount(p)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := p.SubmitTx(ctx, testTxCborHex)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	assert.Equal(t, subscribers, hydra.MessageSubscriberCount(p))
}

func TestSubmitTxTransportUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New()
	defer node.Close()
	// Never connected, so NewTx cannot be sent within the retry window
	p := newTestProvider(t, node, hydra.WithRetryWindow(200*time.Millisecond))
	subscribers := hydra.MessageSubscriberCount(p)
	_, err := p.SubmitTx(context.Background(), testTxCborHex)
	if !errors.Is(err, session.ErrTransportUnavailable) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	assert.Equal(t, subscribers, hydra.MessageSubscriberCount(p))
	assert.Equal(t, 0, node.ConnectCount())
}

func TestSubmitTxInvalidByTransactionId(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithConversation(
			[]hydranode.ConversationEntry{
				{
					Type:     hydranode.EntryTypeInput,
					InputTag: protocol.MessageTagNewTx,
				},
				{
					Type: hydranode.EntryTypeOutput,
					OutputFrames: []string{
						// Re-encoded CBOR for another transaction is ignored
						`{"tag":"TxInvalid","headId":"abcd","utxo":{},"transaction":{"type":"Tx ConwayEra","description":"","cborHex":"84a0a0f5f7","txId":"` + testOtherTxId + `"},"validationError":{"reason":"other"}}`,
						// Re-encoded CBOR with the submitted transaction's ID matches
						`{"tag":"TxInvalid","headId":"abcd","utxo":{},"transaction":{"type":"Tx ConwayEra","description":"","cborHex":"84a0a0f5f7","txId":"` + strings.ToUpper(testTxId) + `"},"validationError":{"reason":"BadInputsUTxO"}}`,
					},
				},
			},
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	_, err := p.SubmitTx(context.Background(), testTxCborHex)
	if !errors.Is(err, hydra.ErrValidationFailure) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	var validationErr *hydra.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, testTxId, validationErr.TxId)
	assert.Equal(t, "BadInputsUTxO", validationErr.Reason())
}

func TestFetchSnapshotUTxOEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(hydranode.WithJsonRoute("snapshot/utxo", http.StatusOK, `{}`))
	defer node.Close()
	p := newTestProvider(t, node)
	utxos, err := p.FetchSnapshotUTxO(context.Background())
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.NotNil(t, utxos)
	assert.Empty(t, utxos)
}

func TestFetchSnapshotUTxOFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithJsonRoute("snapshot/utxo", http.StatusInternalServerError, `{"tag":"SomeError"}`),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	_, err := p.FetchSnapshotUTxO(context.Background())
	if !errors.Is(err, rest.ErrRequestFailure) {
		t.Fatalf("did not get expected error: got %v", err)
	}
	var reqErr *rest.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Equal(t, `{"tag":"SomeError"}`, string(reqErr.Body))
}

func TestFetchUTxOs(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(hydranode.WithJsonRoute("snapshot/utxo", http.StatusOK, testSnapshotUtxo))
	defer node.Close()
	p := newTestProvider(t, node)
	ctx := context.Background()
	utxos, err := p.FetchUTxOs(ctx, "")
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Len(t, utxos, 3)
	utxos, err = p.FetchUTxOs(ctx, testTxId)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Len(t, utxos, 2)
	utxos, err = p.FetchUTxOs(ctx, testTxId, 1)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	require.Len(t, utxos, 1)
	assert.Equal(t, ledger.NewTxRef(testTxId, 1), utxos[0].Ref)
	assert.Equal(t, uint64(2000000), utxos[0].Output.Value.Lovelace())
	utxos, err = p.FetchUTxOs(ctx, testTxId, 7)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Empty(t, utxos)
	utxos, err = p.FetchAddressUTxOs(ctx, testAddressTestnet)
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	require.Len(t, utxos, 2)
	for _, utxo := range utxos {
		assert.Equal(t, testAddressTestnet, utxo.Output.Address)
	}
}

func TestFetchProtocolParameters(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithJsonRoute(
			"protocol-parameters",
			http.StatusOK,
			`{
				"txFeeFixed": 0,
				"txFeePerByte": 0,
				"maxTxSize": 16384,
				"protocolVersion": {"major": 10, "minor": 0},
				"executionUnitPrices": {"priceMemory": 0, "priceSteps": 0},
				"maxTxExecutionUnits": {"memory": 14000000, "steps": 10000000000},
				"maxBlockExecutionUnits": {"memory": 62000000, "steps": 20000000000},
				"utxoCostPerByte": 4310,
				"collateralPercentage": 150,
				"costModels": {"PlutusV3": [100788, 420, 1]}
			}`,
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	params, err := p.FetchProtocolParameters(context.Background())
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Equal(t, uint64(16384), params.MaxTxSize)
	assert.Equal(t, uint(10), params.ProtocolVersion.Major)
	assert.Equal(t, uint64(14000000), params.MaxTxExecutionUnits.Memory)
	assert.Equal(t, uint64(4310), params.UtxoCostPerByte)
	assert.Equal(t, []int64{100788, 420, 1}, params.CostModels["PlutusV3"])
	// Heads commonly run with zero fees
	assert.Equal(t, uint64(0), params.MinFee(300))
}

func TestLatestSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)
	node := hydranode.New(
		hydranode.WithGreeting(
			`{"tag":"Greetings","me":{"vkey":"abcd"},"headStatus":"Open","snapshotUtxo":` + testSnapshotUtxo + `}`,
		),
	)
	defer node.Close()
	p := newTestProvider(t, node)
	utxos, _, err := p.LatestSnapshot()
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Nil(t, utxos)
	connectTestProvider(t, p)
	defer disconnectTestProvider(t, p)
	require.Eventually(
		t,
		func() bool {
			utxos, _, err := p.LatestSnapshot()
			return err == nil && len(utxos) == 3
		},
		testWaitTimeout,
		10*time.Millisecond,
	)
	// The returned set is a copy
	utxos, _, err = p.LatestSnapshot()
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	delete(utxos, testTxId+"#0")
	utxos, _, err = p.LatestSnapshot()
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	assert.Len(t, utxos, 3)
	require.NoError(
		t,
		node.Push(
			fmt.Sprintf(
				`{"tag":"SnapshotConfirmed","headId":"abcd","snapshot":{"headId":"abcd","number":5,"version":0,"utxo":{"%s#0":{"address":"%s","value":{"lovelace":8000000}}},"confirmed":[]}}`,
				testTxId,
				testAddressTestnet,
			),
		),
	)
	require.Eventually(
		t,
		func() bool {
			_, number, err := p.LatestSnapshot()
			return err == nil && number == 5
		},
		testWaitTimeout,
		10*time.Millisecond,
	)
	utxos, _, err = p.LatestSnapshot()
	if err != nil {
		t.Fatalf("received unexpected error: %s", err)
	}
	require.Len(t, utxos, 1)
	assert.Equal(t, uint64(8000000), utxos[testTxId+"#0"].Value.Lovelace())
}
