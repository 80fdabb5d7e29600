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

// Package hydra implements a client for Hydra Head nodes
//
// A Provider talks to a single node over its WebSocket API (head lifecycle
// commands, transaction submission and the event stream) and its HTTP API
// (snapshot queries, protocol parameters and commit/decommit drafting).
// An Instance builds on a Provider to commit layer 1 funds into the head.
package hydra

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/blinklabs-io/gohydra/event"
	"github.com/blinklabs-io/gohydra/ledger"
	"github.com/blinklabs-io/gohydra/protocol"
	"github.com/blinklabs-io/gohydra/rest"
	"github.com/blinklabs-io/gohydra/session"
	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/gorilla/websocket"
)

const (
	DefaultSubmitTimeout = 60 * time.Second

	pathSnapshotUtxo       = "snapshot/utxo"
	pathProtocolParameters = "protocol-parameters"
	pathCommit             = "commit"
	pathDecommit           = "decommit"
)

var (
	_ Fetcher   = (*Provider)(nil)
	_ Submitter = (*Provider)(nil)
)

// Provider is a client for a single Hydra node
type Provider struct {
	httpUrl       string
	wsUrl         string
	history       bool
	address       string
	network       *ouroboros.Network
	logger        *slog.Logger
	httpClient    *http.Client
	dialer        *websocket.Dialer
	retryInterval time.Duration
	retryWindow   time.Duration
	submitTimeout time.Duration
	errorChan     chan error
	session       *session.Session
	client        *rest.Client
	snapshot      *snapshotTracker
}

// NewProvider returns a new Provider object with the specified options. The
// provider does not connect to the node until Connect is called
func NewProvider(options ...ProviderOptionFunc) (*Provider, error) {
	p := &Provider{
		retryInterval: session.DefaultRetryInterval,
		retryWindow:   session.DefaultRetryWindow,
		submitTimeout: DefaultSubmitTimeout,
	}
	// Apply provided options functions
	for _, option := range options {
		option(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.httpUrl == "" {
		return nil, errors.New("no node HTTP URL provided")
	}
	if p.address != "" && p.network != nil {
		if err := ledger.ValidateAddress(p.address, p.network.Id); err != nil {
			return nil, fmt.Errorf("address filter for network %s: %w", p.network.Name, err)
		}
	}
	restOptions := []rest.ClientOptionFunc{
		rest.WithLogger(p.logger),
	}
	if p.httpClient != nil {
		restOptions = append(restOptions, rest.WithHttpClient(p.httpClient))
	}
	client, err := rest.NewClient(p.httpUrl, restOptions...)
	if err != nil {
		return nil, err
	}
	p.client = client
	sessionOptions := []session.SessionOptionFunc{
		session.WithHttpUrl(p.httpUrl),
		session.WithWsUrl(p.wsUrl),
		session.WithHistory(p.history),
		session.WithAddress(p.address),
		session.WithLogger(p.logger),
		session.WithRetryInterval(p.retryInterval),
		session.WithRetryWindow(p.retryWindow),
	}
	if p.dialer != nil {
		sessionOptions = append(sessionOptions, session.WithDialer(p.dialer))
	}
	if p.errorChan != nil {
		sessionOptions = append(sessionOptions, session.WithErrorChan(p.errorChan))
	}
	s, err := session.New(sessionOptions...)
	if err != nil {
		return nil, err
	}
	p.session = s
	p.snapshot = newSnapshotTracker(p.logger)
	p.session.OnMessage(p.snapshot.handleMessage)
	return p, nil
}

// Connect opens the WebSocket session with the node
func (p *Provider) Connect(ctx context.Context) error {
	return p.session.Connect(ctx)
}

// Disconnect closes the WebSocket session
func (p *Provider) Disconnect() error {
	return p.session.Disconnect()
}

// Status returns the current head status
func (p *Provider) Status() protocol.HeadStatus {
	return p.session.Status()
}

// IsConnected returns whether the WebSocket session is open
func (p *Provider) IsConnected() bool {
	return p.session.IsConnected()
}

// ErrorChan returns the channel for asynchronous session errors
func (p *Provider) ErrorChan() chan error {
	return p.session.ErrorChan()
}

// OnMessage registers a handler for every message received from the node
// and returns a function that removes it
func (p *Provider) OnMessage(handler event.HandlerFunc[protocol.Message]) func() {
	return p.session.OnMessage(handler)
}

// OnStatusChange registers a handler for head status changes and returns a
// function that removes it
func (p *Provider) OnStatusChange(handler event.HandlerFunc[protocol.HeadStatus]) func() {
	return p.session.OnStatusChange(handler)
}

// Init initializes a new head. The node ignores it if a head is already open
func (p *Provider) Init(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgInit())
}

// Abort aborts a head before it is opened
func (p *Provider) Abort(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgAbort())
}

// Close closes the head and starts the contestation period
func (p *Provider) Close(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgClose())
}

// Contest contests a closed head with the latest confirmed snapshot
func (p *Provider) Contest(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgContest())
}

// Fanout distributes the head's UTxO on layer 1 after the contestation period
func (p *Provider) Fanout(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgFanout())
}

// GetUTxO asks the node for the head's UTxO, answered with GetUTxOResponse.
// Only older nodes support it
func (p *Provider) GetUTxO(ctx context.Context) error {
	return p.send(ctx, protocol.NewMsgGetUTxO())
}

// NewTx submits a transaction to the head. The outcome is reported by a
// later TxValid or TxInvalid message
func (p *Provider) NewTx(
	ctx context.Context,
	cborHex string,
	txType string,
	description string,
	txId string,
) error {
	tx := protocol.NewTransaction(cborHex, txType, description, txId)
	if err := tx.Validate(); err != nil {
		return err
	}
	return p.send(ctx, protocol.NewMsgNewTx(tx))
}

// Decommit requests that the outputs of a decommit transaction be moved out
// of the head to layer 1
func (p *Provider) Decommit(
	ctx context.Context,
	cborHex string,
	txType string,
	description string,
) error {
	tx := protocol.NewTransaction(cborHex, txType, description, "")
	if err := tx.Validate(); err != nil {
		return err
	}
	return p.send(ctx, protocol.NewMsgDecommit(tx))
}

// Recover requests recovery of a pending deposit that was not committed before its deadline
func (p *Provider) Recover(ctx context.Context, txId string) error {
	if len(txId) != ledger.TxHashHexLength {
		return fmt.Errorf("invalid deposit transaction ID: %q", txId)
	}
	if _, err := hex.DecodeString(txId); err != nil {
		return fmt.Errorf("invalid deposit transaction ID: %w", err)
	}
	return p.send(ctx, protocol.NewMsgRecover(txId))
}

func (p *Provider) send(ctx context.Context, msg protocol.Message) error {
	if err := p.session.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Tag(), err)
	}
	return nil
}

// Get performs a GET request against the node's HTTP API and decodes the
// JSON response into dest
func (p *Provider) Get(ctx context.Context, path string, dest any) error {
	return p.client.Get(ctx, path, dest)
}

// Post performs a POST request against the node's HTTP API and decodes the
// JSON response into dest
func (p *Provider) Post(
	ctx context.Context,
	path string,
	payload any,
	headers http.Header,
	dest any,
) error {
	return p.client.Post(ctx, path, payload, headers, dest)
}

// FetchSnapshotUTxO returns the UTxO set of the latest confirmed snapshot
func (p *Provider) FetchSnapshotUTxO(ctx context.Context) (ledger.UTxOs, error) {
	var utxos ledger.UTxOs
	if err := p.client.Get(ctx, pathSnapshotUtxo, &utxos); err != nil {
		return nil, err
	}
	if utxos == nil {
		utxos = ledger.UTxOs{}
	}
	return utxos, nil
}

// FetchUTxOs returns the snapshot outputs of transaction txHash, limited to
// the given indexes when any are provided. An empty txHash matches all
// transactions
func (p *Provider) FetchUTxOs(
	ctx context.Context,
	txHash string,
	indexes ...uint32,
) ([]ledger.UTxO, error) {
	utxos, err := p.FetchSnapshotUTxO(ctx)
	if err != nil {
		return nil, err
	}
	return utxos.Filter(func(utxo ledger.UTxO) bool {
		if txHash != "" && !strings.EqualFold(utxo.Ref.Hash, txHash) {
			return false
		}
		if len(indexes) == 0 {
			return true
		}
		for _, index := range indexes {
			if utxo.Ref.Index == index {
				return true
			}
		}
		return false
	}), nil
}

// FetchAddressUTxOs returns the snapshot outputs locked at address
func (p *Provider) FetchAddressUTxOs(ctx context.Context, address string) ([]ledger.UTxO, error) {
	utxos, err := p.FetchSnapshotUTxO(ctx)
	if err != nil {
		return nil, err
	}
	return utxos.Filter(func(utxo ledger.UTxO) bool {
		return utxo.Output.Address == address
	}), nil
}

// FetchProtocolParameters returns the protocol parameters in effect inside the head
func (p *Provider) FetchProtocolParameters(ctx context.Context) (*ProtocolParameters, error) {
	var params ProtocolParameters
	if err := p.client.Get(ctx, pathProtocolParameters, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// BuildCommit asks the node to draft a commit transaction for payload, which
// is either a UTxO map or a blueprint commit request. The draft must be signed
// and submitted on layer 1
func (p *Provider) BuildCommit(
	ctx context.Context,
	payload any,
	headers http.Header,
) (protocol.Transaction, error) {
	var tx protocol.Transaction
	if err := p.client.Post(ctx, pathCommit, payload, headers, &tx); err != nil {
		return protocol.Transaction{}, err
	}
	return tx, nil
}

// PublishDecommit submits a decommit transaction through the HTTP API and
// returns the node's response verbatim
func (p *Provider) PublishDecommit(
	ctx context.Context,
	payload any,
	headers http.Header,
) (json.RawMessage, error) {
	var ret json.RawMessage
	if err := p.client.Post(ctx, pathDecommit, payload, headers, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// LatestSnapshot returns a copy of the UTxO set most recently streamed by the
// node, along with the snapshot number when known. The UTxO set is nil if the
// node has not sent one since the provider was created
func (p *Provider) LatestSnapshot() (ledger.UTxOs, uint64, error) {
	return p.snapshot.latest()
}

// SubmitTx submits a signed transaction to the head and waits for the node to
// accept or reject it. It returns the transaction ID on TxValid and a
// *ValidationError on TxInvalid
func (p *Provider) SubmitTx(ctx context.Context, cborHex string) (string, error) {
	txId, err := ledger.TransactionIdFromCbor(cborHex)
	if err != nil {
		// Matching falls back to the CBOR payload alone
		p.logger.Debug(
			"could not compute transaction ID",
			"component", "hydra",
			"error", err,
		)
		txId = ""
	}
	resultChan := make(chan submitResult, 1)
	unsubscribe := p.session.OnMessage(func(msg protocol.Message) error {
		result, ok := matchSubmitResult(msg, cborHex, txId)
		if !ok {
			return nil
		}
		select {
		case resultChan <- result:
		default:
		}
		return nil
	})
	defer unsubscribe()
	if err := p.NewTx(ctx, cborHex, protocol.TxTypeConwayWitnessed, "", ""); err != nil {
		return "", err
	}
	var timeoutChan <-chan time.Time
	if p.submitTimeout > 0 {
		timer := time.NewTimer(p.submitTimeout)
		defer timer.Stop()
		timeoutChan = timer.C
	}
	select {
	case result := <-resultChan:
		if result.err != nil {
			p.logger.Warn(
				"transaction rejected",
				"component", "hydra",
				"tx_id", txId,
				"error", result.err,
			)
			return "", result.err
		}
		p.logger.Info(
			"transaction accepted",
			"component", "hydra",
			"tx_id", result.txId,
		)
		return result.txId, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeoutChan:
		return "", ErrSubmitTimeout
	}
}

type submitResult struct {
	txId string
	err  error
}

// matchSubmitResult checks whether msg is the node's verdict on the
// transaction with the given CBOR and ID. Only TxValid and TxInvalid for the
// same transaction match
func matchSubmitResult(msg protocol.Message, cborHex string, txId string) (submitResult, bool) {
	switch m := msg.(type) {
	case *protocol.MsgTxValid:
		matched := false
		if m.Transaction != nil && m.Transaction.CborHex == cborHex {
			matched = true
		}
		if txId != "" && strings.EqualFold(m.TxId(), txId) {
			matched = true
		}
		if !matched {
			return submitResult{}, false
		}
		ret := m.TxId()
		if ret == "" {
			ret = txId
		}
		return submitResult{txId: ret}, true
	case *protocol.MsgTxInvalid:
		if m.Transaction.CborHex != cborHex &&
			(txId == "" || !strings.EqualFold(m.Transaction.Id(), txId)) {
			return submitResult{}, false
		}
		return submitResult{
			err: &ValidationError{
				CborHex: cborHex,
				TxId:    txId,
				Detail:  m.ValidationError,
			},
		}, true
	}
	return submitResult{}, false
}
