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

// Package session manages the WebSocket session with a Hydra node. It owns
// the transport, tracks the head status from inbound events and delivers
// outbound commands with bounded retry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/gohydra/event"
	"github.com/blinklabs-io/gohydra/protocol"
	"github.com/gorilla/websocket"
)

const (
	DefaultRetryInterval    = 1 * time.Second
	DefaultRetryWindow      = 5 * time.Second
	DefaultHandshakeTimeout = 30 * time.Second

	closeWriteTimeout = 1 * time.Second
	errorChanSize     = 10
)

// Session is a client session with a Hydra node over WebSocket
type Session struct {
	httpUrl       string
	wsUrl         string
	history       bool
	address       string
	url           string
	header        http.Header
	logger        *slog.Logger
	dialer        *websocket.Dialer
	retryInterval time.Duration
	retryWindow   time.Duration
	errorChan     chan error
	messages      *event.Hub[protocol.Message]
	statuses      *event.Hub[protocol.HeadStatus]
	// Held from a status change until it has been published, so status
	// subscribers see changes in the order they were made. Acquired before
	// mutex
	statusMutex sync.Mutex
	// Guards everything below
	mutex      sync.Mutex
	status     protocol.HeadStatus
	connected  bool
	conn       *websocket.Conn
	generation uint64
	dialCancel context.CancelFunc
	// Closed and replaced each time a transport opens
	openChan chan struct{}
	// gorilla/websocket supports a single concurrent writer
	writeMutex sync.Mutex
}

// New returns a new Session object with the specified options. The session
// starts Idle and does not connect until Connect is called
func New(options ...SessionOptionFunc) (*Session, error) {
	s := &Session{
		status:        protocol.StatusIdle,
		retryInterval: DefaultRetryInterval,
		retryWindow:   DefaultRetryWindow,
		openChan:      make(chan struct{}),
	}
	// Apply provided options functions
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.errorChan == nil {
		s.errorChan = make(chan error, errorChanSize)
	}
	if s.dialer == nil {
		s.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		}
	}
	if s.retryInterval <= 0 {
		return nil, fmt.Errorf("invalid retry interval: %s", s.retryInterval)
	}
	if s.retryWindow < 0 {
		return nil, fmt.Errorf("invalid retry window: %s", s.retryWindow)
	}
	url, err := WebsocketUrl(s.httpUrl, s.wsUrl, s.history, s.address)
	if err != nil {
		return nil, err
	}
	s.url = url
	s.messages = event.NewHub[protocol.Message](s.logger, "message")
	s.statuses = event.NewHub[protocol.HeadStatus](s.logger, "status")
	return s, nil
}

// URL returns the WebSocket endpoint of the session
func (s *Session) URL() string {
	return s.url
}

// ErrorChan returns the channel for asynchronous errors. Errors are dropped
// when the channel is full
func (s *Session) ErrorChan() chan error {
	return s.errorChan
}

// Status returns the current head status
func (s *Session) Status() protocol.HeadStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status
}

// IsConnected returns whether the transport is currently open
func (s *Session) IsConnected() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.connected
}

// OnMessage registers a handler for every decoded inbound message and
// returns a function that removes it
func (s *Session) OnMessage(handler event.HandlerFunc[protocol.Message]) func() {
	return s.messages.Subscribe(handler)
}

// OnStatusChange registers a handler for status transitions and returns a
// function that removes it. Status handlers must not call Connect or
// Disconnect synchronously
func (s *Session) OnStatusChange(handler event.HandlerFunc[protocol.HeadStatus]) func() {
	return s.statuses.Subscribe(handler)
}

// SubscriberCount returns the number of registered message and status
// handlers
func (s *Session) SubscriberCount() (int, int) {
	return s.messages.Len(), s.statuses.Len()
}

// Connect opens the transport. It does nothing while a transport is open or
// unless the session is Idle or Disconnected. Inbound messages are processed
// on a separate goroutine
func (s *Session) Connect(ctx context.Context) error {
	s.statusMutex.Lock()
	s.mutex.Lock()
	if s.conn != nil ||
		(s.status != protocol.StatusIdle &&
			s.status != protocol.StatusDisconnected) {
		s.mutex.Unlock()
		s.statusMutex.Unlock()
		return nil
	}
	s.generation++
	generation := s.generation
	dialCtx, dialCancel := context.WithCancel(ctx)
	s.dialCancel = dialCancel
	s.status = protocol.StatusConnecting
	s.mutex.Unlock()
	defer dialCancel()
	s.publishStatus(protocol.StatusConnecting)
	s.statusMutex.Unlock()
	s.logger.Info(
		"connecting",
		"component", "hydra",
		"url", s.url,
	)
	conn, _, err := s.dialer.DialContext(dialCtx, s.url, s.header)
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	s.mutex.Lock()
	if generation != s.generation {
		// Disconnect was called during the dial
		s.mutex.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return ErrConnectAborted
	}
	s.dialCancel = nil
	if err != nil {
		s.status = protocol.StatusDisconnected
		s.mutex.Unlock()
		err = fmt.Errorf("dial %s: %w", s.url, err)
		s.logger.Warn(
			"connection failed",
			"component", "hydra",
			"url", s.url,
			"error", err,
		)
		s.sendError(err)
		s.publishStatus(protocol.StatusDisconnected)
		return err
	}
	s.conn = conn
	s.connected = true
	s.status = protocol.StatusConnected
	openChan := s.openChan
	s.openChan = make(chan struct{})
	s.mutex.Unlock()
	close(openChan)
	s.logger.Info(
		"connected",
		"component", "hydra",
		"url", s.url,
	)
	s.publishStatus(protocol.StatusConnected)
	go s.readLoop(conn, generation)
	return nil
}

// Disconnect closes the transport with a policy violation close code and
// returns the session to Idle. It does nothing if the session is already Idle
// with no transport. A node reporting an Idle head keeps its transport until
// Disconnect
func (s *Session) Disconnect() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	s.mutex.Lock()
	if s.status == protocol.StatusIdle && s.conn == nil && s.dialCancel == nil {
		s.mutex.Unlock()
		return nil
	}
	s.generation++
	if s.dialCancel != nil {
		s.dialCancel()
		s.dialCancel = nil
	}
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.status = protocol.StatusIdle
	s.mutex.Unlock()
	var err error
	if conn != nil {
		// WriteControl may be called concurrently with other write methods
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "")
		if writeErr := conn.WriteControl(
			websocket.CloseMessage,
			closeMsg,
			time.Now().Add(closeWriteTimeout),
		); writeErr != nil && !errors.Is(writeErr, websocket.ErrCloseSent) {
			s.logger.Debug(
				"failed to send close frame",
				"component", "hydra",
				"error", writeErr,
			)
		}
		err = conn.Close()
	}
	s.logger.Info(
		"disconnected",
		"component", "hydra",
		"url", s.url,
	)
	s.publishStatus(protocol.StatusIdle)
	return err
}

// Send encodes payload as JSON and writes it to the transport. While the
// transport is unavailable it retries once per retry interval, and as soon as
// a transport opens, until the retry window elapses
func (s *Session) Send(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	deadline := time.NewTimer(s.retryWindow)
	defer deadline.Stop()
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()
	for {
		s.mutex.Lock()
		conn := s.conn
		openChan := s.openChan
		s.mutex.Unlock()
		if conn != nil {
			err := s.write(conn, data)
			if err == nil {
				s.logger.Debug(
					"sent message",
					"component", "hydra",
					"message", string(data),
				)
				return nil
			}
			s.logger.Debug(
				"send attempt failed",
				"component", "hydra",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			s.logger.Error(
				"giving up on send, transport unavailable",
				"component", "hydra",
				"url", s.url,
				"window", s.retryWindow,
				"message", string(data),
			)
			return ErrTransportUnavailable
		case <-ticker.C:
		case <-openChan:
		}
	}
}

func (s *Session) write(conn *websocket.Conn, data []byte) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) readLoop(conn *websocket.Conn, generation uint64) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(conn, generation, err)
			return
		}
		s.handleFrame(generation, data)
	}
}

func (s *Session) current(generation uint64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return generation == s.generation
}

func (s *Session) handleFrame(generation uint64, data []byte) {
	if !s.current(generation) {
		return
	}
	msg, err := protocol.NewMessageFromJson(data)
	if err != nil {
		decodeErr := &DecodeError{Frame: data, Err: err}
		s.logger.Warn(
			"dropping undecodable frame",
			"component", "hydra",
			"error", decodeErr,
		)
		s.sendError(decodeErr)
		return
	}
	s.logger.Debug(
		"received message",
		"component", "hydra",
		"tag", msg.Tag(),
	)
	s.messages.Publish(msg)
	matches := protocol.MatchStatusRules(msg)
	if len(matches) == 0 {
		return
	}
	if len(matches) > 1 {
		s.logger.Warn(
			"message matched multiple status rules, using the first",
			"component", "hydra",
			"tag", msg.Tag(),
			"rules", len(matches),
		)
	}
	newStatus := matches[0].Status
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	s.mutex.Lock()
	if generation != s.generation || s.status == newStatus {
		s.mutex.Unlock()
		return
	}
	s.status = newStatus
	s.mutex.Unlock()
	s.logger.Info(
		"head status changed",
		"component", "hydra",
		"tag", msg.Tag(),
		"status", newStatus.String(),
	)
	s.publishStatus(newStatus)
}

func (s *Session) handleReadError(conn *websocket.Conn, generation uint64, err error) {
	_ = conn.Close()
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()
	s.mutex.Lock()
	if generation != s.generation {
		// Superseded by Disconnect or a newer connection
		s.mutex.Unlock()
		return
	}
	s.generation++
	s.conn = nil
	s.connected = false
	s.status = protocol.StatusDisconnected
	s.mutex.Unlock()
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		s.logger.Info(
			"connection closed by node",
			"component", "hydra",
			"url", s.url,
			"code", closeErr.Code,
			"reason", closeErr.Text,
		)
		s.sendError(fmt.Errorf("connection closed: %w", err))
	} else {
		s.logger.Warn(
			"connection error",
			"component", "hydra",
			"url", s.url,
			"error", err,
		)
		s.sendError(fmt.Errorf("connection error: %w", err))
	}
	s.publishStatus(protocol.StatusDisconnected)
}

func (s *Session) publishStatus(status protocol.HeadStatus) {
	s.statuses.Publish(status)
}

func (s *Session) sendError(err error) {
	select {
	case s.errorChan <- err:
	default:
		s.logger.Debug(
			"error channel full, dropping error",
			"component", "hydra",
			"error", err,
		)
	}
}
