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

// Package hydranode provides a mock Hydra node serving the HTTP and WebSocket
// APIs for tests
package hydranode

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type EntryType int

const (
	EntryTypeNone   EntryType = 0
	EntryTypeInput  EntryType = 1
	EntryTypeOutput EntryType = 2
	EntryTypeClose  EntryType = 3
)

// ConversationEntry is one step of the scripted exchange run on each client connection
type ConversationEntry struct {
	Type EntryType
	// Tag expected on the next client frame, for input entries
	InputTag string
	// Optional check of the full client frame, for input entries
	InputFunc func([]byte) error
	// Frames sent to the client, for output entries. An output frame may
	// reference the last input frame through OutputFunc instead
	OutputFrames []string
	OutputFunc   func(lastInput []byte) []string
	// Close code sent for close entries
	CloseCode int
}

// Node is a mock Hydra node
type Node struct {
	server       *httptest.Server
	upgrader     websocket.Upgrader
	greeting     string
	conversation []ConversationEntry
	routes       map[string]http.HandlerFunc
	errorChan    chan error
	frameChan    chan []byte
	waitGroup    sync.WaitGroup
	mutex        sync.Mutex
	conns        []*websocket.Conn
	connectCount int
	queries      []string
	closeCodes   []int
}

type NodeOptionFunc func(*Node)

// WithGreeting specifies a frame sent to every client right after it connects
func WithGreeting(frame string) NodeOptionFunc {
	return func(n *Node) {
		n.greeting = frame
	}
}

// WithConversation specifies the scripted exchange run on each connection
func WithConversation(conversation []ConversationEntry) NodeOptionFunc {
	return func(n *Node) {
		n.conversation = conversation
	}
}

// WithRoute registers a handler for an HTTP path, e.g. "snapshot/utxo"
func WithRoute(path string, handler http.HandlerFunc) NodeOptionFunc {
	return func(n *Node) {
		n.routes[strings.Trim(path, "/")] = handler
	}
}

// WithJsonRoute registers a handler that responds with the given status and body
func WithJsonRoute(path string, statusCode int, body string) NodeOptionFunc {
	return WithRoute(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	})
}

// New starts a mock node listening on a local port
func New(options ...NodeOptionFunc) *Node {
	n := &Node{
		routes:    map[string]http.HandlerFunc{},
		errorChan: make(chan error, 10),
		frameChan: make(chan []byte, 100),
	}
	for _, option := range options {
		option(n)
	}
	n.server = httptest.NewServer(http.HandlerFunc(n.handle))
	return n
}

// HttpUrl returns the base HTTP URL of the node
func (n *Node) HttpUrl() string {
	return n.server.URL
}

// ErrorChan returns the channel for conversation mismatches and other errors
func (n *Node) ErrorChan() chan error {
	return n.errorChan
}

// ConnectCount returns the number of WebSocket connections accepted so far
func (n *Node) ConnectCount() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.connectCount
}

// Queries returns the raw query string of each WebSocket connection request
func (n *Node) Queries() []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	ret := make([]string, len(n.queries))
	copy(ret, n.queries)
	return ret
}

// CloseCodes returns the close codes sent by clients that closed their connection
func (n *Node) CloseCodes() []int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	ret := make([]int, len(n.closeCodes))
	copy(ret, n.closeCodes)
	return ret
}

// WaitForFrame returns the next frame received from any client
func (n *Node) WaitForFrame(timeout time.Duration) ([]byte, error) {
	select {
	case frame := <-n.frameChan:
		return frame, nil
	case <-time.After(timeout):
		return nil, errors.New("timed out waiting for frame")
	}
}

// Push sends a frame to every connected client
func (n *Node) Push(frame string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for _, conn := range n.conns {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return err
		}
	}
	return nil
}

// CloseConnections closes every client connection with the given close code
func (n *Node) CloseConnections(code int, reason string) {
	n.mutex.Lock()
	conns := n.conns
	n.conns = nil
	n.mutex.Unlock()
	for _, conn := range conns {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second),
		)
		_ = conn.Close()
	}
}

// Close shuts down the node and waits for its connection handlers to finish
func (n *Node) Close() {
	n.CloseConnections(websocket.CloseGoingAway, "")
	n.server.Close()
	n.waitGroup.Wait()
}

func (n *Node) handle(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		n.handleWebsocket(w, r)
		return
	}
	handler, ok := n.routes[strings.Trim(r.URL.Path, "/")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (n *Node) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.sendError(fmt.Errorf("upgrade failed: %w", err))
		return
	}
	n.mutex.Lock()
	n.conns = append(n.conns, conn)
	n.connectCount++
	n.queries = append(n.queries, r.URL.RawQuery)
	n.mutex.Unlock()
	n.waitGroup.Add(1)
	defer n.waitGroup.Done()
	defer n.removeConn(conn)
	if n.greeting != "" {
		if err := n.write(conn, n.greeting); err != nil {
			return
		}
	}
	inputChan := make(chan []byte, 100)
	n.waitGroup.Add(1)
	go func() {
		defer n.waitGroup.Done()
		n.runConversation(conn, inputChan)
	}()
	defer close(inputChan)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				n.mutex.Lock()
				n.closeCodes = append(n.closeCodes, closeErr.Code)
				n.mutex.Unlock()
			}
			return
		}
		select {
		case n.frameChan <- frame:
		default:
		}
		select {
		case inputChan <- frame:
		default:
		}
	}
}

func (n *Node) runConversation(conn *websocket.Conn, inputChan chan []byte) {
	var lastInput []byte
	for _, entry := range n.conversation {
		switch entry.Type {
		case EntryTypeInput:
			frame, ok := <-inputChan
			if !ok {
				return
			}
			lastInput = frame
			if err := checkInput(entry, frame); err != nil {
				n.sendError(err)
				return
			}
		case EntryTypeOutput:
			frames := entry.OutputFrames
			if entry.OutputFunc != nil {
				frames = entry.OutputFunc(lastInput)
			}
			for _, frame := range frames {
				if err := n.write(conn, frame); err != nil {
					return
				}
			}
		case EntryTypeClose:
			n.mutex.Lock()
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(entry.CloseCode, ""),
				time.Now().Add(time.Second),
			)
			n.mutex.Unlock()
			_ = conn.Close()
			return
		default:
			n.sendError(fmt.Errorf("unknown conversation entry type: %d", entry.Type))
			return
		}
	}
	// Drain remaining input so the read loop never blocks
	for range inputChan {
	}
}

func checkInput(entry ConversationEntry, frame []byte) error {
	if entry.InputTag != "" {
		var tmp struct {
			Tag string `json:"tag"`
		}
		if err := json.Unmarshal(frame, &tmp); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		if tmp.Tag != entry.InputTag {
			return fmt.Errorf(
				"input message is not of expected type: expected %s, got %s",
				entry.InputTag,
				tmp.Tag,
			)
		}
	}
	if entry.InputFunc != nil {
		return entry.InputFunc(frame)
	}
	return nil
}

func (n *Node) removeConn(conn *websocket.Conn) {
	n.mutex.Lock()
	for idx, tmpConn := range n.conns {
		if tmpConn == conn {
			n.conns = append(n.conns[:idx], n.conns[idx+1:]...)
			break
		}
	}
	n.mutex.Unlock()
	_ = conn.Close()
}

// write serializes writers on the shared connections
func (n *Node) write(conn *websocket.Conn, frame string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (n *Node) sendError(err error) {
	select {
	case n.errorChan <- err:
	default:
	}
}
