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

package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// SessionOptionFunc is a type that represents functions that modify the Session config
type SessionOptionFunc func(*Session)

// WithHttpUrl specifies the base HTTP URL of the node. The WebSocket URL is derived from it
func WithHttpUrl(httpUrl string) SessionOptionFunc {
	return func(s *Session) {
		s.httpUrl = httpUrl
	}
}

// WithWsUrl specifies an explicit WebSocket URL, overriding the one derived from the HTTP URL
func WithWsUrl(wsUrl string) SessionOptionFunc {
	return func(s *Session) {
		s.wsUrl = wsUrl
	}
}

// WithHistory specifies whether the node should replay past events on connect
func WithHistory(history bool) SessionOptionFunc {
	return func(s *Session) {
		s.history = history
	}
}

// WithAddress limits transaction events to those involving the given address
func WithAddress(address string) SessionOptionFunc {
	return func(s *Session) {
		s.address = address
	}
}

// WithLogger specifies the logger to use. slog.Default() is used when none is provided
func WithLogger(logger *slog.Logger) SessionOptionFunc {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDialer specifies the WebSocket dialer to use
func WithDialer(dialer *websocket.Dialer) SessionOptionFunc {
	return func(s *Session) {
		s.dialer = dialer
	}
}

// WithHeader specifies extra HTTP headers for the WebSocket handshake
func WithHeader(header http.Header) SessionOptionFunc {
	return func(s *Session) {
		s.header = header.Clone()
	}
}

// WithRetryInterval specifies how often Send retries while the transport is unavailable
func WithRetryInterval(interval time.Duration) SessionOptionFunc {
	return func(s *Session) {
		s.retryInterval = interval
	}
}

// WithRetryWindow specifies how long Send keeps retrying before giving up
func WithRetryWindow(window time.Duration) SessionOptionFunc {
	return func(s *Session) {
		s.retryWindow = window
	}
}

// WithErrorChan specifies the error channel to use. If none is provided, one will be created
func WithErrorChan(errorChan chan error) SessionOptionFunc {
	return func(s *Session) {
		s.errorChan = errorChan
	}
}
