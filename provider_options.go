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

import (
	"log/slog"
	"net/http"
	"time"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/gorilla/websocket"
)

// ProviderOptionFunc is a type that represents functions that modify the Provider config
type ProviderOptionFunc func(*Provider)

// WithHttpUrl specifies the base HTTP URL of the Hydra node, e.g. "http://127.0.0.1:4001". This option is required
func WithHttpUrl(httpUrl string) ProviderOptionFunc {
	return func(p *Provider) {
		p.httpUrl = httpUrl
	}
}

// WithWsUrl specifies the WebSocket URL of the node. By default it is derived from the HTTP URL
func WithWsUrl(wsUrl string) ProviderOptionFunc {
	return func(p *Provider) {
		p.wsUrl = wsUrl
	}
}

// WithHistory specifies whether the node should replay past events on connect
func WithHistory(history bool) ProviderOptionFunc {
	return func(p *Provider) {
		p.history = history
	}
}

// WithAddress limits the transaction events sent by the node to those involving the given address
func WithAddress(address string) ProviderOptionFunc {
	return func(p *Provider) {
		p.address = address
	}
}

// WithNetwork specifies the Cardano network of the head. When set, the address filter is validated against it
func WithNetwork(network ouroboros.Network) ProviderOptionFunc {
	return func(p *Provider) {
		p.network = &network
	}
}

// WithLogger specifies the logger to use. slog.Default() is used when none is provided
func WithLogger(logger *slog.Logger) ProviderOptionFunc {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithHttpClient specifies the HTTP client used for the REST API
func WithHttpClient(httpClient *http.Client) ProviderOptionFunc {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithDialer specifies the WebSocket dialer to use
func WithDialer(dialer *websocket.Dialer) ProviderOptionFunc {
	return func(p *Provider) {
		p.dialer = dialer
	}
}

// WithRetryInterval specifies how often a command is retried while the WebSocket is unavailable
func WithRetryInterval(interval time.Duration) ProviderOptionFunc {
	return func(p *Provider) {
		p.retryInterval = interval
	}
}

// WithRetryWindow specifies how long a command is retried before giving up
func WithRetryWindow(window time.Duration) ProviderOptionFunc {
	return func(p *Provider) {
		p.retryWindow = window
	}
}

// WithSubmitTimeout specifies how long SubmitTx waits for the node's verdict. A zero value waits until the context is done
func WithSubmitTimeout(timeout time.Duration) ProviderOptionFunc {
	return func(p *Provider) {
		p.submitTimeout = timeout
	}
}

// WithErrorChan specifies the error channel to use. If none is provided, one will be created
func WithErrorChan(errorChan chan error) ProviderOptionFunc {
	return func(p *Provider) {
		p.errorChan = errorChan
	}
}
