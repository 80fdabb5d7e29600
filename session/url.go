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
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// WebsocketUrl derives the node's WebSocket endpoint. The explicit wsUrl is
// used when provided, otherwise the "http" scheme prefix of httpUrl is
// replaced with "ws" (so "https" becomes "wss"). The history and address
// filter are appended as query parameters
func WebsocketUrl(
	httpUrl string,
	wsUrl string,
	history bool,
	address string,
) (string, error) {
	base := wsUrl
	if base == "" {
		if httpUrl == "" {
			return "", errors.New("no node URL provided")
		}
		if !strings.HasPrefix(httpUrl, "http") {
			return "", fmt.Errorf("unsupported node URL: %s", httpUrl)
		}
		base = "ws" + strings.TrimPrefix(httpUrl, "http")
	}
	tmpUrl, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid WebSocket URL: %w", err)
	}
	if tmpUrl.Scheme != "ws" && tmpUrl.Scheme != "wss" {
		return "", fmt.Errorf("unsupported WebSocket URL scheme: %q", tmpUrl.Scheme)
	}
	if tmpUrl.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: missing host")
	}
	historyParam := "no"
	if history {
		historyParam = "yes"
	}
	ret := strings.TrimSuffix(base, "/") + "/?history=" + historyParam
	if address != "" {
		ret += "&address=" + url.QueryEscape(address)
	}
	return ret, nil
}
