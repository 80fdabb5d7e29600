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

// Package rest implements the request/response side of the Hydra node API
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Client performs JSON round trips against a Hydra node's HTTP API
type Client struct {
	baseUrl    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type ClientOptionFunc func(*Client)

// WithHttpClient specifies the HTTP client to use. The default has a 30s timeout
func WithHttpClient(httpClient *http.Client) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client for the node at baseUrl
func NewClient(baseUrl string, options ...ClientOptionFunc) (*Client, error) {
	tmpUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if tmpUrl.Scheme != "http" && tmpUrl.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL: unsupported scheme %q", tmpUrl.Scheme)
	}
	if tmpUrl.Host == "" {
		return nil, fmt.Errorf("invalid base URL: missing host")
	}
	// Request paths are resolved relative to the base path
	if !strings.HasSuffix(tmpUrl.Path, "/") {
		tmpUrl.Path += "/"
	}
	c := &Client{
		baseUrl: tmpUrl,
	}
	for _, option := range options {
		option(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// BaseUrl returns the base URL of the node
func (c *Client) BaseUrl() string {
	return c.baseUrl.String()
}

func (c *Client) resolve(path string) string {
	ref := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if rawPath, rawQuery, ok := strings.Cut(path, "?"); ok {
		ref = &url.URL{Path: strings.TrimPrefix(rawPath, "/"), RawQuery: rawQuery}
	}
	return c.baseUrl.ResolveReference(ref).String()
}

// Get performs a GET request and decodes the JSON response into dest. A nil
// dest discards the body
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	return c.do(ctx, http.MethodGet, path, nil, nil, dest)
}

// Post sends payload as JSON and decodes the JSON response into dest. The
// provided headers are copied onto the request and never modified
func (c *Client) Post(
	ctx context.Context,
	path string,
	payload any,
	headers http.Header,
	dest any,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, headers, dest)
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body []byte,
	headers http.Header,
	dest any,
) error {
	reqUrl := c.resolve(path)
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqUrl, bodyReader)
	if err != nil {
		return &RequestError{Method: method, URL: reqUrl, Err: err}
	}
	if headers != nil {
		req.Header = headers.Clone()
	}
	req.Header.Set("Accept", "application/json")
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.logger.Debug(
		"sending request",
		"component", "hydra",
		"method", method,
		"url", reqUrl,
	)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Method: method, URL: reqUrl, Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{
			Method:     method,
			URL:        reqUrl,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read response: %w", err),
		}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return &RequestError{
			Method:     method,
			URL:        reqUrl,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}
	if dest == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return &RequestError{
			Method:     method,
			URL:        reqUrl,
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}
