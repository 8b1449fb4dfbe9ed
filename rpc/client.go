// Copyright 2026 Blink Labs Software
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

// Package rpc is a client for the full node HTTP RPC API.
package rpc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/blinklabs-io/snapcat/types"
)

// ErrRequest wraps network, HTTP status and decoding failures
var ErrRequest = errors.New("rpc request failed")

// ResponseError is returned when the node answers with success set to false
type ResponseError struct {
	Path    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc %s: node returned error: %s", e.Path, e.Message)
}

// DefaultPooledPaths are sent to a random secondary endpoint when more than
// one endpoint is configured
var DefaultPooledPaths = []string{"push_tx", "get_fee_estimate"}

// maxResponseBytes limits responses to 64 MiB. Block spends for a full
// block can be large
const maxResponseBytes = 64 << 20

// Client is an HTTP JSON client for the full node RPC API.
type Client struct {
	endpoints   []string
	pooledPaths []string
	httpClient  *http.Client
	logger      *slog.Logger
	pick        func(n int) int
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom *http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTLSConfig sets the TLS configuration used for HTTPS endpoints
func WithTLSConfig(tlsConfig *tls.Config) ClientOption {
	return func(c *Client) {
		if tlsConfig == nil {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		c.httpClient.Transport = transport
	}
}

// WithTimeout sets the timeout applied to each request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPooledPaths overrides the paths sent to secondary endpoints
func WithPooledPaths(paths ...string) ClientOption {
	return func(c *Client) {
		c.pooledPaths = paths
	}
}

// NewClient creates a client. rpcURL may hold several endpoints separated
// by commas: the first serves reads, and the rest serve pooled paths
func NewClient(rpcURL string, opts ...ClientOption) (*Client, error) {
	var endpoints []string
	for _, endpoint := range strings.Split(rpcURL, ",") {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint == "" {
			continue
		}
		endpoints = append(endpoints, strings.TrimRight(endpoint, "/"))
	}
	if len(endpoints) == 0 {
		return nil, errors.New("no RPC endpoint configured")
	}
	c := &Client{
		endpoints:   endpoints,
		pooledPaths: DefaultPooledPaths,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pick: rand.IntN,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c, nil
}

// Endpoints returns the configured endpoint URLs
func (c *Client) Endpoints() []string {
	return c.endpoints
}

// endpointFor selects the endpoint that serves path
func (c *Client) endpointFor(path string) string {
	if len(c.endpoints) > 1 {
		for _, pooled := range c.pooledPaths {
			if strings.Contains(path, pooled) {
				rest := c.endpoints[1:]
				return rest[c.pick(len(rest))]
			}
		}
	}
	return c.endpoints[0]
}

// Call POSTs reqBody as JSON to path and decodes the response into
// respBody. A response with success set to false returns *ResponseError
func (c *Client) Call(
	ctx context.Context,
	path string,
	reqBody any,
	respBody any,
) error {
	path = strings.TrimLeft(path, "/")
	if reqBody == nil {
		reqBody = struct{}{}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}
	endpoint := c.endpointFor(path)
	reqURL := endpoint + "/" + path
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		reqURL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.logger.Debug(
		"sending rpc request",
		"component", "rpc",
		"endpoint", endpoint,
		"path", path,
	)
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL is built from configured endpoints
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRequest, path, err)
	}
	if resp == nil || resp.Body == nil {
		return fmt.Errorf("%w: %s: nil response from server", ErrRequest, path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf(
			"%w: %s: unexpected status %d: %s",
			ErrRequest,
			path,
			resp.StatusCode,
			string(bodyBytes),
		)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: reading response: %w", ErrRequest, path, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %w", ErrRequest, path, err)
	}
	if !env.Success {
		return &ResponseError{Path: path, Message: env.Error}
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("%w: %s: decoding response: %w", ErrRequest, path, err)
	}
	return nil
}

// GetBlockchainState returns the node's peak and sync status
func (c *Client) GetBlockchainState(ctx context.Context) (*BlockchainState, error) {
	var resp blockchainStateResponse
	if err := c.Call(ctx, "get_blockchain_state", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.BlockchainState, nil
}

// GetBlockRecordByHeight returns the block record at height. It returns a
// nil record when the node has no block at that height
func (c *Client) GetBlockRecordByHeight(
	ctx context.Context,
	height uint64,
) (*BlockRecord, error) {
	var resp blockRecordResponse
	err := c.Call(
		ctx,
		"get_block_record_by_height",
		blockRecordRequest{Height: height},
		&resp,
	)
	if err != nil {
		var respErr *ResponseError
		if errors.As(err, &respErr) {
			c.logger.Debug(
				"no block record",
				"component", "rpc",
				"height", height,
				"error", respErr.Message,
			)
			return nil, nil
		}
		return nil, err
	}
	return resp.BlockRecord, nil
}

// GetBlockSpends returns the coin spends of a transaction block, in block
// order
func (c *Client) GetBlockSpends(
	ctx context.Context,
	headerHash types.Bytes32,
) ([]types.CoinSpend, error) {
	var resp blockSpendsResponse
	err := c.Call(
		ctx,
		"get_block_spends",
		blockSpendsRequest{HeaderHash: headerHash.Hex()},
		&resp,
	)
	if err != nil {
		return nil, err
	}
	return resp.BlockSpends, nil
}
