package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// RPCClient is a JSON-RPC 1.0 client for a BSV node.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ NodeService = (*RPCClient)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a client for cfg. Basic auth is sent when User is set.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RPCClient{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Call invokes method with params and decodes the result into result, which
// may be nil to discard it. Transport failures wrap ErrConnectionFailed and
// undecodable replies wrap ErrInvalidResponse; node-side errors carry the
// node's code and message.
func (c *RPCClient) Call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	req := rpcRequest{JSONRPC: "1.0", ID: c.nextID.Add(1), Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("network: marshal %s: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		httpReq.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var rpcResp rpcResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&rpcResp)

	// Nodes answer RPC-level errors with HTTP 500 and a JSON body.
	if decodeErr == nil && rpcResp.Error != nil {
		return fmt.Errorf("network: %s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: HTTP %d", ErrConnectionFailed, method, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidResponse, method, decodeErr)
	}
	if rpcResp.ID != req.ID {
		return fmt.Errorf("%w: %s: response id %d, want %d", ErrInvalidResponse, method, rpcResp.ID, req.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: %s result: %w", ErrInvalidResponse, method, err)
		}
	}
	return nil
}
