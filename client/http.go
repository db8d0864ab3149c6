package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// httpClient HTTP客户端实现
type httpClient struct {
	endpoint string
	client   *http.Client
	logger   Logger
	debug    bool
	nextID   atomic.Uint64
	retry    *RetryConfig
}

// NewHTTPClient 创建HTTP客户端
func NewHTTPClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	logger := config.logger()
	retry := config.Retry
	if retry != nil && retry.OnRetry == nil && config.Debug {
		cp := *retry
		cp.OnRetry = func(attempt int, err error) {
			logger.Warn("Retrying request", "attempt", attempt, "error", err)
		}
		retry = &cp
	}

	return &httpClient{
		endpoint: config.Endpoint,
		client: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
		logger: logger,
		debug:  config.Debug,
		retry:  retry,
	}, nil
}

// Call 调用JSON-RPC方法
//
// **流程**：
// 1. 构建请求（原子计数器生成唯一ID）
// 2. 发送请求，传输失败与 429/5xx 按重试策略重发
// 3. 解析 JSON-RPC 响应
func (c *httpClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	// 1. 构建请求
	req := &jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	if c.debug {
		c.logger.Debug("JSON-RPC request", "method", method, "body", string(reqBody))
	}

	// 2. 发送（每次重试都新建请求，Body 只能读取一次）
	var respBody []byte
	err = withRetry(ctx, func() error {
		body, err := c.send(ctx, reqBody)
		if err != nil {
			return err
		}
		respBody = body
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}

	// 3. 解析JSON-RPC响应
	var jsonResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return nil, NewInvalidResponseError("unmarshal response failed", err)
	}
	if jsonResp.Error != nil {
		return nil, NewRPCError(jsonResp.Error.Code, jsonResp.Error.Message, jsonResp.Error.Data)
	}

	return jsonResp.Result, nil
}

// send 发送一次请求，返回 200 响应体
func (c *httpClient) send(ctx context.Context, reqBody []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewTimeoutError()
		}
		return nil, NewNetworkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("read response failed: %w", err))
	}

	if c.debug {
		c.logger.Debug("JSON-RPC response", "status", resp.StatusCode, "body", string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPStatusError(resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Subscribe 订阅（HTTP不支持，需要使用WebSocket）
func (c *httpClient) Subscribe(ctx context.Context, req SubscribeRequest) (<-chan json.RawMessage, error) {
	return nil, NewNotSupportedError(req.Method + " over HTTP, use WebSocket client instead")
}

// Close 关闭连接
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
