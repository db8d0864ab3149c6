// Package api x84 后端发现与注册服务客户端
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/x84-ai/client-sdk-go/client"
)

// Config 后端客户端配置
type Config struct {
	// BaseURL 完整覆盖基础地址，优先于 Network
	BaseURL string
	// Network 网络预设，缺省为 mainnet
	Network Network
	// Timeout 请求超时（秒），0 表示 30 秒
	Timeout    int
	HTTPClient *http.Client
	Logger     client.Logger
	Debug      bool
}

// Client 后端客户端
type Client struct {
	baseURL string
	http    *http.Client
	logger  client.Logger
	debug   bool
}

// NewClient 创建后端客户端
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		switch cfg.Network {
		case "", NetworkMainnet:
			base = MainnetBaseURL
		case NetworkDevnet:
			base = DevnetBaseURL
		default:
			return nil, fmt.Errorf("unknown network: %q", cfg.Network)
		}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30
		}
		httpClient = &http.Client{Timeout: time.Duration(timeout) * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = client.NopLogger
	}
	return &Client{baseURL: base, http: httpClient, logger: logger, debug: cfg.Debug}, nil
}

// BaseURL 当前基础地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListAgents 分页列出代理
func (c *Client) ListAgents(ctx context.Context, params *ListAgentsParams) (*Page[AgentListItem], error) {
	q := url.Values{}
	if params != nil {
		setString(q, "cursor", params.Cursor)
		if params.Limit > 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
		setString(q, "q", params.Q)
		setString(q, "category", params.Category)
		setBool(q, "active", params.Active)
		setString(q, "owner", params.Owner)
	}
	var out Page[AgentListItem]
	if err := c.do(ctx, http.MethodGet, "/agents", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAgent 代理详情（id 为 nftMint）
func (c *Client) GetAgent(ctx context.Context, id string) (*AgentDetail, error) {
	var out AgentDetail
	if err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAgentServices 代理服务列表
func (c *Client) GetAgentServices(ctx context.Context, id string, params *GetAgentServicesParams) ([]AgentService, error) {
	q := url.Values{}
	if params != nil {
		setString(q, "serviceType", params.ServiceType)
		setBool(q, "active", params.Active)
	}
	var out []AgentService
	if err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(id)+"/services", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAgentFeedback 代理反馈列表
func (c *Client) GetAgentFeedback(ctx context.Context, id string, params *GetAgentFeedbackParams) ([]FeedbackEntry, error) {
	q := url.Values{}
	if params != nil {
		setString(q, "reviewer", params.Reviewer)
		setBool(q, "verified", params.Verified)
	}
	var out []FeedbackEntry
	if err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(id)+"/feedback", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategories 分类列表
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterAgent 请求后端构建并共同签名注册交易
//
// 返回的交易仍需所有者签名后提交；可用 DecodeTransaction 检查内容。
func (c *Client) RegisterAgent(ctx context.Context, params *RegisterAgentParams) (*RegisterAgentResponse, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required")
	}
	var out RegisterAgentResponse
	if err := c.do(ctx, http.MethodPost, "/agents/register", nil, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do 发送请求并解码 JSON 响应
//
// **流程**：
// 1. 拼接地址与查询参数，生成 X-Request-Id
// 2. 发送请求（网络错误包装为 client.Error）
// 3. 非 2xx 返回 *Error，否则解码响应体
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	// 1. 构建请求
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.debug {
		c.logger.Debug("x84 api request", "method", method, "url", target, "requestId", requestID)
	}

	// 2. 发送
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return client.NewTimeoutError()
		}
		return client.NewNetworkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return client.NewNetworkError(fmt.Errorf("read response failed: %w", err))
	}

	if c.debug {
		c.logger.Debug("x84 api response", "status", resp.StatusCode, "requestId", requestID, "bytes", len(respBody))
	}

	// 3. 解析
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusText := http.StatusText(resp.StatusCode)
		c.logger.Warn("x84 api error", "status", resp.StatusCode, "path", path, "requestId", requestID)
		return newError(resp.StatusCode, statusText, requestID, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return client.NewInvalidResponseError("decode x84 api response failed", err)
	}
	return nil
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}
