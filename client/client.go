package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client 账本 JSON-RPC 客户端接口
type Client interface {
	// Call 调用 JSON-RPC 方法，返回原始 result
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)

	// Subscribe 建立订阅，返回通知 result 流；ctx 取消时退订并关闭通道
	Subscribe(ctx context.Context, req SubscribeRequest) (<-chan json.RawMessage, error)

	// Close 关闭连接
	Close() error
}

// SubscribeRequest 订阅请求
type SubscribeRequest struct {
	// Method 订阅方法（如 logsSubscribe）
	Method string
	// Params 订阅参数
	Params interface{}
	// UnsubscribeMethod 退订方法（如 logsUnsubscribe）
	UnsubscribeMethod string
}

// NewClient 创建新的客户端
func NewClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Protocol {
	case ProtocolHTTP, "":
		return NewHTTPClient(config)
	case ProtocolWebSocket:
		return NewWebSocketClient(config)
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", config.Protocol)
	}
}

// jsonRPCRequest JSON-RPC请求结构
type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      uint64      `json:"id"`
}

// jsonRPCResponse JSON-RPC响应结构
//
// WebSocket 上的订阅通知没有 id，携带 method 与 params。
type jsonRPCResponse struct {
	JSONRPC string              `json:"jsonrpc"`
	Result  json.RawMessage     `json:"result,omitempty"`
	Error   *jsonRPCError       `json:"error,omitempty"`
	ID      *uint64             `json:"id,omitempty"`
	Method  string              `json:"method,omitempty"`
	Params  *notificationParams `json:"params,omitempty"`
}

// jsonRPCError JSON-RPC错误结构
type jsonRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// notificationParams 订阅通知参数
type notificationParams struct {
	Result       json.RawMessage `json:"result"`
	Subscription uint64          `json:"subscription"`
}
