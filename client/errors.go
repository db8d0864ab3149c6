package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/x84-ai/client-sdk-go/types"
)

// Error 客户端错误
type Error struct {
	Code    int
	Message string
	Err     error

	// RPCCode JSON-RPC 错误码（仅 ErrCodeRPCError）
	RPCCode int
	// Data JSON-RPC 错误附带数据（模拟失败时包含 err 与 logs）
	Data json.RawMessage
	// HTTPStatus HTTP 状态码（仅 ErrCodeHTTPStatus）
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CustomErrorCode 从 RPC 错误数据中提取 x84 程序错误码
func (e *Error) CustomErrorCode() (int, bool) {
	if len(e.Data) == 0 {
		return 0, false
	}
	pe, err := types.ParseProgramError(e.Data)
	if err != nil {
		return 0, false
	}
	return pe.Code, true
}

// IsClientError 检查错误是否为客户端错误
func IsClientError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeRPCError        = 1003 // JSON-RPC错误
	ErrCodeNotSupported    = 1004 // 不支持的操作
	ErrCodeHTTPStatus      = 1005 // 非 200 的 HTTP 状态
	ErrCodeClosed          = 1006 // 连接已关闭
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError() *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
		Err:     err,
	}
}

// NewRPCError 创建JSON-RPC错误
func NewRPCError(code int, message string, data json.RawMessage) *Error {
	return &Error{
		Code:    ErrCodeRPCError,
		Message: fmt.Sprintf("RPC error [%d]: %s", code, message),
		RPCCode: code,
		Data:    data,
	}
}

// NewHTTPStatusError 创建 HTTP 状态错误
func NewHTTPStatusError(status int, body string) *Error {
	return &Error{
		Code:       ErrCodeHTTPStatus,
		Message:    fmt.Sprintf("HTTP error: %d, body: %s", status, body),
		HTTPStatus: status,
	}
}

// NewNotSupportedError 创建不支持的操作错误
func NewNotSupportedError(operation string) *Error {
	return &Error{
		Code:    ErrCodeNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}

// NewClosedError 创建连接已关闭错误
func NewClosedError() *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: "client is closed",
	}
}
