package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error 后端返回的非 2xx 响应
type Error struct {
	Status     int
	StatusText string
	// Body 解析后的 JSON 响应体；无法解析时为原始文本，空响应为 nil
	Body interface{}
	// RequestID 请求携带的 X-Request-Id
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("x84 api error %d %s", e.Status, e.StatusText)
}

// IsAPIError 检查错误链中是否有 *Error
func IsAPIError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newError(status int, statusText, requestID string, body []byte) *Error {
	e := &Error{Status: status, StatusText: statusText, RequestID: requestID}
	if len(body) == 0 {
		return e
	}
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		e.Body = parsed
	} else {
		e.Body = string(body)
	}
	return e
}
