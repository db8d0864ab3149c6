package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig 重试配置
type RetryConfig struct {
	// MaxRetries 最大重试次数（不含首次请求）
	MaxRetries int
	// InitialDelay 初始延迟
	InitialDelay time.Duration
	// MaxDelay 最大延迟
	MaxDelay time.Duration
	// BackoffMultiplier 退避倍数
	BackoffMultiplier float64
	// Retryable 判断错误是否可重试，为 nil 时使用 IsRetryable
	Retryable func(error) bool
	// OnRetry 重试前的回调函数
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// IsRetryable 判断错误是否值得重试
//
// 只重试传输层失败与公共节点的限流/5xx 响应；JSON-RPC 错误（包括程序错误）
// 与无效响应不重试，重放相同请求只会得到相同结果。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *Error
	if errors.As(err, &ce) {
		switch ce.Code {
		case ErrCodeNetwork:
			return true
		case ErrCodeHTTPStatus:
			return isRetryableHTTPStatus(ce.HTTPStatus)
		default:
			return false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isRetryableHTTPStatus 429 与 5xx
func isRetryableHTTPStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// newBackOff 按配置构建指数退避（无随机抖动，不限总耗时）
func (c *RetryConfig) newBackOff() *backoff.ExponentialBackOff {
	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.MaxInterval = c.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.Multiplier = mult
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// withRetry 带重试执行 fn；config 为 nil 时只执行一次
//
// 不可重试的错误立即返回；ctx 在等待期间取消时返回包裹最后一次错误的 error。
func withRetry(ctx context.Context, fn func() error, config *RetryConfig) error {
	if config == nil {
		return fn()
	}
	retryable := config.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	attempt := 0
	notify := func(err error, _ time.Duration) {
		attempt++
		if config.OnRetry != nil {
			config.OnRetry(attempt, err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(config.newBackOff(), uint64(config.MaxRetries)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	if err != nil && lastErr != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return fmt.Errorf("retry aborted: %w", lastErr)
	}
	return err
}
