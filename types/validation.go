package types

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// 字段长度与数量上限（与链上程序一致）
const (
	MaxURILength         = 200
	MaxEndpointLength    = 200
	MaxDescriptionLength = 200
	MaxResourceLength    = 200
	MaxVersionLength     = 20
	MaxTags              = 5
	MaxAllowedTokens     = 5
	MaxAllowedPrograms   = 5
	MaxScore             = 100
)

// 本地校验错误类别（用 errors.Is 比较）
var (
	ErrFieldTooLong    = errors.New("field too long")
	ErrTooManyItems    = errors.New("too many items")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrRequiredField   = errors.New("required field missing")
	ErrInvalidValue    = errors.New("invalid value")
)

// ValidationError 本地校验错误
//
// 在构建请求阶段产生，不会到达账本。
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError 创建校验错误
func NewValidationError(field string, kind error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), Err: kind}
}

// IsValidationError 检查错误是否为 ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// CheckMaxLen 校验字符串长度（按字节，与链上 String::len 一致）
func CheckMaxLen(field, value string, max int) error {
	if len(value) > max {
		return NewValidationError(field, ErrFieldTooLong, "length %d exceeds maximum %d", len(value), max)
	}
	if !utf8.ValidString(value) {
		return NewValidationError(field, ErrInvalidValue, "not valid UTF-8")
	}
	return nil
}

// CheckNotEmpty 校验必填字符串
func CheckNotEmpty(field, value string) error {
	if value == "" {
		return NewValidationError(field, ErrRequiredField, "must not be empty")
	}
	return nil
}

// CheckMaxItems 校验列表数量
func CheckMaxItems(field string, n, max int) error {
	if n > max {
		return NewValidationError(field, ErrTooManyItems, "%d items exceeds maximum %d", n, max)
	}
	return nil
}

// CheckScore 校验评分（0..100）
func CheckScore(field string, score uint8) error {
	if score > MaxScore {
		return NewValidationError(field, ErrValueOutOfRange, "score %d exceeds %d", score, MaxScore)
	}
	return nil
}

// CheckNonZeroKey 校验地址非零
func CheckNonZeroKey(field string, pk PublicKey) error {
	if pk.IsZero() {
		return NewValidationError(field, ErrRequiredField, "public key must not be zero")
	}
	return nil
}
