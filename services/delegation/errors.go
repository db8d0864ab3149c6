package delegation

import "errors"

// 委托层级校验错误（本地校验，用 errors.Is 比较）
var (
	ErrCannotRedelegate        = errors.New("parent delegation does not allow redelegation")
	ErrParentInactive          = errors.New("parent delegation is inactive")
	ErrMaxDepthExceeded        = errors.New("maximum delegation depth exceeded")
	ErrSpendExceedsParent      = errors.New("spend limit exceeds parent")
	ErrTokensNotSubset         = errors.New("allowed tokens are not a subset of parent")
	ErrProgramsNotSubset       = errors.New("allowed programs are not a subset of parent")
	ErrExpiryExceedsParent     = errors.New("expiry exceeds parent")
	ErrPermissionsExceedParent = errors.New("permissions exceed parent")
	ErrTooManyAllowedTokens    = errors.New("too many allowed tokens")
	ErrTooManyAllowedPrograms  = errors.New("too many allowed programs")
)
