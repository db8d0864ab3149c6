package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrorKind 程序错误类别，取值即链上错误码
type ErrorKind int

// KindUnknown 在程序错误码范围内但无对应名称
const KindUnknown ErrorKind = 0

// 程序错误码范围
const (
	ProgramErrorCodeMin = 6000
	ProgramErrorCodeMax = 6050
)

const (
	KindMetadataURITooLong ErrorKind = iota + ProgramErrorCodeMin
	KindVersionTooLong
	KindDescriptionTooLong
	KindResourceTooLong
	KindEndpointTooLong
	KindInvalidFeedbackScore
	KindInvalidValidationScore
	KindTooManyTags
	KindTooManyAllowedTokens
	KindTooManyAllowedPrograms
	KindAgentInactive
	KindAgentAlreadyActive
	KindUnauthorized
	KindInvalidFeedbackAuth
	KindFeedbackAlreadyRevoked
	KindDelegationInactive
	KindDelegationExpired
	KindDelegationExhausted
	KindInsufficientPermission
	KindExceedsPerTxLimit
	KindExceedsTotalLimit
	KindTokenNotAllowed
	KindProgramNotAllowed
	KindSubDelegationExceedsParent
	KindCannotRedelegate
	KindMaxDelegationDepthExceeded
	KindDelegationOwnerVersionMismatch
	KindPaymentRequirementInactive
	KindInsufficientPayment
	KindPaymentReplay
	KindServiceAlreadyExists
	KindNotNftHolder
	KindValidationAlreadyResponded
	KindValidatorMismatch
	KindModulePaused
	KindSettlementFeeTooHigh
	KindInsufficientRegistrationFee
	KindDelegationRequiredForDelegatedMode
	KindFacilitatorRequired
	KindFacilitatorNotApproved
	KindInsufficientDelegateAllowance
	KindEd25519InstructionNotFound
	KindInvalidEd25519InstructionData
	KindTokenMintMismatch
	KindPaymentAmountMismatch
	KindMathOverflow
	KindAttestationUnauthorized
	KindPayToRedirectNotAllowed
	KindReceiptNotSettled
	KindReceiptAgentMismatch
	KindReceiptPayerMismatch
)

type errorInfo struct {
	name    string
	message string
}

var errorTable = map[ErrorKind]errorInfo{
	KindMetadataURITooLong:                 {"MetadataUriTooLong", "Metadata URI exceeds maximum length of 200 characters"},
	KindVersionTooLong:                     {"VersionTooLong", "Version string exceeds maximum length of 20 characters"},
	KindDescriptionTooLong:                 {"DescriptionTooLong", "Description exceeds maximum length of 200 characters"},
	KindResourceTooLong:                    {"ResourceTooLong", "Resource path exceeds maximum length of 200 characters"},
	KindEndpointTooLong:                    {"EndpointTooLong", "Endpoint URL exceeds maximum length of 200 characters"},
	KindInvalidFeedbackScore:               {"InvalidFeedbackScore", "Feedback score must be between 0 and 100"},
	KindInvalidValidationScore:             {"InvalidValidationScore", "Validation score must be between 0 and 100"},
	KindTooManyTags:                        {"TooManyTags", "Too many tags (maximum 5)"},
	KindTooManyAllowedTokens:               {"TooManyAllowedTokens", "Too many allowed tokens (maximum 5)"},
	KindTooManyAllowedPrograms:             {"TooManyAllowedPrograms", "Too many allowed programs (maximum 5)"},
	KindAgentInactive:                      {"AgentInactive", "Agent is not active"},
	KindAgentAlreadyActive:                 {"AgentAlreadyActive", "Agent is already active"},
	KindUnauthorized:                       {"Unauthorized", "Unauthorized: caller is not the owner and has no valid delegation"},
	KindInvalidFeedbackAuth:                {"InvalidFeedbackAuth", "Invalid feedback authorization signature"},
	KindFeedbackAlreadyRevoked:             {"FeedbackAlreadyRevoked", "Feedback already revoked"},
	KindDelegationInactive:                 {"DelegationInactive", "Delegation is not active"},
	KindDelegationExpired:                  {"DelegationExpired", "Delegation has expired"},
	KindDelegationExhausted:                {"DelegationExhausted", "Delegation has no remaining uses"},
	KindInsufficientPermission:             {"InsufficientPermission", "Delegation does not have the required permission"},
	KindExceedsPerTxLimit:                  {"ExceedsPerTxLimit", "Transaction amount exceeds delegation per-transaction limit"},
	KindExceedsTotalLimit:                  {"ExceedsTotalLimit", "Cumulative spend would exceed delegation total limit"},
	KindTokenNotAllowed:                    {"TokenNotAllowed", "Token not allowed by delegation constraints"},
	KindProgramNotAllowed:                  {"ProgramNotAllowed", "Program not allowed by delegation constraints"},
	KindSubDelegationExceedsParent:         {"SubDelegationExceedsParent", "Sub-delegation constraints must be within parent constraints"},
	KindCannotRedelegate:                   {"CannotRedelegate", "Delegator cannot redelegate (can_redelegate is false)"},
	KindMaxDelegationDepthExceeded:         {"MaxDelegationDepthExceeded", "Maximum delegation depth exceeded (max 3 levels)"},
	KindDelegationOwnerVersionMismatch:     {"DelegationOwnerVersionMismatch", "Delegation owner_version does not match agent (NFT was transferred)"},
	KindPaymentRequirementInactive:         {"PaymentRequirementInactive", "Payment requirement is not active"},
	KindInsufficientPayment:                {"InsufficientPayment", "Payment amount is insufficient"},
	KindPaymentReplay:                      {"PaymentReplay", "Payment ID already used (replay detected)"},
	KindServiceAlreadyExists:               {"ServiceAlreadyExists", "Service type already registered for this agent"},
	KindNotNftHolder:                       {"NotNftHolder", "Caller does not hold the agent NFT"},
	KindValidationAlreadyResponded:         {"ValidationAlreadyResponded", "Validation request already responded"},
	KindValidatorMismatch:                  {"ValidatorMismatch", "Validator does not match the validation request"},
	KindModulePaused:                       {"ModulePaused", "Protocol module is paused"},
	KindSettlementFeeTooHigh:               {"SettlementFeeTooHigh", "Settlement fee basis points exceeds maximum (1000 = 10%)"},
	KindInsufficientRegistrationFee:        {"InsufficientRegistrationFee", "Insufficient SOL for registration fee"},
	KindDelegationRequiredForDelegatedMode: {"DelegationRequiredForDelegatedMode", "Delegated settlement requires a delegation account"},
	KindFacilitatorRequired:                {"FacilitatorRequired", "Delegated settlement requires facilitator as signer with SPL delegate authority"},
	KindFacilitatorNotApproved:             {"FacilitatorNotApproved", "Facilitator is not an approved SPL Token delegate on the payer's token account"},
	KindInsufficientDelegateAllowance:      {"InsufficientDelegateAllowance", "SPL Token delegate allowance insufficient for this transfer"},
	KindEd25519InstructionNotFound:         {"Ed25519InstructionNotFound", "Ed25519 program instruction not found in transaction"},
	KindInvalidEd25519InstructionData:      {"InvalidEd25519InstructionData", "Invalid Ed25519 instruction data"},
	KindTokenMintMismatch:                  {"TokenMintMismatch", "Token mint does not match payment requirement or token accounts"},
	KindPaymentAmountMismatch:              {"PaymentAmountMismatch", "Payment amount does not match exact requirement"},
	KindMathOverflow:                       {"MathOverflow", "Arithmetic overflow"},
	KindAttestationUnauthorized:            {"AttestationUnauthorized", "Attestation mode requires protocol authority or facilitator"},
	KindPayToRedirectNotAllowed:            {"PayToRedirectNotAllowed", "Delegates cannot redirect payment destination away from agent owner"},
	KindReceiptNotSettled:                  {"ReceiptNotSettled", "Payment receipt has not been settled"},
	KindReceiptAgentMismatch:               {"ReceiptAgentMismatch", "Payment receipt agent does not match feedback target"},
	KindReceiptPayerMismatch:               {"ReceiptPayerMismatch", "Payment receipt payer does not match reviewer"},
}

// String 错误名称（Anchor 错误码名）
func (k ErrorKind) String() string {
	if info, ok := errorTable[k]; ok {
		return info.name
	}
	return "Unknown"
}

// Message 规范错误信息
func (k ErrorKind) Message() string {
	if info, ok := errorTable[k]; ok {
		return info.message
	}
	return "Unknown x84 program error"
}

// AllErrorKinds 按错误码顺序返回全部已知类别
func AllErrorKinds() []ErrorKind {
	out := make([]ErrorKind, 0, len(errorTable))
	for code := ProgramErrorCodeMin; code <= ProgramErrorCodeMax; code++ {
		if _, ok := errorTable[ErrorKind(code)]; ok {
			out = append(out, ErrorKind(code))
		}
	}
	return out
}

// ErrNotProgramError 输入不是 x84 程序错误
var ErrNotProgramError = errors.New("not an x84 program error")

// ProgramError 账本拒绝请求时的程序错误
type ProgramError struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("x84 program error %d (%s): %s", e.Code, e.Kind, e.Message)
}

// Is 同类别的 ProgramError 视为相等，便于 errors.Is(err, ErrorFromKind(KindX))
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrorFromCode 由错误码构造；范围外返回 ErrNotProgramError
func ErrorFromCode(code int) (*ProgramError, error) {
	if code < ProgramErrorCodeMin || code > ProgramErrorCodeMax {
		return nil, fmt.Errorf("%w: code %d outside [%d,%d]", ErrNotProgramError, code, ProgramErrorCodeMin, ProgramErrorCodeMax)
	}
	kind := ErrorKind(code)
	if _, ok := errorTable[kind]; !ok {
		kind = KindUnknown
	}
	return &ProgramError{Kind: kind, Code: code, Message: kind.Message()}, nil
}

// ErrorFromKind 由类别构造
func ErrorFromKind(kind ErrorKind) *ProgramError {
	return &ProgramError{Kind: kind, Code: int(kind), Message: kind.Message()}
}

// IsProgramError 检查错误链中是否有 ProgramError
func IsProgramError(err error) (*ProgramError, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// CustomCoder 携带自定义程序错误码的错误（例如 JSON-RPC 模拟失败）
type CustomCoder interface {
	CustomErrorCode() (int, bool)
}

var (
	hexCodePattern    = regexp.MustCompile(`0x([0-9a-fA-F]+)`)
	anchorCodePattern = regexp.MustCompile(`Error Number: (\d+)`)
)

// ParseProgramError 将账本失败翻译为 ProgramError
//
// 支持的输入：
// - *ProgramError 或包裹它的 error
// - 实现 CustomCoder 的 error
// - 结构化失败：{"InstructionError":[i,{"Custom":N}]}、Anchor 的 {"error":{"errorCode":{"number":N}}}
//   （map、json.RawMessage、[]byte 或 JSON 字符串）
// - 含 "0x…" 十六进制错误码或 "Error Number: N" 的文本
//
// 无法识别或错误码不在 6000..6050 内时返回 ErrNotProgramError。
func ParseProgramError(v interface{}) (*ProgramError, error) {
	if v == nil {
		return nil, ErrNotProgramError
	}

	// 1. 已是 ProgramError
	if err, ok := v.(error); ok {
		if pe, ok := IsProgramError(err); ok {
			return pe, nil
		}
		var coder CustomCoder
		if errors.As(err, &coder) {
			if code, ok := coder.CustomErrorCode(); ok {
				return ErrorFromCode(code)
			}
		}
	}

	// 2. 结构化失败
	var structured interface{}
	switch t := v.(type) {
	case map[string]interface{}, []interface{}:
		structured = t
	case json.RawMessage:
		_ = json.Unmarshal(t, &structured)
	case []byte:
		_ = json.Unmarshal(t, &structured)
	case string:
		if trimmed := strings.TrimSpace(t); strings.HasPrefix(trimmed, "{") {
			_ = json.Unmarshal([]byte(trimmed), &structured)
		}
	}
	if structured != nil {
		if code, ok := findStructuredCode(structured, 0); ok {
			return ErrorFromCode(code)
		}
	}

	// 3. 文本回退
	var text string
	switch t := v.(type) {
	case string:
		text = t
	case error:
		text = t.Error()
	case []byte:
		text = string(t)
	case json.RawMessage:
		text = string(t)
	default:
		text = fmt.Sprint(t)
	}
	if code, ok := findTextCode(text); ok {
		return ErrorFromCode(code)
	}
	return nil, ErrNotProgramError
}

func findTextCode(text string) (int, bool) {
	for _, m := range hexCodePattern.FindAllStringSubmatch(text, -1) {
		code, ok := parseHexCode(m[1])
		if ok && inRange(code) {
			return code, true
		}
	}
	for _, m := range anchorCodePattern.FindAllStringSubmatch(text, -1) {
		code, err := strconv.Atoi(m[1])
		if err == nil && inRange(code) {
			return code, true
		}
	}
	return 0, false
}

func parseHexCode(digits string) (int, bool) {
	if v, err := hexutil.DecodeUint64("0x" + digits); err == nil {
		return int(v), true
	}
	// hexutil 拒绝前导零
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func inRange(code int) bool {
	return code >= ProgramErrorCodeMin && code <= ProgramErrorCodeMax
}

// findStructuredCode 在结构化失败中查找错误码，深度受限
func findStructuredCode(v interface{}, depth int) (int, bool) {
	if depth > 6 {
		return 0, false
	}
	switch t := v.(type) {
	case map[string]interface{}:
		// Anchor AnchorError
		if inner, ok := t["error"].(map[string]interface{}); ok {
			if ec, ok := inner["errorCode"].(map[string]interface{}); ok {
				if n, ok := ec["number"].(float64); ok {
					return int(n), true
				}
			}
		}
		// 账本 TransactionError
		if ie, ok := t["InstructionError"].([]interface{}); ok && len(ie) == 2 {
			if custom, ok := ie[1].(map[string]interface{}); ok {
				if n, ok := custom["Custom"].(float64); ok {
					return int(n), true
				}
			}
		}
		for _, key := range []string{"err", "error", "data"} {
			if nested, ok := t[key]; ok {
				if code, ok := findStructuredCode(nested, depth+1); ok {
					return code, true
				}
			}
		}
	case []interface{}:
		for _, item := range t {
			if code, ok := findStructuredCode(item, depth+1); ok {
				return code, true
			}
		}
	}
	return 0, false
}
