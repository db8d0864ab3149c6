package types

import (
	"fmt"
	"strings"
)

// ServiceType 服务类型（封闭枚举）
//
// Go 内部表示与两种外部形式分离：
// - Seed()：PDA 种子使用的小写字符串
// - WireTag()：Anchor 枚举的 JSON 标签（IDL 中的 camelCase 名称）
// 链上 Borsh 编码使用变体序号。
type ServiceType uint8

const (
	ServiceTypeMCP ServiceType = iota
	ServiceTypeA2A
	ServiceTypeAPI
	ServiceTypeWeb
)

var serviceTypeSeeds = [...]string{"mcp", "a2a", "api", "web"}

// Anchor 的 camelCase 转换将 "A2A" 变为 "a2A"
var serviceTypeWireTags = [...]string{"mcp", "a2A", "api", "web"}

// AllServiceTypes 返回全部服务类型（按链上序号）
func AllServiceTypes() []ServiceType {
	return []ServiceType{ServiceTypeMCP, ServiceTypeA2A, ServiceTypeAPI, ServiceTypeWeb}
}

// Valid 是否为已知变体
func (s ServiceType) Valid() bool {
	return int(s) < len(serviceTypeSeeds)
}

// Seed PDA 种子字符串
func (s ServiceType) Seed() string {
	if !s.Valid() {
		return ""
	}
	return serviceTypeSeeds[s]
}

// WireTag Anchor 枚举标签
func (s ServiceType) WireTag() string {
	if !s.Valid() {
		return ""
	}
	return serviceTypeWireTags[s]
}

func (s ServiceType) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ServiceType(%d)", uint8(s))
	}
	return serviceTypeSeeds[s]
}

// ParseServiceType 解析服务类型（接受种子形式与 Anchor 标签，不区分大小写）
func ParseServiceType(s string) (ServiceType, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for i, seed := range serviceTypeSeeds {
		if lower == seed {
			return ServiceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown service type: %q", s)
}

// MarshalText 以种子形式序列化
func (s ServiceType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid service type: %d", uint8(s))
	}
	return []byte(s.Seed()), nil
}

// UnmarshalText 解析种子形式或 Anchor 标签
func (s *ServiceType) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceType(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// PaymentScheme 支付方案
type PaymentScheme uint8

const (
	// PaymentSchemeExact 精确金额
	PaymentSchemeExact PaymentScheme = iota
	// PaymentSchemeUpTo 上限金额
	PaymentSchemeUpTo
)

var paymentSchemeTags = [...]string{"exact", "upTo"}

func (p PaymentScheme) Valid() bool {
	return int(p) < len(paymentSchemeTags)
}

// WireTag Anchor 枚举标签
func (p PaymentScheme) WireTag() string {
	if !p.Valid() {
		return ""
	}
	return paymentSchemeTags[p]
}

func (p PaymentScheme) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PaymentScheme(%d)", uint8(p))
	}
	return paymentSchemeTags[p]
}

// ParsePaymentScheme 解析支付方案（不区分大小写）
func ParsePaymentScheme(s string) (PaymentScheme, error) {
	for i, tag := range paymentSchemeTags {
		if strings.EqualFold(strings.TrimSpace(s), tag) {
			return PaymentScheme(i), nil
		}
	}
	return 0, fmt.Errorf("unknown payment scheme: %q", s)
}

// SettlementModeKind 结算模式在链上的枚举值
//
// services/settlement 中的 Mode 是携带账户参数的和类型，这里只是线上标签。
type SettlementModeKind uint8

const (
	SettlementAtomic SettlementModeKind = iota
	SettlementAttestation
	SettlementDelegated
)

var settlementModeTags = [...]string{"atomic", "attestation", "delegated"}

func (m SettlementModeKind) Valid() bool {
	return int(m) < len(settlementModeTags)
}

// WireTag Anchor 枚举标签
func (m SettlementModeKind) WireTag() string {
	if !m.Valid() {
		return ""
	}
	return settlementModeTags[m]
}

func (m SettlementModeKind) String() string {
	if !m.Valid() {
		return fmt.Sprintf("SettlementMode(%d)", uint8(m))
	}
	return settlementModeTags[m]
}

// ParseSettlementMode 解析结算模式标签
func ParseSettlementMode(s string) (SettlementModeKind, error) {
	for i, tag := range settlementModeTags {
		if strings.EqualFold(strings.TrimSpace(s), tag) {
			return SettlementModeKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown settlement mode: %q", s)
}
