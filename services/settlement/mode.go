package settlement

import "github.com/x84-ai/client-sdk-go/types"

// Mode 结算模式（封闭和类型）
//
// - AtomicMode：付款方直接签名转账，不需要 facilitator 与委托
// - AttestationMode：facilitator 证明链下已付款
// - DelegatedMode：facilitator 使用委托金库代付
type Mode interface {
	Kind() types.SettlementModeKind
	isMode()
}

// AtomicMode 原子结算
type AtomicMode struct{}

// AttestationMode 证明结算
type AttestationMode struct {
	// Facilitator 协议 authority 或登记的 facilitator，需共同签名
	Facilitator types.PublicKey
}

// DelegatedMode 委托结算
type DelegatedMode struct {
	Facilitator types.PublicKey
	Delegation  types.PublicKey
}

func (AtomicMode) Kind() types.SettlementModeKind      { return types.SettlementAtomic }
func (AttestationMode) Kind() types.SettlementModeKind { return types.SettlementAttestation }
func (DelegatedMode) Kind() types.SettlementModeKind   { return types.SettlementDelegated }

func (AtomicMode) isMode()      {}
func (AttestationMode) isMode() {}
func (DelegatedMode) isMode()   {}
