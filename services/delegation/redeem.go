package delegation

import (
	"github.com/x84-ai/client-sdk-go/services/account"
	"github.com/x84-ai/client-sdk-go/types"
)

// Redemption 一次委托使用的上下文
type Redemption struct {
	// Now 当前 Unix 秒
	Now int64
	// Amount 本次支出金额（0 表示不涉及支出）
	Amount uint64
	// Token 支出代币，nil 表示不检查代币白名单
	Token *types.PublicKey
	// Program 目标程序，nil 表示不检查程序白名单
	Program *types.PublicKey
	// Uses 本次消耗的次数，0 按 1 计
	Uses uint64
	// Required 本次操作所需权限
	Required Permissions
	// Ancestors 祖先委托（最近的在前），可为空
	Ancestors []*account.Delegation
}

// CheckRedeemable 预测账本是否会接受本次委托使用
//
// 失败时返回与链上相同类别的 *types.ProgramError：
// 委托或任一祖先未激活为 DelegationInactive；所有者版本不一致为
// DelegationOwnerVersionMismatch；其余依次为过期、次数、权限、单笔、累计、代币、程序。
//
// agent 为委托所属代理的当前身份，必填：所有者版本比对是撤销级联的唯一依据，
// 缺省时返回 ErrRequiredField 校验错误而不是跳过检查。
//
// usesRemaining 为 0 表示不限制次数。显式撤销父委托不会级联到子委托
// （链上只在所有者版本变化时级联），这里对祖先的检查是更保守的本地判断。
func CheckRedeemable(d *account.Delegation, agent *account.AgentIdentity, r Redemption) error {
	if d == nil || !d.Active {
		return types.ErrorFromKind(types.KindDelegationInactive)
	}
	for _, anc := range r.Ancestors {
		if anc == nil || !anc.Active {
			return types.ErrorFromKind(types.KindDelegationInactive)
		}
	}
	if agent == nil {
		return types.NewValidationError("agent", types.ErrRequiredField, "agent identity is needed to check owner version")
	}
	if agent.OwnerVersion != d.OwnerVersion {
		return types.ErrorFromKind(types.KindDelegationOwnerVersionMismatch)
	}
	if d.ExpiresAt != 0 && r.Now > d.ExpiresAt {
		return types.ErrorFromKind(types.KindDelegationExpired)
	}
	uses := r.Uses
	if uses == 0 {
		uses = 1
	}
	if d.UsesRemaining != 0 && uses > d.UsesRemaining {
		return types.ErrorFromKind(types.KindDelegationExhausted)
	}
	if !r.Required.SubsetOf(PermissionsOf(d)) {
		return types.ErrorFromKind(types.KindInsufficientPermission)
	}
	if r.Amount > 0 {
		if d.MaxSpendPerTx != 0 && r.Amount > d.MaxSpendPerTx {
			return types.ErrorFromKind(types.KindExceedsPerTxLimit)
		}
		if d.MaxSpendTotal != 0 {
			if d.SpentTotal > d.MaxSpendTotal || r.Amount > d.MaxSpendTotal-d.SpentTotal {
				return types.ErrorFromKind(types.KindExceedsTotalLimit)
			}
		}
	}
	if r.Token != nil && !allowed(*r.Token, d.AllowedTokens) {
		return types.ErrorFromKind(types.KindTokenNotAllowed)
	}
	if r.Program != nil && !allowed(*r.Program, d.AllowedPrograms) {
		return types.ErrorFromKind(types.KindProgramNotAllowed)
	}
	return nil
}

func allowed(pk types.PublicKey, list []types.PublicKey) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == pk {
			return true
		}
	}
	return false
}
