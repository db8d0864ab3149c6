package delegation

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

var (
	discCreateDelegation   = types.InstructionDiscriminator("createDelegation")
	discRevokeDelegation   = types.InstructionDiscriminator("revokeDelegation")
	discFundDelegation     = types.InstructionDiscriminator("fundDelegation")
	discWithdrawDelegation = types.InstructionDiscriminator("withdrawDelegation")
)

// CreateIntent 创建委托意图
type CreateIntent struct {
	Delegator types.PublicKey
	Delegate  types.PublicKey
	NftMint   types.PublicKey
	// DelegationID 代理当前的 delegationCount（由调用方读取）
	DelegationID uint64
	Config       Config
	// Parent 可选：子委托时的父委托快照
	Parent *ParentDelegation
}

// CreateResult 创建委托构建结果
type CreateResult struct {
	Instruction   *types.Instruction
	DelegationPDA types.PublicKey
	DelegationID  uint64
	Depth         uint8
}

// RevokeIntent 撤销委托意图（caller 为委托人或代理所有者）
type RevokeIntent struct {
	Caller        types.PublicKey
	NftMint       types.PublicKey
	DelegationPDA types.PublicKey
}

// FundIntent 向委托金库注资
type FundIntent struct {
	Delegator             types.PublicKey
	DelegationPDA         types.PublicKey
	TokenMint             types.PublicKey
	DelegatorTokenAccount types.PublicKey
	Amount                uint64
	// TokenProgram 可选：缺省为 SPL Token
	TokenProgram *types.PublicKey
}

// WithdrawIntent 从委托金库取回
type WithdrawIntent struct {
	Caller                types.PublicKey
	NftMint               types.PublicKey
	DelegationPDA         types.PublicKey
	TokenMint             types.PublicKey
	RecipientTokenAccount types.PublicKey
	Amount                uint64
	TokenProgram          *types.PublicKey
}

// VaultResult 金库指令构建结果
type VaultResult struct {
	Instruction    *types.Instruction
	Vault          types.PublicKey
	VaultAuthority types.PublicKey
}

// RevokeResult 撤销构建结果
type RevokeResult struct {
	Instruction *types.Instruction
}

// BuildCreateDelegationIx 构建 create_delegation 指令
//
// **流程**：
// 1. Finalize 校验层级约束（深度超限在推导地址之前即被拒绝）
// 2. 推导 config、agent、delegation PDA
// 3. 编码七个权限位与约束
//
// **签名者**：delegator
func BuildCreateDelegationIx(cfg services.Config, intent CreateIntent) (*CreateResult, error) {
	// 1. 层级校验
	fin, err := intent.Config.Finalize(intent.Parent)
	if err != nil {
		return nil, err
	}

	// 2. 推导地址
	d := cfg.Deriver()
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	delegationPDA, err := d.Delegation(intent.Delegator, intent.Delegate, intent.DelegationID)
	if err != nil {
		return nil, fmt.Errorf("derive delegation: %w", err)
	}

	// 3. 编码
	p, c := fin.Permissions, fin.Constraints
	data, err := types.NewArgEncoder(discCreateDelegation).
		Bool("canTransact", p.Transact).
		Bool("canGiveFeedback", p.GiveFeedback).
		Bool("canUpdateMetadata", p.UpdateMetadata).
		Bool("canUpdatePricing", p.UpdatePricing).
		Bool("canRegisterServices", p.RegisterServices).
		Bool("canManage", p.Manage).
		Bool("canRedelegate", p.Redelegate).
		U64("maxSpendPerTx", c.MaxSpendPerTx).
		U64("maxSpendTotal", c.MaxSpendTotal).
		PublicKeys("allowedTokens", c.AllowedTokens).
		PublicKeys("allowedPrograms", c.AllowedPrograms).
		I64("expiresAt", c.ExpiresAt).
		U64("usesRemaining", c.UsesRemaining).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Delegator, true, true),
		types.Meta(intent.Delegate, false, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, true),
		types.Meta(delegationPDA.Key, false, true),
		types.OptionalMeta(fin.Parent, cfg.Program(), false, false),
		types.Meta(configPDA.Key, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &CreateResult{
		Instruction:   types.NewInstruction(cfg.Program(), accounts, data),
		DelegationPDA: delegationPDA.Key,
		DelegationID:  intent.DelegationID,
		Depth:         fin.Depth,
	}, nil
}

// BuildRevokeDelegationIx 构建 revoke_delegation 指令
//
// 撤销不会级联到子委托。
func BuildRevokeDelegationIx(cfg services.Config, intent RevokeIntent) (*RevokeResult, error) {
	agentPDA, err := cfg.Deriver().Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	data, err := types.NewArgEncoder(discRevokeDelegation).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(intent.DelegationPDA, false, true),
	}
	return &RevokeResult{Instruction: types.NewInstruction(cfg.Program(), accounts, data)}, nil
}

func vaultAddresses(cfg services.Config, delegationPDA types.PublicKey) (vault, authority types.PublicKey, err error) {
	d := cfg.Deriver()
	v, err := d.DelegationVault(delegationPDA)
	if err != nil {
		return vault, authority, fmt.Errorf("derive delegation vault: %w", err)
	}
	a, err := d.VaultAuthority(delegationPDA)
	if err != nil {
		return vault, authority, fmt.Errorf("derive vault authority: %w", err)
	}
	return v.Key, a.Key, nil
}

func tokenProgram(pk *types.PublicKey) types.PublicKey {
	if pk != nil {
		return *pk
	}
	return types.TokenProgramID
}

// BuildFundDelegationIx 构建 fund_delegation 指令（签名者：delegator）
func BuildFundDelegationIx(cfg services.Config, intent FundIntent) (*VaultResult, error) {
	if intent.Amount == 0 {
		return nil, types.NewValidationError("amount", types.ErrValueOutOfRange, "must be greater than zero")
	}
	vault, authority, err := vaultAddresses(cfg, intent.DelegationPDA)
	if err != nil {
		return nil, err
	}
	data, err := types.NewArgEncoder(discFundDelegation).U64("amount", intent.Amount).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Delegator, true, true),
		types.Meta(intent.DelegationPDA, false, false),
		types.Meta(intent.TokenMint, false, false),
		types.Meta(intent.DelegatorTokenAccount, false, true),
		types.Meta(vault, false, true),
		types.Meta(authority, false, false),
		types.Meta(tokenProgram(intent.TokenProgram), false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &VaultResult{
		Instruction:    types.NewInstruction(cfg.Program(), accounts, data),
		Vault:          vault,
		VaultAuthority: authority,
	}, nil
}

// BuildWithdrawDelegationIx 构建 withdraw_delegation 指令（签名者：委托人或代理所有者）
func BuildWithdrawDelegationIx(cfg services.Config, intent WithdrawIntent) (*VaultResult, error) {
	if intent.Amount == 0 {
		return nil, types.NewValidationError("amount", types.ErrValueOutOfRange, "must be greater than zero")
	}
	vault, authority, err := vaultAddresses(cfg, intent.DelegationPDA)
	if err != nil {
		return nil, err
	}
	agentPDA, err := cfg.Deriver().Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	data, err := types.NewArgEncoder(discWithdrawDelegation).U64("amount", intent.Amount).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, true),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(intent.DelegationPDA, false, false),
		types.Meta(intent.TokenMint, false, false),
		types.Meta(vault, false, true),
		types.Meta(authority, false, false),
		types.Meta(intent.RecipientTokenAccount, false, true),
		types.Meta(tokenProgram(intent.TokenProgram), false, false),
	}
	return &VaultResult{
		Instruction:    types.NewInstruction(cfg.Program(), accounts, data),
		Vault:          vault,
		VaultAuthority: authority,
	}, nil
}
