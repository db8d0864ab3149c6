// Package payment 支付要求指令：set_payment_requirement、update_payment_requirement
package payment

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

var (
	discSetPaymentRequirement    = types.InstructionDiscriminator("setPaymentRequirement")
	discUpdatePaymentRequirement = types.InstructionDiscriminator("updatePaymentRequirement")
)

// SetRequirementIntent 设置支付要求意图
type SetRequirementIntent struct {
	Caller      types.PublicKey
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Scheme      types.PaymentScheme
	Amount      uint64
	TokenMint   *types.PublicKey // 可选：缺省取部署配置
	PayTo       types.PublicKey
	Description string // ≤ 200 字节
	Resource    string // ≤ 200 字节
	Delegation  *types.PublicKey
}

// UpdateRequirementIntent 更新支付要求意图，nil 字段保持不变
//
// 被委托人不能把 PayTo 改到所有者以外（链上 PayToRedirectNotAllowed）。
type UpdateRequirementIntent struct {
	Caller         types.PublicKey
	NftMint        types.PublicKey
	ServiceType    types.ServiceType
	NewAmount      *uint64
	NewPayTo       *types.PublicKey
	NewDescription *string
	NewActive      *bool
	Delegation     *types.PublicKey
}

// Result 构建结果
type Result struct {
	Instruction           *types.Instruction
	PaymentRequirementPDA types.PublicKey
}

// BuildSetPaymentRequirementIx 构建 set_payment_requirement 指令
//
// **签名者**：caller（所有者，或持有 update-pricing 权限的被委托人）
func BuildSetPaymentRequirementIx(cfg services.Config, intent SetRequirementIntent) (*Result, error) {
	// 1. 校验
	if err := types.CheckMaxLen("description", intent.Description, types.MaxDescriptionLength); err != nil {
		return nil, err
	}
	if err := types.CheckMaxLen("resource", intent.Resource, types.MaxResourceLength); err != nil {
		return nil, err
	}
	if !intent.Scheme.Valid() {
		return nil, types.NewValidationError("scheme", types.ErrInvalidValue, "unknown payment scheme %d", uint8(intent.Scheme))
	}
	mint := intent.TokenMint
	if mint == nil {
		mint = cfg.TokenMint
	}
	tokenMint, err := services.Require("tokenMint", mint)
	if err != nil {
		return nil, err
	}

	// 2. 推导地址
	d := cfg.Deriver()
	reqPDA, err := d.PaymentRequirement(intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("derive payment requirement: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}

	// 3. 编码参数
	data, err := types.NewArgEncoder(discSetPaymentRequirement).
		U8("serviceType", uint8(intent.ServiceType)).
		U8("scheme", uint8(intent.Scheme)).
		U64("amount", intent.Amount).
		PublicKey("tokenMint", tokenMint).
		PublicKey("payTo", intent.PayTo).
		Str("description", intent.Description).
		Str("resource", intent.Resource).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, true),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(reqPDA.Key, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
		types.Meta(configPDA.Key, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &Result{
		Instruction:           types.NewInstruction(cfg.Program(), accounts, data),
		PaymentRequirementPDA: reqPDA.Key,
	}, nil
}

// BuildUpdatePaymentRequirementIx 构建 update_payment_requirement 指令
func BuildUpdatePaymentRequirementIx(cfg services.Config, intent UpdateRequirementIntent) (*Result, error) {
	if intent.NewDescription != nil {
		if err := types.CheckMaxLen("newDescription", *intent.NewDescription, types.MaxDescriptionLength); err != nil {
			return nil, err
		}
	}
	d := cfg.Deriver()
	reqPDA, err := d.PaymentRequirement(intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("derive payment requirement: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}

	data, err := types.NewArgEncoder(discUpdatePaymentRequirement).
		OptionU64("newAmount", intent.NewAmount).
		OptionPublicKey("newPayTo", intent.NewPayTo).
		OptionString("newDescription", intent.NewDescription).
		OptionBool("newActive", intent.NewActive).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(reqPDA.Key, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
	}
	return &Result{
		Instruction:           types.NewInstruction(cfg.Program(), accounts, data),
		PaymentRequirementPDA: reqPDA.Key,
	}, nil
}
