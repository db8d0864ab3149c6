// Package settlement 付款结算：verify_and_settle、close_receipt
//
// 收据 PDA 只由 paymentId 推导，同一个 paymentId 只能结算一次（PaymentReplay）。
// 重复的 paymentId 不应重试，调用方应使用 NewPaymentID 生成新的 id。
package settlement

import (
	"errors"
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/utils"
)

var (
	discVerifyAndSettle = types.InstructionDiscriminator("verifyAndSettle")
	discCloseReceipt    = types.InstructionDiscriminator("closeReceipt")
)

// 结算模式账户校验错误
var (
	ErrFacilitatorRequired = errors.New("settlement mode requires a facilitator")
	ErrDelegationRequired  = errors.New("delegated settlement requires a delegation")
	ErrModeRequired        = errors.New("settlement mode is required")
)

// NewPaymentID 生成新的 32 字节随机 paymentId
func NewPaymentID() ([32]byte, error) {
	return utils.RandomPaymentID()
}

// SettleIntent 结算意图
type SettleIntent struct {
	Payer       types.PublicKey
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	PaymentID   [32]byte
	// TxSignature 链下付款交易签名（原子模式可为零值）
	TxSignature [64]byte
	Amount      uint64
	Resource    string // ≤ 200 字节
	Mode        Mode
	// SettlementFeeBps 协议结算费率，取自链上 ProtocolConfig.SettlementFeeBps
	SettlementFeeBps uint16

	PayerTokenAccount types.PublicKey
	PayeeTokenAccount types.PublicKey
	// 以下可选：缺省取部署配置
	TreasuryTokenAccount *types.PublicKey
	TokenMint            *types.PublicKey
	TokenProgram         *types.PublicKey
}

// SettleResult 结算构建结果
type SettleResult struct {
	Instruction    *types.Instruction
	ReceiptPDA     types.PublicKey
	Vault          *types.PublicKey
	VaultAuthority *types.PublicKey
	// Fee 程序将执行的手续费拆分（close_receipt 时为零值）
	Fee Fee
}

// CloseReceiptIntent 关闭收据意图（租金退还 payer）
type CloseReceiptIntent struct {
	Payer     types.PublicKey
	PaymentID [32]byte
}

// BuildVerifyAndSettleIx 构建 verify_and_settle 指令
//
// **流程**：
// 1. 校验资源长度与模式所需账户，按费率计算手续费拆分
// 2. 由 paymentId 推导收据 PDA，推导 agent、payment requirement、config
// 3. 委托模式额外推导金库与金库权限
// 4. 编码参数与账户（缺省的可选账户以程序 id 占位）
//
// **签名者**：payer；证明与委托模式下还需 facilitator
func BuildVerifyAndSettleIx(cfg services.Config, intent SettleIntent) (*SettleResult, error) {
	// 1. 校验
	if err := types.CheckMaxLen("resource", intent.Resource, types.MaxResourceLength); err != nil {
		return nil, err
	}
	var facilitator, delegation *types.PublicKey
	switch m := intent.Mode.(type) {
	case AtomicMode:
	case AttestationMode:
		if m.Facilitator.IsZero() {
			return nil, types.NewValidationError("facilitator", ErrFacilitatorRequired, "attestation mode")
		}
		facilitator = &m.Facilitator
	case DelegatedMode:
		if m.Facilitator.IsZero() {
			return nil, types.NewValidationError("facilitator", ErrFacilitatorRequired, "delegated mode")
		}
		if m.Delegation.IsZero() {
			return nil, types.NewValidationError("delegation", ErrDelegationRequired, "delegated mode")
		}
		facilitator, delegation = &m.Facilitator, &m.Delegation
	case nil:
		return nil, types.NewValidationError("settlementMode", ErrModeRequired, "no mode given")
	default:
		return nil, types.NewValidationError("settlementMode", types.ErrInvalidValue, "unsupported mode %T", m)
	}
	fee, err := ComputeFee(intent.Amount, intent.SettlementFeeBps)
	if err != nil {
		return nil, err
	}
	tokenMint, err := services.Require("tokenMint", firstKey(intent.TokenMint, cfg.TokenMint))
	if err != nil {
		return nil, err
	}
	treasury, err := services.Require("treasuryTokenAccount", firstKey(intent.TreasuryTokenAccount, cfg.TreasuryTokenAccount))
	if err != nil {
		return nil, err
	}

	// 2. 推导地址
	d := cfg.Deriver()
	receipt, err := d.Receipt(intent.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("derive receipt: %w", err)
	}
	agentPDA, err := d.Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	reqPDA, err := d.PaymentRequirement(intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("derive payment requirement: %w", err)
	}
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}

	// 3. 委托金库
	var vault, vaultAuthority *types.PublicKey
	if delegation != nil {
		v, err := d.DelegationVault(*delegation)
		if err != nil {
			return nil, fmt.Errorf("derive delegation vault: %w", err)
		}
		a, err := d.VaultAuthority(*delegation)
		if err != nil {
			return nil, fmt.Errorf("derive vault authority: %w", err)
		}
		vault, vaultAuthority = &v.Key, &a.Key
	}

	// 4. 编码
	data, err := types.NewArgEncoder(discVerifyAndSettle).
		Fixed("paymentId", intent.PaymentID[:], 32).
		Fixed("txSignature", intent.TxSignature[:], 64).
		U64("amount", intent.Amount).
		Str("resource", intent.Resource).
		U8("settlementMode", uint8(intent.Mode.Kind())).
		Bytes()
	if err != nil {
		return nil, err
	}

	program := cfg.Program()
	tokenProgram := types.TokenProgramID
	if intent.TokenProgram != nil {
		tokenProgram = *intent.TokenProgram
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Payer, true, true),
		types.Meta(intent.NftMint, false, false),
		types.Meta(agentPDA.Key, false, false),
		types.Meta(reqPDA.Key, false, false),
		types.Meta(intent.PayerTokenAccount, false, true),
		types.Meta(intent.PayeeTokenAccount, false, true),
		types.Meta(treasury, false, true),
		types.Meta(tokenMint, false, false),
		types.Meta(tokenProgram, false, false),
		types.Meta(configPDA.Key, false, false),
		types.Meta(receipt.Key, false, true),
		types.OptionalMeta(facilitator, program, true, false),
		types.OptionalMeta(delegation, program, false, true),
		types.OptionalMeta(vault, program, false, true),
		types.OptionalMeta(vaultAuthority, program, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &SettleResult{
		Instruction:    types.NewInstruction(program, accounts, data),
		ReceiptPDA:     receipt.Key,
		Vault:          vault,
		VaultAuthority: vaultAuthority,
		Fee:            fee,
	}, nil
}

// BuildCloseReceiptIx 构建 close_receipt 指令（签名者：payer）
func BuildCloseReceiptIx(cfg services.Config, intent CloseReceiptIntent) (*SettleResult, error) {
	receipt, err := cfg.Deriver().Receipt(intent.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("derive receipt: %w", err)
	}
	data, err := types.NewArgEncoder(discCloseReceipt).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(intent.Payer, true, true),
		types.Meta(receipt.Key, false, true),
	}
	return &SettleResult{
		Instruction: types.NewInstruction(cfg.Program(), accounts, data),
		ReceiptPDA:  receipt.Key,
	}, nil
}

func firstKey(keys ...*types.PublicKey) *types.PublicKey {
	for _, k := range keys {
		if k != nil {
			return k
		}
	}
	return nil
}
