// Package admin 协议管理指令：initialize、update_config
package admin

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/wallet"
)

var (
	discInitialize   = types.InstructionDiscriminator("initialize")
	discUpdateConfig = types.InstructionDiscriminator("updateConfig")
)

// InitializeIntent 初始化协议意图
type InitializeIntent struct {
	Authority        types.PublicKey
	RegistrationFee  uint64
	SettlementFeeBps uint16
	FeeTreasury      types.PublicKey
	// Collection 可选：集合密钥对，缺省时生成
	Collection *wallet.Keypair
}

// InitializeResult 初始化构建结果
type InitializeResult struct {
	Instruction *types.Instruction
	Collection  *wallet.Keypair
	ConfigPDA   types.PublicKey
}

// UpdateConfigIntent 更新配置意图，nil 字段保持不变
type UpdateConfigIntent struct {
	Authority           types.PublicKey
	NewFee              *uint64
	NewSettlementFeeBps *uint16
	NewTreasury         *types.PublicKey
	NewAuthority        *types.PublicKey
	NewFacilitator      *types.PublicKey
	PauseIdentity       *bool
	PauseReputation     *bool
	PauseValidation     *bool
	PauseDelegation     *bool
	PausePayments       *bool
}

// Result 通用构建结果
type Result struct {
	Instruction *types.Instruction
	ConfigPDA   types.PublicKey
}

func checkFeeBps(bps uint16) error {
	if bps > services.MaxSettlementFeeBps {
		return types.NewValidationError("settlementFeeBps", types.ErrValueOutOfRange, "%d exceeds maximum %d", bps, services.MaxSettlementFeeBps)
	}
	return nil
}

// BuildInitializeIx 构建 initialize 指令
//
// 创建协议配置账户与 Metaplex Core 集合。
//
// **签名者**：authority、collection
func BuildInitializeIx(cfg services.Config, intent InitializeIntent) (*InitializeResult, error) {
	if err := checkFeeBps(intent.SettlementFeeBps); err != nil {
		return nil, err
	}
	collection := intent.Collection
	if collection == nil {
		var err error
		if collection, err = wallet.NewKeypair(); err != nil {
			return nil, err
		}
	}
	configPDA, err := cfg.Deriver().Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}

	data, err := types.NewArgEncoder(discInitialize).
		U64("registrationFee", intent.RegistrationFee).
		U16("settlementFeeBps", intent.SettlementFeeBps).
		PublicKey("feeTreasury", intent.FeeTreasury).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(configPDA.Key, false, true),
		types.Meta(intent.Authority, true, true),
		types.Meta(collection.PublicKey(), true, true),
		types.Meta(types.MplCoreProgramID, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &InitializeResult{
		Instruction: types.NewInstruction(cfg.Program(), accounts, data),
		Collection:  collection,
		ConfigPDA:   configPDA.Key,
	}, nil
}

// BuildUpdateConfigIx 构建 update_config 指令（签名者：authority）
func BuildUpdateConfigIx(cfg services.Config, intent UpdateConfigIntent) (*Result, error) {
	if intent.NewSettlementFeeBps != nil {
		if err := checkFeeBps(*intent.NewSettlementFeeBps); err != nil {
			return nil, err
		}
	}
	configPDA, err := cfg.Deriver().Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}

	data, err := types.NewArgEncoder(discUpdateConfig).
		OptionU64("newFee", intent.NewFee).
		OptionU16("newSettlementFeeBps", intent.NewSettlementFeeBps).
		OptionPublicKey("newTreasury", intent.NewTreasury).
		OptionPublicKey("newAuthority", intent.NewAuthority).
		OptionPublicKey("newFacilitator", intent.NewFacilitator).
		OptionBool("pauseIdentity", intent.PauseIdentity).
		OptionBool("pauseReputation", intent.PauseReputation).
		OptionBool("pauseValidation", intent.PauseValidation).
		OptionBool("pauseDelegation", intent.PauseDelegation).
		OptionBool("pausePayments", intent.PausePayments).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(configPDA.Key, false, true),
		types.Meta(intent.Authority, true, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), ConfigPDA: configPDA.Key}, nil
}
