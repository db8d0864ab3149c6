// Package identity 代理身份指令：注册、元数据、启停、认领、反馈权限
package identity

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/utils"
	"github.com/x84-ai/client-sdk-go/wallet"
)

var (
	discRegisterAgent        = types.InstructionDiscriminator("registerAgent")
	discUpdateAgentMetadata  = types.InstructionDiscriminator("updateAgentMetadata")
	discDeactivateAgent      = types.InstructionDiscriminator("deactivateAgent")
	discReactivateAgent      = types.InstructionDiscriminator("reactivateAgent")
	discClaimAgent           = types.InstructionDiscriminator("claimAgent")
	discSetFeedbackAuthority = types.InstructionDiscriminator("setFeedbackAuthority")
)

// BuildRegisterAgentIx 构建 register_agent 指令
//
// **流程**：
// 1. 校验 URI 长度与标签数量
// 2. 准备资产密钥对（未提供时生成）
// 3. 推导 config 与 agent PDA
// 4. 编码参数
//
// 提供 Asset 时结果只由 cfg 与 intent 决定，可据此重新推导 agent PDA；
// 未提供时每次调用生成新的资产密钥对，nftMint 与 AgentPDA 随之变化，
// 调用方需保存 RegisterAgentResult.Asset 用于签名。
//
// **签名者**：owner、asset、configAuthority
func BuildRegisterAgentIx(cfg services.Config, intent RegisterAgentIntent) (*RegisterAgentResult, error) {
	// 1. 校验
	if err := types.CheckMaxLen("metadataUri", intent.MetadataURI, types.MaxURILength); err != nil {
		return nil, err
	}
	tags := append(utils.HashTags(intent.Tags), intent.TagHashes...)
	if err := types.CheckMaxItems("tags", len(tags), types.MaxTags); err != nil {
		return nil, err
	}
	collection := intent.Collection
	if collection == nil {
		collection = cfg.Collection
	}
	collectionKey, err := services.Require("collection", collection)
	if err != nil {
		return nil, err
	}
	treasury := intent.FeeTreasury
	if treasury == nil {
		treasury = cfg.FeeTreasury
	}
	treasuryKey, err := services.Require("feeTreasury", treasury)
	if err != nil {
		return nil, err
	}

	// 2. 资产密钥对
	asset := intent.Asset
	if asset == nil {
		asset, err = wallet.NewKeypair()
		if err != nil {
			return nil, err
		}
	}

	// 3. 推导地址
	d := cfg.Deriver()
	configPDA, err := d.Config()
	if err != nil {
		return nil, fmt.Errorf("derive config: %w", err)
	}
	agentPDA, err := d.Agent(asset.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}

	// 4. 编码参数
	data, err := types.NewArgEncoder(discRegisterAgent).
		Str("name", intent.Name).
		Str("metadataUri", intent.MetadataURI).
		Fixed("metadataHash", intent.MetadataHash[:], 32).
		PublicKey("feedbackAuthority", intent.FeedbackAuthority).
		Bytes32Vec("tags", tags).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(configPDA.Key, false, false),
		types.Meta(intent.ConfigAuthority, true, false),
		types.Meta(agentPDA.Key, false, true),
		types.Meta(intent.Owner, true, true),
		types.Meta(asset.PublicKey(), true, true),
		types.Meta(collectionKey, false, true),
		types.Meta(treasuryKey, false, true),
		types.Meta(types.MplCoreProgramID, false, false),
		types.Meta(types.SystemProgramID, false, false),
	}

	return &RegisterAgentResult{
		Instruction: types.NewInstruction(cfg.Program(), accounts, data),
		Asset:       asset,
		AgentPDA:    agentPDA.Key,
	}, nil
}

// BuildUpdateAgentMetadataIx 构建 update_agent_metadata 指令
//
// **签名者**：caller（所有者，或持有 update-metadata 权限的被委托人）
func BuildUpdateAgentMetadataIx(cfg services.Config, intent UpdateMetadataIntent) (*Result, error) {
	if err := types.CheckMaxLen("newUri", intent.NewURI, types.MaxURILength); err != nil {
		return nil, err
	}
	agentPDA, err := cfg.Deriver().Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}

	data, err := types.NewArgEncoder(discUpdateAgentMetadata).
		Str("newUri", intent.NewURI).
		Fixed("newHash", intent.NewHash[:], 32).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(agentPDA.Key, false, true),
		types.Meta(intent.Caller, true, false),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), AgentPDA: agentPDA.Key}, nil
}

// BuildDeactivateAgentIx 构建 deactivate_agent 指令（签名者：owner）
func BuildDeactivateAgentIx(cfg services.Config, intent OwnerIntent) (*Result, error) {
	return buildOwnerOnly(cfg, intent, discDeactivateAgent)
}

// BuildReactivateAgentIx 构建 reactivate_agent 指令（签名者：owner）
func BuildReactivateAgentIx(cfg services.Config, intent OwnerIntent) (*Result, error) {
	return buildOwnerOnly(cfg, intent, discReactivateAgent)
}

func buildOwnerOnly(cfg services.Config, intent OwnerIntent, disc types.Discriminator) (*Result, error) {
	agentPDA, err := cfg.Deriver().Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	data, err := types.NewArgEncoder(disc).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(agentPDA.Key, false, true),
		types.Meta(intent.Owner, true, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), AgentPDA: agentPDA.Key}, nil
}

// BuildClaimAgentIx 构建 claim_agent 指令
//
// NFT 转手后由新持有人调用，链上 ownerVersion 加一，旧委托随之失效。
//
// **签名者**：newOwner（必须持有 NFT）
func BuildClaimAgentIx(cfg services.Config, newOwner, nftMint types.PublicKey) (*Result, error) {
	agentPDA, err := cfg.Deriver().Agent(nftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	data, err := types.NewArgEncoder(discClaimAgent).Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(agentPDA.Key, false, true),
		types.Meta(newOwner, true, false),
		types.Meta(nftMint, false, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), AgentPDA: agentPDA.Key}, nil
}

// BuildSetFeedbackAuthorityIx 构建 set_feedback_authority 指令（签名者：owner）
func BuildSetFeedbackAuthorityIx(cfg services.Config, intent OwnerIntent, newAuthority types.PublicKey) (*Result, error) {
	agentPDA, err := cfg.Deriver().Agent(intent.NftMint)
	if err != nil {
		return nil, fmt.Errorf("derive agent: %w", err)
	}
	data, err := types.NewArgEncoder(discSetFeedbackAuthority).
		PublicKey("newAuthority", newAuthority).
		Bytes()
	if err != nil {
		return nil, err
	}
	accounts := []types.AccountMeta{
		types.Meta(agentPDA.Key, false, true),
		types.Meta(intent.Owner, true, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), AgentPDA: agentPDA.Key}, nil
}
