// Package agentservice 代理服务条目指令：add_service、update_service、remove_service
package agentservice

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

var (
	discAddService    = types.InstructionDiscriminator("addService")
	discUpdateService = types.InstructionDiscriminator("updateService")
	discRemoveService = types.InstructionDiscriminator("removeService")
)

// AddServiceIntent 添加服务意图
type AddServiceIntent struct {
	Caller      types.PublicKey
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Endpoint    string // ≤ 200 字节
	Version     string // ≤ 20 字节
	Delegation  *types.PublicKey
}

// UpdateServiceIntent 更新服务意图，nil 字段保持不变
type UpdateServiceIntent struct {
	Caller      types.PublicKey
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	NewEndpoint *string
	NewVersion  *string
	Delegation  *types.PublicKey
}

// RemoveServiceIntent 移除服务意图
type RemoveServiceIntent struct {
	Caller      types.PublicKey
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Delegation  *types.PublicKey
}

// Result 构建结果
type Result struct {
	Instruction *types.Instruction
	ServicePDA  types.PublicKey
}

type addresses struct {
	config  types.PublicKey
	agent   types.PublicKey
	service types.PublicKey
}

func derive(cfg services.Config, nftMint types.PublicKey, st types.ServiceType) (addresses, error) {
	d := cfg.Deriver()
	var out addresses
	servicePDA, err := d.Service(nftMint, st)
	if err != nil {
		return out, fmt.Errorf("derive service: %w", err)
	}
	agentPDA, err := d.Agent(nftMint)
	if err != nil {
		return out, fmt.Errorf("derive agent: %w", err)
	}
	configPDA, err := d.Config()
	if err != nil {
		return out, fmt.Errorf("derive config: %w", err)
	}
	out.config, out.agent, out.service = configPDA.Key, agentPDA.Key, servicePDA.Key
	return out, nil
}

// BuildAddServiceIx 构建 add_service 指令
//
// 每个代理每种服务类型只有一个条目，重复添加会被链上拒绝（ServiceAlreadyExists）。
//
// **签名者**：caller（所有者，或持有 register-services 权限的被委托人）
func BuildAddServiceIx(cfg services.Config, intent AddServiceIntent) (*Result, error) {
	if err := types.CheckMaxLen("endpoint", intent.Endpoint, types.MaxEndpointLength); err != nil {
		return nil, err
	}
	if err := types.CheckMaxLen("version", intent.Version, types.MaxVersionLength); err != nil {
		return nil, err
	}
	addrs, err := derive(cfg, intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, err
	}

	data, err := types.NewArgEncoder(discAddService).
		U8("serviceType", uint8(intent.ServiceType)).
		Str("endpoint", intent.Endpoint).
		Str("version", intent.Version).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, true),
		types.Meta(addrs.config, false, false),
		types.Meta(addrs.agent, false, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(addrs.service, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
		types.Meta(types.SystemProgramID, false, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), ServicePDA: addrs.service}, nil
}

// BuildUpdateServiceIx 构建 update_service 指令
func BuildUpdateServiceIx(cfg services.Config, intent UpdateServiceIntent) (*Result, error) {
	if intent.NewEndpoint != nil {
		if err := types.CheckMaxLen("newEndpoint", *intent.NewEndpoint, types.MaxEndpointLength); err != nil {
			return nil, err
		}
	}
	if intent.NewVersion != nil {
		if err := types.CheckMaxLen("newVersion", *intent.NewVersion, types.MaxVersionLength); err != nil {
			return nil, err
		}
	}
	addrs, err := derive(cfg, intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, err
	}

	data, err := types.NewArgEncoder(discUpdateService).
		OptionString("newEndpoint", intent.NewEndpoint).
		OptionString("newVersion", intent.NewVersion).
		Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, false),
		types.Meta(addrs.agent, false, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(addrs.service, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), ServicePDA: addrs.service}, nil
}

// BuildRemoveServiceIx 构建 remove_service 指令（关闭账户，租金退还 caller）
func BuildRemoveServiceIx(cfg services.Config, intent RemoveServiceIntent) (*Result, error) {
	addrs, err := derive(cfg, intent.NftMint, intent.ServiceType)
	if err != nil {
		return nil, err
	}
	data, err := types.NewArgEncoder(discRemoveService).Bytes()
	if err != nil {
		return nil, err
	}

	accounts := []types.AccountMeta{
		types.Meta(intent.Caller, true, true),
		types.Meta(addrs.agent, false, false),
		types.Meta(intent.NftMint, false, false),
		types.Meta(addrs.service, false, true),
		types.OptionalMeta(intent.Delegation, cfg.Program(), false, false),
	}
	return &Result{Instruction: types.NewInstruction(cfg.Program(), accounts, data), ServicePDA: addrs.service}, nil
}
