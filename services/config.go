package services

import (
	"fmt"
	"os"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/pda"
	"github.com/x84-ai/client-sdk-go/types"
)

// 协议默认值
const (
	// DefaultRegistrationFee 默认注册费（lamports，0.05 SOL）
	DefaultRegistrationFee uint64 = 50_000_000
	// DefaultSettlementFeeBps 默认结算费率（300 = 3%）
	DefaultSettlementFeeBps uint16 = 300
	// MaxSettlementFeeBps 结算费率上限（1000 = 10%）
	MaxSettlementFeeBps uint16 = 1000
)

// Network 网络名称
type Network string

const (
	NetworkDevnet  Network = "devnet"
	NetworkMainnet Network = "mainnet"
)

// Config 部署配置，显式传给各个 service 与指令构建器
//
// **说明**：
// - ProgramID 必填，其余地址在协议初始化后确定
// - 可空字段为 nil 时，依赖它们的构建器会返回校验错误而不是使用零地址
type Config struct {
	Network   Network
	ProgramID types.PublicKey

	// Collection 代理身份 NFT 所属集合
	Collection *types.PublicKey
	// FeeTreasury 注册费接收钱包
	FeeTreasury *types.PublicKey
	// TokenMint 支付代币（如 USDC）
	TokenMint *types.PublicKey
	// TreasuryTokenAccount 协议费接收代币账户
	TreasuryTokenAccount *types.PublicKey
	// Facilitator 委托/证明结算的协调者
	Facilitator *types.PublicKey

	// RPCEndpoint 账本 RPC 端点
	RPCEndpoint string
}

// Devnet 开发网部署
func Devnet() Config {
	return Config{
		Network:              NetworkDevnet,
		ProgramID:            types.ProgramID,
		Collection:           keyPtr("6s1irFAQHoiK7VLwrUQEGpN5E1MrLoo5dZVWZCAwsDZS"),
		FeeTreasury:          keyPtr("8VF2ZAp9C1RKeV2XmKBnCQdbhGuNZaLZ1x7mTCSGsMH9"),
		TokenMint:            keyPtr("Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"),
		TreasuryTokenAccount: keyPtr("95zdnDqXimbSosFxEwAKamp2E5rKHp9N1rXmsU1Bn4v1"),
		Facilitator:          keyPtr("7iRiHRnj1NofyEZVuj86Z4s5MJwVFZVR71XuAsLnwLYX"),
		RPCEndpoint:          client.DevnetRPCEndpoint,
	}
}

// Mainnet 主网部署（协议尚未初始化，地址待定）
func Mainnet() Config {
	return Config{
		Network:     NetworkMainnet,
		ProgramID:   types.ProgramID,
		RPCEndpoint: client.MainnetRPCEndpoint,
	}
}

// ForNetwork 按名称返回部署
func ForNetwork(n Network) (Config, error) {
	switch n {
	case NetworkDevnet:
		return Devnet(), nil
	case NetworkMainnet:
		return Mainnet(), nil
	default:
		return Config{}, fmt.Errorf("unknown network: %q", n)
	}
}

// 环境变量名
const (
	EnvNetwork              = "X84_NETWORK"
	EnvProgramID            = "X84_PROGRAM_ID"
	EnvCollection           = "X84_COLLECTION"
	EnvFeeTreasury          = "X84_FEE_TREASURY"
	EnvTokenMint            = "X84_TOKEN_MINT"
	EnvTreasuryTokenAccount = "X84_TREASURY_TOKEN_ACCOUNT"
	EnvFacilitator          = "X84_FACILITATOR"
	EnvRPCURL               = "X84_RPC_URL"
)

// ConfigFromEnv 从环境变量构建配置
//
// 以 X84_NETWORK（默认 devnet）的部署为基础，其余变量逐项覆盖。
func ConfigFromEnv() (Config, error) {
	network := Network(os.Getenv(EnvNetwork))
	if network == "" {
		network = NetworkDevnet
	}
	cfg, err := ForNetwork(network)
	if err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvProgramID); v != "" {
		pk, err := types.PublicKeyFromBase58(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvProgramID, err)
		}
		cfg.ProgramID = pk
	}

	optional := []struct {
		env    string
		target **types.PublicKey
	}{
		{EnvCollection, &cfg.Collection},
		{EnvFeeTreasury, &cfg.FeeTreasury},
		{EnvTokenMint, &cfg.TokenMint},
		{EnvTreasuryTokenAccount, &cfg.TreasuryTokenAccount},
		{EnvFacilitator, &cfg.Facilitator},
	}
	for _, o := range optional {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		pk, err := types.PublicKeyFromBase58(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", o.env, err)
		}
		*o.target = &pk
	}

	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.RPCEndpoint = v
	}
	return cfg, nil
}

// Deriver 绑定本部署程序 ID 的 PDA 推导器
func (c Config) Deriver() pda.Deriver {
	return pda.NewDeriver(c.programID())
}

// Program 本部署的程序 ID（未设置时为默认程序）
func (c Config) Program() types.PublicKey {
	return c.programID()
}

func (c Config) programID() types.PublicKey {
	if c.ProgramID.IsZero() {
		return types.ProgramID
	}
	return c.ProgramID
}

// ClientConfig 以本部署的 RPC 端点构建客户端配置
func (c Config) ClientConfig() *client.Config {
	cc := client.DefaultConfig()
	if c.RPCEndpoint != "" {
		cc.Endpoint = c.RPCEndpoint
	}
	return cc
}

// Require 取出必填的可空地址，缺失时返回校验错误
func Require(field string, pk *types.PublicKey) (types.PublicKey, error) {
	if pk == nil || pk.IsZero() {
		return types.PublicKey{}, types.NewValidationError(field, types.ErrRequiredField, "not configured for this deployment")
	}
	return *pk, nil
}

func keyPtr(s string) *types.PublicKey {
	pk := types.MustPublicKey(s)
	return &pk
}
