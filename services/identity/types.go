package identity

import (
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/wallet"
)

// RegisterAgentIntent 注册代理意图
type RegisterAgentIntent struct {
	Name              string
	Owner             types.PublicKey
	ConfigAuthority   types.PublicKey  // 协议配置权限（共同签名）
	MetadataURI       string           // ≤ 200 字节
	MetadataHash      [32]byte
	FeedbackAuthority types.PublicKey
	Tags              []string         // 明文标签，构建时做 sha256
	TagHashes         [][32]byte       // 已哈希的标签，追加在 Tags 之后
	Asset             *wallet.Keypair  // 可选：资产密钥对，缺省时每次调用新生成
	Collection        *types.PublicKey // 可选：缺省取部署配置
	FeeTreasury       *types.PublicKey // 可选：缺省取部署配置
}

// RegisterAgentResult 注册代理构建结果
type RegisterAgentResult struct {
	Instruction *types.Instruction
	// Asset 资产密钥对，需要参与签名；其公钥即代理的 nftMint
	Asset    *wallet.Keypair
	AgentPDA types.PublicKey
}

// UpdateMetadataIntent 更新元数据意图
type UpdateMetadataIntent struct {
	Caller     types.PublicKey // 所有者或被委托人
	NftMint    types.PublicKey
	NewURI     string
	NewHash    [32]byte
	Delegation *types.PublicKey // 可选：以委托身份调用
}

// OwnerIntent 仅需所有者签名的操作（停用/启用/设置反馈权限）
type OwnerIntent struct {
	Owner   types.PublicKey
	NftMint types.PublicKey
}

// Result 通用构建结果
type Result struct {
	Instruction *types.Instruction
	AgentPDA    types.PublicKey
}
