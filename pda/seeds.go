package pda

import (
	"context"
	"encoding/binary"

	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/utils"
)

// 种子前缀（与链上常量一致）
const (
	SeedConfig          = "config"
	SeedAgent           = "agent"
	SeedService         = "service"
	SeedFeedback        = "feedback"
	SeedValRequest      = "val_request"
	SeedValResponse     = "val_response"
	SeedDelegation      = "delegation"
	SeedPaymentReq      = "payment_req"
	SeedReceipt         = "receipt"
	SeedDelegationVault = "delegation_vault"
	SeedVaultAuthority  = "vault_authority"
)

// RequestHashSeedLength 验证请求哈希参与种子的前缀长度
const RequestHashSeedLength = 8

// Address 推导结果
type Address struct {
	Key  types.PublicKey
	Bump uint8
}

// Deriver 绑定程序 ID 的地址推导器（无状态，可并发使用）
type Deriver struct {
	programID types.PublicKey
}

// NewDeriver 创建推导器
func NewDeriver(programID types.PublicKey) Deriver {
	return Deriver{programID: programID}
}

// ProgramID 推导器绑定的程序
func (d Deriver) ProgramID() types.PublicKey {
	return d.programID
}

func (d Deriver) find(seeds ...[]byte) (Address, error) {
	key, bump, err := FindProgramAddress(seeds, d.programID)
	if err != nil {
		return Address{}, err
	}
	return Address{Key: key, Bump: bump}, nil
}

func u64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func i64LE(v int64) []byte {
	return u64LE(uint64(v))
}

// Config 协议配置账户：["config"]
func (d Deriver) Config() (Address, error) {
	return d.find([]byte(SeedConfig))
}

// Agent 代理身份账户：["agent", nftMint]
func (d Deriver) Agent(nftMint types.PublicKey) (Address, error) {
	return d.find([]byte(SeedAgent), nftMint[:])
}

// Service 服务账户：["service", nftMint, serviceTypeSeed]
func (d Deriver) Service(nftMint types.PublicKey, serviceType types.ServiceType) (Address, error) {
	if !serviceType.Valid() {
		return Address{}, types.NewValidationError("serviceType", types.ErrInvalidValue, "unknown service type %d", uint8(serviceType))
	}
	return d.find([]byte(SeedService), nftMint[:], []byte(serviceType.Seed()))
}

// Feedback 反馈账户：["feedback", nftMint, reviewer, nonce(i64 LE)]
func (d Deriver) Feedback(nftMint, reviewer types.PublicKey, nonce int64) (Address, error) {
	return d.find([]byte(SeedFeedback), nftMint[:], reviewer[:], i64LE(nonce))
}

// ValidationRequest 验证请求账户：["val_request", nftMint, validator, requestHash[0..8]]
func (d Deriver) ValidationRequest(nftMint, validator types.PublicKey, requestHash [32]byte) (Address, error) {
	return d.find([]byte(SeedValRequest), nftMint[:], validator[:], requestHash[:RequestHashSeedLength])
}

// ValidationResponse 验证响应账户：["val_response", nftMint, validator, requestHash[0..8]]
func (d Deriver) ValidationResponse(nftMint, validator types.PublicKey, requestHash [32]byte) (Address, error) {
	return d.find([]byte(SeedValResponse), nftMint[:], validator[:], requestHash[:RequestHashSeedLength])
}

// Delegation 委托账户：["delegation", delegator, delegate, delegationId(u64 LE)]
func (d Deriver) Delegation(delegator, delegate types.PublicKey, delegationID uint64) (Address, error) {
	return d.find([]byte(SeedDelegation), delegator[:], delegate[:], u64LE(delegationID))
}

// PaymentRequirement 支付要求账户：["payment_req", nftMint, serviceTypeSeed]
func (d Deriver) PaymentRequirement(nftMint types.PublicKey, serviceType types.ServiceType) (Address, error) {
	if !serviceType.Valid() {
		return Address{}, types.NewValidationError("serviceType", types.ErrInvalidValue, "unknown service type %d", uint8(serviceType))
	}
	return d.find([]byte(SeedPaymentReq), nftMint[:], []byte(serviceType.Seed()))
}

// Receipt 支付回执账户：["receipt", paymentId]
func (d Deriver) Receipt(paymentID [32]byte) (Address, error) {
	return d.find([]byte(SeedReceipt), paymentID[:])
}

// DelegationVault 委托资金金库：["delegation_vault", delegationPDA]
func (d Deriver) DelegationVault(delegation types.PublicKey) (Address, error) {
	return d.find([]byte(SeedDelegationVault), delegation[:])
}

// VaultAuthority 金库权限账户：["vault_authority", delegationPDA]
func (d Deriver) VaultAuthority(delegation types.PublicKey) (Address, error) {
	return d.find([]byte(SeedVaultAuthority), delegation[:])
}

// DeriveAll 并发推导多组种子，结果顺序与输入一致
//
// 任一组失败则整体失败。
func (d Deriver) DeriveAll(ctx context.Context, seedSets [][][]byte) ([]Address, error) {
	return utils.ParallelExecute(ctx, seedSets, func(ctx context.Context, seeds [][]byte) (Address, error) {
		if err := ctx.Err(); err != nil {
			return Address{}, err
		}
		return d.find(seeds...)
	}, 8)
}
