package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/services/account"
	"github.com/x84-ai/client-sdk-go/services/delegation"
	"github.com/x84-ai/client-sdk-go/services/event"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/wallet"
)

// CreateTestKeypair 创建测试密钥对
func CreateTestKeypair(t *testing.T) *wallet.Keypair {
	t.Helper()
	kp, err := wallet.NewKeypair()
	require.NoError(t, err, "创建测试密钥对失败")
	return kp
}

// EncodeProtocolConfigAccount 按链上布局编码协议配置账户
func EncodeProtocolConfigAccount(t *testing.T, c *account.ProtocolConfig) []byte {
	t.Helper()
	data, err := types.NewArgEncoder(account.DiscProtocolConfig).
		PublicKey("authority", c.Authority).
		PublicKey("collection", c.Collection).
		U64("registrationFee", c.RegistrationFee).
		U16("settlementFeeBps", c.SettlementFeeBps).
		PublicKey("feeTreasury", c.FeeTreasury).
		PublicKey("facilitator", c.Facilitator).
		Bool("pauseIdentity", c.PauseIdentity).
		Bool("pauseReputation", c.PauseReputation).
		Bool("pauseValidation", c.PauseValidation).
		Bool("pauseDelegation", c.PauseDelegation).
		Bool("pausePayments", c.PausePayments).
		U8("bump", c.Bump).
		Bytes()
	require.NoError(t, err, "编码协议配置失败")
	return data
}

// EncodeAgentAccount 按链上布局编码代理身份账户
func EncodeAgentAccount(t *testing.T, a *account.AgentIdentity) []byte {
	t.Helper()
	data, err := types.NewArgEncoder(account.DiscAgentIdentity).
		PublicKey("nftMint", a.NftMint).
		PublicKey("owner", a.Owner).
		U64("ownerVersion", a.OwnerVersion).
		PublicKey("feedbackAuthority", a.FeedbackAuthority).
		Str("metadataUri", a.MetadataURI).
		Fixed("metadataHash", a.MetadataHash[:], 32).
		Bytes32Vec("tags", a.Tags).
		Bool("active", a.Active).
		I64("createdAt", a.CreatedAt).
		I64("updatedAt", a.UpdatedAt).
		U64("verifiedFeedbackCount", a.VerifiedFeedbackCount).
		U64("verifiedScoreSum", a.VerifiedScoreSum).
		U64("unverifiedFeedbackCount", a.UnverifiedFeedbackCount).
		U64("unverifiedScoreSum", a.UnverifiedScoreSum).
		U64("validationCount", a.ValidationCount).
		U64("delegationCount", a.DelegationCount).
		U8("bump", a.Bump).
		Bytes()
	require.NoError(t, err, "编码代理账户失败")
	return data
}

// EncodeDelegationAccount 按链上布局编码委托账户
func EncodeDelegationAccount(t *testing.T, d *account.Delegation) []byte {
	t.Helper()
	data, err := types.NewArgEncoder(account.DiscDelegation).
		U64("delegationId", d.DelegationID).
		PublicKey("delegator", d.Delegator).
		PublicKey("delegate", d.Delegate).
		PublicKey("nftMint", d.NftMint).
		U64("ownerVersion", d.OwnerVersion).
		Bool("canTransact", d.CanTransact).
		Bool("canGiveFeedback", d.CanGiveFeedback).
		Bool("canUpdateMetadata", d.CanUpdateMetadata).
		Bool("canUpdatePricing", d.CanUpdatePricing).
		Bool("canRegisterServices", d.CanRegisterServices).
		Bool("canManage", d.CanManage).
		Bool("canRedelegate", d.CanRedelegate).
		U64("maxSpendPerTx", d.MaxSpendPerTx).
		U64("maxSpendTotal", d.MaxSpendTotal).
		U64("spentTotal", d.SpentTotal).
		PublicKeys("allowedTokens", d.AllowedTokens).
		PublicKeys("allowedPrograms", d.AllowedPrograms).
		I64("expiresAt", d.ExpiresAt).
		U64("usesRemaining", d.UsesRemaining).
		U64("totalUses", d.TotalUses).
		Bool("active", d.Active).
		OptionPublicKey("parentDelegation", d.ParentDelegation).
		U8("depth", d.Depth).
		I64("createdAt", d.CreatedAt).
		OptionI64("revokedAt", d.RevokedAt).
		U8("bump", d.Bump).
		Bytes()
	require.NoError(t, err, "编码委托账户失败")
	return data
}

// delegationFromConfig 模拟链上执行 create_delegation 后写入的委托状态
func delegationFromConfig(res *delegation.CreateResult, delegator, delegate, nftMint types.PublicKey, ownerVersion uint64, cfg delegation.Config, parent *types.PublicKey) *account.Delegation {
	p, c := cfg.Permissions(), cfg.Constraints()
	return &account.Delegation{
		DelegationID:        res.DelegationID,
		Delegator:           delegator,
		Delegate:            delegate,
		NftMint:             nftMint,
		OwnerVersion:        ownerVersion,
		CanTransact:         p.Transact,
		CanGiveFeedback:     p.GiveFeedback,
		CanUpdateMetadata:   p.UpdateMetadata,
		CanUpdatePricing:    p.UpdatePricing,
		CanRegisterServices: p.RegisterServices,
		CanManage:           p.Manage,
		CanRedelegate:       p.Redelegate,
		MaxSpendPerTx:       c.MaxSpendPerTx,
		MaxSpendTotal:       c.MaxSpendTotal,
		AllowedTokens:       c.AllowedTokens,
		AllowedPrograms:     c.AllowedPrograms,
		ExpiresAt:           c.ExpiresAt,
		UsesRemaining:       c.UsesRemaining,
		Active:              true,
		ParentDelegation:    parent,
		Depth:               res.Depth,
		CreatedAt:           1_700_000_000,
		Bump:                255,
	}
}

// paymentSettledLog 编码 paymentSettled 事件日志行
func paymentSettledLog(t *testing.T, paymentID [32]byte, nftMint, payer, payee, tokenMint types.PublicKey, amount, fee uint64, resource string, delegationPDA *types.PublicKey, spent *uint64) string {
	t.Helper()
	data, err := types.NewArgEncoder(types.EventDiscriminator("paymentSettled")).
		Fixed("paymentId", paymentID[:], 32).
		PublicKey("nftMint", nftMint).
		PublicKey("payer", payer).
		PublicKey("payee", payee).
		U64("amount", amount).
		U64("feeAmount", fee).
		PublicKey("tokenMint", tokenMint).
		Str("resource", resource).
		U8("settlementMode", uint8(types.SettlementDelegated)).
		OptionPublicKey("delegation", delegationPDA).
		OptionU64("delegationSpentTotal", spent).
		I64("timestamp", 1_700_000_100).
		Bytes()
	require.NoError(t, err, "编码事件失败")
	return event.EncodeLogLine(data)
}
