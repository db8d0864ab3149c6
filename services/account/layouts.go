// Package account 链上账户布局与读取服务
//
// 每个账户为 8 字节判别码 ‖ Borsh 字段，字段顺序与链上程序一致。
package account

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/types"
)

// 账户判别码
var (
	DiscProtocolConfig     = types.AccountDiscriminator("protocolConfig")
	DiscAgentIdentity      = types.AccountDiscriminator("agentIdentity")
	DiscAgentService       = types.AccountDiscriminator("agentService")
	DiscDelegation         = types.AccountDiscriminator("delegation")
	DiscFeedbackEntry      = types.AccountDiscriminator("feedbackEntry")
	DiscPaymentRequirement = types.AccountDiscriminator("paymentRequirement")
	DiscPaymentReceipt     = types.AccountDiscriminator("paymentReceipt")
	DiscValidationRequest  = types.AccountDiscriminator("validationRequest")
	DiscValidationResponse = types.AccountDiscriminator("validationResponse")
)

// ProtocolConfig 协议全局配置
type ProtocolConfig struct {
	Authority        types.PublicKey
	Collection       types.PublicKey
	RegistrationFee  uint64
	SettlementFeeBps uint16
	FeeTreasury      types.PublicKey
	Facilitator      types.PublicKey
	PauseIdentity    bool
	PauseReputation  bool
	PauseValidation  bool
	PauseDelegation  bool
	PausePayments    bool
	Bump             uint8
}

// AgentIdentity 代理身份
type AgentIdentity struct {
	NftMint                 types.PublicKey
	Owner                   types.PublicKey
	OwnerVersion            uint64
	FeedbackAuthority       types.PublicKey
	MetadataURI             string
	MetadataHash            [32]byte
	Tags                    [][32]byte
	Active                  bool
	CreatedAt               int64
	UpdatedAt               int64
	VerifiedFeedbackCount   uint64
	VerifiedScoreSum        uint64
	UnverifiedFeedbackCount uint64
	UnverifiedScoreSum      uint64
	ValidationCount         uint64
	DelegationCount         uint64
	Bump                    uint8
}

// AgentService 服务条目
type AgentService struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Endpoint    string
	Version     string
	Active      bool
	CreatedAt   int64
	UpdatedAt   int64
	Bump        uint8
}

// Delegation 委托
//
// MaxSpendPerTx、MaxSpendTotal、ExpiresAt、UsesRemaining 为 0 表示不限制；
// AllowedTokens、AllowedPrograms 为空表示全部允许。
type Delegation struct {
	DelegationID        uint64
	Delegator           types.PublicKey
	Delegate            types.PublicKey
	NftMint             types.PublicKey
	OwnerVersion        uint64
	CanTransact         bool
	CanGiveFeedback     bool
	CanUpdateMetadata   bool
	CanUpdatePricing    bool
	CanRegisterServices bool
	CanManage           bool
	CanRedelegate       bool
	MaxSpendPerTx       uint64
	MaxSpendTotal       uint64
	SpentTotal          uint64
	AllowedTokens       []types.PublicKey
	AllowedPrograms     []types.PublicKey
	ExpiresAt           int64
	UsesRemaining       uint64
	TotalUses           uint64
	Active              bool
	ParentDelegation    *types.PublicKey
	Depth               uint8
	CreatedAt           int64
	RevokedAt           *int64
	Bump                uint8
}

// FeedbackEntry 反馈
type FeedbackEntry struct {
	NftMint         types.PublicKey
	Reviewer        types.PublicKey
	Score           uint8
	Tag1            [32]byte
	Tag2            [32]byte
	AuthVerified    bool
	HasPaymentProof bool
	PaymentAmount   uint64
	PaymentToken    types.PublicKey
	Revoked         bool
	CreatedAt       int64
	Bump            uint8
}

// PaymentRequirement 支付要求
type PaymentRequirement struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Scheme      types.PaymentScheme
	Amount      uint64
	TokenMint   types.PublicKey
	PayTo       types.PublicKey
	Description string
	Resource    string
	Active      bool
	CreatedAt   int64
	UpdatedAt   int64
	Bump        uint8
}

// PaymentReceipt 付款收据（每个 paymentId 唯一）
type PaymentReceipt struct {
	PaymentID      [32]byte
	NftMint        types.PublicKey
	Payer          types.PublicKey
	Payee          types.PublicKey
	Amount         uint64
	FeeAmount      uint64
	TokenMint      types.PublicKey
	TxSignature    [64]byte
	Resource       string
	SettlementMode types.SettlementModeKind
	Delegation     *types.PublicKey
	Settled        bool
	CreatedAt      int64
	Bump           uint8
}

// ValidationRequest 验证请求
type ValidationRequest struct {
	NftMint     types.PublicKey
	Validator   types.PublicKey
	RequestHash [32]byte
	Tag         [32]byte
	Responded   bool
	CreatedAt   int64
	Bump        uint8
}

// ValidationResponse 验证响应
type ValidationResponse struct {
	NftMint     types.PublicKey
	Validator   types.PublicKey
	RequestHash [32]byte
	Score       uint8
	Tag         [32]byte
	CreatedAt   int64
	Bump        uint8
}

func checkEnum(r *types.Reader, field string, valid bool, raw uint8) error {
	if err := r.Err(); err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("decode %s: unknown variant %d", field, raw)
	}
	return nil
}

// DecodeProtocolConfig 解码协议配置
func DecodeProtocolConfig(data []byte) (*ProtocolConfig, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscProtocolConfig)
	out := &ProtocolConfig{
		Authority:        r.PublicKey("authority"),
		Collection:       r.PublicKey("collection"),
		RegistrationFee:  r.U64("registrationFee"),
		SettlementFeeBps: r.U16("settlementFeeBps"),
		FeeTreasury:      r.PublicKey("feeTreasury"),
		Facilitator:      r.PublicKey("facilitator"),
		PauseIdentity:    r.Bool("pauseIdentity"),
		PauseReputation:  r.Bool("pauseReputation"),
		PauseValidation:  r.Bool("pauseValidation"),
		PauseDelegation:  r.Bool("pauseDelegation"),
		PausePayments:    r.Bool("pausePayments"),
		Bump:             r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("protocol config: %w", err)
	}
	return out, nil
}

// DecodeAgentIdentity 解码代理身份
func DecodeAgentIdentity(data []byte) (*AgentIdentity, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscAgentIdentity)
	out := &AgentIdentity{
		NftMint:                 r.PublicKey("nftMint"),
		Owner:                   r.PublicKey("owner"),
		OwnerVersion:            r.U64("ownerVersion"),
		FeedbackAuthority:       r.PublicKey("feedbackAuthority"),
		MetadataURI:             r.Str("metadataUri"),
		MetadataHash:            r.Bytes32("metadataHash"),
		Tags:                    r.Bytes32Vec("tags", 0),
		Active:                  r.Bool("active"),
		CreatedAt:               r.I64("createdAt"),
		UpdatedAt:               r.I64("updatedAt"),
		VerifiedFeedbackCount:   r.U64("verifiedFeedbackCount"),
		VerifiedScoreSum:        r.U64("verifiedScoreSum"),
		UnverifiedFeedbackCount: r.U64("unverifiedFeedbackCount"),
		UnverifiedScoreSum:      r.U64("unverifiedScoreSum"),
		ValidationCount:         r.U64("validationCount"),
		DelegationCount:         r.U64("delegationCount"),
		Bump:                    r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("agent identity: %w", err)
	}
	return out, nil
}

// DecodeAgentService 解码服务条目
func DecodeAgentService(data []byte) (*AgentService, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscAgentService)
	out := &AgentService{NftMint: r.PublicKey("nftMint")}
	raw := r.U8("serviceType")
	out.ServiceType = types.ServiceType(raw)
	if err := checkEnum(r, "serviceType", out.ServiceType.Valid(), raw); err != nil {
		return nil, fmt.Errorf("agent service: %w", err)
	}
	out.Endpoint = r.Str("endpoint")
	out.Version = r.Str("version")
	out.Active = r.Bool("active")
	out.CreatedAt = r.I64("createdAt")
	out.UpdatedAt = r.I64("updatedAt")
	out.Bump = r.U8("bump")
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("agent service: %w", err)
	}
	return out, nil
}

// DecodeDelegation 解码委托
func DecodeDelegation(data []byte) (*Delegation, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscDelegation)
	out := &Delegation{
		DelegationID:        r.U64("delegationId"),
		Delegator:           r.PublicKey("delegator"),
		Delegate:            r.PublicKey("delegate"),
		NftMint:             r.PublicKey("nftMint"),
		OwnerVersion:        r.U64("ownerVersion"),
		CanTransact:         r.Bool("canTransact"),
		CanGiveFeedback:     r.Bool("canGiveFeedback"),
		CanUpdateMetadata:   r.Bool("canUpdateMetadata"),
		CanUpdatePricing:    r.Bool("canUpdatePricing"),
		CanRegisterServices: r.Bool("canRegisterServices"),
		CanManage:           r.Bool("canManage"),
		CanRedelegate:       r.Bool("canRedelegate"),
		MaxSpendPerTx:       r.U64("maxSpendPerTx"),
		MaxSpendTotal:       r.U64("maxSpendTotal"),
		SpentTotal:          r.U64("spentTotal"),
		AllowedTokens:       r.PublicKeys("allowedTokens", types.MaxAllowedTokens),
		AllowedPrograms:     r.PublicKeys("allowedPrograms", types.MaxAllowedPrograms),
		ExpiresAt:           r.I64("expiresAt"),
		UsesRemaining:       r.U64("usesRemaining"),
		TotalUses:           r.U64("totalUses"),
		Active:              r.Bool("active"),
		ParentDelegation:    r.OptionPublicKey("parentDelegation"),
		Depth:               r.U8("depth"),
		CreatedAt:           r.I64("createdAt"),
		RevokedAt:           r.OptionI64("revokedAt"),
		Bump:                r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("delegation: %w", err)
	}
	return out, nil
}

// DecodeFeedbackEntry 解码反馈
func DecodeFeedbackEntry(data []byte) (*FeedbackEntry, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscFeedbackEntry)
	out := &FeedbackEntry{
		NftMint:         r.PublicKey("nftMint"),
		Reviewer:        r.PublicKey("reviewer"),
		Score:           r.U8("score"),
		Tag1:            r.Bytes32("tag1"),
		Tag2:            r.Bytes32("tag2"),
		AuthVerified:    r.Bool("authVerified"),
		HasPaymentProof: r.Bool("hasPaymentProof"),
		PaymentAmount:   r.U64("paymentAmount"),
		PaymentToken:    r.PublicKey("paymentToken"),
		Revoked:         r.Bool("revoked"),
		CreatedAt:       r.I64("createdAt"),
		Bump:            r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("feedback entry: %w", err)
	}
	return out, nil
}

// DecodePaymentRequirement 解码支付要求
func DecodePaymentRequirement(data []byte) (*PaymentRequirement, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscPaymentRequirement)
	out := &PaymentRequirement{NftMint: r.PublicKey("nftMint")}
	rawST := r.U8("serviceType")
	out.ServiceType = types.ServiceType(rawST)
	if err := checkEnum(r, "serviceType", out.ServiceType.Valid(), rawST); err != nil {
		return nil, fmt.Errorf("payment requirement: %w", err)
	}
	rawScheme := r.U8("scheme")
	out.Scheme = types.PaymentScheme(rawScheme)
	if err := checkEnum(r, "scheme", out.Scheme.Valid(), rawScheme); err != nil {
		return nil, fmt.Errorf("payment requirement: %w", err)
	}
	out.Amount = r.U64("amount")
	out.TokenMint = r.PublicKey("tokenMint")
	out.PayTo = r.PublicKey("payTo")
	out.Description = r.Str("description")
	out.Resource = r.Str("resource")
	out.Active = r.Bool("active")
	out.CreatedAt = r.I64("createdAt")
	out.UpdatedAt = r.I64("updatedAt")
	out.Bump = r.U8("bump")
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("payment requirement: %w", err)
	}
	return out, nil
}

// DecodePaymentReceipt 解码付款收据
func DecodePaymentReceipt(data []byte) (*PaymentReceipt, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscPaymentReceipt)
	out := &PaymentReceipt{
		PaymentID:   r.Bytes32("paymentId"),
		NftMint:     r.PublicKey("nftMint"),
		Payer:       r.PublicKey("payer"),
		Payee:       r.PublicKey("payee"),
		Amount:      r.U64("amount"),
		FeeAmount:   r.U64("feeAmount"),
		TokenMint:   r.PublicKey("tokenMint"),
		TxSignature: r.Bytes64("txSignature"),
		Resource:    r.Str("resource"),
	}
	rawMode := r.U8("settlementMode")
	out.SettlementMode = types.SettlementModeKind(rawMode)
	if err := checkEnum(r, "settlementMode", out.SettlementMode.Valid(), rawMode); err != nil {
		return nil, fmt.Errorf("payment receipt: %w", err)
	}
	out.Delegation = r.OptionPublicKey("delegation")
	out.Settled = r.Bool("settled")
	out.CreatedAt = r.I64("createdAt")
	out.Bump = r.U8("bump")
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("payment receipt: %w", err)
	}
	return out, nil
}

// DecodeValidationRequest 解码验证请求
func DecodeValidationRequest(data []byte) (*ValidationRequest, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscValidationRequest)
	out := &ValidationRequest{
		NftMint:     r.PublicKey("nftMint"),
		Validator:   r.PublicKey("validator"),
		RequestHash: r.Bytes32("requestHash"),
		Tag:         r.Bytes32("tag"),
		Responded:   r.Bool("responded"),
		CreatedAt:   r.I64("createdAt"),
		Bump:        r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("validation request: %w", err)
	}
	return out, nil
}

// DecodeValidationResponse 解码验证响应
func DecodeValidationResponse(data []byte) (*ValidationResponse, error) {
	r := types.NewReader(data)
	r.Discriminator(DiscValidationResponse)
	out := &ValidationResponse{
		NftMint:     r.PublicKey("nftMint"),
		Validator:   r.PublicKey("validator"),
		RequestHash: r.Bytes32("requestHash"),
		Score:       r.U8("score"),
		Tag:         r.Bytes32("tag"),
		CreatedAt:   r.I64("createdAt"),
		Bump:        r.U8("bump"),
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("validation response: %w", err)
	}
	return out, nil
}
