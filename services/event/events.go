package event

import (
	"fmt"

	"github.com/x84-ai/client-sdk-go/types"
)

// Event 程序事件（封闭接口，只有本包中的 17 种事件实现）
type Event interface {
	// Name 事件名（IDL 中的 camelCase 名称）
	Name() string
	isEvent()
}

type AgentRegistered struct {
	NftMint           types.PublicKey
	Owner             types.PublicKey
	MetadataURI       string
	FeedbackAuthority types.PublicKey
	Tags              [][32]byte
	Timestamp         int64
}

type MetadataUpdated struct {
	NftMint       types.PublicKey
	OldHash       [32]byte
	NewHash       [32]byte
	NewURI        string
	UpdatedBy     types.PublicKey
	ViaDelegation bool
	Timestamp     int64
}

type AgentDeactivated struct {
	NftMint   types.PublicKey
	Timestamp int64
}

type AgentReactivated struct {
	NftMint   types.PublicKey
	Timestamp int64
}

type AgentClaimed struct {
	NftMint         types.PublicKey
	OldOwner        types.PublicKey
	NewOwner        types.PublicKey
	NewOwnerVersion uint64
	Timestamp       int64
}

type FeedbackAuthorityUpdated struct {
	NftMint      types.PublicKey
	OldAuthority types.PublicKey
	NewAuthority types.PublicKey
	Timestamp    int64
}

type ServiceAdded struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Endpoint    string
	Timestamp   int64
}

type ServiceUpdated struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	NewEndpoint string
	Timestamp   int64
}

type ServiceRemoved struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Timestamp   int64
}

type FeedbackGiven struct {
	NftMint         types.PublicKey
	Reviewer        types.PublicKey
	Score           uint8
	Tag1            [32]byte
	Tag2            [32]byte
	HasPaymentProof bool
	PaymentAmount   uint64
	DetailURI       string
	DetailHash      [32]byte
	FeedbackAuth    [64]byte
	Timestamp       int64
}

type FeedbackRevoked struct {
	NftMint   types.PublicKey
	Reviewer  types.PublicKey
	Timestamp int64
}

type ValidationRequested struct {
	NftMint     types.PublicKey
	Validator   types.PublicKey
	RequestHash [32]byte
	Tag         [32]byte
	RequestURI  string
	Timestamp   int64
}

type ValidationResponded struct {
	NftMint      types.PublicKey
	Validator    types.PublicKey
	RequestHash  [32]byte
	Score        uint8
	Tag          [32]byte
	EvidenceURI  string
	EvidenceHash [32]byte
	Timestamp    int64
}

type DelegationCreated struct {
	NftMint         types.PublicKey
	Delegator       types.PublicKey
	Delegate        types.PublicKey
	DelegationID    uint64
	Depth           uint8
	ExpiresAt       int64
	MaxSpendTotal   uint64
	OwnerVersion    uint64
	IsSubDelegation bool
	Timestamp       int64
}

type DelegationRevoked struct {
	NftMint      types.PublicKey
	Delegator    types.PublicKey
	Delegate     types.PublicKey
	DelegationID uint64
	Timestamp    int64
}

type PaymentRequirementSet struct {
	NftMint     types.PublicKey
	ServiceType types.ServiceType
	Scheme      types.PaymentScheme
	Amount      uint64
	TokenMint   types.PublicKey
	Timestamp   int64
}

type PaymentSettled struct {
	PaymentID            [32]byte
	NftMint              types.PublicKey
	Payer                types.PublicKey
	Payee                types.PublicKey
	Amount               uint64
	FeeAmount            uint64
	TokenMint            types.PublicKey
	Resource             string
	SettlementMode       types.SettlementModeKind
	Delegation           *types.PublicKey
	DelegationSpentTotal *uint64
	Timestamp            int64
}

func (AgentRegistered) Name() string          { return "agentRegistered" }
func (MetadataUpdated) Name() string          { return "metadataUpdated" }
func (AgentDeactivated) Name() string         { return "agentDeactivated" }
func (AgentReactivated) Name() string         { return "agentReactivated" }
func (AgentClaimed) Name() string             { return "agentClaimed" }
func (FeedbackAuthorityUpdated) Name() string { return "feedbackAuthorityUpdated" }
func (ServiceAdded) Name() string             { return "serviceAdded" }
func (ServiceUpdated) Name() string           { return "serviceUpdated" }
func (ServiceRemoved) Name() string           { return "serviceRemoved" }
func (FeedbackGiven) Name() string            { return "feedbackGiven" }
func (FeedbackRevoked) Name() string          { return "feedbackRevoked" }
func (ValidationRequested) Name() string      { return "validationRequested" }
func (ValidationResponded) Name() string      { return "validationResponded" }
func (DelegationCreated) Name() string        { return "delegationCreated" }
func (DelegationRevoked) Name() string        { return "delegationRevoked" }
func (PaymentRequirementSet) Name() string    { return "paymentRequirementSet" }
func (PaymentSettled) Name() string           { return "paymentSettled" }

func (AgentRegistered) isEvent()          {}
func (MetadataUpdated) isEvent()          {}
func (AgentDeactivated) isEvent()         {}
func (AgentReactivated) isEvent()         {}
func (AgentClaimed) isEvent()             {}
func (FeedbackAuthorityUpdated) isEvent() {}
func (ServiceAdded) isEvent()             {}
func (ServiceUpdated) isEvent()           {}
func (ServiceRemoved) isEvent()           {}
func (FeedbackGiven) isEvent()            {}
func (FeedbackRevoked) isEvent()          {}
func (ValidationRequested) isEvent()      {}
func (ValidationResponded) isEvent()      {}
func (DelegationCreated) isEvent()        {}
func (DelegationRevoked) isEvent()        {}
func (PaymentRequirementSet) isEvent()    {}
func (PaymentSettled) isEvent()           {}

// decodeFunc 从判别码之后的负载解码事件
type decodeFunc func(r *types.Reader) (Event, error)

// registry 判别码 → 解码函数
var registry = map[types.Discriminator]decodeFunc{}

func register(name string, fn decodeFunc) {
	registry[types.EventDiscriminator(name)] = fn
}

// EventNames 全部已知事件名
func EventNames() []string {
	return []string{
		"agentRegistered", "metadataUpdated", "agentDeactivated", "agentReactivated",
		"agentClaimed", "feedbackAuthorityUpdated", "serviceAdded", "serviceUpdated",
		"serviceRemoved", "feedbackGiven", "feedbackRevoked", "validationRequested",
		"validationResponded", "delegationCreated", "delegationRevoked",
		"paymentRequirementSet", "paymentSettled",
	}
}

func readServiceType(r *types.Reader) types.ServiceType {
	return types.ServiceType(r.U8("serviceType"))
}

func checkValid(r *types.Reader, field string, ok bool) error {
	if err := r.Err(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("decode %s: unknown variant", field)
	}
	return nil
}

func init() {
	register("agentRegistered", func(r *types.Reader) (Event, error) {
		e := AgentRegistered{
			NftMint:           r.PublicKey("nftMint"),
			Owner:             r.PublicKey("owner"),
			MetadataURI:       r.Str("metadataUri"),
			FeedbackAuthority: r.PublicKey("feedbackAuthority"),
			Tags:              r.Bytes32Vec("tags", 0),
			Timestamp:         r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("metadataUpdated", func(r *types.Reader) (Event, error) {
		e := MetadataUpdated{
			NftMint:       r.PublicKey("nftMint"),
			OldHash:       r.Bytes32("oldHash"),
			NewHash:       r.Bytes32("newHash"),
			NewURI:        r.Str("newUri"),
			UpdatedBy:     r.PublicKey("updatedBy"),
			ViaDelegation: r.Bool("viaDelegation"),
			Timestamp:     r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("agentDeactivated", func(r *types.Reader) (Event, error) {
		e := AgentDeactivated{NftMint: r.PublicKey("nftMint"), Timestamp: r.I64("timestamp")}
		return e, r.Err()
	})
	register("agentReactivated", func(r *types.Reader) (Event, error) {
		e := AgentReactivated{NftMint: r.PublicKey("nftMint"), Timestamp: r.I64("timestamp")}
		return e, r.Err()
	})
	register("agentClaimed", func(r *types.Reader) (Event, error) {
		e := AgentClaimed{
			NftMint:         r.PublicKey("nftMint"),
			OldOwner:        r.PublicKey("oldOwner"),
			NewOwner:        r.PublicKey("newOwner"),
			NewOwnerVersion: r.U64("newOwnerVersion"),
			Timestamp:       r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("feedbackAuthorityUpdated", func(r *types.Reader) (Event, error) {
		e := FeedbackAuthorityUpdated{
			NftMint:      r.PublicKey("nftMint"),
			OldAuthority: r.PublicKey("oldAuthority"),
			NewAuthority: r.PublicKey("newAuthority"),
			Timestamp:    r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("serviceAdded", func(r *types.Reader) (Event, error) {
		e := ServiceAdded{NftMint: r.PublicKey("nftMint"), ServiceType: readServiceType(r)}
		if err := checkValid(r, "serviceType", e.ServiceType.Valid()); err != nil {
			return nil, err
		}
		e.Endpoint = r.Str("endpoint")
		e.Timestamp = r.I64("timestamp")
		return e, r.Err()
	})
	register("serviceUpdated", func(r *types.Reader) (Event, error) {
		e := ServiceUpdated{NftMint: r.PublicKey("nftMint"), ServiceType: readServiceType(r)}
		if err := checkValid(r, "serviceType", e.ServiceType.Valid()); err != nil {
			return nil, err
		}
		e.NewEndpoint = r.Str("newEndpoint")
		e.Timestamp = r.I64("timestamp")
		return e, r.Err()
	})
	register("serviceRemoved", func(r *types.Reader) (Event, error) {
		e := ServiceRemoved{NftMint: r.PublicKey("nftMint"), ServiceType: readServiceType(r)}
		if err := checkValid(r, "serviceType", e.ServiceType.Valid()); err != nil {
			return nil, err
		}
		e.Timestamp = r.I64("timestamp")
		return e, r.Err()
	})
	register("feedbackGiven", func(r *types.Reader) (Event, error) {
		e := FeedbackGiven{
			NftMint:         r.PublicKey("nftMint"),
			Reviewer:        r.PublicKey("reviewer"),
			Score:           r.U8("score"),
			Tag1:            r.Bytes32("tag1"),
			Tag2:            r.Bytes32("tag2"),
			HasPaymentProof: r.Bool("hasPaymentProof"),
			PaymentAmount:   r.U64("paymentAmount"),
			DetailURI:       r.Str("detailUri"),
			DetailHash:      r.Bytes32("detailHash"),
			FeedbackAuth:    r.Bytes64("feedbackAuth"),
			Timestamp:       r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("feedbackRevoked", func(r *types.Reader) (Event, error) {
		e := FeedbackRevoked{
			NftMint:   r.PublicKey("nftMint"),
			Reviewer:  r.PublicKey("reviewer"),
			Timestamp: r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("validationRequested", func(r *types.Reader) (Event, error) {
		e := ValidationRequested{
			NftMint:     r.PublicKey("nftMint"),
			Validator:   r.PublicKey("validator"),
			RequestHash: r.Bytes32("requestHash"),
			Tag:         r.Bytes32("tag"),
			RequestURI:  r.Str("requestUri"),
			Timestamp:   r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("validationResponded", func(r *types.Reader) (Event, error) {
		e := ValidationResponded{
			NftMint:      r.PublicKey("nftMint"),
			Validator:    r.PublicKey("validator"),
			RequestHash:  r.Bytes32("requestHash"),
			Score:        r.U8("score"),
			Tag:          r.Bytes32("tag"),
			EvidenceURI:  r.Str("evidenceUri"),
			EvidenceHash: r.Bytes32("evidenceHash"),
			Timestamp:    r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("delegationCreated", func(r *types.Reader) (Event, error) {
		e := DelegationCreated{
			NftMint:         r.PublicKey("nftMint"),
			Delegator:       r.PublicKey("delegator"),
			Delegate:        r.PublicKey("delegate"),
			DelegationID:    r.U64("delegationId"),
			Depth:           r.U8("depth"),
			ExpiresAt:       r.I64("expiresAt"),
			MaxSpendTotal:   r.U64("maxSpendTotal"),
			OwnerVersion:    r.U64("ownerVersion"),
			IsSubDelegation: r.Bool("isSubDelegation"),
			Timestamp:       r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("delegationRevoked", func(r *types.Reader) (Event, error) {
		e := DelegationRevoked{
			NftMint:      r.PublicKey("nftMint"),
			Delegator:    r.PublicKey("delegator"),
			Delegate:     r.PublicKey("delegate"),
			DelegationID: r.U64("delegationId"),
			Timestamp:    r.I64("timestamp"),
		}
		return e, r.Err()
	})
	register("paymentRequirementSet", func(r *types.Reader) (Event, error) {
		e := PaymentRequirementSet{NftMint: r.PublicKey("nftMint"), ServiceType: readServiceType(r)}
		if err := checkValid(r, "serviceType", e.ServiceType.Valid()); err != nil {
			return nil, err
		}
		e.Scheme = types.PaymentScheme(r.U8("scheme"))
		if err := checkValid(r, "scheme", e.Scheme.Valid()); err != nil {
			return nil, err
		}
		e.Amount = r.U64("amount")
		e.TokenMint = r.PublicKey("tokenMint")
		e.Timestamp = r.I64("timestamp")
		return e, r.Err()
	})
	register("paymentSettled", func(r *types.Reader) (Event, error) {
		e := PaymentSettled{
			PaymentID: r.Bytes32("paymentId"),
			NftMint:   r.PublicKey("nftMint"),
			Payer:     r.PublicKey("payer"),
			Payee:     r.PublicKey("payee"),
			Amount:    r.U64("amount"),
			FeeAmount: r.U64("feeAmount"),
			TokenMint: r.PublicKey("tokenMint"),
			Resource:  r.Str("resource"),
		}
		e.SettlementMode = types.SettlementModeKind(r.U8("settlementMode"))
		if err := checkValid(r, "settlementMode", e.SettlementMode.Valid()); err != nil {
			return nil, err
		}
		e.Delegation = r.OptionPublicKey("delegation")
		e.DelegationSpentTotal = r.OptionU64("delegationSpentTotal")
		e.Timestamp = r.I64("timestamp")
		return e, r.Err()
	})
}
