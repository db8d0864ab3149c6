package delegation

import (
	"context"
	"fmt"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/services/account"
	"github.com/x84-ai/client-sdk-go/types"
)

// Service 委托业务服务
//
// 在纯构建函数之外补上显式的账本读取：delegationCount 与父委托快照。
type Service interface {
	// NextCreateDelegation 读取代理当前 delegationCount（与父委托）后构建 create_delegation
	NextCreateDelegation(ctx context.Context, req *NextCreateRequest) (*CreateResult, error)

	// CheckRedeemable 读取委托、代理与祖先后预测本次使用是否会被接受
	CheckRedeemable(ctx context.Context, delegationPDA types.PublicKey, r Redemption) error
}

// NextCreateRequest 创建委托请求
type NextCreateRequest struct {
	Delegator types.PublicKey
	Delegate  types.PublicKey
	NftMint   types.PublicKey
	Config    Config
	// ParentDelegation 可选：父委托地址
	ParentDelegation *types.PublicKey
}

type delegationService struct {
	config   services.Config
	accounts account.Service
	logger   client.Logger
}

// NewService 创建委托服务
func NewService(config services.Config, accounts account.Service, logger client.Logger) Service {
	if logger == nil {
		logger = client.NopLogger
	}
	return &delegationService{config: config, accounts: accounts, logger: logger}
}

// NextCreateDelegation 构建下一条委托
//
// **流程**：
// 1. 读取代理身份得到 delegationCount
// 2. 如有父委托，读取并生成快照
// 3. 调用 BuildCreateDelegationIx
func (s *delegationService) NextCreateDelegation(ctx context.Context, req *NextCreateRequest) (*CreateResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	// 1. 读取 delegationCount
	agent, err := s.accounts.FetchAgentIdentity(ctx, req.NftMint)
	if err != nil {
		return nil, fmt.Errorf("fetch agent identity: %w", err)
	}

	// 2. 父委托
	var parent *ParentDelegation
	if req.ParentDelegation != nil {
		pd, err := s.accounts.FetchDelegationByAddress(ctx, *req.ParentDelegation)
		if err != nil {
			return nil, fmt.Errorf("fetch parent delegation: %w", err)
		}
		parent = ParentFromAccount(*req.ParentDelegation, pd)
	}

	// 3. 构建
	res, err := BuildCreateDelegationIx(s.config, CreateIntent{
		Delegator:    req.Delegator,
		Delegate:     req.Delegate,
		NftMint:      req.NftMint,
		DelegationID: agent.DelegationCount,
		Config:       req.Config,
		Parent:       parent,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("built create_delegation",
		"nftMint", req.NftMint.String(),
		"delegationId", res.DelegationID,
		"depth", res.Depth,
		"delegation", res.DelegationPDA.String())
	return res, nil
}

func (s *delegationService) CheckRedeemable(ctx context.Context, delegationPDA types.PublicKey, r Redemption) error {
	d, err := s.accounts.FetchDelegationByAddress(ctx, delegationPDA)
	if err != nil {
		return fmt.Errorf("fetch delegation: %w", err)
	}
	agent, err := s.accounts.FetchAgentIdentity(ctx, d.NftMint)
	if err != nil {
		return fmt.Errorf("fetch agent identity: %w", err)
	}
	if r.Ancestors == nil {
		if r.Ancestors, err = s.accounts.FetchDelegationChain(ctx, d); err != nil {
			return err
		}
	}
	return CheckRedeemable(d, agent, r)
}
