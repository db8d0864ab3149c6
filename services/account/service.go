package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
	"github.com/x84-ai/client-sdk-go/utils"
)

// getProgramAccounts memcmp 偏移（含 8 字节判别码）
const (
	OffsetAgentOwner         = 40 // 8 + nftMint
	OffsetServiceNftMint     = 8
	OffsetFeedbackNftMint    = 8
	OffsetDelegationDelegate = 48 // 8 + delegationId + delegator
	OffsetDelegationNftMint  = 80 // 8 + delegationId + delegator + delegate
)

// ErrAccountNotFound 账户不存在
var ErrAccountNotFound = errors.New("account not found")

// Keyed 带地址的已解码账户
type Keyed[T any] struct {
	Address types.PublicKey
	Account *T
}

// Service 账户读取服务接口
//
// 所有方法只读账本，不构建也不提交交易。
type Service interface {
	FetchProtocolConfig(ctx context.Context) (*ProtocolConfig, error)

	// FetchAgentIdentity 按 nftMint 读取代理；不存在时返回 ErrAccountNotFound
	FetchAgentIdentity(ctx context.Context, nftMint types.PublicKey) (*AgentIdentity, error)

	// FetchAgentIdentityOrNil 不存在时返回 (nil, nil)
	FetchAgentIdentityOrNil(ctx context.Context, nftMint types.PublicKey) (*AgentIdentity, error)

	FetchService(ctx context.Context, nftMint types.PublicKey, serviceType types.ServiceType) (*AgentService, error)
	FetchFeedbackEntry(ctx context.Context, nftMint, reviewer types.PublicKey, nonce int64) (*FeedbackEntry, error)
	FetchDelegation(ctx context.Context, delegator, delegate types.PublicKey, delegationID uint64) (*Delegation, error)
	FetchDelegationByAddress(ctx context.Context, address types.PublicKey) (*Delegation, error)
	FetchPaymentRequirement(ctx context.Context, nftMint types.PublicKey, serviceType types.ServiceType) (*PaymentRequirement, error)
	FetchPaymentReceipt(ctx context.Context, paymentID [32]byte) (*PaymentReceipt, error)

	// FetchManyAgents 批量读取代理，结果与输入一一对应，不存在的位置为 nil
	FetchManyAgents(ctx context.Context, nftMints []types.PublicKey) ([]*AgentIdentity, error)

	// FetchDelegationChain 沿 parentDelegation 向上读取祖先（最近的在前）
	FetchDelegationChain(ctx context.Context, d *Delegation) ([]*Delegation, error)

	AllAgents(ctx context.Context) ([]Keyed[AgentIdentity], error)
	AgentsByOwner(ctx context.Context, owner types.PublicKey) ([]Keyed[AgentIdentity], error)
	ServicesByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[AgentService], error)
	FeedbackByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[FeedbackEntry], error)
	DelegationsByDelegate(ctx context.Context, delegate types.PublicKey) ([]Keyed[Delegation], error)
	DelegationsByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[Delegation], error)
}

// accountService 账户读取服务实现
type accountService struct {
	rpc    client.RPC
	config services.Config
	logger client.Logger
}

// NewService 创建账户读取服务
func NewService(rpc client.RPC, config services.Config) Service {
	return &accountService{rpc: rpc, config: config, logger: client.NopLogger}
}

// NewServiceWithLogger 创建带日志的账户读取服务
func NewServiceWithLogger(rpc client.RPC, config services.Config, logger client.Logger) Service {
	if logger == nil {
		logger = client.NopLogger
	}
	return &accountService{rpc: rpc, config: config, logger: logger}
}

// fetch 读取并解码单个账户；不存在时返回 ErrAccountNotFound
func fetch[T any](ctx context.Context, s *accountService, addr types.PublicKey, decode func([]byte) (*T, error)) (*T, error) {
	info, err := s.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	if info.Owner != s.config.Program() {
		return nil, fmt.Errorf("account %s owned by %s, not the x84 program", addr, info.Owner)
	}
	out, err := decode(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", addr, err)
	}
	return out, nil
}

func (s *accountService) FetchProtocolConfig(ctx context.Context) (*ProtocolConfig, error) {
	addr, err := s.config.Deriver().Config()
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodeProtocolConfig)
}

func (s *accountService) FetchAgentIdentity(ctx context.Context, nftMint types.PublicKey) (*AgentIdentity, error) {
	addr, err := s.config.Deriver().Agent(nftMint)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodeAgentIdentity)
}

func (s *accountService) FetchAgentIdentityOrNil(ctx context.Context, nftMint types.PublicKey) (*AgentIdentity, error) {
	agent, err := s.FetchAgentIdentity(ctx, nftMint)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, nil
	}
	return agent, err
}

func (s *accountService) FetchService(ctx context.Context, nftMint types.PublicKey, serviceType types.ServiceType) (*AgentService, error) {
	addr, err := s.config.Deriver().Service(nftMint, serviceType)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodeAgentService)
}

func (s *accountService) FetchFeedbackEntry(ctx context.Context, nftMint, reviewer types.PublicKey, nonce int64) (*FeedbackEntry, error) {
	addr, err := s.config.Deriver().Feedback(nftMint, reviewer, nonce)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodeFeedbackEntry)
}

func (s *accountService) FetchDelegation(ctx context.Context, delegator, delegate types.PublicKey, delegationID uint64) (*Delegation, error) {
	addr, err := s.config.Deriver().Delegation(delegator, delegate, delegationID)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodeDelegation)
}

func (s *accountService) FetchDelegationByAddress(ctx context.Context, address types.PublicKey) (*Delegation, error) {
	return fetch(ctx, s, address, DecodeDelegation)
}

func (s *accountService) FetchPaymentRequirement(ctx context.Context, nftMint types.PublicKey, serviceType types.ServiceType) (*PaymentRequirement, error) {
	addr, err := s.config.Deriver().PaymentRequirement(nftMint, serviceType)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodePaymentRequirement)
}

func (s *accountService) FetchPaymentReceipt(ctx context.Context, paymentID [32]byte) (*PaymentReceipt, error) {
	addr, err := s.config.Deriver().Receipt(paymentID)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, addr.Key, DecodePaymentReceipt)
}

// FetchManyAgents 批量读取代理
//
// **流程**：
// 1. 并发推导代理 PDA
// 2. 按 getMultipleAccounts 上限分批，批次之间并发读取
// 3. 按输入顺序解码
func (s *accountService) FetchManyAgents(ctx context.Context, nftMints []types.PublicKey) ([]*AgentIdentity, error) {
	if len(nftMints) == 0 {
		return nil, nil
	}

	// 1. 推导地址
	d := s.config.Deriver()
	addrs, err := utils.ParallelExecute(ctx, nftMints, func(ctx context.Context, mint types.PublicKey) (types.PublicKey, error) {
		a, err := d.Agent(mint)
		return a.Key, err
	}, 8)
	if err != nil {
		return nil, err
	}

	// 2. 分批读取
	batches := utils.BatchArray(addrs, client.MaxMultipleAccounts)
	res, err := utils.BatchQuery(ctx, batches, func(ctx context.Context, batch []types.PublicKey, _ int) ([]*client.AccountInfo, error) {
		return s.rpc.GetMultipleAccounts(ctx, batch)
	}, &utils.BatchConfig{BatchSize: len(batches), Concurrency: 4})
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		first := res.Errors[0]
		return nil, fmt.Errorf("fetch agents batch %d: %w", first.Index, first.Error)
	}

	// 3. 解码
	out := make([]*AgentIdentity, 0, len(nftMints))
	for _, batch := range res.Results {
		for _, info := range batch {
			if info == nil {
				out = append(out, nil)
				continue
			}
			agent, err := DecodeAgentIdentity(info.Data)
			if err != nil {
				return nil, fmt.Errorf("decode agent %s: %w", info.Address, err)
			}
			out = append(out, agent)
		}
	}
	s.logger.Debug("fetched agents", "requested", len(nftMints), "batches", len(batches))
	return out, nil
}

// maxChainLength 委托最大深度
const maxChainLength = 2

// FetchDelegationChain 读取祖先委托
func (s *accountService) FetchDelegationChain(ctx context.Context, d *Delegation) ([]*Delegation, error) {
	var chain []*Delegation
	for cur := d; cur != nil && cur.ParentDelegation != nil; {
		if len(chain) >= maxChainLength {
			return nil, fmt.Errorf("delegation chain exceeds depth %d", maxChainLength)
		}
		parent, err := s.FetchDelegationByAddress(ctx, *cur.ParentDelegation)
		if err != nil {
			return nil, fmt.Errorf("fetch parent delegation: %w", err)
		}
		chain = append(chain, parent)
		cur = parent
	}
	return chain, nil
}

// list 按判别码与附加过滤列出程序账户
func list[T any](ctx context.Context, s *accountService, disc types.Discriminator, decode func([]byte) (*T, error), filters ...client.ProgramAccountFilter) ([]Keyed[T], error) {
	all := append([]client.ProgramAccountFilter{client.MemcmpBytes(0, disc[:])}, filters...)
	accounts, err := s.rpc.GetProgramAccounts(ctx, s.config.Program(), all...)
	if err != nil {
		return nil, fmt.Errorf("get program accounts: %w", err)
	}
	out := make([]Keyed[T], 0, len(accounts))
	for _, ka := range accounts {
		if ka.Account == nil {
			continue
		}
		v, err := decode(ka.Account.Data)
		if err != nil {
			// 布局不匹配（例如旧版本账户）时跳过
			s.logger.Warn("skip undecodable account", "address", ka.Pubkey.String(), "error", err)
			continue
		}
		out = append(out, Keyed[T]{Address: ka.Pubkey, Account: v})
	}
	return out, nil
}

func (s *accountService) AllAgents(ctx context.Context) ([]Keyed[AgentIdentity], error) {
	return list(ctx, s, DiscAgentIdentity, DecodeAgentIdentity)
}

func (s *accountService) AgentsByOwner(ctx context.Context, owner types.PublicKey) ([]Keyed[AgentIdentity], error) {
	return list(ctx, s, DiscAgentIdentity, DecodeAgentIdentity, client.MemcmpPublicKey(OffsetAgentOwner, owner))
}

func (s *accountService) ServicesByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[AgentService], error) {
	return list(ctx, s, DiscAgentService, DecodeAgentService, client.MemcmpPublicKey(OffsetServiceNftMint, nftMint))
}

func (s *accountService) FeedbackByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[FeedbackEntry], error) {
	return list(ctx, s, DiscFeedbackEntry, DecodeFeedbackEntry, client.MemcmpPublicKey(OffsetFeedbackNftMint, nftMint))
}

func (s *accountService) DelegationsByDelegate(ctx context.Context, delegate types.PublicKey) ([]Keyed[Delegation], error) {
	return list(ctx, s, DiscDelegation, DecodeDelegation, client.MemcmpPublicKey(OffsetDelegationDelegate, delegate))
}

func (s *accountService) DelegationsByAgent(ctx context.Context, nftMint types.PublicKey) ([]Keyed[Delegation], error) {
	return list(ctx, s, DiscDelegation, DecodeDelegation, client.MemcmpPublicKey(OffsetDelegationNftMint, nftMint))
}
