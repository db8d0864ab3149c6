package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/x84-ai/client-sdk-go/types"
)

// MaxMultipleAccounts getMultipleAccounts 单次请求上限
const MaxMultipleAccounts = 100

// RPC 类型化的账本读取接口
// 提供类型化的 RPC 封装，避免直接使用 Call(method, params)
type RPC interface {
	// GetAccountInfo 读取账户；账户不存在时返回 (nil, nil)
	GetAccountInfo(ctx context.Context, address types.PublicKey) (*AccountInfo, error)

	// GetMultipleAccounts 批量读取账户，结果与输入顺序一致，不存在的位置为 nil
	GetMultipleAccounts(ctx context.Context, addresses []types.PublicKey) ([]*AccountInfo, error)

	// GetProgramAccounts 按过滤条件列出程序账户
	GetProgramAccounts(ctx context.Context, programID types.PublicKey, filters ...ProgramAccountFilter) ([]KeyedAccount, error)

	// GetTransactionLogs 读取交易日志；交易不存在时返回 (nil, nil)
	GetTransactionLogs(ctx context.Context, signature string) (*TransactionLogs, error)

	// SubscribeLogs 订阅提及 mentions 的交易日志（需要 WebSocket）
	SubscribeLogs(ctx context.Context, mentions types.PublicKey) (<-chan LogsNotification, error)

	// 底层通道
	Client() Client

	// Close 关闭连接
	Close() error
}

// rpcImpl RPC 实现
type rpcImpl struct {
	client     Client
	commitment Commitment
	logger     Logger
}

// NewRPC 按配置创建 RPC
func NewRPC(config *Config) (RPC, error) {
	if config == nil {
		config = DefaultConfig()
	}
	c, err := NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &rpcImpl{client: c, commitment: config.commitment(), logger: config.logger()}, nil
}

// NewRPCFromClient 从现有 Client 创建 RPC
func NewRPCFromClient(c Client, commitment Commitment) RPC {
	if commitment == "" {
		commitment = CommitmentConfirmed
	}
	return &rpcImpl{client: c, commitment: commitment, logger: NopLogger}
}

func (r *rpcImpl) Client() Client {
	return r.client
}

func (r *rpcImpl) Close() error {
	return r.client.Close()
}

func (r *rpcImpl) accountOpts() map[string]interface{} {
	return map[string]interface{}{
		"encoding":   "base64",
		"commitment": r.commitment,
	}
}

// GetAccountInfo 读取账户
func (r *rpcImpl) GetAccountInfo(ctx context.Context, address types.PublicKey) (*AccountInfo, error) {
	raw, err := r.client.Call(ctx, "getAccountInfo", []interface{}{address.String(), r.accountOpts()})
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, err)
	}
	var res rpcAccountInfoResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewInvalidResponseError("invalid getAccountInfo response", err)
	}
	if res.Value == nil {
		return nil, nil
	}
	return res.Value.decode(address, res.Context.Slot)
}

// GetMultipleAccounts 批量读取账户
//
// 超过 MaxMultipleAccounts 时按批次顺序请求。
func (r *rpcImpl) GetMultipleAccounts(ctx context.Context, addresses []types.PublicKey) ([]*AccountInfo, error) {
	out := make([]*AccountInfo, 0, len(addresses))
	for start := 0; start < len(addresses); start += MaxMultipleAccounts {
		end := start + MaxMultipleAccounts
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]

		keys := make([]string, len(chunk))
		for i, pk := range chunk {
			keys[i] = pk.String()
		}
		raw, err := r.client.Call(ctx, "getMultipleAccounts", []interface{}{keys, r.accountOpts()})
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts: %w", err)
		}
		var res rpcMultipleAccountsResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, NewInvalidResponseError("invalid getMultipleAccounts response", err)
		}
		if len(res.Value) != len(chunk) {
			return nil, NewInvalidResponseError(fmt.Sprintf("getMultipleAccounts returned %d accounts, expected %d", len(res.Value), len(chunk)), nil)
		}
		for i, acc := range res.Value {
			if acc == nil {
				out = append(out, nil)
				continue
			}
			info, err := acc.decode(chunk[i], res.Context.Slot)
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", chunk[i], err)
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// GetProgramAccounts 按过滤条件列出程序账户
func (r *rpcImpl) GetProgramAccounts(ctx context.Context, programID types.PublicKey, filters ...ProgramAccountFilter) ([]KeyedAccount, error) {
	opts := r.accountOpts()
	if len(filters) > 0 {
		opts["filters"] = filters
	}
	raw, err := r.client.Call(ctx, "getProgramAccounts", []interface{}{programID.String(), opts})
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts: %w", err)
	}
	var res []rpcKeyedAccount
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewInvalidResponseError("invalid getProgramAccounts response", err)
	}

	out := make([]KeyedAccount, 0, len(res))
	for _, item := range res {
		pk, err := types.PublicKeyFromBase58(item.Pubkey)
		if err != nil {
			return nil, NewInvalidResponseError("invalid account pubkey", err)
		}
		info, err := item.Account.decode(pk, 0)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", pk, err)
		}
		out = append(out, KeyedAccount{Pubkey: pk, Account: info})
	}
	return out, nil
}

// GetTransactionLogs 读取交易日志
func (r *rpcImpl) GetTransactionLogs(ctx context.Context, signature string) (*TransactionLogs, error) {
	// getTransaction 不接受 processed
	commitment := r.commitment
	if commitment == CommitmentProcessed {
		commitment = CommitmentConfirmed
	}
	opts := map[string]interface{}{
		"encoding":                       "json",
		"commitment":                     commitment,
		"maxSupportedTransactionVersion": 0,
	}
	raw, err := r.client.Call(ctx, "getTransaction", []interface{}{signature, opts})
	if err != nil {
		return nil, fmt.Errorf("getTransaction %s: %w", signature, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var res rpcTransactionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, NewInvalidResponseError("invalid getTransaction response", err)
	}

	out := &TransactionLogs{
		Signature: signature,
		Slot:      res.Slot,
		BlockTime: res.BlockTime,
	}
	if res.Meta != nil {
		out.LogMessages = res.Meta.LogMessages
		out.Err = res.Meta.Err
	}
	return out, nil
}

// SubscribeLogs 订阅交易日志
func (r *rpcImpl) SubscribeLogs(ctx context.Context, mentions types.PublicKey) (<-chan LogsNotification, error) {
	raw, err := r.client.Subscribe(ctx, SubscribeRequest{
		Method: "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{mentions.String()}},
			map[string]interface{}{"commitment": r.commitment},
		},
		UnsubscribeMethod: "logsUnsubscribe",
	})
	if err != nil {
		return nil, err
	}

	out := make(chan LogsNotification, wsNotifyBuffer)
	go func() {
		defer close(out)
		for msg := range raw {
			var n rpcLogsNotification
			if err := json.Unmarshal(msg, &n); err != nil {
				r.logger.Warn("skipping malformed logs notification", "error", err)
				continue
			}
			select {
			case out <- LogsNotification{
				Slot:      n.Context.Slot,
				Signature: n.Value.Signature,
				Logs:      n.Value.Logs,
				Err:       n.Value.Err,
			}:
			case <-ctx.Done():
				// 继续排空 raw，直到订阅关闭
			}
		}
	}()
	return out, nil
}
