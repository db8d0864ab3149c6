package client

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcutil/base58"

	"github.com/x84-ai/client-sdk-go/types"
)

// AccountInfo 账户信息
type AccountInfo struct {
	Address    types.PublicKey
	Owner      types.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
	Slot       uint64
}

// KeyedAccount getProgramAccounts 返回项
type KeyedAccount struct {
	Pubkey  types.PublicKey
	Account *AccountInfo
}

// ProgramAccountFilter getProgramAccounts 过滤条件
//
// Memcmp 与 DataSize 二选一。
type ProgramAccountFilter struct {
	Memcmp   *MemcmpFilter
	DataSize *uint64
}

// MemcmpFilter 按偏移比较字节
type MemcmpFilter struct {
	Offset uint64
	Bytes  []byte
}

// MarshalJSON 编码为 RPC 过滤器格式
func (f ProgramAccountFilter) MarshalJSON() ([]byte, error) {
	switch {
	case f.Memcmp != nil:
		return json.Marshal(map[string]interface{}{
			"memcmp": map[string]interface{}{
				"offset": f.Memcmp.Offset,
				"bytes":  base58.Encode(f.Memcmp.Bytes),
			},
		})
	case f.DataSize != nil:
		return json.Marshal(map[string]interface{}{"dataSize": *f.DataSize})
	default:
		return nil, fmt.Errorf("empty program account filter")
	}
}

// MemcmpPublicKey 按偏移匹配 32 字节公钥
func MemcmpPublicKey(offset uint64, pk types.PublicKey) ProgramAccountFilter {
	return ProgramAccountFilter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: pk.Bytes()}}
}

// MemcmpBytes 按偏移匹配任意字节（例如账户判别码）
func MemcmpBytes(offset uint64, b []byte) ProgramAccountFilter {
	cp := make([]byte, len(b))
	copy(cp, b)
	return ProgramAccountFilter{Memcmp: &MemcmpFilter{Offset: offset, Bytes: cp}}
}

// TransactionLogs getTransaction 结果中与日志相关的部分
type TransactionLogs struct {
	Signature   string
	Slot        uint64
	BlockTime   *int64
	LogMessages []string
	// Err 交易失败时的原始错误（成功为空）
	Err json.RawMessage
}

// Failed 交易是否失败
func (t *TransactionLogs) Failed() bool {
	return len(t.Err) > 0 && string(t.Err) != "null"
}

// LogsNotification logsSubscribe 通知
type LogsNotification struct {
	Slot      uint64
	Signature string
	Logs      []string
	Err       json.RawMessage
}

// ---- wire 结构 ----

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type rpcAccount struct {
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
}

func (a *rpcAccount) decode(address types.PublicKey, slot uint64) (*AccountInfo, error) {
	owner, err := types.PublicKeyFromBase58(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid account owner: %w", err)
	}
	if len(a.Data) < 1 {
		return nil, fmt.Errorf("missing account data")
	}
	if len(a.Data) > 1 && a.Data[1] != "base64" {
		return nil, fmt.Errorf("unexpected account data encoding: %s", a.Data[1])
	}
	data, err := base64.StdEncoding.DecodeString(a.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return &AccountInfo{
		Address:    address,
		Owner:      owner,
		Lamports:   a.Lamports,
		Data:       data,
		Executable: a.Executable,
		Slot:       slot,
	}, nil
}

type rpcAccountInfoResult struct {
	Context rpcContext  `json:"context"`
	Value   *rpcAccount `json:"value"`
}

type rpcMultipleAccountsResult struct {
	Context rpcContext    `json:"context"`
	Value   []*rpcAccount `json:"value"`
}

type rpcKeyedAccount struct {
	Pubkey  string     `json:"pubkey"`
	Account rpcAccount `json:"account"`
}

type rpcTransactionResult struct {
	Slot        uint64 `json:"slot"`
	BlockTime   *int64 `json:"blockTime"`
	Transaction struct {
		Signatures []string `json:"signatures"`
	} `json:"transaction"`
	Meta *struct {
		Err         json.RawMessage `json:"err"`
		LogMessages []string        `json:"logMessages"`
	} `json:"meta"`
}

type rpcLogsNotification struct {
	Context rpcContext `json:"context"`
	Value   struct {
		Signature string          `json:"signature"`
		Err       json.RawMessage `json:"err"`
		Logs      []string        `json:"logs"`
	} `json:"value"`
}
