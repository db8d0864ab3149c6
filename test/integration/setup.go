package integration

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

const (
	// DefaultTimeout 默认超时时间（秒）
	DefaultTimeout = 5
	// DefaultSlot 内存账本返回的 slot
	DefaultSlot uint64 = 310_000_000
)

// ledgerTx 已确认交易
type ledgerTx struct {
	slot      uint64
	blockTime int64
	logs      []string
	failed    bool
}

// Ledger 内存账本
//
// **功能**：
// - 以 JSON-RPC 形式提供 getAccountInfo、getMultipleAccounts、getTransaction
// - 记录各方法的调用次数，便于断言批量读取
type Ledger struct {
	mu       sync.Mutex
	accounts map[types.PublicKey]client.AccountInfo
	txs      map[string]ledgerTx
	calls    map[string]int
}

func newLedger() *Ledger {
	return &Ledger{
		accounts: make(map[types.PublicKey]client.AccountInfo),
		txs:      make(map[string]ledgerTx),
		calls:    make(map[string]int),
	}
}

// SetAccount 写入（或覆盖）账户
func (l *Ledger) SetAccount(address, owner types.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = client.AccountInfo{Address: address, Owner: owner, Lamports: 1_000_000, Data: data}
}

// SetTransaction 写入已确认交易的日志
func (l *Ledger) SetTransaction(signature string, logs []string, failed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs[signature] = ledgerTx{slot: DefaultSlot, blockTime: 1_700_000_000, logs: logs, failed: failed}
}

// Calls 方法被调用的次数
func (l *Ledger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[method]
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     uint64            `json:"id"`
}

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type rpcAccount struct {
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
}

func (l *Ledger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	l.calls[req.Method]++
	result, rpcErr := l.handle(req)
	l.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handle 调用方需持有锁
func (l *Ledger) handle(req rpcRequest) (interface{}, map[string]interface{}) {
	invalid := map[string]interface{}{"code": -32602, "message": "invalid params"}
	switch req.Method {
	case "getAccountInfo":
		var address string
		if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &address) != nil {
			return nil, invalid
		}
		return map[string]interface{}{"context": rpcContext{Slot: DefaultSlot}, "value": l.lookup(address)}, nil

	case "getMultipleAccounts":
		var addresses []string
		if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &addresses) != nil {
			return nil, invalid
		}
		values := make([]*rpcAccount, len(addresses))
		for i, a := range addresses {
			values[i] = l.lookup(a)
		}
		return map[string]interface{}{"context": rpcContext{Slot: DefaultSlot}, "value": values}, nil

	case "getTransaction":
		var signature string
		if len(req.Params) == 0 || json.Unmarshal(req.Params[0], &signature) != nil {
			return nil, invalid
		}
		tx, ok := l.txs[signature]
		if !ok {
			return nil, nil
		}
		var txErr interface{}
		if tx.failed {
			txErr = map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6001}}}
		}
		return map[string]interface{}{
			"slot":        tx.slot,
			"blockTime":   tx.blockTime,
			"transaction": map[string]interface{}{"signatures": []string{signature}},
			"meta":        map[string]interface{}{"err": txErr, "logMessages": tx.logs},
		}, nil

	default:
		return nil, map[string]interface{}{"code": -32601, "message": "Method not found"}
	}
}

func (l *Ledger) lookup(address string) *rpcAccount {
	pk, err := types.PublicKeyFromBase58(address)
	if err != nil {
		return nil
	}
	acc, ok := l.accounts[pk]
	if !ok {
		return nil
	}
	return &rpcAccount{
		Data:     []string{base64.StdEncoding.EncodeToString(acc.Data), "base64"},
		Lamports: acc.Lamports,
		Owner:    acc.Owner.String(),
	}
}

// TestEnv 集成测试环境
type TestEnv struct {
	Ledger *Ledger
	RPC    client.RPC
	Config services.Config
	Logger client.Logger
}

// SetupTestEnv 启动内存账本并创建连接到它的 RPC 客户端
//
// **功能**：
// - 部署配置基于 devnet，RPC 端点指向本地 httptest 服务
// - 日志输出到 t.Log
// - 测试结束时自动关闭服务与客户端
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	ledger := newLedger()
	server := httptest.NewServer(ledger)
	t.Cleanup(server.Close)

	cfg := services.Devnet()
	cfg.RPCEndpoint = server.URL

	logger := client.NewZapLogger(zaptest.NewLogger(t))
	clientCfg := cfg.ClientConfig()
	clientCfg.Timeout = DefaultTimeout
	clientCfg.Logger = logger

	rpc, err := client.NewRPC(clientCfg)
	require.NoError(t, err, "创建 RPC 客户端失败")
	t.Cleanup(func() {
		if err := rpc.Close(); err != nil {
			t.Logf("关闭客户端时出现警告: %v", err)
		}
	})

	return &TestEnv{Ledger: ledger, RPC: rpc, Config: cfg, Logger: logger}
}
