package account

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

// fakeLedger 内存账本，实现账户读取用到的 RPC 方法
type fakeLedger struct {
	client.RPC
	mu         sync.Mutex
	accounts   map[types.PublicKey]*client.AccountInfo
	multiCalls int
	filters    [][]client.ProgramAccountFilter
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{accounts: make(map[types.PublicKey]*client.AccountInfo)}
}

func (f *fakeLedger) put(addr, owner types.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[addr] = &client.AccountInfo{Address: addr, Owner: owner, Data: data}
}

func (f *fakeLedger) GetAccountInfo(_ context.Context, address types.PublicKey) (*client.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[address], nil
}

func (f *fakeLedger) GetMultipleAccounts(_ context.Context, addresses []types.PublicKey) ([]*client.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.multiCalls++
	out := make([]*client.AccountInfo, len(addresses))
	for i, a := range addresses {
		out[i] = f.accounts[a]
	}
	return out, nil
}

func (f *fakeLedger) GetProgramAccounts(_ context.Context, programID types.PublicKey, filters ...client.ProgramAccountFilter) ([]client.KeyedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filters)
	var out []client.KeyedAccount
	for addr, info := range f.accounts {
		if info.Owner != programID || !matches(info.Data, filters) {
			continue
		}
		out = append(out, client.KeyedAccount{Pubkey: addr, Account: info})
	}
	return out, nil
}

func matches(data []byte, filters []client.ProgramAccountFilter) bool {
	for _, f := range filters {
		if f.Memcmp == nil {
			continue
		}
		end := int(f.Memcmp.Offset) + len(f.Memcmp.Bytes)
		if end > len(data) || !bytes.Equal(data[f.Memcmp.Offset:end], f.Memcmp.Bytes) {
			return false
		}
	}
	return true
}

func TestService_FetchAgentIdentity(t *testing.T) {
	cfg := services.Devnet()
	ledger := newFakeLedger()
	svc := NewService(ledger, cfg)
	ctx := context.Background()

	mint := testKey(3)
	agentPDA, err := cfg.Deriver().Agent(mint)
	require.NoError(t, err)

	_, err = svc.FetchAgentIdentity(ctx, mint)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	agent, err := svc.FetchAgentIdentityOrNil(ctx, mint)
	require.NoError(t, err)
	assert.Nil(t, agent)

	// 属于其他程序的账户被拒绝
	ledger.put(agentPDA.Key, types.SystemProgramID, encodeAgent(t, mint, testKey(4), 1))
	_, err = svc.FetchAgentIdentity(ctx, mint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owned by")

	ledger.put(agentPDA.Key, cfg.Program(), encodeAgent(t, mint, testKey(4), 1))
	agent, err = svc.FetchAgentIdentity(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, testKey(4), agent.Owner)
}

func TestService_FetchManyAgents(t *testing.T) {
	cfg := services.Devnet()
	ledger := newFakeLedger()
	svc := NewService(ledger, cfg)

	mints := make([]types.PublicKey, 0, client.MaxMultipleAccounts+10)
	for i := 0; i < client.MaxMultipleAccounts+10; i++ {
		var mint types.PublicKey
		mint[0], mint[1] = byte(i), byte(i>>8)
		mint[31] = 1
		mints = append(mints, mint)
	}
	// 只登记偶数位置的代理
	for i, mint := range mints {
		if i%2 != 0 {
			continue
		}
		addr, err := cfg.Deriver().Agent(mint)
		require.NoError(t, err)
		ledger.put(addr.Key, cfg.Program(), encodeAgent(t, mint, testKey(4), uint64(i)))
	}

	got, err := svc.FetchManyAgents(context.Background(), mints)
	require.NoError(t, err)
	require.Len(t, got, len(mints))
	assert.Equal(t, 2, ledger.multiCalls)
	for i, agent := range got {
		if i%2 != 0 {
			assert.Nil(t, agent, "index %d", i)
			continue
		}
		require.NotNil(t, agent, "index %d", i)
		assert.Equal(t, mints[i], agent.NftMint)
		assert.Equal(t, uint64(i), agent.DelegationCount)
	}

	none, err := svc.FetchManyAgents(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestService_Lists(t *testing.T) {
	cfg := services.Devnet()
	ledger := newFakeLedger()
	svc := NewService(ledger, cfg)
	ctx := context.Background()

	ledger.put(testKey(50), cfg.Program(), encodeAgent(t, testKey(3), testKey(4), 0))
	ledger.put(testKey(51), cfg.Program(), encodeAgent(t, testKey(5), testKey(6), 0))
	// 判别码正确但布局损坏
	broken := encodeAgent(t, testKey(7), testKey(4), 0)
	ledger.put(testKey(52), cfg.Program(), broken[:60])
	ledger.put(testKey(53), cfg.Program(), encodeDelegation(t, nil, 0, nil))

	all, err := svc.AllAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owned, err := svc.AgentsByOwner(ctx, testKey(4))
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, testKey(50), owned[0].Address)
	assert.Equal(t, testKey(3), owned[0].Account.NftMint)

	last := ledger.filters[len(ledger.filters)-1]
	require.Len(t, last, 2)
	assert.Equal(t, uint64(0), last[0].Memcmp.Offset)
	assert.Equal(t, DiscAgentIdentity[:], last[0].Memcmp.Bytes)
	assert.Equal(t, uint64(OffsetAgentOwner), last[1].Memcmp.Offset)

	byDelegate, err := svc.DelegationsByDelegate(ctx, testKey(2))
	require.NoError(t, err)
	require.Len(t, byDelegate, 1)
	assert.Equal(t, testKey(53), byDelegate[0].Address)

	byAgent, err := svc.DelegationsByAgent(ctx, testKey(3))
	require.NoError(t, err)
	assert.Len(t, byAgent, 1)

	none, err := svc.DelegationsByAgent(ctx, testKey(99))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_FetchDelegationChain(t *testing.T) {
	cfg := services.Devnet()
	ledger := newFakeLedger()
	svc := NewService(ledger, cfg)
	ctx := context.Background()

	rootAddr, midAddr := testKey(60), testKey(61)
	ledger.put(rootAddr, cfg.Program(), encodeDelegation(t, nil, 0, nil))
	ledger.put(midAddr, cfg.Program(), encodeDelegation(t, &rootAddr, 1, nil))

	leaf, err := DecodeDelegation(encodeDelegation(t, &midAddr, 2, nil))
	require.NoError(t, err)

	chain, err := svc.FetchDelegationChain(ctx, leaf)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, uint8(1), chain[0].Depth)
	assert.Equal(t, uint8(0), chain[1].Depth)

	root, err := svc.FetchDelegationByAddress(ctx, rootAddr)
	require.NoError(t, err)
	empty, err := svc.FetchDelegationChain(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// 父委托缺失
	missing := testKey(70)
	orphan, err := DecodeDelegation(encodeDelegation(t, &missing, 1, nil))
	require.NoError(t, err)
	_, err = svc.FetchDelegationChain(ctx, orphan)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
