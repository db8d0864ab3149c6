package delegation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/services/account"
	"github.com/x84-ai/client-sdk-go/types"
)

// fakeAccounts 只实现委托服务用到的读取方法
type fakeAccounts struct {
	account.Service
	agents      map[types.PublicKey]*account.AgentIdentity
	delegations map[types.PublicKey]*account.Delegation
	chainCalls  int
}

func (f *fakeAccounts) FetchAgentIdentity(_ context.Context, nftMint types.PublicKey) (*account.AgentIdentity, error) {
	a, ok := f.agents[nftMint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", account.ErrAccountNotFound, nftMint)
	}
	return a, nil
}

func (f *fakeAccounts) FetchDelegationByAddress(_ context.Context, address types.PublicKey) (*account.Delegation, error) {
	d, ok := f.delegations[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", account.ErrAccountNotFound, address)
	}
	return d, nil
}

func (f *fakeAccounts) FetchDelegationChain(ctx context.Context, d *account.Delegation) ([]*account.Delegation, error) {
	f.chainCalls++
	var chain []*account.Delegation
	for cur := d; cur.ParentDelegation != nil; {
		p, err := f.FetchDelegationByAddress(ctx, *cur.ParentDelegation)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
		cur = p
	}
	return chain, nil
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		agents:      make(map[types.PublicKey]*account.AgentIdentity),
		delegations: make(map[types.PublicKey]*account.Delegation),
	}
}

func TestService_NextCreateDelegation(t *testing.T) {
	cfg := services.Devnet()
	mint := testKey(3)
	parentAddr := testKey(40)

	accounts := newFakeAccounts()
	accounts.agents[mint] = &account.AgentIdentity{NftMint: mint, DelegationCount: 12}
	accounts.delegations[parentAddr] = &account.Delegation{
		NftMint:       mint,
		CanTransact:   true,
		CanRedelegate: true,
		MaxSpendTotal: 1000,
		Active:        true,
	}
	svc := NewService(cfg, accounts, nil)

	t.Run("root uses delegation count", func(t *testing.T) {
		res, err := svc.NextCreateDelegation(context.Background(), &NextCreateRequest{
			Delegator: testKey(1),
			Delegate:  testKey(2),
			NftMint:   mint,
			Config:    NewConfig().WithTransact(),
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(12), res.DelegationID)

		want, err := cfg.Deriver().Delegation(testKey(1), testKey(2), 12)
		require.NoError(t, err)
		assert.Equal(t, want.Key, res.DelegationPDA)
	})

	t.Run("child within parent", func(t *testing.T) {
		res, err := svc.NextCreateDelegation(context.Background(), &NextCreateRequest{
			Delegator:        testKey(2),
			Delegate:         testKey(5),
			NftMint:          mint,
			Config:           NewConfig().WithTransact().WithSpendLimit(0, 500),
			ParentDelegation: &parentAddr,
		})
		require.NoError(t, err)
		assert.Equal(t, uint8(1), res.Depth)
	})

	t.Run("child above parent", func(t *testing.T) {
		_, err := svc.NextCreateDelegation(context.Background(), &NextCreateRequest{
			Delegator:        testKey(2),
			Delegate:         testKey(5),
			NftMint:          mint,
			Config:           NewConfig().WithTransact().WithSpendLimit(0, 2000),
			ParentDelegation: &parentAddr,
		})
		assert.ErrorIs(t, err, ErrSpendExceedsParent)
	})

	t.Run("unknown agent", func(t *testing.T) {
		_, err := svc.NextCreateDelegation(context.Background(), &NextCreateRequest{NftMint: testKey(99)})
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("nil request", func(t *testing.T) {
		_, err := svc.NextCreateDelegation(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestService_CheckRedeemable(t *testing.T) {
	cfg := services.Devnet()
	mint := testKey(3)
	rootAddr, childAddr := testKey(40), testKey(41)

	accounts := newFakeAccounts()
	accounts.agents[mint] = &account.AgentIdentity{NftMint: mint, OwnerVersion: 1}
	accounts.delegations[rootAddr] = &account.Delegation{NftMint: mint, OwnerVersion: 1, Active: true}
	accounts.delegations[childAddr] = &account.Delegation{
		NftMint:          mint,
		OwnerVersion:     1,
		CanTransact:      true,
		Active:           true,
		ParentDelegation: &rootAddr,
		Depth:            1,
	}
	svc := NewService(cfg, accounts, nil)
	r := Redemption{Now: 10, Amount: 5, Required: Permissions{Transact: true}}

	require.NoError(t, svc.CheckRedeemable(context.Background(), childAddr, r))
	assert.Equal(t, 1, accounts.chainCalls)

	// 父委托被撤销
	accounts.delegations[rootAddr].Active = false
	err := svc.CheckRedeemable(context.Background(), childAddr, r)
	assert.ErrorIs(t, err, types.ErrorFromKind(types.KindDelegationInactive))

	// 调用方提供祖先时不再读取
	r.Ancestors = []*account.Delegation{}
	require.NoError(t, svc.CheckRedeemable(context.Background(), childAddr, r))
	assert.Equal(t, 2, accounts.chainCalls)

	// 所有者变更
	accounts.agents[mint].OwnerVersion = 2
	err = svc.CheckRedeemable(context.Background(), childAddr, r)
	assert.ErrorIs(t, err, types.ErrorFromKind(types.KindDelegationOwnerVersionMismatch))

	err = svc.CheckRedeemable(context.Background(), testKey(77), r)
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}
