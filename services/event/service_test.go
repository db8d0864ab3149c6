package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/client"
	"github.com/x84-ai/client-sdk-go/services"
	"github.com/x84-ai/client-sdk-go/types"
)

// fakeRPC 只实现事件服务用到的方法
type fakeRPC struct {
	client.RPC
	txs           map[string]*client.TransactionLogs
	notifications chan client.LogsNotification
	mentions      types.PublicKey
}

func (f *fakeRPC) GetTransactionLogs(_ context.Context, signature string) (*client.TransactionLogs, error) {
	return f.txs[signature], nil
}

func (f *fakeRPC) SubscribeLogs(_ context.Context, mentions types.PublicKey) (<-chan client.LogsNotification, error) {
	f.mentions = mentions
	return f.notifications, nil
}

func TestService_FetchTransactionEvents(t *testing.T) {
	blockTime := int64(1700000000)
	rpc := &fakeRPC{txs: map[string]*client.TransactionLogs{
		"ok": {
			Signature:   "ok",
			Slot:        42,
			BlockTime:   &blockTime,
			LogMessages: invoked(types.ProgramID, 1, "Program log: x", EncodeLogLine(agentRegisteredData(t))),
		},
		"failed": {
			Signature:   "failed",
			LogMessages: []string{"Program log: custom program error: 0x178d"},
			Err:         json.RawMessage(`{"InstructionError":[0,{"Custom":6029}]}`),
		},
	}}
	svc := NewService(rpc, services.Devnet(), nil)

	got, err := svc.FetchTransactionEvents(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Slot)
	assert.False(t, got.Failed)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "agentRegistered", got.Events[0].Name())

	failed, err := svc.FetchTransactionEvents(context.Background(), "failed")
	require.NoError(t, err)
	assert.True(t, failed.Failed)
	assert.Empty(t, failed.Events)
	pe, err := types.ParseProgramError(rpc.txs["failed"].Err)
	require.NoError(t, err)
	assert.Equal(t, types.KindPaymentReplay, pe.Kind)

	missing, err := svc.FetchTransactionEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_Subscribe(t *testing.T) {
	rpc := &fakeRPC{notifications: make(chan client.LogsNotification, 3)}
	cfg := services.Devnet()
	svc := NewService(rpc, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := svc.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Program(), rpc.mentions)

	rpc.notifications <- client.LogsNotification{
		Slot:      1,
		Signature: "failed",
		Logs:      invoked(types.ProgramID, 1, EncodeLogLine(agentRegisteredData(t))),
		Err:       json.RawMessage(`{"InstructionError":[0,{"Custom":6012}]}`),
	}
	rpc.notifications <- client.LogsNotification{
		Slot:      2,
		Signature: "sig-2",
		Logs:      invoked(types.ProgramID, 1, EncodeLogLine(delegationCreatedData(t)), EncodeLogLine(paymentSettledData(t))),
		Err:       json.RawMessage(`null`),
	}
	close(rpc.notifications)

	var got []*EventInfo
	timeout := time.After(2 * time.Second)
	for done := false; !done; {
		select {
		case info, ok := <-ch:
			if !ok {
				done = true
				break
			}
			got = append(got, info)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, "delegationCreated", got[0].Event.Name())
	assert.Equal(t, "paymentSettled", got[1].Event.Name())
	assert.Equal(t, "sig-2", got[1].Signature)
	assert.Equal(t, uint64(2), got[1].Slot)
}
