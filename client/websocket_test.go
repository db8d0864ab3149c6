package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/types"
)

type wsRequest struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// newLogsServer 模拟 logsSubscribe：确认订阅后推送 notifications，并把退订请求写入 unsubscribed
func newLogsServer(t *testing.T, subID uint64, notifications []map[string]interface{}, unsubscribed chan<- uint64) *httptest.Server {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			switch req.Method {
			case "getSlot":
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 99})
			case "logsSubscribe":
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": subID})
				for _, n := range notifications {
					_ = conn.WriteJSON(map[string]interface{}{
						"jsonrpc": "2.0",
						"method":  "logsNotification",
						"params":  map[string]interface{}{"subscription": subID, "result": n},
					})
				}
			case "logsUnsubscribe":
				if len(req.Params) == 1 {
					if id, ok := req.Params[0].(float64); ok {
						unsubscribed <- uint64(id)
					}
				}
				_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": true})
			default:
				_ = conn.WriteJSON(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"error":   map[string]interface{}{"code": -32601, "message": "Method not found"},
				})
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func logsNotification(slot uint64, sig string, logs []string, err interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": slot},
		"value":   map[string]interface{}{"signature": sig, "err": err, "logs": logs},
	}
}

func TestWebSocketClient_Call(t *testing.T) {
	server := newLogsServer(t, 1, nil, make(chan uint64, 1))

	c, err := NewWebSocketClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)
	defer c.Close()

	result, err := c.Call(context.Background(), "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, "99", string(result))

	_, err = c.Call(context.Background(), "unknownMethod", nil)
	ce, ok := IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, -32601, ce.RPCCode)
}

func TestRPC_SubscribeLogs(t *testing.T) {
	unsubscribed := make(chan uint64, 1)
	server := newLogsServer(t, 17, []map[string]interface{}{
		logsNotification(100, "sig-1", []string{"Program log: a"}, nil),
		logsNotification(101, "sig-2", []string{"Program log: b"}, map[string]interface{}{"InstructionError": []interface{}{0, "InvalidAccountData"}}),
	}, unsubscribed)

	rpc, err := NewRPC(&Config{Endpoint: server.URL, Protocol: ProtocolWebSocket, Timeout: 5})
	require.NoError(t, err)
	defer rpc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := rpc.SubscribeLogs(ctx, types.ProgramID)
	require.NoError(t, err)

	var got []LogsNotification
	timeout := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case n, ok := <-ch:
			require.True(t, ok)
			got = append(got, n)
		case <-timeout:
			t.Fatal("timed out waiting for notifications")
		}
	}

	assert.Equal(t, "sig-1", got[0].Signature)
	assert.Equal(t, uint64(100), got[0].Slot)
	assert.Equal(t, []string{"Program log: a"}, got[0].Logs)
	assert.Equal(t, "sig-2", got[1].Signature)
	assert.NotEqual(t, "null", string(got[1].Err))

	cancel()
	select {
	case id := <-unsubscribed:
		assert.Equal(t, uint64(17), id)
	case <-time.After(3 * time.Second):
		t.Fatal("expected logsUnsubscribe")
	}

	// 退订后通道关闭
	for range ch {
	}
}

// 订阅者不读取时，通知溢出被丢弃，同一连接上的请求不受影响
func TestWebSocketClient_SlowSubscriber(t *testing.T) {
	notifications := make([]map[string]interface{}, wsNotifyBuffer+20)
	for i := range notifications {
		notifications[i] = logsNotification(uint64(i), "sig", nil, nil)
	}
	server := newLogsServer(t, 5, notifications, make(chan uint64, 1))

	c, err := NewWebSocketClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := c.Subscribe(ctx, SubscribeRequest{Method: "logsSubscribe", UnsubscribeMethod: "logsUnsubscribe"})
	require.NoError(t, err)

	callCtx, callCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer callCancel()
	result, err := c.Call(callCtx, "getSlot", nil)
	require.NoError(t, err)
	assert.Equal(t, "99", string(result))

	// 缓冲区中保留最早的通知
	first := <-ch
	assert.Contains(t, string(first), `"slot":0`)
	assert.Len(t, ch, wsNotifyBuffer-1)
}

func TestWebSocketClient_Closed(t *testing.T) {
	server := newLogsServer(t, 1, nil, make(chan uint64, 1))

	c, err := NewWebSocketClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Call(context.Background(), "getSlot", nil)
	ce, ok := IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeClosed, ce.Code)
}

func TestToWebSocketURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8899", "ws://localhost:8899"},
		{"https://api.devnet.solana.com", "wss://api.devnet.solana.com"},
		{"wss://example.com", "wss://example.com"},
		{"localhost:8900", "ws://localhost:8900"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toWebSocketURL(tt.in))
	}
}
