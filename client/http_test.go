package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/types"
)

func TestHTTPClient_ErrorHandling(t *testing.T) {
	tests := []struct {
		name           string
		responseBody   string
		statusCode     int
		checkErrorFunc func(*testing.T, json.RawMessage, error)
	}{
		{
			name:         "result passthrough",
			responseBody: `{"jsonrpc":"2.0","result":{"slot":42},"id":1}`,
			statusCode:   200,
			checkErrorFunc: func(t *testing.T, result json.RawMessage, err error) {
				require.NoError(t, err)
				assert.JSONEq(t, `{"slot":42}`, string(result))
			},
		},
		{
			name: "simulation failure carries program error",
			responseBody: `{
				"jsonrpc": "2.0",
				"error": {
					"code": -32002,
					"message": "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x177d",
					"data": {
						"err": {"InstructionError": [0, {"Custom": 6013}]},
						"logs": ["Program X84XHMKT7xvjgVUXFNQLZLSdCEEZu2wAPrAeP4M9Hhi failed: custom program error: 0x177d"]
					}
				},
				"id": 1
			}`,
			statusCode: 200,
			checkErrorFunc: func(t *testing.T, _ json.RawMessage, err error) {
				ce, ok := IsClientError(err)
				require.True(t, ok)
				assert.Equal(t, ErrCodeRPCError, ce.Code)
				assert.Equal(t, -32002, ce.RPCCode)

				pe, perr := types.ParseProgramError(err)
				require.NoError(t, perr)
				assert.Equal(t, types.KindInvalidFeedbackAuth, pe.Kind)
			},
		},
		{
			name:         "rpc error without data",
			responseBody: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"Method not found"},"id":1}`,
			statusCode:   200,
			checkErrorFunc: func(t *testing.T, _ json.RawMessage, err error) {
				ce, ok := IsClientError(err)
				require.True(t, ok)
				assert.Equal(t, ErrCodeRPCError, ce.Code)
				_, hasCode := ce.CustomErrorCode()
				assert.False(t, hasCode)

				_, perr := types.ParseProgramError(err)
				assert.ErrorIs(t, perr, types.ErrNotProgramError)
			},
		},
		{
			name:         "non-200 status",
			responseBody: `rate limited`,
			statusCode:   429,
			checkErrorFunc: func(t *testing.T, _ json.RawMessage, err error) {
				ce, ok := IsClientError(err)
				require.True(t, ok)
				assert.Equal(t, ErrCodeHTTPStatus, ce.Code)
				assert.Contains(t, ce.Message, "429")
			},
		},
		{
			name:         "invalid json",
			responseBody: `not json`,
			statusCode:   200,
			checkErrorFunc: func(t *testing.T, _ json.RawMessage, err error) {
				ce, ok := IsClientError(err)
				require.True(t, ok)
				assert.Equal(t, ErrCodeInvalidResponse, ce.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			c, err := NewHTTPClient(&Config{Endpoint: server.URL, Timeout: 5})
			require.NoError(t, err)

			result, err := c.Call(context.Background(), "getSlot", nil)
			tt.checkErrorFunc(t, result, err)
		})
	}
}

func TestHTTPClient_RequestShape(t *testing.T) {
	var seen []jsonRPCRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req jsonRPCRequest
		require.NoError(t, json.Unmarshal(body, &req))
		seen = append(seen, req)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":null,"id":1}`))
	}))
	defer server.Close()

	c, err := NewHTTPClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "getHealth", nil)
	require.NoError(t, err)
	_, err = c.Call(context.Background(), "getHealth", nil)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "2.0", seen[0].JSONRPC)
	assert.Equal(t, "getHealth", seen[0].Method)
	assert.NotEqual(t, seen[0].ID, seen[1].ID)
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, err := NewHTTPClient(&Config{Endpoint: server.URL, Timeout: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Call(ctx, "getSlot", nil)
	ce, ok := IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeTimeout, ce.Code)
}

func TestHTTPClient_SubscribeNotSupported(t *testing.T) {
	c, err := NewHTTPClient(&Config{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.Subscribe(context.Background(), SubscribeRequest{Method: "logsSubscribe"})
	ce, ok := IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotSupported, ce.Code)
}

func TestNewClient_Protocol(t *testing.T) {
	_, err := NewClient(&Config{Endpoint: "http://127.0.0.1:1", Protocol: "grpc"})
	assert.Error(t, err)

	_, err = NewHTTPClient(&Config{})
	assert.Error(t, err)
}
