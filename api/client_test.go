package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x84-ai/client-sdk-go/client"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(&Config{BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return c
}

func TestNewClient_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		want    string
		wantErr bool
	}{
		{"nil config", nil, MainnetBaseURL, false},
		{"mainnet", &Config{Network: NetworkMainnet}, MainnetBaseURL, false},
		{"devnet", &Config{Network: NetworkDevnet}, DevnetBaseURL, false},
		{"override wins", &Config{Network: NetworkDevnet, BaseURL: "http://localhost:8080/"}, "http://localhost:8080", false},
		{"unknown network", &Config{Network: "testnet"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestClient_ListAgents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/agents", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "abc", q.Get("cursor"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "true", q.Get("active"))
		assert.False(t, q.Has("q"))
		assert.False(t, q.Has("owner"))

		_, err := uuid.Parse(r.Header.Get("X-Request-Id"))
		assert.NoError(t, err)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		_, _ = io.WriteString(w, `{"data":[{"nftMint":"mint1","owner":"o","active":true,"reputation":{"verifiedCount":2,"verifiedAvgScore":90.5}}],"cursor":{"next":"def","hasMore":true}}`)
	})

	active := true
	page, err := c.ListAgents(context.Background(), &ListAgentsParams{Cursor: "abc", Limit: 10, Active: &active})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "mint1", page.Data[0].NftMint)
	assert.Equal(t, 2, page.Data[0].Reputation.VerifiedCount)
	assert.InDelta(t, 90.5, page.Data[0].Reputation.VerifiedAvgScore, 0.001)
	require.NotNil(t, page.Cursor.Next)
	assert.Equal(t, "def", *page.Cursor.Next)
	assert.True(t, page.Cursor.HasMore)
}

func TestClient_AgentEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/agents/mint1":
			_, _ = io.WriteString(w, `{"nftMint":"mint1","address":"pda","delegationCount":3,"services":[{"serviceType":"mcp","active":true}]}`)
		case "/agents/mint1/services":
			assert.Equal(t, "a2a", r.URL.Query().Get("serviceType"))
			_, _ = io.WriteString(w, `[{"serviceType":"a2a","endpoint":"https://a2a","active":true}]`)
		case "/agents/mint1/feedback":
			assert.Equal(t, "false", r.URL.Query().Get("verified"))
			_, _ = io.WriteString(w, `[{"reviewer":"r","score":80,"hasPaymentProof":false}]`)
		case "/categories":
			_, _ = io.WriteString(w, `[{"name":"defi","hash":"ab"}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	detail, err := c.GetAgent(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, "mint1", detail.NftMint)
	assert.Equal(t, uint64(3), detail.DelegationCount)
	require.Len(t, detail.Services, 1)

	svcs, err := c.GetAgentServices(ctx, "mint1", &GetAgentServicesParams{ServiceType: "a2a"})
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, "https://a2a", svcs[0].Endpoint)

	verified := false
	feedback, err := c.GetAgentFeedback(ctx, "mint1", &GetAgentFeedbackParams{Verified: &verified})
	require.NoError(t, err)
	require.Len(t, feedback, 1)
	assert.Equal(t, 80, feedback[0].Score)

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{Name: "defi", Hash: "ab"}}, cats)
}

func TestClient_RegisterAgent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/agents/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body RegisterAgentParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "weather-bot", body.Name)
		assert.Equal(t, []string{"defi"}, body.Tags)

		_, _ = io.WriteString(w, `{"transaction":"AAAA","assetPublicKey":"asset","agentPda":"pda","blockhash":"bh","lastValidBlockHeight":99}`)
	})

	resp, err := c.RegisterAgent(context.Background(), &RegisterAgentParams{
		Name:         "weather-bot",
		OwnerAddress: "owner",
		MetadataURI:  "ipfs://meta",
		Tags:         []string{"defi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "asset", resp.AssetPublicKey)
	assert.Equal(t, uint64(99), resp.LastValidBlockHeight)

	_, err = c.RegisterAgent(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantBody interface{}
	}{
		{
			name:     "json body",
			status:   http.StatusBadRequest,
			body:     `{"message":"invalid owner"}`,
			wantBody: map[string]interface{}{"message": "invalid owner"},
		},
		{
			name:     "text body",
			status:   http.StatusBadGateway,
			body:     "upstream unavailable",
			wantBody: "upstream unavailable",
		},
		{
			name:     "empty body",
			status:   http.StatusNotFound,
			wantBody: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetAgent(context.Background(), "mint1")
			require.Error(t, err)
			apiErr, ok := IsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, http.StatusText(tt.status), apiErr.StatusText)
			assert.Equal(t, tt.wantBody, apiErr.Body)
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"nftMint":`)
	})
	_, err := c.GetAgent(context.Background(), "mint1")
	ce, ok := client.IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, client.ErrCodeInvalidResponse, ce.Code)
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListCategories(ctx)
	ce, ok := client.IsClientError(err)
	require.True(t, ok)
	assert.Equal(t, client.ErrCodeTimeout, ce.Code)
}
