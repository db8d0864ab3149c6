package api

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Problem(t *testing.T) {
	var gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"about:blank","title":"Bad Request","detail":"invalid owner","status":400,"field":"owner"}`)
	})

	_, err := c.GetAgent(context.Background(), "mint1")
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Equal(t, gotRequestID, apiErr.RequestID)

	p, ok := apiErr.Problem()
	require.True(t, ok)
	assert.Equal(t, "about:blank", p.Type)
	assert.Equal(t, "Bad Request", p.Title)
	assert.Equal(t, "invalid owner", p.Detail)
	require.NotNil(t, p.Status)
	assert.Equal(t, 400, *p.Status)
	assert.Equal(t, "owner", p.Details["field"])
	assert.Equal(t, "invalid owner", p.Summary())
}

func TestError_ProblemFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		err         *Error
		wantOK      bool
		wantSummary string
		wantStatus  int
	}{
		{
			name:        "message field",
			err:         newError(http.StatusConflict, "Conflict", "", []byte(`{"message":"already registered","error":"ignored"}`)),
			wantOK:      true,
			wantSummary: "already registered",
			wantStatus:  http.StatusConflict,
		},
		{
			name:        "error field",
			err:         newError(http.StatusUnauthorized, "Unauthorized", "", []byte(`{"error":"missing signature"}`)),
			wantOK:      true,
			wantSummary: "missing signature",
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "title only",
			err:         newError(http.StatusInternalServerError, "Internal Server Error", "", []byte(`{"title":"Oops"}`)),
			wantOK:      true,
			wantSummary: "Oops",
			wantStatus:  http.StatusInternalServerError,
		},
		{
			name: "text body",
			err:  newError(http.StatusBadGateway, "Bad Gateway", "", []byte("upstream unavailable")),
		},
		{
			name: "unrecognized fields",
			err:  newError(http.StatusBadRequest, "Bad Request", "", []byte(`{"code":17}`)),
		},
		{
			name: "empty body",
			err:  newError(http.StatusNotFound, "Not Found", "", nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tt.err.Problem()
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, p)
				return
			}
			assert.Equal(t, tt.wantSummary, p.Summary())
			require.NotNil(t, p.Status)
			assert.Equal(t, tt.wantStatus, *p.Status)
		})
	}
}
