package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	domain "github.com/example/shop-monolith/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(testDeps{})

	tests := []struct {
		name        string
		authHeader  string
		wantStatus  int
		wantMessage string
	}{
		{"missing header", "", 401, "Missing authorization token"},
		{"not a bearer token", "Basic abc", 401, "Missing authorization token"},
		{"empty bearer", "Bearer ", 401, "Missing authorization token"},
		{"malformed token", "Bearer garbage", 401, "Invalid authorization token"},
		{"expired token", "Bearer expired-token", 401, "Token has expired"},
		{"revoked token", "Bearer revoked-token", 401, "Token has been revoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/user", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, decodeBody(t, resp.Body)["message"])
		})
	}
}

func TestAuthMiddleware_ValidatorFailureIsInternal(t *testing.T) {
	app := newTestApp(testDeps{auth: &mockAuthPort{
		validateTokenFunc: func(_ context.Context, _ string) (*domain.Claims, error) {
			return nil, errors.New("nats: no responders available for request")
		},
	}})

	req := httptest.NewRequest("GET", "/user", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Internal server error", decodeBody(t, resp.Body)["message"])
}

func TestRequireRole(t *testing.T) {
	app := newTestApp(testDeps{})

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"user cannot create products", "POST", "/product/create", "user-token", 403},
		{"user cannot delete products", "DELETE", "/product/p1", "user-token", 403},
		{"user cannot change status", "PUT", "/product/p1", "user-token", 403},
		{"admin cannot use a cart", "GET", "/cart", "admin-token", 403},
		{"admin cannot check out", "POST", "/cart/checkout", "admin-token", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "Unauthorized access", decodeBody(t, resp.Body)["message"])
		})
	}
}
