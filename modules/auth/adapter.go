package auth

import (
	"context"
	"encoding/json"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the authentication operations other modules use.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, userID string) error
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Register creates an account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	var resp UserResponse
	if err := a.call(ctx, "register", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toUser(), nil
}

// Login authenticates and returns the new session token.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := a.call(ctx, "login", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the user's session.
func (a *AuthAdapter) Logout(ctx context.Context, userID string) error {
	req := LogoutRequest{UserID: userID}
	var resp LogoutResponse
	return a.call(ctx, "logout", &req, &resp)
}

// ValidateToken validates a session token and returns the caller's claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := a.call(ctx, "validate-token", &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, apperr.Unauthorized(resp.Error)
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := a.call(ctx, "get-user", &req, &resp); err != nil {
		return nil, err
	}
	return resp.toUser(), nil
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperr.FromRemote(err)
	}
	return nil
}
