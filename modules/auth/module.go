package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// AuthModule provides registration, login and session validation services.
type AuthModule struct {
	db      *gorm.DB
	config  JWTConfig
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(db *gorm.DB, config JWTConfig, logger types.Logger) *AuthModule {
	m := &AuthModule{
		db:     db,
		config: config,
		logger: logger,
	}
	m.service = NewAuthService(
		NewUserRepository(db),
		NewTokenRepository(db),
		NewPasswordHasher(),
		NewJWTManager(config),
	)
	return m
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start starts the module.
func (m *AuthModule) Start(_ context.Context) error {
	m.logger.Info("Auth module started", "issuer", m.config.Issuer, "token_ttl", m.config.TTL.String())
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	m.logger.Info("Auth module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	var sessions int64
	if err := m.db.WithContext(ctx).Table("tokens").Count(&sessions).Error; err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("token table unavailable: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"active_sessions": sessions,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"register",
		json.Unmarshal,
		json.Marshal,
		m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"login",
		json.Unmarshal,
		json.Marshal,
		m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"logout",
		json.Unmarshal,
		json.Marshal,
		m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register logout service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"validate-token",
		json.Unmarshal,
		json.Marshal,
		m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"get-user",
		json.Unmarshal,
		json.Marshal,
		m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	m.logger.Info("Registered services", "services", "register, login, logout, validate-token, get-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return UserResponse{}, m.replyError("register", err)
	}
	m.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	session, err := m.service.Login(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		return LoginResponse{}, m.replyError("login", err)
	}
	return LoginResponse{
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		UserID:      session.User.ID,
		Email:       session.User.Email,
		Role:        session.User.Role,
	}, nil
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	if err := m.service.Logout(ctx, req.UserID); err != nil {
		return LogoutResponse{}, m.replyError("logout", err)
	}
	return LogoutResponse{LoggedOut: true}, nil
}

// handleValidateToken reports validation failures in the response body, not
// as an error, so the caller always gets the precise reason.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.Authenticate(ctx, req.Token)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return ValidateTokenResponse{}, m.replyError("validate-token", err)
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: apperr.MessageOf(err),
		}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return UserResponse{}, m.replyError("get-user", err)
	}
	return toUserResponse(user), nil
}

// replyError logs internal failures with their cause and returns the
// client-safe error that goes back over the wire.
func (m *AuthModule) replyError(service string, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}
	if appErr.Kind == apperr.KindInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
	return apperr.New(appErr.Kind, appErr.Message)
}
