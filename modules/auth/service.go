package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")
	// ErrDuplicateRole is returned when the email is already registered for the role.
	ErrDuplicateRole = apperr.NotAllowed("You are not allowed to registered for the same role again")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = apperr.NotFound("User not found")
	// ErrSessionNotFound is returned by logout when there is no live session.
	ErrSessionNotFound = apperr.NotFound("Session not found")

	ErrTokenInvalid = apperr.Unauthorized("Invalid authorization token")
	ErrTokenExpired = apperr.Unauthorized("Token has expired")
	ErrTokenRevoked = apperr.Unauthorized("Token has been revoked")

	ErrNameRequired    = apperr.BadRequest("Name is required")
	ErrInvalidEmail    = apperr.BadRequest("Invalid email format")
	ErrInvalidRole     = apperr.BadRequest("Invalid role")
	ErrWeakPassword    = apperr.BadRequest("Password must be at least 8 characters")
	ErrPasswordTooLong = apperr.BadRequest("Password must be at most 72 characters")
)

// Session is the result of a successful login.
type Session struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService handles authentication business logic.
type AuthService struct {
	users  *UserRepository
	tokens *TokenRepository
	hasher *PasswordHasher
	jwt    *JWTManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *UserRepository, tokens *TokenRepository, hasher *PasswordHasher, jwt *JWTManager) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		jwt:    jwt,
	}
}

// Register creates an account for the given role.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, ErrNameRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.hasher.Check(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, errUserExists) {
			return nil, ErrDuplicateRole
		}
		return nil, apperr.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	return user, nil
}

// Login verifies the credentials, signs a token and stores it as the user's
// only session. With an empty role every account of the email is tried.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}

	candidates, err := s.users.FindByEmail(ctx, email, role)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to find user: %w", err))
	}

	if len(candidates) == 0 {
		s.hasher.VerifyNone(password)
		return nil, ErrInvalidCredentials
	}

	var user *domain.User
	for i := range candidates {
		if s.hasher.Verify(password, candidates[i].PasswordHash) {
			user = &candidates[i]
			break
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.jwt.Generate(user)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	if err := s.tokens.Upsert(ctx, &domain.Token{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     accessToken,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to store token: %w", err))
	}

	return &Session{
		User:        user,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout revokes the user's session.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, errTokenNotFound) {
			return ErrSessionNotFound
		}
		return apperr.Internal(fmt.Errorf("failed to delete token: %w", err))
	}
	return nil
}

// Authenticate checks the token signature and expiry, then checks that it is
// still the user's registered session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	session, err := s.tokens.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errTokenNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, apperr.Internal(fmt.Errorf("failed to look up token: %w", err))
	}
	if session.Token != token {
		return nil, ErrTokenRevoked
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(fmt.Errorf("failed to find user: %w", err))
	}
	return user, nil
}
