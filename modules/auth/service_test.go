package auth

import (
	"context"
	"testing"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*AuthService, *JWTManager) {
	t.Helper()
	db := storetest.Open(t)
	jwtManager := NewJWTManager(testJWTConfig())
	return NewAuthService(
		NewUserRepository(db),
		NewTokenRepository(db),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		jwtManager,
	), jwtManager
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "Ann@Example.com", "password123", domain.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, "password123", u.PasswordHash)
}

func TestAuthService_Register_SameRoleTwiceIsNotAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ann again", "ann@example.com", "password456", domain.RoleUser)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateRole)
	assert.Equal(t, apperr.KindNotAllowed, apperr.KindOf(err))
}

func TestAuthService_Register_OtherRoleSucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	asUser, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	asAdmin, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleAdmin)
	require.NoError(t, err)

	assert.NotEqual(t, asUser.ID, asAdmin.ID)
	assert.Equal(t, domain.RoleAdmin, asAdmin.Role)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     domain.Role
		want     error
	}{
		{"missing name", " ", "a@example.com", "password123", domain.RoleUser, ErrNameRequired},
		{"bad email", "Ann", "not-an-email", "password123", domain.RoleUser, ErrInvalidEmail},
		{"bad role", "Ann", "a@example.com", "password123", domain.Role("ROOT"), ErrInvalidRole},
		{"short password", "Ann", "a@example.com", "short", domain.RoleUser, ErrWeakPassword},
		{"long password", "Ann", "a@example.com", string(long), domain.RoleUser, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	session, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, session.User.ID)
	assert.NotEmpty(t, session.AccessToken)

	claims, err := svc.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestAuthService_Login_DoesNotRevealWhetherEmailExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "ann@example.com", "wrong-password", "")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "password123", "")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_Login_SelectsRole(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "user-password", domain.RoleUser)
	require.NoError(t, err)
	admin, err := svc.Register(ctx, "Ann", "ann@example.com", "admin-password", domain.RoleAdmin)
	require.NoError(t, err)

	session, err := svc.Login(ctx, "ann@example.com", "admin-password", "")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.User.ID)

	_, err = svc.Login(ctx, "ann@example.com", "admin-password", domain.RoleUser)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err = svc.Login(ctx, "ann@example.com", "admin-password", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, session.User.Role)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)
	session, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.User.ID))

	_, err = svc.Authenticate(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, session.User.ID), ErrSessionNotFound)
}

func TestAuthService_NewLoginReplacesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	first, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, first.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.Authenticate(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_Authenticate_ExpiredAndRevokedAreDistinct(t *testing.T) {
	svc, jwtManager := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	// A session issued two days ago is still registered but has expired.
	jwtManager.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)
	jwtManager.now = time.Now

	_, expiredErr := svc.Authenticate(ctx, stale.AccessToken)
	assert.ErrorIs(t, expiredErr, ErrTokenExpired)

	fresh, err := svc.Login(ctx, "ann@example.com", "password123", "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, fresh.User.ID))

	_, revokedErr := svc.Authenticate(ctx, fresh.AccessToken)
	assert.ErrorIs(t, revokedErr, ErrTokenRevoked)

	assert.NotEqual(t, apperr.MessageOf(expiredErr), apperr.MessageOf(revokedErr))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(expiredErr))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(revokedErr))
}

func TestAuthService_Authenticate_Garbage(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthService_GetUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Ann", "ann@example.com", "password123", domain.RoleUser)
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
