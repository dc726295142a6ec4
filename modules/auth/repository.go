package auth

import (
	"context"
	"errors"

	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// errUserNotFound is returned by the repository when a user is not found.
	errUserNotFound = errors.New("user not found")
	// errUserExists is returned when the (email, role) pair is taken.
	errUserExists = errors.New("user with this email and role already exists")
	// errTokenNotFound is returned when the user has no live session.
	errTokenNotFound = errors.New("token not found")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if store.IsUniqueViolation(result.Error) {
			return errUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if store.IsNotFound(result.Error) {
			return nil, errUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail returns the accounts registered with email, USER before ADMIN.
// An empty role matches every role.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	query := r.db.WithContext(ctx).Where("email = ?", email)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Order("role DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// TokenRepository stores the single live session per user.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{
		db: db,
	}
}

// Upsert inserts the token or replaces the user's existing one.
func (r *TokenRepository) Upsert(ctx context.Context, token *domain.Token) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "created_at"}),
	}).Create(token).Error
}

// FindByUserID returns the user's live session.
func (r *TokenRepository) FindByUserID(ctx context.Context, userID string) (*domain.Token, error) {
	var token domain.Token
	result := r.db.WithContext(ctx).First(&token, "user_id = ?", userID)
	if result.Error != nil {
		if store.IsNotFound(result.Error) {
			return nil, errTokenNotFound
		}
		return nil, result.Error
	}
	return &token, nil
}

// DeleteByUserID removes the user's session.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Token{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errTokenNotFound
	}
	return nil
}
