package user

import (
	"time"
)

// Role is the account role a user registered for.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a user entity in the system.
// An email may be registered once per role.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	Name         string    `gorm:"not null;type:text" json:"name"`
	Email        string    `gorm:"not null;type:text;uniqueIndex:idx_users_email_role" json:"email"`
	Role         Role      `gorm:"not null;type:text;uniqueIndex:idx_users_email_role" json:"role"`
	PasswordHash string    `gorm:"not null;type:text" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Token is the single live session of a user. Logging in replaces it and
// logging out deletes it.
type Token struct {
	ID        string    `gorm:"primaryKey;type:text"`
	UserID    string    `gorm:"uniqueIndex;not null;type:text"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;"`
	Token     string    `gorm:"not null;type:text"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// TableName returns the table name for the Token entity.
func (Token) TableName() string {
	return "tokens"
}

// Claims represents an authenticated caller.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}
