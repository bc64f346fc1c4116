package user

import (
	"errors"
	"fmt"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	FullName     string    `json:"fullName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the identity returned to clients after login or lookup.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUsernameTaken      = fmt.Errorf("%w: username is already in use", ErrDuplicateUser)
	ErrEmailTaken         = fmt.Errorf("%w: email is already in use", ErrDuplicateUser)
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50,username"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	FullName string `json:"fullName" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateRequest is the allow-list of self-service profile changes.
// Username and email are identity fields and cannot be changed.
type UpdateRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,max=100"`
	Password *string `json:"password" binding:"omitempty,min=6,max=255"`
}

func (r UpdateRequest) Empty() bool {
	return r.FullName == nil && r.Password == nil
}
