package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	TenantID snowflake.ID
	Email    string
	Role     Role
}

type Service interface {
	// Create provisions a user, enforcing the tenant plan's seat cap.
	Create(ctx context.Context, req CreateRequest) (*User, error)

	GetByID(ctx context.Context, id snowflake.ID) (*User, error)

	// GetRole returns the user's role, RoleMember when unknown.
	GetRole(ctx context.Context, id snowflake.ID) (Role, error)
}

var (
	ErrUserNotFound     = errors.New("user_not_found")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidRole      = errors.New("invalid_role")
	ErrEmailTaken       = errors.New("email_taken")
	ErrUserLimitReached = errors.New("user_limit_reached")
)
