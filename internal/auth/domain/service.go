package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Identity is the resolved caller behind a bearer token.
type Identity struct {
	UserID   snowflake.ID
	TenantID snowflake.ID
	Role     string
}

type IssueRequest struct {
	UserID   snowflake.ID
	TenantID snowflake.ID
}

type Service interface {
	// Verify resolves a bearer token to an identity.
	Verify(ctx context.Context, token string) (*Identity, error)

	// Issue mints a new token for a user.
	Issue(ctx context.Context, req IssueRequest) (*APIToken, error)
}

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrTokenRevoked = errors.New("token_revoked")
)
