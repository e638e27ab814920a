package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/pkg/db/pagination"
)

type RecentRequest struct {
	TenantID  snowflake.ID
	UserID    snowflake.ID
	PageToken string
	PageSize  int32
}

type RecentResponse struct {
	pagination.PageInfo
	Records []ScanRecord `json:"records"`
}

type Service interface {
	// Append records the scan once per (user, code). It reports whether
	// a new row was written; an existing pair is not an error.
	Append(ctx context.Context, record *ScanRecord) (bool, error)

	// CountSince counts the tenant's ledger rows created at or after
	// the cutoff. The ledger is already deduplicated at write time.
	CountSince(ctx context.Context, tenantID snowflake.ID, since time.Time) (int64, error)

	// Recent lists ledger rows newest first, scoped to a tenant and
	// optionally one user.
	Recent(ctx context.Context, req RecentRequest) (RecentResponse, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidCode   = errors.New("invalid_code")
)
