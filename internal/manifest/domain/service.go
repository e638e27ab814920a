package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/pkg/db/pagination"
)

type ListRequest struct {
	TenantID  snowflake.ID
	Search    string
	PageToken string
	PageSize  int32
}

type ListResponse struct {
	pagination.PageInfo
	Items []Item `json:"items"`
}

type ImportRequest struct {
	TenantID snowflake.ID
	Items    []Item
}

type Service interface {
	// FindByIdentifier returns the tenant's manifest row matching the
	// scanned code on any identifier column, or nil.
	FindByIdentifier(ctx context.Context, tenantID snowflake.ID, code string) (*Item, error)

	List(ctx context.Context, req ListRequest) (ListResponse, error)

	// Import appends manifest rows for a tenant in one batch.
	Import(ctx context.Context, req ImportRequest) (int, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrEmptyImport   = errors.New("empty_import")
)
