package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// BillingEvent is a normalized webhook event from any billing provider.
type BillingEvent struct {
	Provider       string
	Type           string
	TenantID       snowflake.ID
	CustomerID     string
	SubscriptionID string
	Status         string
}

type CreateRequest struct {
	Name     string
	PlanCode string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Tenant, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Tenant, error)

	// HasPaidSubscription reports whether the tenant's subscription
	// entitles unlimited scans.
	HasPaidSubscription(ctx context.Context, id snowflake.ID) (bool, error)

	// ApplyBillingEvent transitions subscription state from a webhook.
	// Unknown event types are acknowledged and ignored.
	ApplyBillingEvent(ctx context.Context, event BillingEvent) error
}

var (
	ErrTenantNotFound = errors.New("tenant_not_found")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidEvent   = errors.New("invalid_event")
)
