// Package domain defines the billing webhook contract.
package domain

import (
	"context"
	"errors"
)

// WebhookPayload is the provider-agnostic event body posted to the
// webhook endpoint. Signature verification belongs to the provider
// integration in front of this service.
type WebhookPayload struct {
	Type           string `json:"type"`
	TenantID       string `json:"tenant_id"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
	Status         string `json:"status"`
}

type Service interface {
	// HandleWebhook applies one provider event to the owning tenant.
	HandleWebhook(ctx context.Context, provider string, payload WebhookPayload) error
}

var ErrMalformedEvent = errors.New("malformed_event")
