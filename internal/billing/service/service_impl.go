package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/scanbase/scanbase/internal/billing/domain"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log       *zap.Logger
	TenantSvc tenantdomain.Service
}

type Service struct {
	log       *zap.Logger
	tenantSvc tenantdomain.Service
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		log:       p.Log.Named("billing.service"),
		tenantSvc: p.TenantSvc,
	}
}

func (s *Service) HandleWebhook(ctx context.Context, provider string, payload billingdomain.WebhookPayload) error {
	if strings.TrimSpace(payload.Type) == "" {
		return billingdomain.ErrMalformedEvent
	}

	tenantID, err := snowflake.ParseString(strings.TrimSpace(payload.TenantID))
	if err != nil || tenantID == 0 {
		return billingdomain.ErrMalformedEvent
	}

	return s.tenantSvc.ApplyBillingEvent(ctx, tenantdomain.BillingEvent{
		Provider:       provider,
		Type:           payload.Type,
		TenantID:       tenantID,
		CustomerID:     strings.TrimSpace(payload.CustomerID),
		SubscriptionID: strings.TrimSpace(payload.SubscriptionID),
		Status:         strings.TrimSpace(payload.Status),
	})
}
