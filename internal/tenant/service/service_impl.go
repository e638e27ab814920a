package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	"github.com/scanbase/scanbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[tenantdomain.Tenant]
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[tenantdomain.Tenant](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req tenantdomain.CreateRequest) (*tenantdomain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tenantdomain.ErrInvalidName
	}

	planCode := strings.TrimSpace(req.PlanCode)
	if planCode == "" {
		planCode = "starter"
	}

	tenant := &tenantdomain.Tenant{
		ID:                 s.genID.Generate(),
		Name:               name,
		PlanCode:           planCode,
		SubscriptionStatus: tenantdomain.SubscriptionStatusNone,
	}
	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*tenantdomain.Tenant, error) {
	if id == 0 {
		return nil, tenantdomain.ErrTenantNotFound
	}

	tenant, err := s.repo.FindOne(ctx, &tenantdomain.Tenant{ID: id})
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, tenantdomain.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *Service) HasPaidSubscription(ctx context.Context, id snowflake.ID) (bool, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return tenant.SubscriptionStatus.Paid(), nil
}

func (s *Service) ApplyBillingEvent(ctx context.Context, event tenantdomain.BillingEvent) error {
	if event.TenantID == 0 {
		return tenantdomain.ErrInvalidEvent
	}

	tenant, err := s.GetByID(ctx, event.TenantID)
	if err != nil {
		return err
	}

	status := statusForEvent(event)
	if status == "" {
		s.log.Info("billing.event_ignored",
			zap.Int64("tenant_id", event.TenantID.Int64()),
			zap.String("provider", event.Provider),
			zap.String("type", event.Type),
		)
		return nil
	}

	updates := map[string]any{"subscription_status": status}
	if event.CustomerID != "" {
		updates["billing_customer_id"] = event.CustomerID
	}
	if event.SubscriptionID != "" {
		updates["billing_subscription_id"] = event.SubscriptionID
	}

	if err := s.repo.Update(ctx, tenant.ID.String(), updates); err != nil {
		return err
	}

	s.log.Info("billing.status_applied",
		zap.Int64("tenant_id", event.TenantID.Int64()),
		zap.String("provider", event.Provider),
		zap.String("type", event.Type),
		zap.String("status", string(status)),
	)
	return nil
}

// statusForEvent maps webhook event types to subscription states. An
// empty result means the event carries no state we track.
func statusForEvent(event tenantdomain.BillingEvent) tenantdomain.SubscriptionStatus {
	switch event.Type {
	case "checkout.session.completed":
		return tenantdomain.SubscriptionStatusActive
	case "invoice.payment_failed":
		return tenantdomain.SubscriptionStatusPastDue
	case "customer.subscription.deleted":
		return tenantdomain.SubscriptionStatusCanceled
	case "customer.subscription.updated":
		switch tenantdomain.SubscriptionStatus(event.Status) {
		case tenantdomain.SubscriptionStatusActive,
			tenantdomain.SubscriptionStatusTrialing,
			tenantdomain.SubscriptionStatusPastDue,
			tenantdomain.SubscriptionStatusCanceled:
			return tenantdomain.SubscriptionStatus(event.Status)
		}
	}
	return ""
}
