package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/internal/clock"
	"github.com/scanbase/scanbase/internal/config"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	quotadomain "github.com/scanbase/scanbase/internal/quota/domain"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Clock     clock.Clock
	UserSvc   userdomain.Service
	TenantSvc tenantdomain.Service
	LedgerSvc ledgerdomain.Service
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	userSvc   userdomain.Service
	tenantSvc tenantdomain.Service
	ledgerSvc ledgerdomain.Service

	trialLimit    int64
	trialLookback time.Duration
}

func NewService(p ServiceParam) quotadomain.Service {
	return &Service{
		log:           p.Log.Named("quota.service"),
		clock:         p.Clock,
		userSvc:       p.UserSvc,
		tenantSvc:     p.TenantSvc,
		ledgerSvc:     p.LedgerSvc,
		trialLimit:    int64(p.Config.FreeTrialScanLimit),
		trialLookback: p.Config.TrialLookback,
	}
}

func (s *Service) Authorize(ctx context.Context, userID, tenantID snowflake.ID) (quotadomain.Decision, error) {
	// 1. Elevated roles scan without limits. A missing user is not
	// fatal here, identity problems surface at the auth layer.
	role, err := s.userSvc.GetRole(ctx, userID)
	if err != nil && !errors.Is(err, userdomain.ErrUserNotFound) {
		return quotadomain.Decision{}, err
	}
	if role.Elevated() {
		return quotadomain.Decision{
			Allowed:   true,
			Reason:    quotadomain.ReasonElevatedRole,
			Unlimited: true,
			Limit:     s.trialLimit,
		}, nil
	}

	// 2. A paid subscription lifts all limits for the tenant.
	tenant, err := s.tenantSvc.GetByID(ctx, tenantID)
	if err != nil && !errors.Is(err, tenantdomain.ErrTenantNotFound) {
		return quotadomain.Decision{}, err
	}
	if tenant != nil && tenant.SubscriptionStatus.Paid() {
		return quotadomain.Decision{
			Allowed:   true,
			Reason:    quotadomain.ReasonPaidSubscription,
			IsPaid:    true,
			Unlimited: true,
			Limit:     s.trialLimit,
		}, nil
	}

	// 3. Free trial: count ledger rows since the tenant signed up.
	trialStart := s.clock.Now().Add(-s.trialLookback)
	if tenant != nil {
		trialStart = tenant.CreatedAt
	}

	used, err := s.ledgerSvc.CountSince(ctx, tenantID, trialStart)
	if err != nil {
		// Fail open: a broken counter must not block scanning.
		s.log.Error("quota.count_failed",
			zap.Int64("tenant_id", tenantID.Int64()),
			zap.Error(err),
		)
		return quotadomain.Decision{
			Allowed: true,
			Reason:  quotadomain.ReasonFreeTrial,
			Limit:   s.trialLimit,
		}, nil
	}

	if used >= s.trialLimit {
		return quotadomain.Decision{
			Allowed: false,
			Reason:  quotadomain.ReasonTrialLimitReached,
			Used:    used,
			Limit:   s.trialLimit,
		}, nil
	}

	return quotadomain.Decision{
		Allowed:   true,
		Reason:    quotadomain.ReasonFreeTrial,
		Used:      used,
		Limit:     s.trialLimit,
		Remaining: s.trialLimit - used,
	}, nil
}
