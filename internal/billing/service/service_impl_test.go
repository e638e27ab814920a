package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/scanbase/scanbase/internal/billing/domain"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tenantSvcMock struct {
	mock.Mock
}

func (m *tenantSvcMock) Create(ctx context.Context, req tenantdomain.CreateRequest) (*tenantdomain.Tenant, error) {
	return nil, nil
}

func (m *tenantSvcMock) GetByID(ctx context.Context, id snowflake.ID) (*tenantdomain.Tenant, error) {
	return nil, tenantdomain.ErrTenantNotFound
}

func (m *tenantSvcMock) HasPaidSubscription(ctx context.Context, id snowflake.ID) (bool, error) {
	return false, nil
}

func (m *tenantSvcMock) ApplyBillingEvent(ctx context.Context, event tenantdomain.BillingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestHandleWebhookDelegatesToTenant(t *testing.T) {
	node, err := snowflake.NewNode(11)
	require.NoError(t, err)
	tenantID := node.Generate()

	tenants := &tenantSvcMock{}
	tenants.On("ApplyBillingEvent", mock.Anything, mock.MatchedBy(func(event tenantdomain.BillingEvent) bool {
		return event.Provider == "stripe" &&
			event.Type == "checkout.session.completed" &&
			event.TenantID == tenantID &&
			event.CustomerID == "cus_123"
	})).Return(nil)

	svc := NewService(ServiceParam{Log: zap.NewNop(), TenantSvc: tenants})

	err = svc.HandleWebhook(context.Background(), "stripe", billingdomain.WebhookPayload{
		Type:       "checkout.session.completed",
		TenantID:   tenantID.String(),
		CustomerID: " cus_123 ",
	})
	require.NoError(t, err)
	tenants.AssertExpectations(t)
}

func TestHandleWebhookMalformed(t *testing.T) {
	svc := NewService(ServiceParam{Log: zap.NewNop(), TenantSvc: &tenantSvcMock{}})

	err := svc.HandleWebhook(context.Background(), "stripe", billingdomain.WebhookPayload{
		TenantID: "12345",
	})
	assert.ErrorIs(t, err, billingdomain.ErrMalformedEvent)

	err = svc.HandleWebhook(context.Background(), "stripe", billingdomain.WebhookPayload{
		Type:     "invoice.payment_failed",
		TenantID: "not-a-number",
	})
	assert.ErrorIs(t, err, billingdomain.ErrMalformedEvent)
}
