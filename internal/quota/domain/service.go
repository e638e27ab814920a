// Package domain defines the scan quota decision contract.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Decision is the quota verdict for one prospective scan.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	IsPaid    bool   `json:"is_paid"`
	Unlimited bool   `json:"unlimited"`
	Used      int64  `json:"used_scans"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
}

const (
	ReasonElevatedRole      = "elevated_role"
	ReasonPaidSubscription  = "paid_subscription"
	ReasonFreeTrial         = "free_trial"
	ReasonTrialLimitReached = "trial_limit_reached"
)

// Service gates scans on role, subscription and trial usage. Authorize
// must run before any call that costs money.
type Service interface {
	Authorize(ctx context.Context, userID, tenantID snowflake.ID) (Decision, error)
}
