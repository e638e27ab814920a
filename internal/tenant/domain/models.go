// Package domain contains persistence models for tenants.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus mirrors the billing provider's subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Tenant is one customer workspace. created_at anchors the free trial
// window for quota counting.
type Tenant struct {
	ID                    snowflake.ID       `gorm:"primaryKey"`
	Name                  string             `gorm:"type:text;not null"`
	PlanCode              string             `gorm:"type:text;not null;default:'starter'"`
	SubscriptionStatus    SubscriptionStatus `gorm:"type:text;not null;default:'none'"`
	BillingCustomerID     *string            `gorm:"type:text"`
	BillingSubscriptionID *string            `gorm:"type:text"`
	CreatedAt             time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// Paid reports whether the status entitles unlimited scanning. past_due
// stays entitled, dunning is the billing provider's problem.
func (s SubscriptionStatus) Paid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	}
	return false
}

// MaxUsers returns the seat cap for a plan. Unknown plans get the
// smallest cap rather than an error.
func MaxUsers(planCode string) int {
	switch planCode {
	case "pro":
		return 3
	case "enterprise":
		return 5
	default:
		return 1
	}
}
