// Package domain contains persistence models for API tokens.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIToken maps a bearer token to an identity. Tokens are opaque
// strings issued out of band.
type APIToken struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Token      string       `gorm:"type:text;not null;uniqueIndex:idx_api_tokens_token"`
	UserID     snowflake.ID `gorm:"not null"`
	TenantID   snowflake.ID `gorm:"not null;index:idx_api_tokens_tenant"`
	RevokedAt  *time.Time   `gorm:""`
	LastUsedAt *time.Time   `gorm:""`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (APIToken) TableName() string { return "api_tokens" }
