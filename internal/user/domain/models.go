// Package domain contains persistence models for tenant users.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Elevated reports whether the role bypasses scan quotas.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleOwner
}

// User belongs to exactly one tenant.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	TenantID  snowflake.ID `gorm:"not null;index:idx_users_tenant"`
	Email     string       `gorm:"type:text;not null;uniqueIndex:idx_users_email"`
	Role      Role         `gorm:"type:text;not null;default:'member'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
