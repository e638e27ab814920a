// Package domain contains persistence models for tenant inventory manifests.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Item is one row of a tenant's purchased-inventory manifest. Manifests
// are uploaded per tenant and consulted before any external resolution.
type Item struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	TenantID  snowflake.ID      `gorm:"not null;index:idx_manifest_tenant"`
	LPN       *string           `gorm:"type:text;index:idx_manifest_lpn"`
	FNSKU     *string           `gorm:"type:text;index:idx_manifest_fnsku"`
	ASIN      *string           `gorm:"type:text;index:idx_manifest_asin"`
	UPC       *string           `gorm:"type:text"`
	Title     string            `gorm:"type:text"`
	Brand     string            `gorm:"type:text"`
	MSRP      float64           `gorm:"not null;default:0"`
	Quantity  int               `gorm:"not null;default:1"`
	Condition string            `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "manifest_items" }
