// Package domain contains persistence models for the scan ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ScanRecord is one user's first successful scan of a code. The unique
// index makes repeat scans of the same code free: the ledger is the
// billing source of truth, so it only ever grows by distinct
// (user, code) pairs.
type ScanRecord struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	TenantID       snowflake.ID  `gorm:"not null;index:idx_scan_records_tenant"`
	UserID         snowflake.ID  `gorm:"not null;uniqueIndex:idx_scan_records_user_code"`
	Code           string        `gorm:"type:text;not null;uniqueIndex:idx_scan_records_user_code"`
	CodeType       string        `gorm:"type:text;not null"`
	CatalogEntryID *snowflake.ID `gorm:""`
	Source         string        `gorm:"type:text"`
	CostStatus     string        `gorm:"type:text"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_scan_records_created"`
}

// TableName sets the database table name.
func (ScanRecord) TableName() string { return "scan_records" }
