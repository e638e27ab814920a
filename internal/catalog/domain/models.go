// Package domain contains persistence models for the shared product catalog.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry is one cached product, keyed by any of its known identifiers.
// The catalog is shared across tenants: a product resolved for one
// tenant is served from cache for every other.
type Entry struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	FNSKU          *string        `gorm:"type:text;uniqueIndex:idx_catalog_fnsku,where:fnsku IS NOT NULL"`
	ASIN           *string        `gorm:"type:text;index:idx_catalog_asin"`
	UPC            *string        `gorm:"type:text;index:idx_catalog_upc"`
	Title          string         `gorm:"type:text"`
	Brand          string         `gorm:"type:text"`
	Description    string         `gorm:"type:text"`
	Category       string         `gorm:"type:text"`
	Price          float64        `gorm:"not null;default:0"`
	Currency       string         `gorm:"type:text;default:'USD'"`
	ImageURL       string         `gorm:"type:text"`
	Images         datatypes.JSON `gorm:"type:jsonb"`
	Videos         datatypes.JSON `gorm:"type:jsonb"`
	Rating         float64        `gorm:"not null;default:0"`
	ReviewCount    int            `gorm:"not null;default:0"`
	Raw            datatypes.JSON `gorm:"type:jsonb"`
	Source         string         `gorm:"type:text"`
	LookupCount    int64          `gorm:"not null;default:0"`
	LastAccessedAt *time.Time     `gorm:""`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "catalog_entries" }

// Placeholder title prefixes written by earlier resolution passes that
// gave up before finding real product data.
const (
	placeholderAmazonPrefix = "Amazon Product (ASIN:"
	placeholderFNSKUPrefix  = "FNSKU:"
)

// Complete reports whether the entry carries enough real product data
// to be served without re-resolving. code is the identifier the caller
// scanned; entries titled "Product <code>" are synthetic placeholders.
func (e *Entry) Complete(code string) bool {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return false
	}
	if title == "Product "+code {
		return false
	}
	if strings.HasPrefix(title, placeholderAmazonPrefix) {
		return false
	}
	if strings.HasPrefix(title, placeholderFNSKUPrefix) {
		return false
	}
	if len(title) < 10 {
		return false
	}

	if e.Price <= 0 {
		return false
	}

	return e.ImageURL != "" || len(e.Raw) > 0
}

// StaleAt reports whether the entry is older than maxAge at the given time.
func (e *Entry) StaleAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.UpdatedAt) > maxAge
}

// Identifier returns the strongest identifier the entry carries.
func (e *Entry) Identifier() string {
	if e.FNSKU != nil && *e.FNSKU != "" {
		return *e.FNSKU
	}
	if e.ASIN != nil && *e.ASIN != "" {
		return *e.ASIN
	}
	if e.UPC != nil && *e.UPC != "" {
		return *e.UPC
	}
	return ""
}
