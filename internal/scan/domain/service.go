// Package domain defines the scan resolution contract.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	quotadomain "github.com/scanbase/scanbase/internal/quota/domain"
)

// Request is one scanned code to resolve.
type Request struct {
	Code        string
	ClaimedType string
	UserID      snowflake.ID
	TenantID    snowflake.ID
}

// Result is the resolution envelope returned to the client.
type Result struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`

	Code     string `json:"code"`
	CodeType string `json:"code_type"`
	FNSKU    string `json:"fnsku,omitempty"`
	ASIN     string `json:"asin,omitempty"`
	UPC      string `json:"upc,omitempty"`

	Title       string   `json:"title,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Images      []string `json:"images,omitempty"`
	Videos      []string `json:"videos,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"review_count,omitempty"`
	AmazonURL   string   `json:"amazon_url,omitempty"`

	// Raw is the upstream payload kept for the catalog, never serialized
	// back to the client.
	Raw json.RawMessage `json:"-"`

	Source     string `json:"source"`
	CostStatus string `json:"cost_status"`
	Cached     bool   `json:"cached"`
	Processing bool   `json:"processing"`
	TaskID     string `json:"task_id,omitempty"`

	ScanCount quotadomain.Decision `json:"scan_count"`
}

// Sources.
const (
	SourceLocal       = "local"
	SourceCache       = "cache"
	SourceUPCDB       = "upcdb"
	SourceScanTask    = "scantask"
	SourceProductData = "productdata"
)

// Cost statuses.
const (
	CostNoCharge = "no_charge"
	CostCharged  = "charged"
)

type Service interface {
	Resolve(ctx context.Context, req Request) (*Result, error)
}

var (
	ErrInvalidCode     = errors.New("invalid_code")
	ErrUnidentified    = errors.New("unidentified_caller")
	ErrNotFound        = errors.New("product_not_found")
	ErrUpstreamTimeout = errors.New("upstream_timeout")
)

// QuotaExceededError carries the denied decision so the transport can
// report usage alongside the refusal.
type QuotaExceededError struct {
	Decision quotadomain.Decision
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d/%d scans used", e.Decision.Used, e.Decision.Limit)
}
