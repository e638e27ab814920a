package domain

import (
	"context"

	"github.com/scanbase/scanbase/internal/identifier"
)

// Service is the shared product catalog.
type Service interface {
	// Lookup finds a cached entry for the code, checking the column
	// that matches the detected type first. A hit bumps the entry's
	// lookup counter. Returns nil when nothing is cached.
	Lookup(ctx context.Context, code string, codeType identifier.CodeType) (*Entry, error)

	// Save upserts an entry, merging into an existing row when one of
	// the entry's identifiers is already cached.
	Save(ctx context.Context, entry *Entry) (*Entry, error)
}
