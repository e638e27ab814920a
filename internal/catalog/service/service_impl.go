package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/scanbase/scanbase/internal/catalog/domain"
	"github.com/scanbase/scanbase/internal/identifier"
	"github.com/scanbase/scanbase/pkg/db"
	"github.com/scanbase/scanbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[catalogdomain.Entry]
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[catalogdomain.Entry](p.DB),
	}
}

func (s *Service) Lookup(ctx context.Context, code string, codeType identifier.CodeType) (*catalogdomain.Entry, error) {
	code = identifier.Normalize(code)
	if code == "" {
		return nil, nil
	}

	for _, filter := range s.lookupFilters(code, codeType) {
		entry, err := s.repo.FindOne(ctx, filter)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}

		s.bumpLookupCount(ctx, entry)
		return entry, nil
	}

	return nil, nil
}

// lookupFilters orders the identifier columns so the column matching
// the detected type is checked first.
func (s *Service) lookupFilters(code string, codeType identifier.CodeType) []*catalogdomain.Entry {
	byFNSKU := &catalogdomain.Entry{FNSKU: &code}
	byASIN := &catalogdomain.Entry{ASIN: &code}
	byUPC := &catalogdomain.Entry{UPC: &code}

	switch codeType {
	case identifier.TypeASIN:
		return []*catalogdomain.Entry{byASIN, byFNSKU, byUPC}
	case identifier.TypeUPC, identifier.TypeEAN:
		return []*catalogdomain.Entry{byUPC, byFNSKU, byASIN}
	default:
		return []*catalogdomain.Entry{byFNSKU, byASIN, byUPC}
	}
}

// bumpLookupCount increments the counter in a single statement so
// concurrent lookups never lose increments. UpdateColumns leaves
// updated_at untouched, a lookup must not reset staleness.
func (s *Service) bumpLookupCount(ctx context.Context, entry *catalogdomain.Entry) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&catalogdomain.Entry{}).
		Where("id = ?", entry.ID).
		UpdateColumns(map[string]any{
			"lookup_count":     gorm.Expr("lookup_count + ?", 1),
			"last_accessed_at": now,
		}).Error
	if err != nil {
		s.log.Warn("catalog.lookup_count_bump_failed",
			zap.Int64("entry_id", entry.ID.Int64()),
			zap.Error(err),
		)
		return
	}
	entry.LookupCount++
}

func (s *Service) Save(ctx context.Context, entry *catalogdomain.Entry) (*catalogdomain.Entry, error) {
	existing, err := s.findExisting(ctx, entry)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.merge(ctx, existing, entry)
	}

	entry.ID = s.genID.Generate()
	// The resolution that produced the entry counts as its first lookup.
	entry.LookupCount = 1
	if err := s.repo.Create(ctx, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Another request cached the same product first.
			existing, ferr := s.findExisting(ctx, entry)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return s.merge(ctx, existing, entry)
			}
		}
		return nil, err
	}

	return entry, nil
}

func (s *Service) findExisting(ctx context.Context, entry *catalogdomain.Entry) (*catalogdomain.Entry, error) {
	filters := make([]*catalogdomain.Entry, 0, 3)
	if entry.FNSKU != nil && *entry.FNSKU != "" {
		filters = append(filters, &catalogdomain.Entry{FNSKU: entry.FNSKU})
	}
	if entry.ASIN != nil && *entry.ASIN != "" {
		filters = append(filters, &catalogdomain.Entry{ASIN: entry.ASIN})
	}
	if entry.UPC != nil && *entry.UPC != "" {
		filters = append(filters, &catalogdomain.Entry{UPC: entry.UPC})
	}

	for _, filter := range filters {
		existing, err := s.repo.FindOne(ctx, filter)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, nil
}

// merge folds the incoming entry into the stored row, never erasing
// data the cache already has with blanks from a weaker source.
func (s *Service) merge(ctx context.Context, existing, incoming *catalogdomain.Entry) (*catalogdomain.Entry, error) {
	updates := map[string]any{}

	if incoming.FNSKU != nil && *incoming.FNSKU != "" && (existing.FNSKU == nil || *existing.FNSKU == "") {
		updates["fnsku"] = *incoming.FNSKU
		existing.FNSKU = incoming.FNSKU
	}
	if incoming.ASIN != nil && *incoming.ASIN != "" && (existing.ASIN == nil || *existing.ASIN == "") {
		updates["asin"] = *incoming.ASIN
		existing.ASIN = incoming.ASIN
	}
	if incoming.UPC != nil && *incoming.UPC != "" && (existing.UPC == nil || *existing.UPC == "") {
		updates["upc"] = *incoming.UPC
		existing.UPC = incoming.UPC
	}
	if incoming.Title != "" {
		updates["title"] = incoming.Title
		existing.Title = incoming.Title
	}
	if incoming.Brand != "" {
		updates["brand"] = incoming.Brand
		existing.Brand = incoming.Brand
	}
	if incoming.Description != "" {
		updates["description"] = incoming.Description
		existing.Description = incoming.Description
	}
	if incoming.Category != "" {
		updates["category"] = incoming.Category
		existing.Category = incoming.Category
	}
	if incoming.Price > 0 {
		updates["price"] = incoming.Price
		existing.Price = incoming.Price
	}
	if incoming.Currency != "" {
		updates["currency"] = incoming.Currency
		existing.Currency = incoming.Currency
	}
	if incoming.ImageURL != "" {
		updates["image_url"] = incoming.ImageURL
		existing.ImageURL = incoming.ImageURL
	}
	if len(incoming.Images) > 0 {
		updates["images"] = incoming.Images
		existing.Images = incoming.Images
	}
	if len(incoming.Videos) > 0 {
		updates["videos"] = incoming.Videos
		existing.Videos = incoming.Videos
	}
	if incoming.Rating > 0 {
		updates["rating"] = incoming.Rating
		existing.Rating = incoming.Rating
	}
	if incoming.ReviewCount > 0 {
		updates["review_count"] = incoming.ReviewCount
		existing.ReviewCount = incoming.ReviewCount
	}
	if len(incoming.Raw) > 0 {
		updates["raw"] = incoming.Raw
		existing.Raw = incoming.Raw
	}
	if incoming.Source != "" {
		updates["source"] = incoming.Source
		existing.Source = incoming.Source
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, existing.ID.String(), updates); err != nil {
		return nil, err
	}
	return existing, nil
}
