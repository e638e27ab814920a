package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	catalogdomain "github.com/scanbase/scanbase/internal/catalog/domain"
	"github.com/scanbase/scanbase/internal/clock"
	"github.com/scanbase/scanbase/internal/identifier"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
	"github.com/scanbase/scanbase/internal/providers/productdata"
	"github.com/scanbase/scanbase/internal/providers/scantask"
	"github.com/scanbase/scanbase/internal/providers/upcdb"
	quotadomain "github.com/scanbase/scanbase/internal/quota/domain"
	"github.com/scanbase/scanbase/internal/ratelimit"
	scandomain "github.com/scanbase/scanbase/internal/scan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// cacheMaxAge is how long a complete entry is served without
// re-enrichment.
const cacheMaxAge = 30 * 24 * time.Hour

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	QuotaSvc    quotadomain.Service
	ManifestSvc manifestdomain.Service
	CatalogSvc  catalogdomain.Service
	LedgerSvc   ledgerdomain.Service
	ScanTask    scantask.Resolver
	ProductData productdata.Enricher
	UPCDB       upcdb.Resolver
	Limiter     *ratelimit.ScanLimiter `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	quotaSvc    quotadomain.Service
	manifestSvc manifestdomain.Service
	catalogSvc  catalogdomain.Service
	ledgerSvc   ledgerdomain.Service
	scanTask    scantask.Resolver
	productData productdata.Enricher
	upcDB       upcdb.Resolver
	limiter     *ratelimit.ScanLimiter
}

func NewService(p ServiceParam) scandomain.Service {
	return &Service{
		log:         p.Log.Named("scan.service"),
		clock:       p.Clock,
		quotaSvc:    p.QuotaSvc,
		manifestSvc: p.ManifestSvc,
		catalogSvc:  p.CatalogSvc,
		ledgerSvc:   p.LedgerSvc,
		scanTask:    p.ScanTask,
		productData: p.ProductData,
		upcDB:       p.UPCDB,
		limiter:     p.Limiter,
	}
}

func (s *Service) Resolve(ctx context.Context, req scandomain.Request) (*scandomain.Result, error) {
	code := identifier.Normalize(req.Code)
	if code == "" {
		return nil, scandomain.ErrInvalidCode
	}
	if req.UserID == 0 || req.TenantID == 0 {
		return nil, scandomain.ErrUnidentified
	}

	codeType := identifier.Classify(code)
	if claimed := claimedType(req.ClaimedType); claimed != "" {
		codeType = claimed
	}

	result := &scandomain.Result{
		RequestID: ulid.Make().String(),
		Code:      code,
		CodeType:  string(codeType),
	}
	log := s.log.With(
		zap.String("request_id", result.RequestID),
		zap.String("code", code),
		zap.String("code_type", result.CodeType),
		zap.Int64("tenant_id", req.TenantID.Int64()),
	)

	// The quota gate runs before anything that could cost money.
	decision, err := s.quotaSvc.Authorize(ctx, req.UserID, req.TenantID)
	if err != nil {
		return nil, err
	}
	result.ScanCount = decision
	if !decision.Allowed {
		return nil, &scandomain.QuotaExceededError{Decision: decision}
	}

	// Tenant manifest beats every external source.
	if item, err := s.manifestSvc.FindByIdentifier(ctx, req.TenantID, code); err != nil {
		log.Warn("scan.manifest_check_failed", zap.Error(err))
	} else if item != nil {
		s.fillFromManifest(result, item)
		result.Success = true
		result.Source = scandomain.SourceLocal
		result.CostStatus = scandomain.CostNoCharge
		s.finish(ctx, req, result, log)
		return result, nil
	}

	// Shared cache.
	entry, err := s.catalogSvc.Lookup(ctx, code, codeType)
	if err != nil {
		log.Warn("scan.cache_check_failed", zap.Error(err))
		entry = nil
	}
	if entry != nil {
		fresh := !entry.StaleAt(s.clock.Now(), cacheMaxAge)
		if entry.Complete(code) && fresh {
			s.fillFromEntry(result, entry)
			result.Success = true
			result.Source = scandomain.SourceCache
			result.CostStatus = scandomain.CostNoCharge
			result.Cached = true
			s.finish(ctx, req, result, log)
			return result, nil
		}

		if asin := derefStr(entry.ASIN); asin != "" {
			// Known ASIN but thin or stale data: pay for an upgrade.
			if detail, err := s.productData.Enrich(ctx, asin); err == nil {
				s.fillFromDetail(result, detail)
				result.FNSKU = firstNonEmpty(derefStr(entry.FNSKU), result.FNSKU)
				result.UPC = firstNonEmpty(derefStr(entry.UPC), result.UPC)
				result.Success = true
				result.Source = scandomain.SourceProductData
				result.CostStatus = scandomain.CostCharged
				s.persist(ctx, result, log)
				s.finish(ctx, req, result, log)
				return result, nil
			}

			// Enrichment failed: the stale entry is still the best we
			// have, serve it without charging.
			s.fillFromEntry(result, entry)
			result.Success = true
			result.Source = scandomain.SourceCache
			result.CostStatus = scandomain.CostNoCharge
			result.Cached = true
			s.finish(ctx, req, result, log)
			return result, nil
		}
		// Incomplete entry with no ASIN falls through to resolution.
	}

	if err := s.resolveExternal(ctx, req, result, codeType, log); err != nil {
		return nil, err
	}

	s.persist(ctx, result, log)
	s.finish(ctx, req, result, log)
	return result, nil
}

func (s *Service) resolveExternal(ctx context.Context, req scandomain.Request, result *scandomain.Result, codeType identifier.CodeType, log *zap.Logger) error {
	// Serialize concurrent resolutions of one code per tenant. Lock
	// contention is tolerated, the cache dedups at persist time.
	if token, ok, err := s.limiter.TryLockCode(ctx, req.TenantID.String(), result.Code); err != nil {
		log.Debug("scan.lock_failed", zap.Error(err))
	} else if ok && token != "" {
		defer func() {
			_ = s.limiter.ReleaseCode(ctx, req.TenantID.String(), result.Code, token)
		}()
	}

	switch codeType {
	case identifier.TypeUPC, identifier.TypeEAN:
		return s.resolveUPC(ctx, result, log)
	case identifier.TypeASIN:
		return s.resolveASIN(ctx, result)
	default:
		return s.resolveFNSKU(ctx, result, log)
	}
}

// resolveUPC only ever spends money when the free lookup reveals an
// ASIN worth enriching.
func (s *Service) resolveUPC(ctx context.Context, result *scandomain.Result, log *zap.Logger) error {
	draft, err := s.upcDB.Lookup(ctx, result.Code)
	if err != nil {
		return scandomain.ErrNotFound
	}

	result.UPC = result.Code
	result.Title = draft.Title
	result.Brand = draft.Brand
	result.Description = draft.Description
	result.Category = draft.Category
	result.Price = draft.Price
	result.Images = draft.Images
	result.Raw = draft.Raw
	if len(draft.Images) > 0 {
		result.ImageURL = draft.Images[0]
	}
	result.Success = true
	result.Source = scandomain.SourceUPCDB
	result.CostStatus = scandomain.CostNoCharge

	if draft.ASIN != "" {
		result.ASIN = draft.ASIN
		if detail, err := s.productData.Enrich(ctx, draft.ASIN); err == nil {
			upc := result.UPC
			s.fillFromDetail(result, detail)
			result.UPC = upc
			result.Source = scandomain.SourceProductData
			result.CostStatus = scandomain.CostCharged
		} else {
			log.Debug("scan.opportunistic_enrich_missed", zap.String("asin", draft.ASIN))
		}
	}
	return nil
}

func (s *Service) resolveASIN(ctx context.Context, result *scandomain.Result) error {
	detail, err := s.productData.Enrich(ctx, result.Code)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return scandomain.ErrUpstreamTimeout
		}
		return scandomain.ErrNotFound
	}

	s.fillFromDetail(result, detail)
	result.ASIN = result.Code
	result.Success = true
	result.Source = scandomain.SourceProductData
	result.CostStatus = scandomain.CostCharged
	return nil
}

func (s *Service) resolveFNSKU(ctx context.Context, result *scandomain.Result, log *zap.Logger) error {
	resolution, err := s.scanTask.Resolve(ctx, result.Code)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return scandomain.ErrUpstreamTimeout
		}
		return err
	}

	result.FNSKU = result.Code
	result.TaskID = resolution.TaskID
	result.CostStatus = scandomain.CostCharged
	result.Source = scandomain.SourceScanTask

	switch resolution.Outcome {
	case scantask.OutcomeResolved:
		result.ASIN = resolution.ASIN
		if detail, err := s.productData.Enrich(ctx, resolution.ASIN); err == nil {
			s.fillFromDetail(result, detail)
			result.FNSKU = result.Code
			result.Source = scandomain.SourceProductData
		} else {
			// Charged for the ASIN but the detail lookup missed: keep
			// a recognizable placeholder so the cache can upgrade the
			// entry on a later scan.
			result.Title = "Amazon Product (ASIN: " + resolution.ASIN + ")"
			log.Warn("scan.enrich_after_resolve_missed", zap.String("asin", resolution.ASIN))
		}
		result.Success = true
		return nil

	case scantask.OutcomePending:
		result.Success = true
		result.Processing = true
		result.Title = "FNSKU: " + result.Code
		return nil

	default:
		return scandomain.ErrNotFound
	}
}

// persist writes the resolution to the shared cache, best effort. A
// failed write after a paid call must not fail the request.
func (s *Service) persist(ctx context.Context, result *scandomain.Result, log *zap.Logger) {
	entry := &catalogdomain.Entry{
		Title:       result.Title,
		Brand:       result.Brand,
		Description: result.Description,
		Category:    result.Category,
		Price:       result.Price,
		Currency:    result.Currency,
		ImageURL:    result.ImageURL,
		Rating:      result.Rating,
		ReviewCount: result.ReviewCount,
		Source:      result.Source,
	}
	if result.FNSKU != "" {
		entry.FNSKU = &result.FNSKU
	}
	if result.ASIN != "" {
		entry.ASIN = &result.ASIN
	}
	if result.UPC != "" {
		entry.UPC = &result.UPC
	}
	if len(result.Images) > 0 {
		if b, err := json.Marshal(result.Images); err == nil {
			entry.Images = datatypes.JSON(b)
		}
	}
	if len(result.Videos) > 0 {
		if b, err := json.Marshal(result.Videos); err == nil {
			entry.Videos = datatypes.JSON(b)
		}
	}
	if len(result.Raw) > 0 {
		entry.Raw = datatypes.JSON(result.Raw)
	}

	if _, err := s.catalogSvc.Save(ctx, entry); err != nil {
		log.Error("scan.cache_persist_failed", zap.Error(err))
	}
}

// finish appends the ledger row and folds the new usage into the
// returned counts. Ledger failures are logged, never surfaced.
func (s *Service) finish(ctx context.Context, req scandomain.Request, result *scandomain.Result, log *zap.Logger) {
	created, err := s.ledgerSvc.Append(ctx, &ledgerdomain.ScanRecord{
		TenantID:   req.TenantID,
		UserID:     req.UserID,
		Code:       result.Code,
		CodeType:   result.CodeType,
		Source:     result.Source,
		CostStatus: result.CostStatus,
	})
	if err != nil {
		log.Error("scan.ledger_append_failed", zap.Error(err))
		return
	}

	if created && !result.ScanCount.Unlimited {
		result.ScanCount.Used++
		if result.ScanCount.Remaining > 0 {
			result.ScanCount.Remaining--
		}
	}
}

func (s *Service) fillFromManifest(result *scandomain.Result, item *manifestdomain.Item) {
	result.FNSKU = derefStr(item.FNSKU)
	result.ASIN = derefStr(item.ASIN)
	result.UPC = derefStr(item.UPC)
	result.Title = item.Title
	result.Brand = item.Brand
	result.Price = item.MSRP
	if result.ASIN != "" {
		result.AmazonURL = "https://www.amazon.com/dp/" + result.ASIN
	}
}

func (s *Service) fillFromEntry(result *scandomain.Result, entry *catalogdomain.Entry) {
	result.FNSKU = derefStr(entry.FNSKU)
	result.ASIN = derefStr(entry.ASIN)
	result.UPC = derefStr(entry.UPC)
	result.Title = entry.Title
	result.Brand = entry.Brand
	result.Description = entry.Description
	result.Category = entry.Category
	result.Rating = entry.Rating
	result.ReviewCount = entry.ReviewCount
	result.Price = entry.Price
	result.Currency = entry.Currency
	result.ImageURL = entry.ImageURL
	if len(entry.Images) > 0 {
		var images []string
		if err := json.Unmarshal(entry.Images, &images); err == nil {
			result.Images = images
		}
	}
	if len(entry.Videos) > 0 {
		var videos []string
		if err := json.Unmarshal(entry.Videos, &videos); err == nil {
			result.Videos = videos
		}
	}
	if result.ASIN != "" {
		result.AmazonURL = "https://www.amazon.com/dp/" + result.ASIN
	}
}

func (s *Service) fillFromDetail(result *scandomain.Result, detail *productdata.Detail) {
	result.ASIN = detail.ASIN
	result.Title = detail.Title
	result.Brand = detail.Brand
	result.Description = detail.Description
	result.Category = detail.Category
	result.Rating = detail.Rating
	result.ReviewCount = detail.ReviewCount
	result.Price = detail.Price
	result.Currency = detail.Currency
	result.Images = detail.Images
	result.Videos = detail.Videos
	result.Raw = detail.Raw
	if len(detail.Images) > 0 {
		result.ImageURL = detail.Images[0]
	}
	if detail.ASIN != "" {
		result.AmazonURL = "https://www.amazon.com/dp/" + detail.ASIN
	}
}

func claimedType(claimed string) identifier.CodeType {
	switch identifier.CodeType(claimed) {
	case identifier.TypeUPC, identifier.TypeEAN, identifier.TypeASIN, identifier.TypeFNSKU:
		return identifier.CodeType(claimed)
	}
	return ""
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
