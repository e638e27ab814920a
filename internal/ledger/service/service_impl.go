package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/internal/identifier"
	ledgerdomain "github.com/scanbase/scanbase/internal/ledger/domain"
	"github.com/scanbase/scanbase/pkg/db"
	"github.com/scanbase/scanbase/pkg/db/option"
	"github.com/scanbase/scanbase/pkg/db/pagination"
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
	repo  repository.Repository[ledgerdomain.ScanRecord]
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[ledgerdomain.ScanRecord](p.DB),
	}
}

func (s *Service) Append(ctx context.Context, record *ledgerdomain.ScanRecord) (bool, error) {
	if record.TenantID == 0 {
		return false, ledgerdomain.ErrInvalidTenant
	}
	if record.UserID == 0 {
		return false, ledgerdomain.ErrInvalidUser
	}
	record.Code = identifier.Normalize(record.Code)
	if record.Code == "" {
		return false, ledgerdomain.ErrInvalidCode
	}

	existing, err := s.repo.FindOne(ctx, &ledgerdomain.ScanRecord{
		UserID: record.UserID,
		Code:   record.Code,
	})
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	record.ID = s.genID.Generate()
	if err := s.repo.Create(ctx, record); err != nil {
		// The unique index is the real dedup guard, the pre-check only
		// saves an insert in the common case.
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) CountSince(ctx context.Context, tenantID snowflake.ID, since time.Time) (int64, error) {
	if tenantID == 0 {
		return 0, ledgerdomain.ErrInvalidTenant
	}

	return s.repo.Count(ctx,
		&ledgerdomain.ScanRecord{TenantID: tenantID},
		option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    since,
		}),
	)
}

func (s *Service) Recent(ctx context.Context, req ledgerdomain.RecentRequest) (ledgerdomain.RecentResponse, error) {
	if req.TenantID == 0 {
		return ledgerdomain.RecentResponse{}, ledgerdomain.ErrInvalidTenant
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	filter := &ledgerdomain.ScanRecord{TenantID: req.TenantID}
	if req.UserID != 0 {
		filter.UserID = req.UserID
	}

	records, err := s.repo.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.WithQuerySortBy("created_at", "desc", map[string]bool{"created_at": true})),
	)
	if err != nil {
		return ledgerdomain.RecentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(records, pageSize, func(record *ledgerdomain.ScanRecord) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	result := make([]ledgerdomain.ScanRecord, 0, len(records))
	for i, record := range records {
		if i >= int(pageSize) {
			break
		}
		result = append(result, *record)
	}

	return ledgerdomain.RecentResponse{
		PageInfo: *pageInfo,
		Records:  result,
	}, nil
}
