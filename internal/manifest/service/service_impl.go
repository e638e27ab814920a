package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/scanbase/scanbase/internal/identifier"
	manifestdomain "github.com/scanbase/scanbase/internal/manifest/domain"
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
	repo  repository.Repository[manifestdomain.Item]
}

func NewService(p ServiceParam) manifestdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("manifest.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[manifestdomain.Item](p.DB),
	}
}

func (s *Service) FindByIdentifier(ctx context.Context, tenantID snowflake.ID, code string) (*manifestdomain.Item, error) {
	if tenantID == 0 {
		return nil, manifestdomain.ErrInvalidTenant
	}
	code = identifier.Normalize(code)
	if code == "" {
		return nil, nil
	}

	var item manifestdomain.Item
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("fnsku = ? OR asin = ? OR upc = ? OR lpn = ?", code, code, code, code).
		First(&item).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Service) List(ctx context.Context, req manifestdomain.ListRequest) (manifestdomain.ListResponse, error) {
	if req.TenantID == 0 {
		return manifestdomain.ListResponse{}, manifestdomain.ErrInvalidTenant
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	filter := &manifestdomain.Item{TenantID: req.TenantID}
	options := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.WithQuerySortBy("created_at", "desc", map[string]bool{"created_at": true})),
	}

	stmt := s.db.WithContext(ctx).Where(filter)
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("title LIKE ? OR fnsku LIKE ? OR asin LIKE ?", like, like, like)
	}

	items, err := s.repo.WithTrx(stmt).Find(ctx, &manifestdomain.Item{}, options...)
	if err != nil {
		return manifestdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *manifestdomain.Item) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
		return token
	})

	result := make([]manifestdomain.Item, 0, len(items))
	for i, item := range items {
		if i >= int(pageSize) {
			break
		}
		result = append(result, *item)
	}

	return manifestdomain.ListResponse{
		PageInfo: *pageInfo,
		Items:    result,
	}, nil
}

func (s *Service) Import(ctx context.Context, req manifestdomain.ImportRequest) (int, error) {
	if req.TenantID == 0 {
		return 0, manifestdomain.ErrInvalidTenant
	}
	if len(req.Items) == 0 {
		return 0, manifestdomain.ErrEmptyImport
	}

	rows := make([]*manifestdomain.Item, 0, len(req.Items))
	for _, item := range req.Items {
		row := item
		row.ID = s.genID.Generate()
		row.TenantID = req.TenantID
		if row.FNSKU != nil {
			normalized := identifier.Normalize(*row.FNSKU)
			row.FNSKU = &normalized
		}
		if row.ASIN != nil {
			normalized := identifier.Normalize(*row.ASIN)
			row.ASIN = &normalized
		}
		if row.UPC != nil {
			normalized := identifier.Normalize(*row.UPC)
			row.UPC = &normalized
		}
		if row.Quantity <= 0 {
			row.Quantity = 1
		}
		rows = append(rows, &row)
	}

	if err := s.repo.BatchCreate(ctx, rows); err != nil {
		return 0, err
	}

	s.log.Info("manifest.imported",
		zap.Int64("tenant_id", req.TenantID.Int64()),
		zap.Int("rows", len(rows)),
	)
	return len(rows), nil
}
