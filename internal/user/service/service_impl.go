package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/scanbase/scanbase/internal/tenant/domain"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
	"github.com/scanbase/scanbase/pkg/db"
	"github.com/scanbase/scanbase/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	TenantSvc tenantdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	tenantSvc tenantdomain.Service
	repo      repository.Repository[userdomain.User]
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("user.service"),
		genID:     p.GenID,
		tenantSvc: p.TenantSvc,
		repo:      repository.ProvideStore[userdomain.User](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req userdomain.CreateRequest) (*userdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, userdomain.ErrInvalidEmail
	}

	role := req.Role
	if role == "" {
		role = userdomain.RoleMember
	}
	switch role {
	case userdomain.RoleAdmin, userdomain.RoleOwner, userdomain.RoleMember:
	default:
		return nil, userdomain.ErrInvalidRole
	}

	tenant, err := s.tenantSvc.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	// Seat caps are enforced at provisioning time only, an existing
	// overage after a downgrade keeps working.
	seats, err := s.repo.Count(ctx, &userdomain.User{TenantID: tenant.ID})
	if err != nil {
		return nil, err
	}
	if seats >= int64(tenantdomain.MaxUsers(tenant.PlanCode)) {
		return nil, userdomain.ErrUserLimitReached
	}

	user := &userdomain.User{
		ID:       s.genID.Generate(),
		TenantID: tenant.ID,
		Email:    email,
		Role:     role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, userdomain.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*userdomain.User, error) {
	if id == 0 {
		return nil, userdomain.ErrUserNotFound
	}

	user, err := s.repo.FindOne(ctx, &userdomain.User{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetRole(ctx context.Context, id snowflake.ID) (userdomain.Role, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return userdomain.RoleMember, err
	}
	if user.Role == "" {
		return userdomain.RoleMember, nil
	}
	return user.Role, nil
}
