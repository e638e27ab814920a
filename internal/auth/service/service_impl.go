package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/scanbase/scanbase/internal/auth/domain"
	userdomain "github.com/scanbase/scanbase/internal/user/domain"
	"github.com/scanbase/scanbase/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	UserSvc userdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	userSvc userdomain.Service
	repo    repository.Repository[authdomain.APIToken]
}

func NewService(p ServiceParam) authdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("auth.service"),
		genID:   p.GenID,
		userSvc: p.UserSvc,
		repo:    repository.ProvideStore[authdomain.APIToken](p.DB),
	}
}

func (s *Service) Verify(ctx context.Context, token string) (*authdomain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, authdomain.ErrInvalidToken
	}

	row, err := s.repo.FindOne(ctx, &authdomain.APIToken{Token: token})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, authdomain.ErrInvalidToken
	}
	if row.RevokedAt != nil {
		return nil, authdomain.ErrTokenRevoked
	}

	identity := &authdomain.Identity{
		UserID:   row.UserID,
		TenantID: row.TenantID,
	}

	role, err := s.userSvc.GetRole(ctx, row.UserID)
	if err != nil && !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}
	identity.Role = string(role)

	s.touch(ctx, row)
	return identity, nil
}

// touch records last use, best effort.
func (s *Service) touch(ctx context.Context, row *authdomain.APIToken) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&authdomain.APIToken{}).
		Where("id = ?", row.ID).
		UpdateColumn("last_used_at", now).Error
	if err != nil {
		s.log.Debug("auth.touch_failed", zap.Error(err))
	}
}

func (s *Service) Issue(ctx context.Context, req authdomain.IssueRequest) (*authdomain.APIToken, error) {
	if req.UserID == 0 || req.TenantID == 0 {
		return nil, authdomain.ErrInvalidToken
	}

	row := &authdomain.APIToken{
		ID:       s.genID.Generate(),
		Token:    "sbk_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:   req.UserID,
		TenantID: req.TenantID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}
