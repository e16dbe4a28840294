package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/clock"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   integrationdomain.Repository
	Tester integrationdomain.ConnectionTester
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   integrationdomain.Repository
	tester integrationdomain.ConnectionTester
}

func NewService(p Params) integrationdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("integration.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		tester: p.Tester,
	}
}

func (s *Service) Upsert(ctx context.Context, req integrationdomain.UpsertSettingRequest) (*integrationdomain.Setting, error) {
	if !integrationdomain.ValidKind(req.Kind) {
		return nil, integrationdomain.ErrInvalidKind
	}
	if err := integrationdomain.ValidateConfig(req.Kind, req.Config); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	existing, err := s.repo.FindByKind(ctx, s.db, req.Kind)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		setting := &integrationdomain.Setting{
			ID:        s.genID.Generate(),
			Kind:      req.Kind,
			Config:    datatypes.JSON(req.Config),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if req.Active != nil {
			setting.Active = *req.Active
		}
		if err := s.repo.Insert(ctx, s.db, setting); err != nil {
			return nil, err
		}
		return setting, nil
	}

	existing.Config = datatypes.JSON(req.Config)
	if req.Active != nil {
		existing.Active = *req.Active
	}
	existing.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Get(ctx context.Context, kind integrationdomain.Kind) (*integrationdomain.Setting, error) {
	if !integrationdomain.ValidKind(kind) {
		return nil, integrationdomain.ErrInvalidKind
	}
	setting, err := s.repo.FindByKind(ctx, s.db, kind)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, integrationdomain.ErrSettingNotFound
	}
	return setting, nil
}

func (s *Service) List(ctx context.Context) ([]*integrationdomain.Setting, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Delete(ctx context.Context, kind integrationdomain.Kind) error {
	if _, err := s.Get(ctx, kind); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, kind)
}

func (s *Service) TestConnection(ctx context.Context, kind integrationdomain.Kind) error {
	setting, err := s.Get(ctx, kind)
	if err != nil {
		return err
	}
	if !setting.Active {
		return integrationdomain.ErrSettingInactive
	}
	if err := s.tester.Test(ctx, setting); err != nil {
		s.log.Warn("connection test failed",
			zap.String("kind", string(kind)), zap.Error(err))
		return fmt.Errorf("%w: %v", integrationdomain.ErrConnectionTest, err)
	}
	return nil
}
