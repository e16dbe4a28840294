package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/export"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	"github.com/smallbiznis/cobranca/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  franchiseedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  franchiseedomain.Repository
}

func NewService(p Params) franchiseedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("franchisee.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req franchiseedomain.CreateUnitRequest) (*franchiseedomain.Unit, error) {
	cnpj := NormalizeCNPJ(req.CNPJ)
	if !ValidCNPJ(cnpj) {
		return nil, franchiseedomain.ErrInvalidCNPJ
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, franchiseedomain.ErrNameRequired
	}

	now := s.clock.Now()
	unit := &franchiseedomain.Unit{
		ID:        s.genID.Generate(),
		CNPJ:      cnpj,
		Name:      name,
		City:      strings.TrimSpace(req.City),
		State:     strings.ToUpper(strings.TrimSpace(req.State)),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, unit); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, franchiseedomain.ErrUnitExists
		}
		return nil, err
	}
	return unit, nil
}

func (s *Service) GetByCNPJ(ctx context.Context, cnpj string) (*franchiseedomain.Unit, error) {
	unit, err := s.repo.FindByCNPJ(ctx, s.db, NormalizeCNPJ(cnpj))
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, franchiseedomain.ErrUnitNotFound
	}
	return unit, nil
}

func (s *Service) Update(ctx context.Context, cnpj string, req franchiseedomain.UpdateUnitRequest) (*franchiseedomain.Unit, error) {
	unit, err := s.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, franchiseedomain.ErrNameRequired
		}
		unit.Name = name
	}
	if req.City != nil {
		unit.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		unit.State = strings.ToUpper(strings.TrimSpace(*req.State))
	}
	if req.Phone != nil {
		unit.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		unit.Email = strings.TrimSpace(*req.Email)
	}
	if req.Active != nil {
		unit.Active = *req.Active
	}
	unit.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *Service) List(ctx context.Context, filter franchiseedomain.ListUnitFilter) ([]*franchiseedomain.Unit, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ExportCSV(ctx context.Context, filter franchiseedomain.ListUnitFilter) (string, error) {
	filter.Limit = 250
	units, err := s.List(ctx, filter)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(units))
	for _, unit := range units {
		status := "ativa"
		if !unit.Active {
			status = "inativa"
		}
		rows = append(rows, []string{
			unit.CNPJ,
			unit.Name,
			unit.City,
			unit.State,
			unit.Phone,
			unit.Email,
			status,
		})
	}

	return export.CSV([]string{"cnpj", "nome", "cidade", "uf", "telefone", "email", "situacao"}, rows), nil
}
