package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	"github.com/smallbiznis/cobranca/internal/export"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Scoring *config.ScoringConfigHolder
	Repo    debtdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	scoring *config.ScoringConfigHolder
	repo    debtdomain.Repository
}

func NewService(p Params) debtdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("debt.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		scoring: p.Scoring,
		repo:    p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req debtdomain.CreateDebtRequest) (*debtdomain.Debt, error) {
	cnpj := strings.TrimSpace(req.UnitCNPJ)
	if cnpj == "" {
		return nil, debtdomain.ErrDebtNotFound
	}
	if !debtdomain.ValidType(req.Type) {
		return nil, debtdomain.ErrInvalidType
	}
	if req.OriginalAmount.IsZero() || req.OriginalAmount.IsNegative() {
		return nil, debtdomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	debt := &debtdomain.Debt{
		ID:             s.genID.Generate(),
		UnitCNPJ:       cnpj,
		Description:    strings.TrimSpace(req.Description),
		Type:           req.Type,
		OriginalAmount: req.OriginalAmount.Round(2),
		DueDate:        req.DueDate.UTC(),
		Status:         debtdomain.StatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*debtdomain.DebtView, error) {
	debt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, debtdomain.ErrDebtNotFound
	}
	view := s.view(*debt)
	return &view, nil
}

func (s *Service) List(ctx context.Context, filter debtdomain.ListDebtFilter) ([]*debtdomain.DebtView, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}

	debts, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]*debtdomain.DebtView, 0, len(debts))
	for _, debt := range debts {
		if filter.OverdueOnly && debt.DaysOverdue(now) == 0 {
			continue
		}
		view := s.view(*debt)
		views = append(views, &view)
	}
	return views, nil
}

func (s *Service) OpenByUnit(ctx context.Context, cnpj string) ([]*debtdomain.Debt, error) {
	return s.repo.OpenByUnit(ctx, s.db, strings.TrimSpace(cnpj))
}

func (s *Service) ChangeStatus(ctx context.Context, id snowflake.ID, to debtdomain.Status) (*debtdomain.Debt, error) {
	debt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if debt == nil {
		return nil, debtdomain.ErrDebtNotFound
	}
	if !debtdomain.CanTransition(debt.Status, to) {
		return nil, debtdomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	debt.Status = to
	debt.UpdatedAt = now
	if to == debtdomain.StatusSettled {
		debt.SettledAt = &now
	}

	if err := s.repo.Update(ctx, s.db, debt); err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *Service) ExportCSV(ctx context.Context, filter debtdomain.ListDebtFilter) (string, error) {
	filter.Limit = 250
	views, err := s.List(ctx, filter)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.UnitCNPJ,
			v.Description,
			string(v.Type),
			v.OriginalAmount.StringFixed(2),
			v.AccruedAmount.StringFixed(2),
			v.DueDate.Format("2006-01-02"),
			strconv.Itoa(v.DaysOverdue),
			string(v.Status),
		})
	}

	return export.CSV(
		[]string{"cnpj", "descricao", "tipo", "valor_original", "valor_atualizado", "vencimento", "dias_atraso", "situacao"},
		rows,
	), nil
}

func (s *Service) view(debt debtdomain.Debt) debtdomain.DebtView {
	cfg := s.scoring.Get()
	now := s.clock.Now()
	return debtdomain.DebtView{
		Debt:          debt,
		DaysOverdue:   debt.DaysOverdue(now),
		AccruedAmount: debt.Accrued(now, cfg.PenaltyPercent, cfg.MonthlyInterestPercent),
	}
}

