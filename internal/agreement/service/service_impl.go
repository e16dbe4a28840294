package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	"github.com/smallbiznis/cobranca/internal/clock"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	"github.com/smallbiznis/cobranca/internal/export"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	"github.com/smallbiznis/cobranca/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        agreementdomain.Repository
	Debts       debtdomain.Service
	Franchisees franchiseedomain.Service
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        agreementdomain.Repository
	debts       debtdomain.Service
	franchisees franchiseedomain.Service
	metrics     *telemetry.Metrics
}

func NewService(p Params) agreementdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("agreement.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		debts:       p.Debts,
		franchisees: p.Franchisees,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req agreementdomain.CreateAgreementRequest) (*agreementdomain.Agreement, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, req.UnitCNPJ)
	if err != nil {
		return nil, err
	}

	broken, err := s.repo.CountBrokenByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if broken >= agreementdomain.BlacklistBrokenLimit {
		return nil, agreementdomain.ErrUnitBlacklisted
	}

	active, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, agreementdomain.ErrActiveAgreementExists
	}

	if len(req.DebtIDs) == 0 {
		return nil, agreementdomain.ErrNoDebts
	}
	if req.InstallmentCount < 1 {
		return nil, agreementdomain.ErrInvalidInstallments
	}
	if req.TotalValue.IsZero() || req.TotalValue.IsNegative() {
		return nil, agreementdomain.ErrInvalidValues
	}
	if req.DownPayment.IsNegative() || req.DownPayment.GreaterThan(req.TotalValue) {
		return nil, agreementdomain.ErrInvalidValues
	}

	debtIDs := make(datatypes.JSONSlice[string], 0, len(req.DebtIDs))
	for _, debtID := range req.DebtIDs {
		view, err := s.debts.Get(ctx, debtID)
		if err != nil {
			return nil, err
		}
		if view.UnitCNPJ != unit.CNPJ || view.Status.Terminal() {
			return nil, debtdomain.ErrDebtNotFound
		}
		debtIDs = append(debtIDs, debtID.String())
	}

	now := s.clock.Now()
	agreement := &agreementdomain.Agreement{
		ID:               s.genID.Generate(),
		UnitCNPJ:         unit.CNPJ,
		DebtIDs:          debtIDs,
		TotalValue:       req.TotalValue.Round(2),
		DownPayment:      req.DownPayment.Round(2),
		InstallmentCount: req.InstallmentCount,
		InstallmentValue: InstallmentValue(req.TotalValue, req.DownPayment, req.InstallmentCount),
		Status:           agreementdomain.StatusProposed,
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, agreement); err != nil {
		return nil, err
	}

	s.markDebts(ctx, agreement, debtdomain.StatusNegotiating)
	s.metrics.IncAgreementTransition("create")
	return agreement, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	agreement, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, agreementdomain.ErrAgreementNotFound
	}
	return agreement, nil
}

func (s *Service) List(ctx context.Context, filter agreementdomain.ListAgreementFilter) ([]*agreementdomain.Agreement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) ActiveByUnit(ctx context.Context, cnpj string) (*agreementdomain.Agreement, error) {
	return s.repo.FindActiveByUnit(ctx, s.db, strings.TrimSpace(cnpj))
}

func (s *Service) CountBrokenByUnit(ctx context.Context, cnpj string) (int64, error) {
	return s.repo.CountBrokenByUnit(ctx, s.db, strings.TrimSpace(cnpj))
}

func (s *Service) Accept(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	return s.transition(ctx, id, agreementdomain.StatusProposed, agreementdomain.StatusAccepted, func(a *agreementdomain.Agreement) {
		now := s.clock.Now()
		a.AcceptedAt = &now
	})
}

func (s *Service) StartFulfillment(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	return s.transition(ctx, id, agreementdomain.StatusAccepted, agreementdomain.StatusFulfilling, nil)
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	agreement, err := s.transition(ctx, id, agreementdomain.StatusFulfilling, agreementdomain.StatusFulfilled, func(a *agreementdomain.Agreement) {
		now := s.clock.Now()
		a.ClosedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.markDebts(ctx, agreement, debtdomain.StatusSettled)
	return agreement, nil
}

func (s *Service) Break(ctx context.Context, id snowflake.ID, reason string) (*agreementdomain.Agreement, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, agreementdomain.ErrReasonRequired
	}

	agreement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Status != agreementdomain.StatusAccepted && agreement.Status != agreementdomain.StatusFulfilling {
		return nil, agreementdomain.ErrInvalidTransition
	}

	now := s.clock.Now()
	agreement.Status = agreementdomain.StatusBroken
	agreement.BrokenReason = reason
	agreement.ClosedAt = &now
	agreement.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, agreement); err != nil {
		return nil, err
	}

	s.markDebts(ctx, agreement, debtdomain.StatusOpen)
	s.metrics.IncAgreementTransition("break")
	return agreement, nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
	agreement, err := s.transition(ctx, id, agreementdomain.StatusProposed, agreementdomain.StatusCancelled, func(a *agreementdomain.Agreement) {
		now := s.clock.Now()
		a.ClosedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.markDebts(ctx, agreement, debtdomain.StatusOpen)
	return agreement, nil
}

// Renegotiate closes the current agreement as renegotiated and opens a
// successor referencing it. Only accepted or fulfilling agreements may
// be renegotiated, and a justification is mandatory.
func (s *Service) Renegotiate(ctx context.Context, id snowflake.ID, req agreementdomain.RenegotiateRequest) (*agreementdomain.Agreement, error) {
	justification := strings.TrimSpace(req.Justification)
	if justification == "" {
		return nil, agreementdomain.ErrJustificationRequired
	}

	agreement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Status != agreementdomain.StatusAccepted && agreement.Status != agreementdomain.StatusFulfilling {
		return nil, agreementdomain.ErrStatusNotRenegotiable
	}

	if req.InstallmentCount < 1 {
		return nil, agreementdomain.ErrInvalidInstallments
	}
	if req.TotalValue.IsZero() || req.TotalValue.IsNegative() {
		return nil, agreementdomain.ErrInvalidValues
	}
	if req.DownPayment.IsNegative() || req.DownPayment.GreaterThan(req.TotalValue) {
		return nil, agreementdomain.ErrInvalidValues
	}

	now := s.clock.Now()
	agreement.Status = agreementdomain.StatusRenegotiated
	agreement.ClosedAt = &now
	agreement.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, agreement); err != nil {
		return nil, err
	}

	previousID := agreement.ID
	successor := &agreementdomain.Agreement{
		ID:                  s.genID.Generate(),
		UnitCNPJ:            agreement.UnitCNPJ,
		DebtIDs:             agreement.DebtIDs,
		TotalValue:          req.TotalValue.Round(2),
		DownPayment:         req.DownPayment.Round(2),
		InstallmentCount:    req.InstallmentCount,
		InstallmentValue:    InstallmentValue(req.TotalValue, req.DownPayment, req.InstallmentCount),
		Status:              agreementdomain.StatusProposed,
		PreviousAgreementID: &previousID,
		Notes:               justification,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, successor); err != nil {
		return nil, err
	}
	s.metrics.IncAgreementTransition("renegotiate")
	return successor, nil
}

func (s *Service) ExportCSV(ctx context.Context, filter agreementdomain.ListAgreementFilter) (string, error) {
	filter.Limit = 250
	agreements, err := s.List(ctx, filter)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(agreements))
	for _, a := range agreements {
		previous := ""
		if a.PreviousAgreementID != nil {
			previous = a.PreviousAgreementID.String()
		}
		rows = append(rows, []string{
			a.ID.String(),
			a.UnitCNPJ,
			a.TotalValue.StringFixed(2),
			a.DownPayment.StringFixed(2),
			strconv.Itoa(a.InstallmentCount),
			a.InstallmentValue.StringFixed(2),
			string(a.Status),
			previous,
			a.Notes,
		})
	}

	return export.CSV(
		[]string{"id", "cnpj", "valor_total", "entrada", "parcelas", "valor_parcela", "situacao", "acordo_anterior", "observacao"},
		rows,
	), nil
}

// InstallmentValue splits the financed remainder evenly, rounded to
// cents.
func InstallmentValue(total, down decimal.Decimal, count int) decimal.Decimal {
	if count < 1 {
		return decimal.Zero
	}
	return total.Sub(down).Div(decimal.NewFromInt(int64(count))).Round(2)
}

func (s *Service) transition(ctx context.Context, id snowflake.ID, from, to agreementdomain.Status, mutate func(*agreementdomain.Agreement)) (*agreementdomain.Agreement, error) {
	agreement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Status != from {
		return nil, agreementdomain.ErrInvalidTransition
	}

	agreement.Status = to
	agreement.UpdatedAt = s.clock.Now()
	if mutate != nil {
		mutate(agreement)
	}

	if err := s.repo.Update(ctx, s.db, agreement); err != nil {
		return nil, err
	}
	s.metrics.IncAgreementTransition(string(to))
	return agreement, nil
}

// markDebts walks the agreement's debts applying the target status.
// Individual failures are logged and skipped so one bad row does not
// abort the whole operation.
func (s *Service) markDebts(ctx context.Context, agreement *agreementdomain.Agreement, target debtdomain.Status) {
	for _, raw := range agreement.DebtIDs {
		debtID, err := snowflake.ParseString(raw)
		if err != nil {
			s.log.Warn("invalid debt id on agreement", zap.String("debt_id", raw), zap.Error(err))
			continue
		}
		if _, err := s.debts.ChangeStatus(ctx, debtID, target); err != nil {
			s.log.Warn("failed to update debt status",
				zap.String("agreement_id", agreement.ID.String()),
				zap.String("debt_id", raw),
				zap.String("target", string(target)),
				zap.Error(err),
			)
		}
	}
}
