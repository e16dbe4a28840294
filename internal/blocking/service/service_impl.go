package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	blockingdomain "github.com/smallbiznis/cobranca/internal/blocking/domain"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	"github.com/smallbiznis/cobranca/internal/lock"
	"github.com/smallbiznis/cobranca/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	sweepLockKey = "cobranca:sweep:blocking"
	sweepLockTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Scoring     *config.ScoringConfigHolder
	Repo        blockingdomain.Repository
	Franchisees franchiseedomain.Service
	Debts       debtdomain.Service
	Agreements  agreementdomain.Service
	Locker      *lock.Locker       `optional:"true"`
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	scoring     *config.ScoringConfigHolder
	repo        blockingdomain.Repository
	franchisees franchiseedomain.Service
	debts       debtdomain.Service
	agreements  agreementdomain.Service
	locker      *lock.Locker
	metrics     *telemetry.Metrics
}

func NewService(p Params) blockingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("blocking.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		scoring:     p.Scoring,
		repo:        p.Repo,
		franchisees: p.Franchisees,
		debts:       p.Debts,
		agreements:  p.Agreements,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

func validateSystems(systems []blockingdomain.System) error {
	if len(systems) == 0 {
		return blockingdomain.ErrNoSystems
	}
	for _, s := range systems {
		if !blockingdomain.ValidSystem(s) {
			return fmt.Errorf("%w: %s", blockingdomain.ErrInvalidSystem, s)
		}
	}
	return nil
}

func (s *Service) Block(ctx context.Context, req blockingdomain.CreateBlockRequest) (*blockingdomain.Block, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, req.UnitCNPJ)
	if err != nil {
		return nil, err
	}
	if err := validateSystems(req.Systems); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, blockingdomain.ErrReasonRequired
	}

	existing, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, blockingdomain.ErrActiveBlockExists
	}

	block := s.newBlock(unit.CNPJ, req.Systems, strings.TrimSpace(req.Reason), false, req.BlockedBy)
	if err := s.repo.Insert(ctx, s.db, block); err != nil {
		return nil, err
	}
	s.publishActiveCount(ctx)
	return block, nil
}

func (s *Service) Unblock(ctx context.Context, cnpj, unblockedBy string) (*blockingdomain.Block, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}

	block, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, blockingdomain.ErrNoActiveBlock
	}

	now := s.clock.Now()
	block.Active = false
	block.UnblockedBy = strings.TrimSpace(unblockedBy)
	block.UnblockedAt = &now
	block.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, block); err != nil {
		return nil, err
	}
	s.publishActiveCount(ctx)
	return block, nil
}

func (s *Service) UpdateSystems(ctx context.Context, cnpj string, req blockingdomain.UpdateSystemsRequest) (*blockingdomain.Block, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	if err := validateSystems(req.Systems); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, blockingdomain.ErrReasonRequired
	}

	current, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, blockingdomain.ErrNoActiveBlock
	}

	successor := s.newBlock(unit.CNPJ, req.Systems, strings.TrimSpace(req.Reason), current.Automatic, req.UpdatedBy)
	if err := s.repo.Insert(ctx, s.db, successor); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	current.Active = false
	current.SupersededByID = &successor.ID
	current.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, current); err != nil {
		return nil, err
	}
	return successor, nil
}

func (s *Service) ActiveByUnit(ctx context.Context, cnpj string) (*blockingdomain.Block, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	block, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, blockingdomain.ErrNoActiveBlock
	}
	return block, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*blockingdomain.Block, error) {
	block, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, blockingdomain.ErrBlockNotFound
	}
	return block, nil
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]*blockingdomain.Block, error) {
	return s.repo.List(ctx, s.db, onlyActive)
}

func (s *Service) History(ctx context.Context, cnpj string) ([]*blockingdomain.Block, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUnit(ctx, s.db, unit.CNPJ)
}

// Sweep blocks every active unit whose worst overdue debt is past the
// configured limit or that broke at least one agreement. Units honoring
// an agreement in cumprimento are left alone.
func (s *Service) Sweep(ctx context.Context) (*blockingdomain.SweepReport, error) {
	token, ok, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, blockingdomain.ErrSweepInProgress
	}
	defer func() {
		if err := s.locker.Release(ctx, sweepLockKey, token); err != nil {
			s.log.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	start := s.clock.Now()
	active := true
	units, err := s.franchisees.List(ctx, franchiseedomain.ListUnitFilter{Active: &active})
	if err != nil {
		s.metrics.ObserveSweep("blocking", "error", s.clock.Now().Sub(start))
		return nil, err
	}

	report := &blockingdomain.SweepReport{Total: len(units)}
	for _, unit := range units {
		blocked, err := s.sweepUnit(ctx, unit)
		if err != nil {
			s.log.Warn("blocking sweep: unit failed",
				zap.String("cnpj", unit.CNPJ), zap.Error(err))
			s.metrics.IncSweepUnitFailure("blocking")
			report.Failed = append(report.Failed, unit.CNPJ)
			continue
		}
		if blocked {
			report.Blocked++
		} else {
			report.Skipped++
		}
	}

	s.publishActiveCount(ctx)
	s.metrics.ObserveSweep("blocking", "ok", s.clock.Now().Sub(start))
	return report, nil
}

func (s *Service) sweepUnit(ctx context.Context, unit *franchiseedomain.Unit) (bool, error) {
	existing, err := s.repo.FindActiveByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	activeAgreement, err := s.agreements.ActiveByUnit(ctx, unit.CNPJ)
	if err != nil {
		return false, err
	}
	if activeAgreement != nil && activeAgreement.Status == agreementdomain.StatusFulfilling {
		return false, nil
	}

	debts, err := s.debts.OpenByUnit(ctx, unit.CNPJ)
	if err != nil {
		return false, err
	}
	now := s.clock.Now()
	maxDays := 0
	for _, d := range debts {
		if days := d.DaysOverdue(now); days > maxDays {
			maxDays = days
		}
	}

	broken, err := s.agreements.CountBrokenByUnit(ctx, unit.CNPJ)
	if err != nil {
		return false, err
	}

	cfg := s.scoring.Get()
	var reason string
	switch {
	case maxDays > cfg.BlockAfterDays:
		reason = fmt.Sprintf("bloqueio automático: %d dias em atraso (limite %d)", maxDays, cfg.BlockAfterDays)
	case broken >= 1:
		reason = fmt.Sprintf("bloqueio automático: %d acordo(s) quebrado(s)", broken)
	default:
		return false, nil
	}

	block := s.newBlock(unit.CNPJ, blockingdomain.AllSystems, reason, true, "")
	if err := s.repo.Insert(ctx, s.db, block); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) newBlock(cnpj string, systems []blockingdomain.System, reason string, automatic bool, blockedBy string) *blockingdomain.Block {
	now := s.clock.Now()
	return &blockingdomain.Block{
		ID:        s.genID.Generate(),
		UnitCNPJ:  cnpj,
		Systems:   datatypes.JSONSlice[blockingdomain.System](systems),
		Reason:    reason,
		Automatic: automatic,
		Active:    true,
		BlockedBy: strings.TrimSpace(blockedBy),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) publishActiveCount(ctx context.Context) {
	count, err := s.repo.CountActive(ctx, s.db)
	if err != nil {
		s.log.Warn("failed to count active blocks", zap.Error(err))
		return
	}
	s.metrics.SetActiveBlocks(int(count))
}
