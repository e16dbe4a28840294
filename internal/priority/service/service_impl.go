package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	"github.com/smallbiznis/cobranca/internal/export"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	"github.com/smallbiznis/cobranca/internal/lock"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
	"github.com/smallbiznis/cobranca/internal/providers/notification"
	"github.com/smallbiznis/cobranca/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sweepLockKey = "cobranca:sweep:priority"
	sweepLockTTL = 5 * time.Minute
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Scoring     *config.ScoringConfigHolder
	Repo        prioritydomain.Repository
	Franchisees franchiseedomain.Service
	Debts       debtdomain.Service
	Agreements  agreementdomain.Service
	Kanban      kanbandomain.Service
	Notifier    notification.Provider
	Locker      *lock.Locker       `optional:"true"`
	Metrics     *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	scoring     *config.ScoringConfigHolder
	repo        prioritydomain.Repository
	franchisees franchiseedomain.Service
	debts       debtdomain.Service
	agreements  agreementdomain.Service
	kanban      kanbandomain.Service
	notifier    notification.Provider
	locker      *lock.Locker
	metrics     *telemetry.Metrics
}

func NewService(p Params) prioritydomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("priority.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		scoring:     p.Scoring,
		repo:        p.Repo,
		franchisees: p.Franchisees,
		debts:       p.Debts,
		agreements:  p.Agreements,
		kanban:      p.Kanban,
		notifier:    p.Notifier,
		locker:      p.Locker,
		metrics:     p.Metrics,
	}
}

func (s *Service) Recompute(ctx context.Context, cnpj string) (*prioritydomain.PriorityView, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	return s.recomputeUnit(ctx, unit)
}

func (s *Service) recomputeUnit(ctx context.Context, unit *franchiseedomain.Unit) (*prioritydomain.PriorityView, error) {
	cfg := s.scoring.Get()

	facts, err := s.aggregate(ctx, unit.CNPJ, cfg)
	if err != nil {
		return nil, err
	}

	score := prioritydomain.ComputeScore(facts, cfg)
	classified := prioritydomain.ClassifyLevel(facts.MaxDaysOverdue, cfg.EscalationThresholds)

	now := s.clock.Now()
	existing, err := s.repo.FindByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}

	p := existing
	if p == nil {
		p = &prioritydomain.Priority{
			ID:        s.genID.Generate(),
			UnitCNPJ:  unit.CNPJ,
			Level:     classified,
			CreatedAt: now,
		}
	} else if classified > p.Level {
		// Day thresholds only ever raise the level; demotion is a human
		// decision made through Override.
		if err := s.logEscalation(ctx, unit.CNPJ, p.Level, classified,
			fmt.Sprintf("dias em atraso (%d) acima do limite do nível", facts.MaxDaysOverdue),
			true, ""); err != nil {
			return nil, err
		}
		p.Level = classified
		p.ContactAttempts = 0
	}

	p.Score = score
	p.UpdatedAt = now
	if err := s.repo.Upsert(ctx, s.db, p); err != nil {
		return nil, err
	}

	return &prioritydomain.PriorityView{
		Priority: *p,
		Facts:    facts,
		Action:   prioritydomain.ActionForLevel(p.Level),
	}, nil
}

func (s *Service) Sweep(ctx context.Context) (*prioritydomain.SweepReport, error) {
	token, ok, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, prioritydomain.ErrSweepInProgress
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
		s.metrics.ObserveSweep("priority", "error", s.clock.Now().Sub(start))
		return nil, err
	}

	cfg := s.scoring.Get()
	report := &prioritydomain.SweepReport{Total: len(units)}

	for _, unit := range units {
		view, err := s.recomputeUnit(ctx, unit)
		if err != nil {
			s.log.Warn("priority sweep: unit failed",
				zap.String("cnpj", unit.CNPJ), zap.Error(err))
			s.metrics.IncSweepUnitFailure("priority")
			report.Failed = append(report.Failed, unit.CNPJ)
			continue
		}
		report.Recomputed++
		if view.Level > prioritydomain.MinLevel {
			report.Escalated++
		}

		if err := s.dispatch(ctx, unit, &view.Priority, cfg); err != nil {
			// The sweep keeps going; a failed notification is final for
			// this round and is not retried.
			s.log.Warn("priority sweep: dispatch failed",
				zap.String("cnpj", unit.CNPJ), zap.Error(err))
			s.metrics.IncSweepUnitFailure("priority")
			report.Failed = append(report.Failed, unit.CNPJ)
			continue
		}
		report.Dispatched++
	}

	s.metrics.ObserveSweep("priority", "ok", s.clock.Now().Sub(start))
	return report, nil
}

// dispatch performs the level's recommended action: auto-actionable
// levels notify the unit and count as a contact attempt, the rest open
// a pending action for an operator.
func (s *Service) dispatch(ctx context.Context, unit *franchiseedomain.Unit, p *prioritydomain.Priority, cfg config.ScoringConfig) error {
	action := prioritydomain.ActionForLevel(p.Level)

	if !cfg.IsAutoActionLevel(p.Level) {
		open, err := s.repo.FindOpenAction(ctx, s.db, unit.CNPJ, p.Level)
		if err != nil {
			return err
		}
		if open != nil {
			return nil
		}
		return s.repo.InsertPendingAction(ctx, s.db, &prioritydomain.PendingAction{
			ID:        s.genID.Generate(),
			UnitCNPJ:  unit.CNPJ,
			Level:     p.Level,
			Action:    action,
			CreatedAt: s.clock.Now(),
		})
	}

	msg, ok := buildMessage(unit, action)
	if !ok {
		s.log.Warn("unit has no contact channel, skipping automatic action",
			zap.String("cnpj", unit.CNPJ))
		return nil
	}

	start := s.clock.Now()
	err := s.notifier.Send(ctx, msg)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ObserveNotification(string(msg.Channel), outcome, s.clock.Now().Sub(start))
	if err != nil {
		return err
	}

	if err := s.logEscalation(ctx, unit.CNPJ, p.Level, p.Level,
		"ação automática executada: "+action, true, ""); err != nil {
		return err
	}
	_, err = s.bumpAttempts(ctx, p, cfg)
	return err
}

func buildMessage(unit *franchiseedomain.Unit, action string) (notification.Message, bool) {
	body := fmt.Sprintf("Prezada unidade %s: %s referente aos débitos em aberto. Procure o setor de cobrança.", unit.Name, action)
	if strings.TrimSpace(unit.Phone) != "" {
		return notification.Message{
			Recipient: unit.Phone,
			Channel:   notification.ChannelWhatsApp,
			Body:      body,
		}, true
	}
	if strings.TrimSpace(unit.Email) != "" {
		return notification.Message{
			Recipient: unit.Email,
			Channel:   notification.ChannelEmail,
			Subject:   "Aviso de cobrança",
			Body:      body,
		}, true
	}
	return notification.Message{}, false
}

// bumpAttempts increments the contact counter and applies the
// max-attempts escalation trigger. Terminal level 5 never escalates
// automatically.
func (s *Service) bumpAttempts(ctx context.Context, p *prioritydomain.Priority, cfg config.ScoringConfig) (*prioritydomain.Priority, error) {
	now := s.clock.Now()
	p.ContactAttempts++
	p.LastContactAt = &now

	if cfg.MaxAttemptsPerLevel > 0 &&
		p.ContactAttempts >= cfg.MaxAttemptsPerLevel &&
		p.Level < prioritydomain.MaxLevel {
		from := p.Level
		p.Level++
		p.ContactAttempts = 0
		if err := s.logEscalation(ctx, p.UnitCNPJ, from, p.Level,
			fmt.Sprintf("limite de %d tentativas de contato atingido", cfg.MaxAttemptsPerLevel),
			true, ""); err != nil {
			return nil, err
		}
	}

	p.UpdatedAt = now
	if err := s.repo.Upsert(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Queue(ctx context.Context) ([]prioritydomain.QueueEntry, error) {
	priorities, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	cfg := s.scoring.Get()
	entries := make([]prioritydomain.QueueEntry, 0, len(priorities))
	for _, p := range priorities {
		unit, err := s.franchisees.GetByCNPJ(ctx, p.UnitCNPJ)
		if err != nil {
			return nil, err
		}
		facts, err := s.aggregate(ctx, p.UnitCNPJ, cfg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, prioritydomain.QueueEntry{
			UnitCNPJ:        p.UnitCNPJ,
			UnitName:        unit.Name,
			Score:           p.Score,
			Level:           p.Level,
			Action:          prioritydomain.ActionForLevel(p.Level),
			TotalOpen:       facts.TotalOpen,
			MaxDaysOverdue:  facts.MaxDaysOverdue,
			ContactAttempts: p.ContactAttempts,
			LastContactAt:   p.LastContactAt,
		})
	}

	queue := prioritydomain.BuildQueue(entries)
	s.metrics.SetQueueSize(len(queue))
	return queue, nil
}

func (s *Service) Override(ctx context.Context, cnpj string, req prioritydomain.OverrideRequest) (*prioritydomain.Priority, error) {
	if req.Level < prioritydomain.MinLevel || req.Level > prioritydomain.MaxLevel {
		return nil, prioritydomain.ErrInvalidLevel
	}
	if strings.TrimSpace(req.Justification) == "" {
		return nil, prioritydomain.ErrJustificationRequired
	}

	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, prioritydomain.ErrPriorityNotFound
	}

	if err := s.logEscalation(ctx, unit.CNPJ, p.Level, req.Level,
		req.Justification, false, req.Actor); err != nil {
		return nil, err
	}

	p.Level = req.Level
	p.ContactAttempts = 0
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Upsert(ctx, s.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) RecordContact(ctx context.Context, cnpj string) (*prioritydomain.Priority, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, cnpj)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, prioritydomain.ErrPriorityNotFound
	}
	return s.bumpAttempts(ctx, p, s.scoring.Get())
}

func (s *Service) ListEscalations(ctx context.Context, cnpj string, limit int) ([]*prioritydomain.EscalationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListEscalations(ctx, s.db, strings.TrimSpace(cnpj), limit)
}

func (s *Service) ListPendingActions(ctx context.Context, onlyOpen bool) ([]*prioritydomain.PendingAction, error) {
	return s.repo.ListPendingActions(ctx, s.db, onlyOpen)
}

func (s *Service) ResolvePendingAction(ctx context.Context, id snowflake.ID, resolvedBy string) (*prioritydomain.PendingAction, error) {
	action, err := s.repo.FindPendingAction(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, prioritydomain.ErrActionNotFound
	}
	if action.ResolvedAt != nil {
		return nil, prioritydomain.ErrActionResolved
	}

	now := s.clock.Now()
	action.ResolvedAt = &now
	action.ResolvedBy = strings.TrimSpace(resolvedBy)
	if err := s.repo.UpdatePendingAction(ctx, s.db, action); err != nil {
		return nil, err
	}
	return action, nil
}

func (s *Service) ExportQueueCSV(ctx context.Context) (string, error) {
	queue, err := s.Queue(ctx)
	if err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(queue))
	for _, entry := range queue {
		rows = append(rows, []string{
			entry.UnitCNPJ,
			export.Sanitize(entry.UnitName),
			strconv.Itoa(entry.Score),
			strconv.Itoa(entry.Level),
			export.Sanitize(entry.Action),
			entry.TotalOpen.StringFixed(2),
			strconv.Itoa(entry.MaxDaysOverdue),
			strconv.Itoa(entry.ContactAttempts),
		})
	}
	return export.CSV([]string{"cnpj", "unidade", "score", "nivel", "acao", "total_aberto", "dias_atraso", "tentativas"}, rows), nil
}

func (s *Service) logEscalation(ctx context.Context, cnpj string, from, to int, reason string, automatic bool, actor string) error {
	if err := s.repo.InsertEscalation(ctx, s.db, &prioritydomain.EscalationLog{
		ID:        s.genID.Generate(),
		UnitCNPJ:  cnpj,
		FromLevel: from,
		ToLevel:   to,
		Reason:    reason,
		Automatic: automatic,
		Actor:     strings.TrimSpace(actor),
		CreatedAt: s.clock.Now(),
	}); err != nil {
		return err
	}
	s.metrics.IncEscalation(strconv.Itoa(to), automatic)
	return nil
}
