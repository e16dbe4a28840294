package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	agreementrepo "github.com/smallbiznis/cobranca/internal/agreement/repository"
	agreementservice "github.com/smallbiznis/cobranca/internal/agreement/service"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	debtrepo "github.com/smallbiznis/cobranca/internal/debt/repository"
	debtservice "github.com/smallbiznis/cobranca/internal/debt/service"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	franchiseerepo "github.com/smallbiznis/cobranca/internal/franchisee/repository"
	franchiseeservice "github.com/smallbiznis/cobranca/internal/franchisee/service"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	kanbanrepo "github.com/smallbiznis/cobranca/internal/kanban/repository"
	kanbanservice "github.com/smallbiznis/cobranca/internal/kanban/service"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
	"github.com/smallbiznis/cobranca/internal/priority/repository"
	"github.com/smallbiznis/cobranca/internal/providers/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubNotifier struct {
	sent []notification.Message
	fail bool
}

func (s *stubNotifier) Send(ctx context.Context, msg notification.Message) error {
	if s.fail {
		return errors.New("channel down")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	svc         prioritydomain.Service
	franchisees franchiseedomain.Service
	debts       debtdomain.Service
	agreements  agreementdomain.Service
	kanban      kanbandomain.Service
	notifier    *stubNotifier
	fakeClock   *clock.FakeClock
	db          *gorm.DB
}

func setupPriority(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&franchiseedomain.Unit{},
		&debtdomain.Debt{},
		&agreementdomain.Agreement{},
		&kanbandomain.Card{},
		&kanbandomain.Tratativa{},
		&prioritydomain.Priority{},
		&prioritydomain.EscalationLog{},
		&prioritydomain.PendingAction{},
	))

	node, err := snowflake.NewNode(12)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	holder := config.NewStaticScoringHolder(config.DefaultScoringConfig())
	logger := zap.NewNop()

	franchisees := franchiseeservice.NewService(franchiseeservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake, Repo: franchiseerepo.Provide(),
	})
	debts := debtservice.NewService(debtservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake, Scoring: holder, Repo: debtrepo.Provide(),
	})
	agreements := agreementservice.NewService(agreementservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake,
		Repo: agreementrepo.Provide(), Debts: debts, Franchisees: franchisees,
	})
	kanban := kanbanservice.NewService(kanbanservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake,
		Repo: kanbanrepo.Provide(), Franchisees: franchisees,
	})

	notifier := &stubNotifier{}
	svc := NewService(Params{
		DB: db, Log: logger, GenID: node, Clock: fake, Scoring: holder,
		Repo: repository.Provide(), Franchisees: franchisees, Debts: debts,
		Agreements: agreements, Kanban: kanban, Notifier: notifier,
	})

	return &fixture{
		svc: svc, franchisees: franchisees, debts: debts, agreements: agreements,
		kanban: kanban, notifier: notifier, fakeClock: fake, db: db,
	}
}

func (f *fixture) seedUnit(t *testing.T, cnpj, name, phone string) *franchiseedomain.Unit {
	t.Helper()
	unit, err := f.franchisees.Create(context.Background(), franchiseedomain.CreateUnitRequest{
		CNPJ: cnpj, Name: name, Phone: phone,
	})
	require.NoError(t, err)
	return unit
}

func (f *fixture) seedDebt(t *testing.T, cnpj string, amount float64, daysOverdue int) *debtdomain.Debt {
	t.Helper()
	debt, err := f.debts.Create(context.Background(), debtdomain.CreateDebtRequest{
		UnitCNPJ:       cnpj,
		Description:    "royalties",
		Type:           debtdomain.TypeRoyalty,
		OriginalAmount: decimal.NewFromFloat(amount),
		DueDate:        f.fakeClock.Now().AddDate(0, 0, -daysOverdue),
	})
	require.NoError(t, err)
	return debt
}

func TestRecomputeScoresAndClassifies(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, unit.CNPJ, 10000, 50)

	view, err := f.svc.Recompute(ctx, unit.CNPJ)
	require.NoError(t, err)

	// value 40 (saturated) + time 16.67 + count 2 + type 10 + status 10.
	assert.Equal(t, 79, view.Score)
	// 50 days falls in the (45,60] bracket.
	assert.Equal(t, 5, view.Level)
	assert.Equal(t, "acionamento jurídico", view.Action)
	assert.Equal(t, 1, view.Facts.OpenDebtCount)

	_, err = f.svc.Recompute(ctx, "00000000000000")
	assert.ErrorIs(t, err, franchiseedomain.ErrUnitNotFound)
}

func TestRecomputeNeverDemotesAutomatically(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	debt := f.seedDebt(t, unit.CNPJ, 1000, 50)

	view, err := f.svc.Recompute(ctx, unit.CNPJ)
	require.NoError(t, err)
	require.Equal(t, 5, view.Level)

	// Settling the debt drops the facts but not the level.
	_, err = f.debts.ChangeStatus(ctx, debt.ID, debtdomain.StatusSettled)
	require.NoError(t, err)

	view, err = f.svc.Recompute(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Level)
}

func TestSweepDispatchesAutoAction(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, unit.CNPJ, 1000, 3) // level 1, auto-actionable

	report, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Recomputed)
	assert.Equal(t, 1, report.Dispatched)
	assert.Empty(t, report.Failed)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification.ChannelWhatsApp, f.notifier.sent[0].Channel)
	assert.Equal(t, "+5511999990000", f.notifier.sent[0].Recipient)
	assert.Contains(t, f.notifier.sent[0].Body, "lembrete amigável")

	var p prioritydomain.Priority
	require.NoError(t, f.db.Where("unit_cnpj = ?", unit.CNPJ).First(&p).Error)
	assert.Equal(t, 1, p.ContactAttempts)
	require.NotNil(t, p.LastContactAt)

	logs, err := f.svc.ListEscalations(ctx, unit.CNPJ, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Automatic)
	assert.Equal(t, logs[0].FromLevel, logs[0].ToLevel)
}

func TestSweepCreatesPendingActionForManualLevels(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, unit.CNPJ, 1000, 50) // level 5, human follow-up

	_, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)

	actions, err := f.svc.ListPendingActions(ctx, true)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, unit.CNPJ, actions[0].UnitCNPJ)
	assert.Equal(t, 5, actions[0].Level)
	assert.Equal(t, "acionamento jurídico", actions[0].Action)

	// A second sweep must not duplicate the open action.
	_, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	actions, err = f.svc.ListPendingActions(ctx, true)
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	resolved, err := f.svc.ResolvePendingAction(ctx, actions[0].ID, "ana")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = f.svc.ResolvePendingAction(ctx, actions[0].ID, "ana")
	assert.ErrorIs(t, err, prioritydomain.ErrActionResolved)
}

func TestSweepIsolatesNotificationFailures(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	failing := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, failing.CNPJ, 1000, 3)
	other := f.seedUnit(t, "11.444.777/0001-61", "Unidade Norte", "+5511888880000")
	f.seedDebt(t, other.CNPJ, 1000, 50)

	f.notifier.fail = true
	report, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Recomputed)
	assert.Equal(t, 1, report.Dispatched) // the pending-action unit
	assert.Equal(t, []string{failing.CNPJ}, report.Failed)
}

func TestMaxAttemptsTriggerEscalates(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, unit.CNPJ, 1000, 3)

	_, err := f.svc.Recompute(ctx, unit.CNPJ)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		p, err := f.svc.RecordContact(ctx, unit.CNPJ)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, i+1, p.ContactAttempts)
	}

	// Third attempt hits MaxAttemptsPerLevel=3 and forces level+1.
	p, err := f.svc.RecordContact(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 0, p.ContactAttempts)

	logs, err := f.svc.ListEscalations(ctx, unit.CNPJ, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].Automatic)
	assert.Equal(t, 1, logs[0].FromLevel)
	assert.Equal(t, 2, logs[0].ToLevel)
	assert.Contains(t, logs[0].Reason, "tentativas")
}

func TestOverride(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro", "+5511999990000")
	f.seedDebt(t, unit.CNPJ, 1000, 20)

	_, err := f.svc.Override(ctx, unit.CNPJ, prioritydomain.OverrideRequest{Level: 9, Justification: "x"})
	assert.ErrorIs(t, err, prioritydomain.ErrInvalidLevel)

	_, err = f.svc.Override(ctx, unit.CNPJ, prioritydomain.OverrideRequest{Level: 4, Justification: "  "})
	assert.ErrorIs(t, err, prioritydomain.ErrJustificationRequired)

	_, err = f.svc.Override(ctx, unit.CNPJ, prioritydomain.OverrideRequest{Level: 4, Justification: "caso judicializado"})
	assert.ErrorIs(t, err, prioritydomain.ErrPriorityNotFound)

	_, err = f.svc.Recompute(ctx, unit.CNPJ)
	require.NoError(t, err)
	_, err = f.svc.RecordContact(ctx, unit.CNPJ)
	require.NoError(t, err)

	p, err := f.svc.Override(ctx, unit.CNPJ, prioritydomain.OverrideRequest{
		Level: 4, Justification: "caso judicializado", Actor: "bruno",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Level)
	assert.Equal(t, 0, p.ContactAttempts)

	logs, err := f.svc.ListEscalations(ctx, unit.CNPJ, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.False(t, logs[0].Automatic)
	assert.Equal(t, "bruno", logs[0].Actor)
	assert.Equal(t, "caso judicializado", logs[0].Reason)
}

func TestQueueOrderingAndExport(t *testing.T) {
	ctx := context.Background()
	f := setupPriority(t)

	low := f.seedUnit(t, "11.222.333/0001-81", "Unidade, Centro", "+5511999990000")
	f.seedDebt(t, low.CNPJ, 500, 3)
	high := f.seedUnit(t, "11.444.777/0001-61", "Unidade Norte", "+5511888880000")
	f.seedDebt(t, high.CNPJ, 20000, 70)

	_, err := f.svc.Recompute(ctx, low.CNPJ)
	require.NoError(t, err)
	_, err = f.svc.Recompute(ctx, high.CNPJ)
	require.NoError(t, err)

	queue, err := f.svc.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, high.CNPJ, queue[0].UnitCNPJ)
	assert.Greater(t, queue[0].Score, queue[1].Score)

	again, err := f.svc.Queue(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue, again)

	out, err := f.svc.ExportQueueCSV(ctx)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "cnpj,unidade,score,nivel,acao,total_aberto,dias_atraso,tentativas", lines[0])
	// The embedded comma in the unit name becomes a semicolon.
	assert.Contains(t, out, "Unidade; Centro")
	for _, line := range lines {
		assert.Len(t, strings.Split(line, ","), 8)
	}
}
