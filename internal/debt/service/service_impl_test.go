package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	"github.com/smallbiznis/cobranca/internal/debt/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDebts(t *testing.T) (debtdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&debtdomain.Debt{}))

	node, err := snowflake.NewNode(17)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake,
		Scoring: config.NewStaticScoringHolder(config.DefaultScoringConfig()),
		Repo:    repository.Provide(),
	})
	return svc, fake
}

func seedDebt(t *testing.T, svc debtdomain.Service, fake *clock.FakeClock, amount float64, daysOverdue int) *debtdomain.Debt {
	t.Helper()
	debt, err := svc.Create(context.Background(), debtdomain.CreateDebtRequest{
		UnitCNPJ:       "11222333000181",
		Description:    "royalties fevereiro",
		Type:           debtdomain.TypeRoyalty,
		OriginalAmount: decimal.NewFromFloat(amount),
		DueDate:        fake.Now().AddDate(0, 0, -daysOverdue),
	})
	require.NoError(t, err)
	return debt
}

func TestCreateDebtValidation(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupDebts(t)

	_, err := svc.Create(ctx, debtdomain.CreateDebtRequest{
		UnitCNPJ: "11222333000181", Type: debtdomain.Type("aluguel"),
		OriginalAmount: decimal.NewFromInt(100), DueDate: fake.Now(),
	})
	assert.ErrorIs(t, err, debtdomain.ErrInvalidType)

	_, err = svc.Create(ctx, debtdomain.CreateDebtRequest{
		UnitCNPJ: "11222333000181", Type: debtdomain.TypeRoyalty,
		OriginalAmount: decimal.NewFromInt(-5), DueDate: fake.Now(),
	})
	assert.ErrorIs(t, err, debtdomain.ErrInvalidAmount)
}

func TestGetMaterializesDerivedFields(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupDebts(t)
	debt := seedDebt(t, svc, fake, 1000, 30)

	view, err := svc.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, view.DaysOverdue)
	assert.True(t, view.AccruedAmount.GreaterThan(view.OriginalAmount),
		"an overdue debt accrues penalty and interest")

	_, err = svc.Get(ctx, snowflake.ID(999))
	assert.ErrorIs(t, err, debtdomain.ErrDebtNotFound)
}

func TestListOverdueOnly(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupDebts(t)
	seedDebt(t, svc, fake, 100, 15)
	seedDebt(t, svc, fake, 200, -15) // due in the future

	all, err := svc.List(ctx, debtdomain.ListDebtFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	overdue, err := svc.List(ctx, debtdomain.ListDebtFilter{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "100.00", overdue[0].OriginalAmount.StringFixed(2))
}

func TestChangeStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupDebts(t)
	debt := seedDebt(t, svc, fake, 500, 10)

	negotiating, err := svc.ChangeStatus(ctx, debt.ID, debtdomain.StatusNegotiating)
	require.NoError(t, err)
	assert.Equal(t, debtdomain.StatusNegotiating, negotiating.Status)

	settled, err := svc.ChangeStatus(ctx, debt.ID, debtdomain.StatusSettled)
	require.NoError(t, err)
	require.NotNil(t, settled.SettledAt)

	_, err = svc.ChangeStatus(ctx, debt.ID, debtdomain.StatusOpen)
	assert.ErrorIs(t, err, debtdomain.ErrInvalidTransition)
}

func TestDebtExportCSV(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupDebts(t)
	seedDebt(t, svc, fake, 750.5, 5)

	csv, err := svc.ExportCSV(ctx, debtdomain.ListDebtFilter{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "valor_atualizado")
	assert.Contains(t, lines[1], "750.50")
	assert.Contains(t, lines[1], ",5,")
}
