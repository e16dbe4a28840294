package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	"github.com/smallbiznis/cobranca/internal/agreement/repository"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	debtrepo "github.com/smallbiznis/cobranca/internal/debt/repository"
	debtservice "github.com/smallbiznis/cobranca/internal/debt/service"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	franchiseerepo "github.com/smallbiznis/cobranca/internal/franchisee/repository"
	franchiseeservice "github.com/smallbiznis/cobranca/internal/franchisee/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc       agreementdomain.Service
	debts     debtdomain.Service
	units     franchiseedomain.Service
	fakeClock *clock.FakeClock
}

func setupAgreements(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&franchiseedomain.Unit{},
		&debtdomain.Debt{},
		&agreementdomain.Agreement{},
	))

	node, err := snowflake.NewNode(15)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := zap.NewNop()

	units := franchiseeservice.NewService(franchiseeservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake, Repo: franchiseerepo.Provide(),
	})
	debts := debtservice.NewService(debtservice.Params{
		DB: db, Log: logger, GenID: node, Clock: fake,
		Scoring: config.NewStaticScoringHolder(config.DefaultScoringConfig()),
		Repo:    debtrepo.Provide(),
	})
	svc := NewService(Params{
		DB: db, Log: logger, GenID: node, Clock: fake,
		Repo: repository.Provide(), Debts: debts, Franchisees: units,
	})

	return &fixture{svc: svc, debts: debts, units: units, fakeClock: fake}
}

func (f *fixture) seedUnit(t *testing.T, cnpj, name string) *franchiseedomain.Unit {
	t.Helper()
	unit, err := f.units.Create(context.Background(), franchiseedomain.CreateUnitRequest{
		CNPJ: cnpj, Name: name,
	})
	require.NoError(t, err)
	return unit
}

func (f *fixture) seedDebt(t *testing.T, cnpj string, amount float64) *debtdomain.Debt {
	t.Helper()
	debt, err := f.debts.Create(context.Background(), debtdomain.CreateDebtRequest{
		UnitCNPJ:       cnpj,
		Description:    "royalties",
		Type:           debtdomain.TypeRoyalty,
		OriginalAmount: decimal.NewFromFloat(amount),
		DueDate:        f.fakeClock.Now().AddDate(0, 0, -30),
	})
	require.NoError(t, err)
	return debt
}

func (f *fixture) propose(t *testing.T, cnpj string, debtIDs []snowflake.ID, total, down float64, count int) *agreementdomain.Agreement {
	t.Helper()
	agreement, err := f.svc.Create(context.Background(), agreementdomain.CreateAgreementRequest{
		UnitCNPJ:         cnpj,
		DebtIDs:          debtIDs,
		TotalValue:       decimal.NewFromFloat(total),
		DownPayment:      decimal.NewFromFloat(down),
		InstallmentCount: count,
	})
	require.NoError(t, err)
	return agreement
}

func TestInstallmentValue(t *testing.T) {
	cases := []struct {
		total, down string
		count       int
		want        string
	}{
		{"1000", "0", 3, "333.33"},
		{"1000.00", "100.00", 3, "300.00"},
		{"900.01", "0", 3, "300.00"},
		{"100", "100", 2, "0.00"},
		{"100", "0", 0, "0.00"},
	}
	for _, c := range cases {
		got := InstallmentValue(decimal.RequireFromString(c.total), decimal.RequireFromString(c.down), c.count)
		assert.Equal(t, c.want, got.StringFixed(2), "total=%s down=%s count=%d", c.total, c.down, c.count)
	}
}

func TestCreateAgreement(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 1500)

	agreement := f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 1500, 300, 4)
	assert.Equal(t, agreementdomain.StatusProposed, agreement.Status)
	assert.Equal(t, "300.00", agreement.InstallmentValue.StringFixed(2))

	// Debts covered by a proposal are pulled out of the open pool.
	view, err := f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, debtdomain.StatusNegotiating, view.Status)

	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{debt.ID},
		TotalValue: decimal.NewFromInt(100), InstallmentCount: 1,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrActiveAgreementExists)
}

func TestCreateAgreementValidation(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 500)

	_, err := f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, TotalValue: decimal.NewFromInt(500), InstallmentCount: 2,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrNoDebts)

	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{debt.ID},
		TotalValue: decimal.NewFromInt(500), InstallmentCount: 0,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidInstallments)

	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{debt.ID},
		TotalValue: decimal.Zero, InstallmentCount: 2,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidValues)

	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{debt.ID},
		TotalValue:  decimal.NewFromInt(500),
		DownPayment: decimal.NewFromInt(600), InstallmentCount: 2,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidValues)

	other := f.seedUnit(t, "11.444.777/0001-61", "Unidade Norte")
	otherDebt := f.seedDebt(t, other.CNPJ, 100)
	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{otherDebt.ID},
		TotalValue: decimal.NewFromInt(100), InstallmentCount: 1,
	})
	assert.ErrorIs(t, err, debtdomain.ErrDebtNotFound)
}

func TestLifecycleHappyPath(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 1200)
	agreement := f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 1200, 0, 6)

	accepted, err := f.svc.Accept(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, agreementdomain.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	_, err = f.svc.Complete(ctx, agreement.ID)
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidTransition)

	_, err = f.svc.StartFulfillment(ctx, agreement.ID)
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, agreementdomain.StatusFulfilled, done.Status)
	require.NotNil(t, done.ClosedAt)

	view, err := f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, debtdomain.StatusSettled, view.Status)

	// Terminal agreements reject any further transition.
	_, err = f.svc.Accept(ctx, agreement.ID)
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidTransition)
}

func TestBreak(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 800)
	agreement := f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 800, 0, 2)

	_, err := f.svc.Break(ctx, agreement.ID, "parcelas em atraso")
	assert.ErrorIs(t, err, agreementdomain.ErrInvalidTransition)

	_, err = f.svc.Accept(ctx, agreement.ID)
	require.NoError(t, err)

	_, err = f.svc.Break(ctx, agreement.ID, "   ")
	assert.ErrorIs(t, err, agreementdomain.ErrReasonRequired)

	broken, err := f.svc.Break(ctx, agreement.ID, "parcelas em atraso")
	require.NoError(t, err)
	assert.Equal(t, agreementdomain.StatusBroken, broken.Status)
	assert.Equal(t, "parcelas em atraso", broken.BrokenReason)

	// Breaking returns the debts to the open pool.
	view, err := f.debts.Get(ctx, debt.ID)
	require.NoError(t, err)
	assert.Equal(t, debtdomain.StatusOpen, view.Status)
}

func TestBlacklistAfterTwoBrokenAgreements(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 1000)

	for i := 0; i < 2; i++ {
		agreement := f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 1000, 0, 2)
		_, err := f.svc.Accept(ctx, agreement.ID)
		require.NoError(t, err)
		_, err = f.svc.Break(ctx, agreement.ID, "atraso")
		require.NoError(t, err)
	}

	broken, err := f.svc.CountBrokenByUnit(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.EqualValues(t, 2, broken)

	_, err = f.svc.Create(ctx, agreementdomain.CreateAgreementRequest{
		UnitCNPJ: unit.CNPJ, DebtIDs: []snowflake.ID{debt.ID},
		TotalValue: decimal.NewFromInt(1000), InstallmentCount: 2,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrUnitBlacklisted)
}

func TestRenegotiate(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 2000)
	agreement := f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 2000, 0, 4)

	req := agreementdomain.RenegotiateRequest{
		Justification:    "fluxo de caixa do franqueado",
		TotalValue:       decimal.NewFromInt(2000),
		InstallmentCount: 8,
	}

	_, err := f.svc.Renegotiate(ctx, agreement.ID, req)
	assert.ErrorIs(t, err, agreementdomain.ErrStatusNotRenegotiable)

	_, err = f.svc.Accept(ctx, agreement.ID)
	require.NoError(t, err)

	_, err = f.svc.Renegotiate(ctx, agreement.ID, agreementdomain.RenegotiateRequest{
		TotalValue: decimal.NewFromInt(2000), InstallmentCount: 8,
	})
	assert.ErrorIs(t, err, agreementdomain.ErrJustificationRequired)

	successor, err := f.svc.Renegotiate(ctx, agreement.ID, req)
	require.NoError(t, err)
	assert.Equal(t, agreementdomain.StatusProposed, successor.Status)
	require.NotNil(t, successor.PreviousAgreementID)
	assert.Equal(t, agreement.ID, *successor.PreviousAgreementID)
	assert.Equal(t, "250.00", successor.InstallmentValue.StringFixed(2))

	previous, err := f.svc.Get(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, agreementdomain.StatusRenegotiated, previous.Status)
	require.NotNil(t, previous.ClosedAt)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	f := setupAgreements(t)
	unit := f.seedUnit(t, "11.222.333/0001-81", "Unidade Centro")
	debt := f.seedDebt(t, unit.CNPJ, 100)
	f.propose(t, unit.CNPJ, []snowflake.ID{debt.ID}, 100, 0, 1)

	csv, err := f.svc.ExportCSV(ctx, agreementdomain.ListAgreementFilter{UnitCNPJ: unit.CNPJ})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "valor_parcela")
	assert.Contains(t, lines[1], "100.00")
}
