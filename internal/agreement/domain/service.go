package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateAgreementRequest struct {
	UnitCNPJ         string
	DebtIDs          []snowflake.ID
	TotalValue       decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
	Notes            string
}

type RenegotiateRequest struct {
	Justification    string
	TotalValue       decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
}

type Service interface {
	Create(ctx context.Context, req CreateAgreementRequest) (*Agreement, error)
	Get(ctx context.Context, id snowflake.ID) (*Agreement, error)
	List(ctx context.Context, filter ListAgreementFilter) ([]*Agreement, error)
	ActiveByUnit(ctx context.Context, cnpj string) (*Agreement, error)
	CountBrokenByUnit(ctx context.Context, cnpj string) (int64, error)
	Accept(ctx context.Context, id snowflake.ID) (*Agreement, error)
	StartFulfillment(ctx context.Context, id snowflake.ID) (*Agreement, error)
	Complete(ctx context.Context, id snowflake.ID) (*Agreement, error)
	Break(ctx context.Context, id snowflake.ID, reason string) (*Agreement, error)
	Cancel(ctx context.Context, id snowflake.ID) (*Agreement, error)
	Renegotiate(ctx context.Context, id snowflake.ID, req RenegotiateRequest) (*Agreement, error)
	ExportCSV(ctx context.Context, filter ListAgreementFilter) (string, error)
}

var (
	ErrAgreementNotFound     = errors.New("agreement_not_found")
	ErrActiveAgreementExists = errors.New("active_agreement_exists")
	ErrUnitBlacklisted       = errors.New("unit_blacklisted_by_broken_agreements")
	ErrStatusNotRenegotiable = errors.New("status_not_renegotiable")
	ErrInvalidTransition     = errors.New("invalid_status_transition")
	ErrJustificationRequired = errors.New("justification_required")
	ErrReasonRequired        = errors.New("reason_required")
	ErrInvalidInstallments   = errors.New("invalid_installment_count")
	ErrInvalidValues         = errors.New("invalid_agreement_values")
	ErrNoDebts               = errors.New("no_debts_selected")
)

// BlacklistBrokenLimit is the number of broken agreements after which a
// unit may not open a new one.
const BlacklistBrokenLimit = 2
