package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateDebtRequest struct {
	UnitCNPJ       string
	Description    string
	Type           Type
	OriginalAmount decimal.Decimal
	DueDate        time.Time
}

// DebtView is a Debt with its derived fields materialized at read time.
type DebtView struct {
	Debt
	DaysOverdue   int             `json:"days_overdue"`
	AccruedAmount decimal.Decimal `json:"accrued_amount"`
}

type Service interface {
	Create(ctx context.Context, req CreateDebtRequest) (*Debt, error)
	Get(ctx context.Context, id snowflake.ID) (*DebtView, error)
	List(ctx context.Context, filter ListDebtFilter) ([]*DebtView, error)
	OpenByUnit(ctx context.Context, cnpj string) ([]*Debt, error)
	ChangeStatus(ctx context.Context, id snowflake.ID, to Status) (*Debt, error)
	ExportCSV(ctx context.Context, filter ListDebtFilter) (string, error)
}

var (
	ErrDebtNotFound      = errors.New("debt_not_found")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidType       = errors.New("invalid_debt_type")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)

func ValidType(t Type) bool {
	switch t {
	case TypeRoyalty, TypeAdFund, TypeProduct, TypeOther:
		return true
	}
	return false
}

// CanTransition encodes the linear lifecycle of a debt. Terminal states
// accept no further transitions.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	switch from {
	case StatusOpen:
		return to == StatusNegotiating || to == StatusSettled || to == StatusCancelled
	case StatusNegotiating:
		return to == StatusOpen || to == StatusSettled || to == StatusCancelled
	}
	return false
}
