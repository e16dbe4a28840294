package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusProposed     Status = "proposto"
	StatusAccepted     Status = "aceito"
	StatusFulfilling   Status = "cumprindo"
	StatusFulfilled    Status = "cumprido"
	StatusBroken       Status = "quebrado"
	StatusCancelled    Status = "cancelado"
	StatusRenegotiated Status = "renegociado"
)

// Terminal statuses accept no further lifecycle transitions. A
// renegotiated agreement lives on only through its successor.
func (s Status) Terminal() bool {
	switch s {
	case StatusFulfilled, StatusBroken, StatusCancelled, StatusRenegotiated:
		return true
	}
	return false
}

// Agreement is an installment repayment plan over one or more debts.
type Agreement struct {
	ID                  snowflake.ID                `gorm:"primaryKey" json:"id"`
	UnitCNPJ            string                      `gorm:"not null;index" json:"unit_cnpj"`
	DebtIDs             datatypes.JSONSlice[string] `gorm:"not null" json:"debt_ids"`
	TotalValue          decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"total_value"`
	DownPayment         decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"down_payment"`
	InstallmentCount    int                         `gorm:"not null" json:"installment_count"`
	InstallmentValue    decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"installment_value"`
	Status              Status                      `gorm:"not null;default:proposto;index" json:"status"`
	PreviousAgreementID *snowflake.ID               `gorm:"column:acordo_anterior_id" json:"acordo_anterior_id,omitempty"`
	BrokenReason        string                      `json:"broken_reason,omitempty"`
	Notes               string                      `json:"notes,omitempty"`
	AcceptedAt          *time.Time                  `json:"accepted_at,omitempty"`
	ClosedAt            *time.Time                  `json:"closed_at,omitempty"`
	CreatedAt           time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Agreement) TableName() string {
	return "agreements"
}

type ListAgreementFilter struct {
	UnitCNPJ string
	Status   Status
	Limit    int
	Offset   int
}
