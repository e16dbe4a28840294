package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeRoyalty Type = "royalty"
	TypeAdFund  Type = "fundo_propaganda"
	TypeProduct Type = "produto"
	TypeOther   Type = "outro"
)

type Status string

const (
	StatusOpen        Status = "aberta"
	StatusNegotiating Status = "negociando"
	StatusSettled     Status = "quitada"
	StatusCancelled   Status = "cancelada"
)

func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusCancelled
}

// Debt is one open invoice of a franchisee unit.
type Debt struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	UnitCNPJ       string          `gorm:"not null;index" json:"unit_cnpj"`
	Description    string          `json:"description,omitempty"`
	Type           Type            `gorm:"not null" json:"type"`
	OriginalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"original_amount"`
	DueDate        time.Time       `gorm:"not null;index" json:"due_date"`
	Status         Status          `gorm:"not null;default:aberta;index" json:"status"`
	SettledAt      *time.Time      `json:"settled_at,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (Debt) TableName() string {
	return "debts"
}

// DaysOverdue returns whole days past the due date, zero when not yet due.
func (d Debt) DaysOverdue(now time.Time) int {
	if !now.After(d.DueDate) {
		return 0
	}
	return int(now.Sub(d.DueDate).Hours() / 24)
}

// Accrued returns the original amount plus a one-off penalty and
// pro-rated monthly interest for the days overdue.
func (d Debt) Accrued(now time.Time, penaltyPercent, monthlyInterestPercent float64) decimal.Decimal {
	days := d.DaysOverdue(now)
	if days == 0 {
		return d.OriginalAmount.Round(2)
	}

	penalty := d.OriginalAmount.Mul(decimal.NewFromFloat(penaltyPercent).Div(decimal.NewFromInt(100)))
	dailyInterest := decimal.NewFromFloat(monthlyInterestPercent).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(30))
	interest := d.OriginalAmount.Mul(dailyInterest).Mul(decimal.NewFromInt(int64(days)))

	return d.OriginalAmount.Add(penalty).Add(interest).Round(2)
}

type ListDebtFilter struct {
	UnitCNPJ    string
	Status      Status
	Type        Type
	OverdueOnly bool
	DueFrom     *time.Time
	DueTo       *time.Time
	Limit       int
	Offset      int
}
