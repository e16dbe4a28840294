package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Priority is the per-unit escalation state. The score is a derived
// cache recomputed from current facts, never the source of truth.
type Priority struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	UnitCNPJ        string       `gorm:"not null;uniqueIndex" json:"unit_cnpj"`
	Score           int          `gorm:"not null" json:"score"`
	Level           int          `gorm:"not null" json:"level"`
	ContactAttempts int          `gorm:"not null" json:"contact_attempts"`
	LastContactAt   *time.Time   `json:"last_contact_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Priority) TableName() string {
	return "unit_priorities"
}

// EscalationLog is the append-only trail of level changes.
type EscalationLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UnitCNPJ  string       `gorm:"not null;index" json:"unit_cnpj"`
	FromLevel int          `gorm:"not null" json:"from_level"`
	ToLevel   int          `gorm:"not null" json:"to_level"`
	Reason    string       `gorm:"not null" json:"reason"`
	Automatic bool         `gorm:"not null" json:"automatic"`
	Actor     string       `json:"actor,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (EscalationLog) TableName() string {
	return "escalation_logs"
}

// PendingAction is a human follow-up created by the dispatcher for
// levels not marked auto-actionable.
type PendingAction struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UnitCNPJ   string       `gorm:"not null;index" json:"unit_cnpj"`
	Level      int          `gorm:"not null" json:"level"`
	Action     string       `gorm:"not null" json:"action"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy string       `json:"resolved_by,omitempty"`
}

func (PendingAction) TableName() string {
	return "pending_actions"
}

// MinLevel and MaxLevel bound the ordinal escalation scale.
const (
	MinLevel = 1
	MaxLevel = 5
)

var actionLabels = map[int]string{
	1: "lembrete amigável",
	2: "cobrança formal",
	3: "advertência",
	4: "notificação extrajudicial",
	5: "acionamento jurídico",
}

// ActionForLevel returns the recommended action label for a level.
func ActionForLevel(level int) string {
	return actionLabels[level]
}

// QueueEntry is one row of the ranked worklist.
type QueueEntry struct {
	UnitCNPJ        string          `json:"unit_cnpj"`
	UnitName        string          `json:"unit_name"`
	Score           int             `json:"score"`
	Level           int             `json:"level"`
	Action          string          `json:"action"`
	TotalOpen       decimal.Decimal `json:"total_open"`
	MaxDaysOverdue  int             `json:"max_days_overdue"`
	ContactAttempts int             `json:"contact_attempts"`
	LastContactAt   *time.Time      `json:"last_contact_at,omitempty"`
}
