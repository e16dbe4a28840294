package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeOperator ActorType = "operador"
	ActorTypeSystem   ActorType = "sistema"
)

// RiskTier classifies how sensitive an audited action is.
type RiskTier string

const (
	RiskTierLow      RiskTier = "baixo"
	RiskTierMedium   RiskTier = "medio"
	RiskTierHigh     RiskTier = "alto"
	RiskTierCritical RiskTier = "critico"
)

// AuditLog is an immutable record of a sensitive action. Rows are only
// ever inserted.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorType  string            `gorm:"not null" json:"actor_type"`
	ActorID    *string           `json:"actor_id,omitempty"`
	Action     string            `gorm:"not null;index" json:"action"`
	TargetType string            `gorm:"not null;index" json:"target_type"`
	TargetID   *string           `gorm:"index" json:"target_id,omitempty"`
	RiskTier   RiskTier          `gorm:"not null;default:baixo" json:"risk_tier"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	RiskTier   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
