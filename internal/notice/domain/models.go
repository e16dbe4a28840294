package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind classifies a notice template by the collection action it backs.
type Kind string

const (
	KindFriendlyReminder Kind = "lembrete_amigavel"
	KindFormalCollection Kind = "cobranca_formal"
	KindWarning          Kind = "advertencia"
	KindExtrajudicial    Kind = "notificacao_extrajudicial"
	KindLegalAction      Kind = "acionamento_juridico"
	KindOther            Kind = "outro"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindFriendlyReminder, KindFormalCollection, KindWarning,
		KindExtrajudicial, KindLegalAction, KindOther:
		return true
	}
	return false
}

// Template is a legal notice body with {{variable}} placeholders.
type Template struct {
	ID        snowflake.ID                `gorm:"primaryKey" json:"id"`
	Name      string                      `gorm:"not null" json:"name"`
	Slug      string                      `gorm:"not null;uniqueIndex" json:"slug"`
	Kind      Kind                        `gorm:"not null;index" json:"kind"`
	Body      string                      `gorm:"not null" json:"body"`
	Variables datatypes.JSONSlice[string] `json:"variables"`
	CreatedAt time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string {
	return "notice_templates"
}
