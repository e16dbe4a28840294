package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Column is one stage of the collection workflow board.
type Column string

const (
	ColumnNew         Column = "novo"
	ColumnInContact   Column = "em_contato"
	ColumnNegotiating Column = "negociando"
	ColumnAgreement   Column = "acordo_firmado"
	ColumnLegal       Column = "juridico"
	ColumnResolved    Column = "resolvido"
)

// BoardColumns lists the columns in board order.
var BoardColumns = []Column{
	ColumnNew,
	ColumnInContact,
	ColumnNegotiating,
	ColumnAgreement,
	ColumnLegal,
	ColumnResolved,
}

// Order returns the column's position on the board, -1 for unknown.
func (c Column) Order() int {
	for i, col := range BoardColumns {
		if col == c {
			return i
		}
	}
	return -1
}

type Card struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	UnitCNPJ   string       `gorm:"not null;uniqueIndex" json:"unit_cnpj"`
	Column     Column       `gorm:"column:board_column;not null;index" json:"column"`
	Position   int          `gorm:"not null" json:"position"`
	AssignedTo string       `json:"assigned_to,omitempty"`
	DueAt      *time.Time   `json:"due_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Card) TableName() string {
	return "kanban_cards"
}

// TratativaKind classifies a logged interaction on a collection case.
type TratativaKind string

const (
	KindCall          TratativaKind = "ligacao"
	KindWhatsApp      TratativaKind = "whatsapp"
	KindEmail         TratativaKind = "email"
	KindMeeting       TratativaKind = "reuniao"
	KindMissedMeeting TratativaKind = "reuniao_perdida"
	KindOther         TratativaKind = "outro"
)

// Tratativa is an append-only note about an interaction with a unit.
type Tratativa struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	UnitCNPJ   string        `gorm:"not null;index" json:"unit_cnpj"`
	CardID     *snowflake.ID `gorm:"index" json:"card_id,omitempty"`
	Kind       TratativaKind `gorm:"not null" json:"kind"`
	Notes      string        `gorm:"not null" json:"notes"`
	Actor      string        `json:"actor,omitempty"`
	OccurredAt time.Time     `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
}

func (Tratativa) TableName() string {
	return "tratativas"
}
