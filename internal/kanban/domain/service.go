package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateCardRequest struct {
	UnitCNPJ   string
	AssignedTo string
	DueAt      *time.Time
}

type MoveCardRequest struct {
	To            Column
	Justification string
	Actor         string
}

type AddTratativaRequest struct {
	UnitCNPJ   string
	CardID     *snowflake.ID
	Kind       TratativaKind
	Notes      string
	Actor      string
	OccurredAt *time.Time
}

// Board groups every card by column in board order.
type Board struct {
	Columns []BoardColumn `json:"columns"`
}

type BoardColumn struct {
	Column Column  `json:"column"`
	Cards  []*Card `json:"cards"`
}

type Service interface {
	CreateCard(ctx context.Context, req CreateCardRequest) (*Card, error)
	MoveCard(ctx context.Context, id snowflake.ID, req MoveCardRequest) (*Card, error)
	GetBoard(ctx context.Context) (*Board, error)
	AddTratativa(ctx context.Context, req AddTratativaRequest) (*Tratativa, error)
	ListTratativas(ctx context.Context, cnpj string, limit int) ([]*Tratativa, error)
	CountMissedMeetings(ctx context.Context, cnpj string) (int64, error)
	HasNegotiationRefusal(ctx context.Context, cnpj string) (bool, error)
}

var (
	ErrCardNotFound          = errors.New("card_not_found")
	ErrCardExists            = errors.New("card_already_exists")
	ErrInvalidColumn         = errors.New("invalid_column")
	ErrJustificationRequired = errors.New("justification_required_for_backward_move")
	ErrNotesRequired         = errors.New("notes_required")
	ErrInvalidKind           = errors.New("invalid_tratativa_kind")
)

func ValidKind(kind TratativaKind) bool {
	switch kind {
	case KindCall, KindWhatsApp, KindEmail, KindMeeting, KindMissedMeeting, KindOther:
		return true
	}
	return false
}
