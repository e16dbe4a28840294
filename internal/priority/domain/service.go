package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type OverrideRequest struct {
	Level         int
	Justification string
	Actor         string
}

// SweepReport summarizes one prioritization sweep over all active units.
type SweepReport struct {
	Total      int      `json:"total"`
	Recomputed int      `json:"recomputed"`
	Escalated  int      `json:"escalated"`
	Dispatched int      `json:"dispatched"`
	Failed     []string `json:"failed,omitempty"`
}

// PriorityView is a priority with its scoring facts attached.
type PriorityView struct {
	Priority
	Facts  Facts  `json:"facts"`
	Action string `json:"action"`
}

type Service interface {
	// Recompute refreshes the score and level of one unit from facts.
	Recompute(ctx context.Context, cnpj string) (*PriorityView, error)
	// Sweep recomputes every active unit and dispatches level actions.
	Sweep(ctx context.Context) (*SweepReport, error)
	Queue(ctx context.Context) ([]QueueEntry, error)
	Override(ctx context.Context, cnpj string, req OverrideRequest) (*Priority, error)
	RecordContact(ctx context.Context, cnpj string) (*Priority, error)
	ListEscalations(ctx context.Context, cnpj string, limit int) ([]*EscalationLog, error)
	ListPendingActions(ctx context.Context, onlyOpen bool) ([]*PendingAction, error)
	ResolvePendingAction(ctx context.Context, id snowflake.ID, resolvedBy string) (*PendingAction, error)
	ExportQueueCSV(ctx context.Context) (string, error)
}

var (
	ErrPriorityNotFound      = errors.New("priority_not_found")
	ErrInvalidLevel          = errors.New("invalid_escalation_level")
	ErrJustificationRequired = errors.New("justification_required")
	ErrSweepInProgress       = errors.New("sweep_already_in_progress")
	ErrActionNotFound        = errors.New("pending_action_not_found")
	ErrActionResolved        = errors.New("pending_action_already_resolved")
)
