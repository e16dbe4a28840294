package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateBlockRequest struct {
	UnitCNPJ  string
	Systems   []System
	Reason    string
	BlockedBy string
}

type UpdateSystemsRequest struct {
	Systems   []System
	Reason    string
	UpdatedBy string
}

// SweepReport summarizes one automatic blocking round.
type SweepReport struct {
	Total   int      `json:"total"`
	Blocked int      `json:"blocked"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

type Service interface {
	Block(ctx context.Context, req CreateBlockRequest) (*Block, error)
	Unblock(ctx context.Context, cnpj, unblockedBy string) (*Block, error)
	// UpdateSystems supersedes the active block with a new scope,
	// keeping the old row as history.
	UpdateSystems(ctx context.Context, cnpj string, req UpdateSystemsRequest) (*Block, error)
	ActiveByUnit(ctx context.Context, cnpj string) (*Block, error)
	Get(ctx context.Context, id snowflake.ID) (*Block, error)
	List(ctx context.Context, onlyActive bool) ([]*Block, error)
	History(ctx context.Context, cnpj string) ([]*Block, error)
	// Sweep applies the automatic blocking rule to every active unit.
	Sweep(ctx context.Context) (*SweepReport, error)
}

var (
	ErrBlockNotFound     = errors.New("block_not_found")
	ErrNoActiveBlock     = errors.New("no_active_block")
	ErrActiveBlockExists = errors.New("active_block_exists")
	ErrInvalidSystem     = errors.New("invalid_system")
	ErrNoSystems         = errors.New("no_systems_selected")
	ErrReasonRequired    = errors.New("reason_required")
	ErrSweepInProgress   = errors.New("sweep_already_in_progress")
)
