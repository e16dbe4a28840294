package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, p *Priority) error
	FindByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*Priority, error)
	List(ctx context.Context, db *gorm.DB) ([]*Priority, error)

	InsertEscalation(ctx context.Context, db *gorm.DB, log *EscalationLog) error
	ListEscalations(ctx context.Context, db *gorm.DB, cnpj string, limit int) ([]*EscalationLog, error)

	InsertPendingAction(ctx context.Context, db *gorm.DB, action *PendingAction) error
	UpdatePendingAction(ctx context.Context, db *gorm.DB, action *PendingAction) error
	FindPendingAction(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PendingAction, error)
	FindOpenAction(ctx context.Context, db *gorm.DB, cnpj string, level int) (*PendingAction, error)
	ListPendingActions(ctx context.Context, db *gorm.DB, onlyOpen bool) ([]*PendingAction, error)
}
