package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, block *Block) error
	Update(ctx context.Context, db *gorm.DB, block *Block) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Block, error)
	FindActiveByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*Block, error)
	List(ctx context.Context, db *gorm.DB, onlyActive bool) ([]*Block, error)
	ListByUnit(ctx context.Context, db *gorm.DB, cnpj string) ([]*Block, error)
	CountActive(ctx context.Context, db *gorm.DB) (int64, error)
}
