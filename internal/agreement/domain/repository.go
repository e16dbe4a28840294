package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agreement *Agreement) error
	Update(ctx context.Context, db *gorm.DB, agreement *Agreement) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agreement, error)
	FindActiveByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*Agreement, error)
	CountBrokenByUnit(ctx context.Context, db *gorm.DB, cnpj string) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListAgreementFilter) ([]*Agreement, error)
}
