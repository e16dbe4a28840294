package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, debt *Debt) error
	Update(ctx context.Context, db *gorm.DB, debt *Debt) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Debt, error)
	List(ctx context.Context, db *gorm.DB, filter ListDebtFilter) ([]*Debt, error)
	OpenByUnit(ctx context.Context, db *gorm.DB, cnpj string) ([]*Debt, error)
}
