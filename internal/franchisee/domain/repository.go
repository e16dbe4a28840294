package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, unit *Unit) error
	Update(ctx context.Context, db *gorm.DB, unit *Unit) error
	FindByCNPJ(ctx context.Context, db *gorm.DB, cnpj string) (*Unit, error)
	List(ctx context.Context, db *gorm.DB, filter ListUnitFilter) ([]*Unit, error)
}
