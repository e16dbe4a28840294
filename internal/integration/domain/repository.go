package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, setting *Setting) error
	Update(ctx context.Context, db *gorm.DB, setting *Setting) error
	Delete(ctx context.Context, db *gorm.DB, kind Kind) error
	FindByKind(ctx context.Context, db *gorm.DB, kind Kind) (*Setting, error)
	List(ctx context.Context, db *gorm.DB) ([]*Setting, error)
}
