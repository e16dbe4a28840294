package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tpl *Template) error
	Update(ctx context.Context, db *gorm.DB, tpl *Template) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Template, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Template, error)
	List(ctx context.Context, db *gorm.DB, kind Kind) ([]*Template, error)
}
