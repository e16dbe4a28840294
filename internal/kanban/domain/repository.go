package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCard(ctx context.Context, db *gorm.DB, card *Card) error
	UpdateCard(ctx context.Context, db *gorm.DB, card *Card) error
	FindCardByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Card, error)
	FindCardByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*Card, error)
	ListCards(ctx context.Context, db *gorm.DB) ([]*Card, error)
	MaxPosition(ctx context.Context, db *gorm.DB, column Column) (int, error)

	InsertTratativa(ctx context.Context, db *gorm.DB, t *Tratativa) error
	ListTratativas(ctx context.Context, db *gorm.DB, cnpj string, limit int) ([]*Tratativa, error)
	CountTratativasByKind(ctx context.Context, db *gorm.DB, cnpj string, kind TratativaKind) (int64, error)
	AnyTratativaNoteContains(ctx context.Context, db *gorm.DB, cnpj, needle string) (bool, error)
}
