package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/kanban/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCard(ctx context.Context, db *gorm.DB, card *domain.Card) error {
	return db.WithContext(ctx).Create(card).Error
}

func (r *repo) UpdateCard(ctx context.Context, db *gorm.DB, card *domain.Card) error {
	return db.WithContext(ctx).Save(card).Error
}

func (r *repo) FindCardByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Card, error) {
	var card domain.Card
	err := db.WithContext(ctx).Where("id = ?", id).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *repo) FindCardByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*domain.Card, error) {
	var card domain.Card
	err := db.WithContext(ctx).Where("unit_cnpj = ?", cnpj).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *repo) ListCards(ctx context.Context, db *gorm.DB) ([]*domain.Card, error) {
	var cards []*domain.Card
	err := db.WithContext(ctx).
		Order("board_column asc, position asc, id asc").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *repo) MaxPosition(ctx context.Context, db *gorm.DB, column domain.Column) (int, error) {
	var max *int
	err := db.WithContext(ctx).Model(&domain.Card{}).
		Select("MAX(position)").
		Where("board_column = ?", column).
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (r *repo) InsertTratativa(ctx context.Context, db *gorm.DB, t *domain.Tratativa) error {
	return db.WithContext(ctx).Create(t).Error
}

func (r *repo) ListTratativas(ctx context.Context, db *gorm.DB, cnpj string, limit int) ([]*domain.Tratativa, error) {
	var items []*domain.Tratativa
	stmt := db.WithContext(ctx).
		Where("unit_cnpj = ?", cnpj).
		Order("occurred_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountTratativasByKind(ctx context.Context, db *gorm.DB, cnpj string, kind domain.TratativaKind) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Tratativa{}).
		Where("unit_cnpj = ? AND kind = ?", cnpj, kind).
		Count(&count).Error
	return count, err
}

func (r *repo) AnyTratativaNoteContains(ctx context.Context, db *gorm.DB, cnpj, needle string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Tratativa{}).
		Where("unit_cnpj = ? AND LOWER(notes) LIKE ?", cnpj, "%"+strings.ToLower(needle)+"%").
		Count(&count).Error
	return count > 0, err
}
