package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/cobranca/internal/integration/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, setting *domain.Setting) error {
	return db.WithContext(ctx).Create(setting).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, setting *domain.Setting) error {
	return db.WithContext(ctx).Save(setting).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, kind domain.Kind) error {
	return db.WithContext(ctx).Delete(&domain.Setting{}, "kind = ?", kind).Error
}

func (r *repo) FindByKind(ctx context.Context, db *gorm.DB, kind domain.Kind) (*domain.Setting, error) {
	var setting domain.Setting
	err := db.WithContext(ctx).Where("kind = ?", kind).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Setting, error) {
	var settings []*domain.Setting
	if err := db.WithContext(ctx).Order("kind asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
