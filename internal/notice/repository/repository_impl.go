package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/notice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tpl *domain.Template) error {
	return db.WithContext(ctx).Create(tpl).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tpl *domain.Template) error {
	return db.WithContext(ctx).Save(tpl).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Template{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Template, error) {
	var tpl domain.Template
	err := db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Template, error) {
	var tpl domain.Template
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, kind domain.Kind) ([]*domain.Template, error) {
	var templates []*domain.Template
	stmt := db.WithContext(ctx).Model(&domain.Template{})
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	if err := stmt.Order("name asc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
