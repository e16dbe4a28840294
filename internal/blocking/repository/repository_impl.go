package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/blocking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, block *domain.Block) error {
	return db.WithContext(ctx).Create(block).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, block *domain.Block) error {
	return db.WithContext(ctx).Save(block).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Block, error) {
	var block domain.Block
	err := db.WithContext(ctx).Where("id = ?", id).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (r *repo) FindActiveByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*domain.Block, error) {
	var block domain.Block
	err := db.WithContext(ctx).Where("unit_cnpj = ? AND active = ?", cnpj, true).First(&block).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, onlyActive bool) ([]*domain.Block, error) {
	var blocks []*domain.Block
	stmt := db.WithContext(ctx).Order("created_at desc, id desc")
	if onlyActive {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *repo) ListByUnit(ctx context.Context, db *gorm.DB, cnpj string) ([]*domain.Block, error) {
	var blocks []*domain.Block
	err := db.WithContext(ctx).Where("unit_cnpj = ?", cnpj).
		Order("created_at desc, id desc").Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *repo) CountActive(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Block{}).Where("active = ?", true).Count(&count).Error
	return count, err
}
