package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/agreement/domain"
	"gorm.io/gorm"
)

var terminalStatuses = []domain.Status{
	domain.StatusFulfilled,
	domain.StatusBroken,
	domain.StatusCancelled,
	domain.StatusRenegotiated,
}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, agreement *domain.Agreement) error {
	return db.WithContext(ctx).Create(agreement).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, agreement *domain.Agreement) error {
	return db.WithContext(ctx).Save(agreement).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Agreement, error) {
	var agreement domain.Agreement
	err := db.WithContext(ctx).Where("id = ?", id).First(&agreement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agreement, nil
}

func (r *repo) FindActiveByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*domain.Agreement, error) {
	var agreement domain.Agreement
	err := db.WithContext(ctx).
		Where("unit_cnpj = ? AND status NOT IN ?", cnpj, terminalStatuses).
		Order("created_at desc").
		First(&agreement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &agreement, nil
}

func (r *repo) CountBrokenByUnit(ctx context.Context, db *gorm.DB, cnpj string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Agreement{}).
		Where("unit_cnpj = ? AND status = ?", cnpj, domain.StatusBroken).
		Count(&count).Error
	return count, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAgreementFilter) ([]*domain.Agreement, error) {
	var agreements []*domain.Agreement
	stmt := db.WithContext(ctx).Model(&domain.Agreement{})

	if cnpj := strings.TrimSpace(filter.UnitCNPJ); cnpj != "" {
		stmt = stmt.Where("unit_cnpj = ?", cnpj)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	if err := stmt.Find(&agreements).Error; err != nil {
		return nil, err
	}
	return agreements, nil
}
