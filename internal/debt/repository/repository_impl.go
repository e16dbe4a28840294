package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/debt/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, debt *domain.Debt) error {
	return db.WithContext(ctx).Create(debt).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, debt *domain.Debt) error {
	return db.WithContext(ctx).Save(debt).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Debt, error) {
	var debt domain.Debt
	err := db.WithContext(ctx).Where("id = ?", id).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &debt, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListDebtFilter) ([]*domain.Debt, error) {
	var debts []*domain.Debt
	stmt := db.WithContext(ctx).Model(&domain.Debt{})

	if cnpj := strings.TrimSpace(filter.UnitCNPJ); cnpj != "" {
		stmt = stmt.Where("unit_cnpj = ?", cnpj)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.DueFrom != nil {
		stmt = stmt.Where("due_date >= ?", filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		stmt = stmt.Where("due_date <= ?", filter.DueTo.UTC())
	}

	stmt = stmt.Order("due_date asc, id asc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	if err := stmt.Find(&debts).Error; err != nil {
		return nil, err
	}
	return debts, nil
}

func (r *repo) OpenByUnit(ctx context.Context, db *gorm.DB, cnpj string) ([]*domain.Debt, error) {
	var debts []*domain.Debt
	err := db.WithContext(ctx).
		Where("unit_cnpj = ? AND status IN ?", cnpj, []domain.Status{domain.StatusOpen, domain.StatusNegotiating}).
		Order("due_date asc, id asc").
		Find(&debts).Error
	if err != nil {
		return nil, err
	}
	return debts, nil
}
