package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/cobranca/internal/franchisee/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, unit *domain.Unit) error {
	return db.WithContext(ctx).Create(unit).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, unit *domain.Unit) error {
	return db.WithContext(ctx).Save(unit).Error
}

func (r *repo) FindByCNPJ(ctx context.Context, db *gorm.DB, cnpj string) (*domain.Unit, error) {
	var unit domain.Unit
	err := db.WithContext(ctx).Where("cnpj = ?", cnpj).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListUnitFilter) ([]*domain.Unit, error) {
	var units []*domain.Unit
	stmt := db.WithContext(ctx).Model(&domain.Unit{})

	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+name+"%")
	}
	if cnpj := strings.TrimSpace(filter.CNPJ); cnpj != "" {
		stmt = stmt.Where("cnpj = ?", cnpj)
	}
	if state := strings.TrimSpace(filter.State); state != "" {
		stmt = stmt.Where("state = ?", state)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	stmt = stmt.Order("name asc, cnpj asc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	if err := stmt.Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}
