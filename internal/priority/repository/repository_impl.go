package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/priority/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, p *domain.Priority) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "unit_cnpj"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "level", "contact_attempts", "last_contact_at", "updated_at",
		}),
	}).Create(p).Error
}

func (r *repo) FindByUnit(ctx context.Context, db *gorm.DB, cnpj string) (*domain.Priority, error) {
	var p domain.Priority
	err := db.WithContext(ctx).Where("unit_cnpj = ?", cnpj).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Priority, error) {
	var priorities []*domain.Priority
	if err := db.WithContext(ctx).Order("unit_cnpj asc").Find(&priorities).Error; err != nil {
		return nil, err
	}
	return priorities, nil
}

func (r *repo) InsertEscalation(ctx context.Context, db *gorm.DB, log *domain.EscalationLog) error {
	return db.WithContext(ctx).Create(log).Error
}

func (r *repo) ListEscalations(ctx context.Context, db *gorm.DB, cnpj string, limit int) ([]*domain.EscalationLog, error) {
	var logs []*domain.EscalationLog
	stmt := db.WithContext(ctx).Where("unit_cnpj = ?", cnpj).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) InsertPendingAction(ctx context.Context, db *gorm.DB, action *domain.PendingAction) error {
	return db.WithContext(ctx).Create(action).Error
}

func (r *repo) UpdatePendingAction(ctx context.Context, db *gorm.DB, action *domain.PendingAction) error {
	return db.WithContext(ctx).Save(action).Error
}

func (r *repo) FindPendingAction(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PendingAction, error) {
	var action domain.PendingAction
	err := db.WithContext(ctx).Where("id = ?", id).First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

func (r *repo) FindOpenAction(ctx context.Context, db *gorm.DB, cnpj string, level int) (*domain.PendingAction, error) {
	var action domain.PendingAction
	err := db.WithContext(ctx).
		Where("unit_cnpj = ? AND level = ? AND resolved_at IS NULL", cnpj, level).
		First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

func (r *repo) ListPendingActions(ctx context.Context, db *gorm.DB, onlyOpen bool) ([]*domain.PendingAction, error) {
	var actions []*domain.PendingAction
	stmt := db.WithContext(ctx).Order("created_at desc, id desc")
	if onlyOpen {
		stmt = stmt.Where("resolved_at IS NULL")
	}
	if err := stmt.Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}
