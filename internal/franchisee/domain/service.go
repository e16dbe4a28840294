package domain

import (
	"context"
	"errors"
)

type CreateUnitRequest struct {
	CNPJ  string
	Name  string
	City  string
	State string
	Phone string
	Email string
}

type UpdateUnitRequest struct {
	Name   *string
	City   *string
	State  *string
	Phone  *string
	Email  *string
	Active *bool
}

type Service interface {
	Create(ctx context.Context, req CreateUnitRequest) (*Unit, error)
	GetByCNPJ(ctx context.Context, cnpj string) (*Unit, error)
	Update(ctx context.Context, cnpj string, req UpdateUnitRequest) (*Unit, error)
	List(ctx context.Context, filter ListUnitFilter) ([]*Unit, error)
	ExportCSV(ctx context.Context, filter ListUnitFilter) (string, error)
}

var (
	ErrUnitNotFound = errors.New("unit_not_found")
	ErrInvalidCNPJ  = errors.New("invalid_cnpj")
	ErrUnitExists   = errors.New("unit_already_exists")
	ErrNameRequired = errors.New("name_required")
)
