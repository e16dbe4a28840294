package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateTemplateRequest struct {
	Name string
	Kind Kind
	Body string
}

type UpdateTemplateRequest struct {
	Name *string
	Kind *Kind
	Body *string
}

// RenderedNotice is the outcome of applying values to a template.
type RenderedNotice struct {
	TemplateID snowflake.ID `json:"template_id"`
	Slug       string       `json:"slug"`
	Kind       Kind         `json:"kind"`
	Body       string       `json:"body"`
	// Unresolved lists placeholders left literal in Body.
	Unresolved []string `json:"unresolved,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateTemplateRequest) (*Template, error)
	Get(ctx context.Context, id snowflake.ID) (*Template, error)
	GetBySlug(ctx context.Context, slug string) (*Template, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateTemplateRequest) (*Template, error)
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, kind Kind) ([]*Template, error)
	Render(ctx context.Context, id snowflake.ID, values map[string]string) (*RenderedNotice, error)
	RenderPDF(ctx context.Context, id snowflake.ID, values map[string]string) ([]byte, error)
}

var (
	ErrTemplateNotFound = errors.New("template_not_found")
	ErrTemplateExists   = errors.New("template_already_exists")
	ErrNameRequired     = errors.New("template_name_required")
	ErrBodyRequired     = errors.New("template_body_required")
	ErrInvalidKind      = errors.New("invalid_template_kind")
)
