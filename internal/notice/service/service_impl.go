package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/cobranca/internal/clock"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	"github.com/smallbiznis/cobranca/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  noticedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  noticedomain.Repository
}

func NewService(p Params) noticedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notice.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req noticedomain.CreateTemplateRequest) (*noticedomain.Template, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, noticedomain.ErrNameRequired
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, noticedomain.ErrBodyRequired
	}
	if !noticedomain.ValidKind(req.Kind) {
		return nil, noticedomain.ErrInvalidKind
	}

	now := s.clock.Now()
	tpl := &noticedomain.Template{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		Kind:      req.Kind,
		Body:      req.Body,
		Variables: datatypes.JSONSlice[string](noticedomain.ExtractVariables(req.Body)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, tpl); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, noticedomain.ErrTemplateExists
		}
		return nil, err
	}
	return tpl, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*noticedomain.Template, error) {
	tpl, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, noticedomain.ErrTemplateNotFound
	}
	return tpl, nil
}

func (s *Service) GetBySlug(ctx context.Context, sl string) (*noticedomain.Template, error) {
	tpl, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(sl))
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, noticedomain.ErrTemplateNotFound
	}
	return tpl, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req noticedomain.UpdateTemplateRequest) (*noticedomain.Template, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, noticedomain.ErrNameRequired
		}
		tpl.Name = name
		tpl.Slug = slug.Make(name)
	}
	if req.Kind != nil {
		if !noticedomain.ValidKind(*req.Kind) {
			return nil, noticedomain.ErrInvalidKind
		}
		tpl.Kind = *req.Kind
	}
	if req.Body != nil {
		if strings.TrimSpace(*req.Body) == "" {
			return nil, noticedomain.ErrBodyRequired
		}
		tpl.Body = *req.Body
		tpl.Variables = datatypes.JSONSlice[string](noticedomain.ExtractVariables(*req.Body))
	}
	tpl.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, tpl); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, noticedomain.ErrTemplateExists
		}
		return nil, err
	}
	return tpl, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, kind noticedomain.Kind) ([]*noticedomain.Template, error) {
	if kind != "" && !noticedomain.ValidKind(kind) {
		return nil, noticedomain.ErrInvalidKind
	}
	return s.repo.List(ctx, s.db, kind)
}

func (s *Service) Render(ctx context.Context, id snowflake.ID, values map[string]string) (*noticedomain.RenderedNotice, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	body := noticedomain.Render(tpl.Body, values)
	return &noticedomain.RenderedNotice{
		TemplateID: tpl.ID,
		Slug:       tpl.Slug,
		Kind:       tpl.Kind,
		Body:       body,
		Unresolved: noticedomain.ExtractVariables(body),
	}, nil
}

func (s *Service) RenderPDF(ctx context.Context, id snowflake.ID, values map[string]string) ([]byte, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rendered := noticedomain.Render(tpl.Body, values)
	return generatePDF(tpl.Name, rendered, s.clock.Now())
}
