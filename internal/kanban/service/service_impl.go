package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cobranca/internal/clock"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// refusalNeedle is matched case-insensitively against tratativa notes to
// detect an explicit negotiation refusal. A substring heuristic carried
// over from the legacy dashboard; see DESIGN.md for the tradeoff.
const refusalNeedle = "recus"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        kanbandomain.Repository
	Franchisees franchiseedomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        kanbandomain.Repository
	franchisees franchiseedomain.Service
}

func NewService(p Params) kanbandomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("kanban.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		franchisees: p.Franchisees,
	}
}

func (s *Service) CreateCard(ctx context.Context, req kanbandomain.CreateCardRequest) (*kanbandomain.Card, error) {
	unit, err := s.franchisees.GetByCNPJ(ctx, req.UnitCNPJ)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindCardByUnit(ctx, s.db, unit.CNPJ)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, kanbandomain.ErrCardExists
	}

	maxPos, err := s.repo.MaxPosition(ctx, s.db, kanbandomain.ColumnNew)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	card := &kanbandomain.Card{
		ID:         s.genID.Generate(),
		UnitCNPJ:   unit.CNPJ,
		Column:     kanbandomain.ColumnNew,
		Position:   maxPos + 1,
		AssignedTo: strings.TrimSpace(req.AssignedTo),
		DueAt:      req.DueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertCard(ctx, s.db, card); err != nil {
		return nil, err
	}
	return card, nil
}

// MoveCard advances a card to any later column; moving backward demands
// a justification, which is recorded as a tratativa.
func (s *Service) MoveCard(ctx context.Context, id snowflake.ID, req kanbandomain.MoveCardRequest) (*kanbandomain.Card, error) {
	if req.To.Order() < 0 {
		return nil, kanbandomain.ErrInvalidColumn
	}

	card, err := s.repo.FindCardByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, kanbandomain.ErrCardNotFound
	}

	backward := req.To.Order() < card.Column.Order()
	justification := strings.TrimSpace(req.Justification)
	if backward && justification == "" {
		return nil, kanbandomain.ErrJustificationRequired
	}

	maxPos, err := s.repo.MaxPosition(ctx, s.db, req.To)
	if err != nil {
		return nil, err
	}

	card.Column = req.To
	card.Position = maxPos + 1
	card.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateCard(ctx, s.db, card); err != nil {
		return nil, err
	}

	if backward {
		cardID := card.ID
		if _, err := s.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
			UnitCNPJ: card.UnitCNPJ,
			CardID:   &cardID,
			Kind:     kanbandomain.KindOther,
			Notes:    "Retorno de coluna: " + justification,
			Actor:    req.Actor,
		}); err != nil {
			s.log.Warn("failed to record backward move tratativa",
				zap.String("card_id", card.ID.String()), zap.Error(err))
		}
	}

	return card, nil
}

func (s *Service) GetBoard(ctx context.Context) (*kanbandomain.Board, error) {
	cards, err := s.repo.ListCards(ctx, s.db)
	if err != nil {
		return nil, err
	}

	grouped := make(map[kanbandomain.Column][]*kanbandomain.Card, len(kanbandomain.BoardColumns))
	for _, card := range cards {
		grouped[card.Column] = append(grouped[card.Column], card)
	}

	board := &kanbandomain.Board{Columns: make([]kanbandomain.BoardColumn, 0, len(kanbandomain.BoardColumns))}
	for _, column := range kanbandomain.BoardColumns {
		board.Columns = append(board.Columns, kanbandomain.BoardColumn{
			Column: column,
			Cards:  grouped[column],
		})
	}
	return board, nil
}

func (s *Service) AddTratativa(ctx context.Context, req kanbandomain.AddTratativaRequest) (*kanbandomain.Tratativa, error) {
	if !kanbandomain.ValidKind(req.Kind) {
		return nil, kanbandomain.ErrInvalidKind
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return nil, kanbandomain.ErrNotesRequired
	}

	unit, err := s.franchisees.GetByCNPJ(ctx, req.UnitCNPJ)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	tratativa := &kanbandomain.Tratativa{
		ID:         s.genID.Generate(),
		UnitCNPJ:   unit.CNPJ,
		CardID:     req.CardID,
		Kind:       req.Kind,
		Notes:      notes,
		Actor:      strings.TrimSpace(req.Actor),
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}

	if err := s.repo.InsertTratativa(ctx, s.db, tratativa); err != nil {
		return nil, err
	}
	return tratativa, nil
}

func (s *Service) ListTratativas(ctx context.Context, cnpj string, limit int) ([]*kanbandomain.Tratativa, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 250 {
		limit = 250
	}
	return s.repo.ListTratativas(ctx, s.db, strings.TrimSpace(cnpj), limit)
}

func (s *Service) CountMissedMeetings(ctx context.Context, cnpj string) (int64, error) {
	return s.repo.CountTratativasByKind(ctx, s.db, strings.TrimSpace(cnpj), kanbandomain.KindMissedMeeting)
}

func (s *Service) HasNegotiationRefusal(ctx context.Context, cnpj string) (bool, error) {
	return s.repo.AnyTratativaNoteContains(ctx, s.db, strings.TrimSpace(cnpj), refusalNeedle)
}
