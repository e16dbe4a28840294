package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/cobranca/internal/clock"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	franchiseerepo "github.com/smallbiznis/cobranca/internal/franchisee/repository"
	franchiseeservice "github.com/smallbiznis/cobranca/internal/franchisee/service"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	"github.com/smallbiznis/cobranca/internal/kanban/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupKanban(t *testing.T) (kanbandomain.Service, franchiseedomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&franchiseedomain.Unit{},
		&kanbandomain.Card{},
		&kanbandomain.Tratativa{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	franchisees := franchiseeservice.NewService(franchiseeservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  franchiseerepo.Provide(),
	})

	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        repository.Provide(),
		Franchisees: franchisees,
	})
	return svc, franchisees, fake
}

func seedUnit(t *testing.T, franchisees franchiseedomain.Service, cnpj, name string) *franchiseedomain.Unit {
	t.Helper()
	unit, err := franchisees.Create(context.Background(), franchiseedomain.CreateUnitRequest{
		CNPJ: cnpj,
		Name: name,
	})
	require.NoError(t, err)
	return unit
}

func TestCreateCard(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	card, err := svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: unit.CNPJ})
	require.NoError(t, err)
	assert.Equal(t, kanbandomain.ColumnNew, card.Column)
	assert.Equal(t, 0, card.Position)

	_, err = svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: unit.CNPJ})
	assert.ErrorIs(t, err, kanbandomain.ErrCardExists)

	_, err = svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: "00000000000000"})
	assert.Error(t, err)
}

func TestMoveCardForward(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	card, err := svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: unit.CNPJ})
	require.NoError(t, err)

	// Forward moves never require justification, even skipping columns.
	moved, err := svc.MoveCard(ctx, card.ID, kanbandomain.MoveCardRequest{To: kanbandomain.ColumnLegal})
	require.NoError(t, err)
	assert.Equal(t, kanbandomain.ColumnLegal, moved.Column)
}

func TestMoveCardBackwardRequiresJustification(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	card, err := svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: unit.CNPJ})
	require.NoError(t, err)

	_, err = svc.MoveCard(ctx, card.ID, kanbandomain.MoveCardRequest{To: kanbandomain.ColumnNegotiating})
	require.NoError(t, err)

	_, err = svc.MoveCard(ctx, card.ID, kanbandomain.MoveCardRequest{To: kanbandomain.ColumnInContact})
	assert.ErrorIs(t, err, kanbandomain.ErrJustificationRequired)

	moved, err := svc.MoveCard(ctx, card.ID, kanbandomain.MoveCardRequest{
		To:            kanbandomain.ColumnInContact,
		Justification: "franqueado pediu nova proposta",
		Actor:         "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, kanbandomain.ColumnInContact, moved.Column)

	// The backward move leaves a tratativa trail.
	trail, err := svc.ListTratativas(ctx, unit.CNPJ, 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, kanbandomain.KindOther, trail[0].Kind)
	assert.Contains(t, trail[0].Notes, "franqueado pediu nova proposta")
}

func TestMoveCardInvalidColumn(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	card, err := svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: unit.CNPJ})
	require.NoError(t, err)

	_, err = svc.MoveCard(ctx, card.ID, kanbandomain.MoveCardRequest{To: "arquivado"})
	assert.ErrorIs(t, err, kanbandomain.ErrInvalidColumn)
}

func TestGetBoardGroupsByColumn(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	first := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")
	second := seedUnit(t, franchisees, "11.444.777/0001-61", "Unidade Norte")

	cardA, err := svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: first.CNPJ})
	require.NoError(t, err)
	_, err = svc.CreateCard(ctx, kanbandomain.CreateCardRequest{UnitCNPJ: second.CNPJ})
	require.NoError(t, err)

	_, err = svc.MoveCard(ctx, cardA.ID, kanbandomain.MoveCardRequest{To: kanbandomain.ColumnNegotiating})
	require.NoError(t, err)

	board, err := svc.GetBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.Columns, len(kanbandomain.BoardColumns))

	byColumn := make(map[kanbandomain.Column]int)
	for _, col := range board.Columns {
		byColumn[col.Column] = len(col.Cards)
	}
	assert.Equal(t, 1, byColumn[kanbandomain.ColumnNew])
	assert.Equal(t, 1, byColumn[kanbandomain.ColumnNegotiating])
	assert.Equal(t, 0, byColumn[kanbandomain.ColumnResolved])
}

func TestAddTratativaValidation(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	_, err := svc.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
		UnitCNPJ: unit.CNPJ,
		Kind:     "fax",
		Notes:    "x",
	})
	assert.ErrorIs(t, err, kanbandomain.ErrInvalidKind)

	_, err = svc.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
		UnitCNPJ: unit.CNPJ,
		Kind:     kanbandomain.KindCall,
		Notes:    "   ",
	})
	assert.ErrorIs(t, err, kanbandomain.ErrNotesRequired)

	tratativa, err := svc.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
		UnitCNPJ: unit.CNPJ,
		Kind:     kanbandomain.KindCall,
		Notes:    "ligacao sem resposta",
		Actor:    "bruno",
	})
	require.NoError(t, err)
	assert.Equal(t, kanbandomain.KindCall, tratativa.Kind)
}

func TestMissedMeetingsAndRefusal(t *testing.T) {
	ctx := context.Background()
	svc, franchisees, _ := setupKanban(t)
	unit := seedUnit(t, franchisees, "11.222.333/0001-81", "Unidade Centro")

	for i := 0; i < 2; i++ {
		_, err := svc.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
			UnitCNPJ: unit.CNPJ,
			Kind:     kanbandomain.KindMissedMeeting,
			Notes:    "nao compareceu",
		})
		require.NoError(t, err)
	}

	missed, err := svc.CountMissedMeetings(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.Equal(t, int64(2), missed)

	refused, err := svc.HasNegotiationRefusal(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.False(t, refused)

	_, err = svc.AddTratativa(ctx, kanbandomain.AddTratativaRequest{
		UnitCNPJ: unit.CNPJ,
		Kind:     kanbandomain.KindCall,
		Notes:    "Franqueado RECUSOU a proposta de parcelamento",
	})
	require.NoError(t, err)

	refused, err = svc.HasNegotiationRefusal(ctx, unit.CNPJ)
	require.NoError(t, err)
	assert.True(t, refused)
}
