package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/cobranca/internal/clock"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	"github.com/smallbiznis/cobranca/internal/notice/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupNotice(t *testing.T) noticedomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&noticedomain.Template{}))

	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateTemplateSlugAndVariables(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Notificação Extrajudicial",
		Kind: noticedomain.KindExtrajudicial,
		Body: "Prezado {{nome}}, a unidade {{cnpj}} possui débito de {{valor}}. {{nome}}, regularize.",
	})
	require.NoError(t, err)
	assert.Equal(t, "notificacao-extrajudicial", tpl.Slug)
	assert.Equal(t, []string{"nome", "cnpj", "valor"}, []string(tpl.Variables))

	_, err = svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Notificação Extrajudicial",
		Kind: noticedomain.KindExtrajudicial,
		Body: "outro corpo",
	})
	assert.ErrorIs(t, err, noticedomain.ErrTemplateExists)
}

func TestCreateTemplateValidation(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	_, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{Name: " ", Kind: noticedomain.KindWarning, Body: "x"})
	assert.ErrorIs(t, err, noticedomain.ErrNameRequired)

	_, err = svc.Create(ctx, noticedomain.CreateTemplateRequest{Name: "a", Kind: noticedomain.KindWarning, Body: "  "})
	assert.ErrorIs(t, err, noticedomain.ErrBodyRequired)

	_, err = svc.Create(ctx, noticedomain.CreateTemplateRequest{Name: "a", Kind: "memorando", Body: "x"})
	assert.ErrorIs(t, err, noticedomain.ErrInvalidKind)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Advertência",
		Kind: noticedomain.KindWarning,
		Body: "Unidade {{cnpj}}: valor {{valor}} vencido ha {{dias}} dias.",
	})
	require.NoError(t, err)

	rendered, err := svc.Render(ctx, tpl.ID, map[string]string{
		"cnpj":  "11222333000181",
		"valor": "R$ 1.000,00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Unidade 11222333000181: valor R$ 1.000,00 vencido ha {{dias}} dias.", rendered.Body)
	assert.Equal(t, []string{"dias"}, rendered.Unresolved)
}

func TestRenderIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Lembrete",
		Kind: noticedomain.KindFriendlyReminder,
		Body: "Ola {{Nome}}",
	})
	require.NoError(t, err)

	rendered, err := svc.Render(ctx, tpl.ID, map[string]string{"nome": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "Ola {{Nome}}", rendered.Body)
}

func TestUpdateTemplateRecomputesVariables(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Cobrança Formal",
		Kind: noticedomain.KindFormalCollection,
		Body: "{{a}} {{b}}",
	})
	require.NoError(t, err)

	body := "{{x}}"
	updated, err := svc.Update(ctx, tpl.ID, noticedomain.UpdateTemplateRequest{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, []string(updated.Variables))
}

func TestRenderPDF(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Acionamento Jurídico",
		Kind: noticedomain.KindLegalAction,
		Body: "Unidade {{cnpj}}.\n\nEncaminhado ao jurídico.",
	})
	require.NoError(t, err)

	out, err := svc.RenderPDF(ctx, tpl.ID, map[string]string{"cnpj": "11222333000181"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestDeleteTemplate(t *testing.T) {
	ctx := context.Background()
	svc := setupNotice(t)

	tpl, err := svc.Create(ctx, noticedomain.CreateTemplateRequest{
		Name: "Outro",
		Kind: noticedomain.KindOther,
		Body: "corpo",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tpl.ID))
	_, err = svc.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, noticedomain.ErrTemplateNotFound)

	err = svc.Delete(ctx, tpl.ID)
	assert.ErrorIs(t, err, noticedomain.ErrTemplateNotFound)
}
