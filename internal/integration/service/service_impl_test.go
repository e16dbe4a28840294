package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/cobranca/internal/clock"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	"github.com/smallbiznis/cobranca/internal/integration/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubTester struct {
	err    error
	tested []integrationdomain.Kind
}

func (s *stubTester) Test(ctx context.Context, setting *integrationdomain.Setting) error {
	s.tested = append(s.tested, setting.Kind)
	return s.err
}

func setupIntegration(t *testing.T, tester integrationdomain.ConnectionTester) integrationdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&integrationdomain.Setting{}))

	node, err := snowflake.NewNode(11)
	require.NoError(t, err)

	return NewService(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		Repo:   repository.Provide(),
		Tester: tester,
	})
}

func TestUpsertValidatesPerKind(t *testing.T) {
	ctx := context.Background()
	svc := setupIntegration(t, &stubTester{})

	_, err := svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   "telegrama",
		Config: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, integrationdomain.ErrInvalidKind)

	_, err = svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindWhatsApp,
		Config: json.RawMessage(`{"base_url":"https://api.example.com"}`),
	})
	assert.ErrorIs(t, err, integrationdomain.ErrMissingField)

	_, err = svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindEmail,
		Config: json.RawMessage(`{"smtp_host":"mail.example.com","from":"cobranca@example.com"}`),
	})
	assert.ErrorIs(t, err, integrationdomain.ErrMissingField) // smtp_port

	setting, err := svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindWebhook,
		Config: json.RawMessage(`{"url":"https://hooks.example.com/x","secret":"s"}`),
	})
	require.NoError(t, err)
	assert.True(t, setting.Active)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	ctx := context.Background()
	svc := setupIntegration(t, &stubTester{})

	first, err := svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindNotion,
		Config: json.RawMessage(`{"token":"t1","database_id":"db1"}`),
	})
	require.NoError(t, err)

	inactive := false
	second, err := svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindNotion,
		Config: json.RawMessage(`{"token":"t2","database_id":"db2"}`),
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Active)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	cfg, err := second.DecodeNotion()
	require.NoError(t, err)
	assert.Equal(t, "t2", cfg.Token)
}

func TestUpsertPersistsInactiveOnCreate(t *testing.T) {
	ctx := context.Background()
	svc := setupIntegration(t, &stubTester{})

	inactive := false
	created, err := svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindWebhook,
		Config: json.RawMessage(`{"url":"https://hooks.example.com/x","secret":"s"}`),
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, created.Active)

	// The stored row must be inactive too, not just the returned value.
	stored, err := svc.Get(ctx, integrationdomain.KindWebhook)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestTestConnection(t *testing.T) {
	ctx := context.Background()
	tester := &stubTester{}
	svc := setupIntegration(t, tester)

	err := svc.TestConnection(ctx, integrationdomain.KindWebhook)
	assert.ErrorIs(t, err, integrationdomain.ErrSettingNotFound)

	inactive := false
	_, err = svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindWebhook,
		Config: json.RawMessage(`{"url":"https://hooks.example.com/x","secret":"s"}`),
		Active: &inactive,
	})
	require.NoError(t, err)
	err = svc.TestConnection(ctx, integrationdomain.KindWebhook)
	assert.ErrorIs(t, err, integrationdomain.ErrSettingInactive)

	active := true
	_, err = svc.Upsert(ctx, integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.KindWebhook,
		Config: json.RawMessage(`{"url":"https://hooks.example.com/x","secret":"s"}`),
		Active: &active,
	})
	require.NoError(t, err)
	require.NoError(t, svc.TestConnection(ctx, integrationdomain.KindWebhook))
	assert.Equal(t, []integrationdomain.Kind{integrationdomain.KindWebhook}, tester.tested)
}
