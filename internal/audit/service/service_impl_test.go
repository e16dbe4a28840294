package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/audit/repository"
	"github.com/smallbiznis/cobranca/internal/auditcontext"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAudit(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(16)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: fake, Repo: repository.Provide(),
	})
	return svc, fake
}

func operator(id string) (string, *string) {
	return string(auditdomain.ActorTypeOperator), &id
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAudit(t)

	actorType, actorID := operator("ana")
	target := "11222333000181"
	err := svc.Record(ctx, actorType, actorID, "unit.created", "unit", &target, auditdomain.RiskTierLow, map[string]any{
		"name": "Unidade Centro",
	})
	require.NoError(t, err)

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "unit.created", entry.Action)
	assert.Equal(t, "operador", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "ana", *entry.ActorID)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, target, *entry.TargetID)
	assert.Equal(t, "Unidade Centro", entry.Metadata["name"])
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAudit(t)

	err := svc.Record(ctx, "", nil, "  ", "unit", nil, auditdomain.RiskTierLow, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestRecordDefaultsFromContext(t *testing.T) {
	svc, _ := setupAudit(t)

	ctx := auditcontext.WithActor(context.Background(), "operador", "bruno")
	ctx = auditcontext.WithRequestID(ctx, "req-123")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.9")

	require.NoError(t, svc.Record(ctx, "", nil, "block.created", "block", nil, "", nil))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "operador", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "bruno", *entry.ActorID)
	assert.Equal(t, auditdomain.RiskTierLow, entry.RiskTier)
	assert.Equal(t, "req-123", entry.Metadata["request_id"])
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.9", *entry.IPAddress)
}

func TestRecordWithoutActorFallsBackToSystem(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAudit(t)

	require.NoError(t, svc.Record(ctx, "", nil, "priority.sweep", "priority", nil, auditdomain.RiskTierMedium, nil))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "sistema", resp.AuditLogs[0].ActorType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestListFiltersAndTimeRange(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupAudit(t)

	actorType, actorID := operator("ana")
	require.NoError(t, svc.Record(ctx, actorType, actorID, "unit.created", "unit", nil, auditdomain.RiskTierLow, nil))
	fake.Advance(time.Hour)
	require.NoError(t, svc.Record(ctx, actorType, actorID, "block.created", "block", nil, auditdomain.RiskTierHigh, nil))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "block.created"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, auditdomain.RiskTierHigh, resp.AuditLogs[0].RiskTier)

	resp, err = svc.List(ctx, auditdomain.ListAuditLogRequest{RiskTier: "alto"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	start := fake.Now().Add(time.Minute)
	end := fake.Now()
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	svc, fake := setupAudit(t)

	actorType, actorID := operator("ana")
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, actorType, actorID, "unit.updated", "unit", nil, auditdomain.RiskTierLow, nil))
		fake.Advance(time.Minute)
	}

	req := auditdomain.ListAuditLogRequest{}
	req.PageSize = 2
	first, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	req.PageToken = first.NextPageToken
	second, err := svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	req.PageToken = "not-a-token"
	_, err = svc.List(ctx, req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAudit(t)

	actorType, actorID := operator("ana")
	target := "11222333000181"
	require.NoError(t, svc.Record(ctx, actorType, actorID, "unit.created", "unit", &target, auditdomain.RiskTierLow, nil))

	csv, err := svc.ExportCSV(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "acao")
	assert.Contains(t, lines[1], "unit.created")
	assert.Contains(t, lines[1], target)
}
