package server

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	"github.com/smallbiznis/cobranca/internal/clock"
	"github.com/smallbiznis/cobranca/internal/config"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	franchiseerepo "github.com/smallbiznis/cobranca/internal/franchisee/repository"
	franchiseeservice "github.com/smallbiznis/cobranca/internal/franchisee/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allowAllAuthz struct{ denied bool }

func (a *allowAllAuthz) Authorize(ctx context.Context, actor, role, object, action string) error {
	if a.denied {
		return authorization.ErrForbidden
	}
	return nil
}

type recordingAudit struct {
	records []string
}

func (r *recordingAudit) Record(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, riskTier auditdomain.RiskTier, metadata map[string]any) error {
	r.records = append(r.records, action)
	return nil
}

func (r *recordingAudit) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

func (r *recordingAudit) ExportCSV(ctx context.Context, req auditdomain.ListAuditLogRequest) (string, error) {
	return "", nil
}

type serverFixture struct {
	server *Server
	engine *gin.Engine
	authz  *allowAllAuthz
	audit  *recordingAudit
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&franchiseedomain.Unit{}))

	node, err := snowflake.NewNode(14)
	require.NoError(t, err)

	fixed := clock.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	franchiseeSvc := franchiseeservice.NewService(franchiseeservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fixed,
		Repo:  franchiseerepo.Provide(),
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	authz := &allowAllAuthz{}
	audit := &recordingAudit{}
	s := NewServer(ServerParams{
		Gin:           engine,
		Cfg:           config.Config{HTTPAddr: ":0"},
		Log:           zap.NewNop(),
		Scoring:       config.NewStaticScoringHolder(config.DefaultScoringConfig()),
		AuthzSvc:      authz,
		AuditSvc:      audit,
		FranchiseeSvc: franchiseeSvc,
	})

	return &serverFixture{server: s, engine: engine, authz: authz, audit: audit}
}
