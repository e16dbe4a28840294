package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/cobranca/internal/agreement"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	"github.com/smallbiznis/cobranca/internal/audit"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	"github.com/smallbiznis/cobranca/internal/blocking"
	blockingdomain "github.com/smallbiznis/cobranca/internal/blocking/domain"
	"github.com/smallbiznis/cobranca/internal/config"
	"github.com/smallbiznis/cobranca/internal/debt"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	"github.com/smallbiznis/cobranca/internal/franchisee"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	"github.com/smallbiznis/cobranca/internal/integration"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	"github.com/smallbiznis/cobranca/internal/kanban"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	"github.com/smallbiznis/cobranca/internal/notice"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	"github.com/smallbiznis/cobranca/internal/observability"
	"github.com/smallbiznis/cobranca/internal/priority"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
	"github.com/smallbiznis/cobranca/internal/providers/notification"
	"github.com/smallbiznis/cobranca/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	franchisee.Module,
	debt.Module,
	agreement.Module,
	priority.Module,
	blocking.Module,
	kanban.Module,
	notice.Module,
	integration.Module,
	notification.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(metrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinLogging())
	r.Use(observability.GinTracing())
	r.Use(observability.GinMetrics(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	scoring        *config.ScoringConfigHolder
	authzSvc       authorization.Service
	auditSvc       auditdomain.Service
	franchiseeSvc  franchiseedomain.Service
	debtSvc        debtdomain.Service
	agreementSvc   agreementdomain.Service
	prioritySvc    prioritydomain.Service
	blockingSvc    blockingdomain.Service
	kanbanSvc      kanbandomain.Service
	noticeSvc      noticedomain.Service
	integrationSvc integrationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Scoring        *config.ScoringConfigHolder
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	FranchiseeSvc  franchiseedomain.Service
	DebtSvc        debtdomain.Service
	AgreementSvc   agreementdomain.Service
	PrioritySvc    prioritydomain.Service
	BlockingSvc    blockingdomain.Service
	KanbanSvc      kanbandomain.Service
	NoticeSvc      noticedomain.Service
	IntegrationSvc integrationdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		scoring:        p.Scoring,
		authzSvc:       p.AuthzSvc,
		auditSvc:       p.AuditSvc,
		franchiseeSvc:  p.FranchiseeSvc,
		debtSvc:        p.DebtSvc,
		agreementSvc:   p.AgreementSvc,
		prioritySvc:    p.PrioritySvc,
		blockingSvc:    p.BlockingSvc,
		kanbanSvc:      p.KanbanSvc,
		noticeSvc:      p.NoticeSvc,
		integrationSvc: p.IntegrationSvc,
	}

	s.registerAPIRoutes()

	return s
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(OperatorContext())

	s.registerUnitRoutes(api)
	s.registerDebtRoutes(api)
	s.registerAgreementRoutes(api)
	s.registerPriorityRoutes(api)
	s.registerBlockRoutes(api)
	s.registerKanbanRoutes(api)
	s.registerNoticeRoutes(api)
	s.registerIntegrationRoutes(api)
	s.registerAuditRoutes(api)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
