package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
)

func (s *Server) registerPriorityRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectPriority, authorization.ActionView)
	api.GET("/priority/queue", view, s.PriorityQueue)
	api.GET("/priority/queue/export", view, s.ExportPriorityQueue)
	api.GET("/priority/config", view, s.ScoringConfig)
	api.GET("/priority/actions", view, s.ListPendingActions)
	api.GET("/priority/:cnpj/escalations", view, s.ListEscalations)
	api.POST("/priority/:cnpj/recompute", s.requireAuthz(authorization.ObjectPriority, authorization.ActionUpdate), s.RecomputePriority)
	api.POST("/priority/:cnpj/attempts", s.requireAuthz(authorization.ObjectPriority, authorization.ActionUpdate), s.RecordContactAttempt)
	api.POST("/priority/:cnpj/override", s.requireAuthz(authorization.ObjectPriority, authorization.ActionPriorityOverride), s.OverridePriority)
	api.POST("/priority/sweep", s.requireAuthz(authorization.ObjectPriority, authorization.ActionPrioritySweep), s.SweepPriorities)
	api.POST("/priority/actions/:id/resolve", s.requireAuthz(authorization.ObjectPriority, authorization.ActionPriorityResolve), s.ResolvePendingAction)
}

func (s *Server) PriorityQueue(c *gin.Context) {
	queue, err := s.prioritySvc.Queue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": queue})
}

func (s *Server) ExportPriorityQueue(c *gin.Context) {
	csv, err := s.prioritySvc.ExportQueueCSV(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="fila_prioridade.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

// ScoringConfig exposes the live scoring parameters so operators can see
// which weights produced the current queue.
func (s *Server) ScoringConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.scoring.Get()})
}

func (s *Server) RecomputePriority(c *gin.Context) {
	view, err := s.prioritySvc.Recompute(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) SweepPriorities(c *gin.Context) {
	report, err := s.prioritySvc.Sweep(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "priority.sweep", "priority", "all", auditdomain.RiskTierMedium, map[string]any{
		"total":      report.Total,
		"escalated":  report.Escalated,
		"dispatched": report.Dispatched,
	})
	c.JSON(http.StatusOK, gin.H{"data": report})
}

type overrideRequest struct {
	Level         int    `json:"level"`
	Justification string `json:"justification"`
}

func (s *Server) OverridePriority(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	operator := c.GetString(contextOperatorKey)
	p, err := s.prioritySvc.Override(c.Request.Context(), c.Param("cnpj"), prioritydomain.OverrideRequest{
		Level:         req.Level,
		Justification: req.Justification,
		Actor:         operator,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "priority.overridden", "priority", p.UnitCNPJ, auditdomain.RiskTierHigh, map[string]any{
		"level":         p.Level,
		"justification": req.Justification,
	})
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (s *Server) RecordContactAttempt(c *gin.Context) {
	p, err := s.prioritySvc.RecordContact(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (s *Server) ListEscalations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := s.prioritySvc.ListEscalations(c.Request.Context(), c.Param("cnpj"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

func (s *Server) ListPendingActions(c *gin.Context) {
	onlyOpen, err := parseOptionalBool(c.Query("open"))
	if err != nil {
		AbortWithError(c, newValidationError("open", "invalid_open", "invalid open"))
		return
	}

	open := true
	if onlyOpen != nil {
		open = *onlyOpen
	}
	actions, err := s.prioritySvc.ListPendingActions(c.Request.Context(), open)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": actions})
}

func (s *Server) ResolvePendingAction(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	operator := c.GetString(contextOperatorKey)
	action, err := s.prioritySvc.ResolvePendingAction(c.Request.Context(), id, operator)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "priority.action_resolved", "pending_action", action.ID.String(), auditdomain.RiskTierMedium, map[string]any{
		"unit_cnpj": action.UnitCNPJ,
		"level":     action.Level,
	})
	c.JSON(http.StatusOK, gin.H{"data": action})
}
