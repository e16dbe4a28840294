package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	"github.com/smallbiznis/cobranca/pkg/db/pagination"
)

func (s *Server) registerAuditRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectAuditLog, authorization.ActionView)
	api.GET("/audit-logs", view, s.ListAuditLogs)
	api.GET("/audit-logs/export", view, s.ExportAuditLogs)
}

type listAuditLogsQuery struct {
	PageToken  string `form:"page_token"`
	PageSize   int    `form:"page_size"`
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorType  string `form:"actor_type"`
	RiskTier   string `form:"risk_tier"`
	StartAt    string `form:"start_at"`
	EndAt      string `form:"end_at"`
}

func (s *Server) auditRequestFromQuery(c *gin.Context) (auditdomain.ListAuditLogRequest, error) {
	var query listAuditLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return auditdomain.ListAuditLogRequest{}, invalidRequestError()
	}

	startAt, err := parseOptionalTime(query.StartAt)
	if err != nil {
		return auditdomain.ListAuditLogRequest{}, newValidationError("start_at", "invalid_start_at", "invalid start_at")
	}
	endAt, err := parseOptionalTime(query.EndAt)
	if err != nil {
		return auditdomain.ListAuditLogRequest{}, newValidationError("end_at", "invalid_end_at", "invalid end_at")
	}

	return auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		ActorType:  strings.TrimSpace(query.ActorType),
		RiskTier:   strings.TrimSpace(query.RiskTier),
		StartAt:    startAt,
		EndAt:      endAt,
	}, nil
}

func (s *Server) ListAuditLogs(c *gin.Context) {
	req, err := s.auditRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.AuditLogs, "page_info": resp.PageInfo})
}

func (s *Server) ExportAuditLogs(c *gin.Context) {
	req, err := s.auditRequestFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	csv, err := s.auditSvc.ExportCSV(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="auditoria.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
