package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
)

func (s *Server) registerAgreementRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectAgreement, authorization.ActionView)
	api.GET("/agreements", view, s.ListAgreements)
	api.GET("/agreements/export", view, s.ExportAgreements)
	api.GET("/agreements/:id", view, s.GetAgreement)
	api.POST("/agreements", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionCreate), s.CreateAgreement)
	api.POST("/agreements/:id/accept", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementAccept), s.AcceptAgreement)
	api.POST("/agreements/:id/start", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementAccept), s.StartAgreement)
	api.POST("/agreements/:id/complete", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementAccept), s.CompleteAgreement)
	api.POST("/agreements/:id/break", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementBreak), s.BreakAgreement)
	api.POST("/agreements/:id/cancel", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementCancel), s.CancelAgreement)
	api.POST("/agreements/:id/renegotiate", s.requireAuthz(authorization.ObjectAgreement, authorization.ActionAgreementRenegotiate), s.RenegotiateAgreement)
}

type createAgreementRequest struct {
	UnitCNPJ         string          `json:"unit_cnpj"`
	DebtIDs          []string        `json:"debt_ids"`
	TotalValue       decimal.Decimal `json:"total_value"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	InstallmentCount int             `json:"installment_count"`
	Notes            string          `json:"notes"`
}

func (s *Server) CreateAgreement(c *gin.Context) {
	var req createAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	debtIDs := make([]snowflake.ID, 0, len(req.DebtIDs))
	for _, raw := range req.DebtIDs {
		id, err := parseSnowflakeParam(raw)
		if err != nil {
			AbortWithError(c, newValidationError("debt_ids", "invalid_debt_id", "invalid debt id"))
			return
		}
		debtIDs = append(debtIDs, id)
	}

	agreement, err := s.agreementSvc.Create(c.Request.Context(), agreementdomain.CreateAgreementRequest{
		UnitCNPJ:         req.UnitCNPJ,
		DebtIDs:          debtIDs,
		TotalValue:       req.TotalValue,
		DownPayment:      req.DownPayment,
		InstallmentCount: req.InstallmentCount,
		Notes:            req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agreement.created", "agreement", agreement.ID.String(), auditdomain.RiskTierMedium, map[string]any{
		"unit_cnpj":   agreement.UnitCNPJ,
		"total_value": agreement.TotalValue.StringFixed(2),
	})
	c.JSON(http.StatusCreated, gin.H{"data": agreement})
}

func (s *Server) GetAgreement(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	agreement, err := s.agreementSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": agreement})
}

// transition wraps the one-argument lifecycle calls that differ only in
// service method and audit action.
func (s *Server) transition(c *gin.Context, action string, risk auditdomain.RiskTier,
	fn func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error)) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	agreement, err := fn(c, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, action, "agreement", agreement.ID.String(), risk, map[string]any{
		"unit_cnpj": agreement.UnitCNPJ,
		"status":    string(agreement.Status),
	})
	c.JSON(http.StatusOK, gin.H{"data": agreement})
}

func (s *Server) AcceptAgreement(c *gin.Context) {
	s.transition(c, "agreement.accepted", auditdomain.RiskTierMedium,
		func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
			return s.agreementSvc.Accept(ctx.Request.Context(), id)
		})
}

func (s *Server) StartAgreement(c *gin.Context) {
	s.transition(c, "agreement.fulfillment_started", auditdomain.RiskTierLow,
		func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
			return s.agreementSvc.StartFulfillment(ctx.Request.Context(), id)
		})
}

func (s *Server) CompleteAgreement(c *gin.Context) {
	s.transition(c, "agreement.completed", auditdomain.RiskTierMedium,
		func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
			return s.agreementSvc.Complete(ctx.Request.Context(), id)
		})
}

func (s *Server) CancelAgreement(c *gin.Context) {
	s.transition(c, "agreement.cancelled", auditdomain.RiskTierHigh,
		func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
			return s.agreementSvc.Cancel(ctx.Request.Context(), id)
		})
}

type breakAgreementRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) BreakAgreement(c *gin.Context) {
	var req breakAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	s.transition(c, "agreement.broken", auditdomain.RiskTierHigh,
		func(ctx *gin.Context, id snowflake.ID) (*agreementdomain.Agreement, error) {
			return s.agreementSvc.Break(ctx.Request.Context(), id, req.Reason)
		})
}

type renegotiateRequest struct {
	Justification    string          `json:"justification"`
	TotalValue       decimal.Decimal `json:"total_value"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	InstallmentCount int             `json:"installment_count"`
}

func (s *Server) RenegotiateAgreement(c *gin.Context) {
	var req renegotiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	agreement, err := s.agreementSvc.Renegotiate(c.Request.Context(), id, agreementdomain.RenegotiateRequest{
		Justification:    req.Justification,
		TotalValue:       req.TotalValue,
		DownPayment:      req.DownPayment,
		InstallmentCount: req.InstallmentCount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agreement.renegotiated", "agreement", agreement.ID.String(), auditdomain.RiskTierHigh, map[string]any{
		"unit_cnpj":     agreement.UnitCNPJ,
		"previous_id":   c.Param("id"),
		"justification": req.Justification,
	})
	c.JSON(http.StatusCreated, gin.H{"data": agreement})
}

func (s *Server) agreementFilterFromQuery(c *gin.Context) agreementdomain.ListAgreementFilter {
	return agreementdomain.ListAgreementFilter{
		UnitCNPJ: c.Query("unit_cnpj"),
		Status:   agreementdomain.Status(c.Query("status")),
	}
}

func (s *Server) ListAgreements(c *gin.Context) {
	agreements, err := s.agreementSvc.List(c.Request.Context(), s.agreementFilterFromQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": agreements})
}

func (s *Server) ExportAgreements(c *gin.Context) {
	csv, err := s.agreementSvc.ExportCSV(c.Request.Context(), s.agreementFilterFromQuery(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="acordos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
