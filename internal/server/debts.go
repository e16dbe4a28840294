package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
)

func (s *Server) registerDebtRoutes(api *gin.RouterGroup) {
	api.GET("/debts", s.requireAuthz(authorization.ObjectDebt, authorization.ActionView), s.ListDebts)
	api.GET("/debts/export", s.requireAuthz(authorization.ObjectDebt, authorization.ActionView), s.ExportDebts)
	api.GET("/debts/:id", s.requireAuthz(authorization.ObjectDebt, authorization.ActionView), s.GetDebt)
	api.POST("/debts", s.requireAuthz(authorization.ObjectDebt, authorization.ActionCreate), s.CreateDebt)
	api.POST("/debts/:id/status", s.requireAuthz(authorization.ObjectDebt, authorization.ActionUpdate), s.ChangeDebtStatus)
}

type createDebtRequest struct {
	UnitCNPJ       string          `json:"unit_cnpj"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	DueDate        time.Time       `json:"due_date"`
}

func (s *Server) CreateDebt(c *gin.Context) {
	var req createDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	debt, err := s.debtSvc.Create(c.Request.Context(), debtdomain.CreateDebtRequest{
		UnitCNPJ:       req.UnitCNPJ,
		Description:    req.Description,
		Type:           debtdomain.Type(req.Type),
		OriginalAmount: req.OriginalAmount,
		DueDate:        req.DueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "debt.created", "debt", debt.ID.String(), auditdomain.RiskTierLow, map[string]any{
		"unit_cnpj": debt.UnitCNPJ,
		"amount":    debt.OriginalAmount.StringFixed(2),
	})
	c.JSON(http.StatusCreated, gin.H{"data": debt})
}

func (s *Server) GetDebt(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	debt, err := s.debtSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": debt})
}

type changeDebtStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ChangeDebtStatus(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req changeDebtStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	debt, err := s.debtSvc.ChangeStatus(c.Request.Context(), id, debtdomain.Status(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "debt.status_changed", "debt", debt.ID.String(), auditdomain.RiskTierMedium, map[string]any{
		"unit_cnpj": debt.UnitCNPJ,
		"status":    string(debt.Status),
	})
	c.JSON(http.StatusOK, gin.H{"data": debt})
}

func (s *Server) debtFilterFromQuery(c *gin.Context) (debtdomain.ListDebtFilter, error) {
	overdue, err := parseOptionalBool(c.Query("overdue"))
	if err != nil {
		return debtdomain.ListDebtFilter{}, newValidationError("overdue", "invalid_overdue", "invalid overdue")
	}
	dueFrom, err := parseOptionalTime(c.Query("due_from"))
	if err != nil {
		return debtdomain.ListDebtFilter{}, newValidationError("due_from", "invalid_due_from", "invalid due_from")
	}
	dueTo, err := parseOptionalTime(c.Query("due_to"))
	if err != nil {
		return debtdomain.ListDebtFilter{}, newValidationError("due_to", "invalid_due_to", "invalid due_to")
	}

	filter := debtdomain.ListDebtFilter{
		UnitCNPJ: c.Query("unit_cnpj"),
		Status:   debtdomain.Status(c.Query("status")),
		Type:     debtdomain.Type(c.Query("type")),
		DueFrom:  dueFrom,
		DueTo:    dueTo,
	}
	if overdue != nil {
		filter.OverdueOnly = *overdue
	}
	return filter, nil
}

func (s *Server) ListDebts(c *gin.Context) {
	filter, err := s.debtFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	debts, err := s.debtSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": debts})
}

func (s *Server) ExportDebts(c *gin.Context) {
	filter, err := s.debtFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	csv, err := s.debtSvc.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="debitos.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
