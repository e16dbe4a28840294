package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
)

func (s *Server) registerUnitRoutes(api *gin.RouterGroup) {
	api.GET("/units", s.requireAuthz(authorization.ObjectUnit, authorization.ActionView), s.ListUnits)
	api.GET("/units/export", s.requireAuthz(authorization.ObjectUnit, authorization.ActionView), s.ExportUnits)
	api.GET("/units/:cnpj", s.requireAuthz(authorization.ObjectUnit, authorization.ActionView), s.GetUnit)
	api.POST("/units", s.requireAuthz(authorization.ObjectUnit, authorization.ActionCreate), s.CreateUnit)
	api.PATCH("/units/:cnpj", s.requireAuthz(authorization.ObjectUnit, authorization.ActionUpdate), s.UpdateUnit)
}

type createUnitRequest struct {
	CNPJ  string `json:"cnpj"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (s *Server) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	unit, err := s.franchiseeSvc.Create(c.Request.Context(), franchiseedomain.CreateUnitRequest{
		CNPJ:  req.CNPJ,
		Name:  req.Name,
		City:  req.City,
		State: req.State,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "unit.created", "unit", unit.CNPJ, auditdomain.RiskTierLow, map[string]any{
		"name": unit.Name,
	})
	c.JSON(http.StatusCreated, gin.H{"data": unit})
}

func (s *Server) GetUnit(c *gin.Context) {
	unit, err := s.franchiseeSvc.GetByCNPJ(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": unit})
}

type updateUnitRequest struct {
	Name   *string `json:"name"`
	City   *string `json:"city"`
	State  *string `json:"state"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
	Active *bool   `json:"active"`
}

func (s *Server) UpdateUnit(c *gin.Context) {
	var req updateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	unit, err := s.franchiseeSvc.Update(c.Request.Context(), c.Param("cnpj"), franchiseedomain.UpdateUnitRequest{
		Name:   req.Name,
		City:   req.City,
		State:  req.State,
		Phone:  req.Phone,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "unit.updated", "unit", unit.CNPJ, auditdomain.RiskTierLow, nil)
	c.JSON(http.StatusOK, gin.H{"data": unit})
}

func (s *Server) unitFilterFromQuery(c *gin.Context) (franchiseedomain.ListUnitFilter, error) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		return franchiseedomain.ListUnitFilter{}, newValidationError("active", "invalid_active", "invalid active")
	}
	return franchiseedomain.ListUnitFilter{
		Name:   c.Query("name"),
		CNPJ:   c.Query("cnpj"),
		State:  c.Query("state"),
		Active: active,
	}, nil
}

func (s *Server) ListUnits(c *gin.Context) {
	filter, err := s.unitFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	units, err := s.franchiseeSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": units})
}

func (s *Server) ExportUnits(c *gin.Context) {
	filter, err := s.unitFilterFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	csv, err := s.franchiseeSvc.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="unidades.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
