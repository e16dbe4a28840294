package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
)

func (s *Server) registerIntegrationRoutes(api *gin.RouterGroup) {
	manage := s.requireAuthz(authorization.ObjectIntegration, authorization.ActionIntegrationManage)
	api.GET("/integrations", s.requireAuthz(authorization.ObjectIntegration, authorization.ActionView), s.ListIntegrations)
	api.GET("/integrations/:kind", s.requireAuthz(authorization.ObjectIntegration, authorization.ActionView), s.GetIntegration)
	api.PUT("/integrations/:kind", manage, s.UpsertIntegration)
	api.DELETE("/integrations/:kind", manage, s.DeleteIntegration)
	api.POST("/integrations/:kind/test", manage, s.TestIntegration)
}

type upsertIntegrationRequest struct {
	Config json.RawMessage `json:"config"`
	Active *bool           `json:"active"`
}

func (s *Server) UpsertIntegration(c *gin.Context) {
	var req upsertIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	setting, err := s.integrationSvc.Upsert(c.Request.Context(), integrationdomain.UpsertSettingRequest{
		Kind:   integrationdomain.Kind(c.Param("kind")),
		Config: req.Config,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Config payloads hold credentials; audit the change without them.
	s.audit(c, "integration.configured", "integration", string(setting.Kind), auditdomain.RiskTierHigh, map[string]any{
		"active": setting.Active,
	})
	c.JSON(http.StatusOK, gin.H{"data": setting})
}

func (s *Server) GetIntegration(c *gin.Context) {
	setting, err := s.integrationSvc.Get(c.Request.Context(), integrationdomain.Kind(c.Param("kind")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": setting})
}

func (s *Server) ListIntegrations(c *gin.Context) {
	settings, err := s.integrationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (s *Server) DeleteIntegration(c *gin.Context) {
	kind := integrationdomain.Kind(c.Param("kind"))
	if err := s.integrationSvc.Delete(c.Request.Context(), kind); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "integration.removed", "integration", string(kind), auditdomain.RiskTierHigh, nil)
	c.Status(http.StatusNoContent)
}

func (s *Server) TestIntegration(c *gin.Context) {
	kind := integrationdomain.Kind(c.Param("kind"))
	if err := s.integrationSvc.TestConnection(c.Request.Context(), kind); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
