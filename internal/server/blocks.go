package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	blockingdomain "github.com/smallbiznis/cobranca/internal/blocking/domain"
)

func (s *Server) registerBlockRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectBlock, authorization.ActionView)
	api.GET("/blocks", view, s.ListBlocks)
	api.GET("/blocks/:id", view, s.GetBlock)
	api.GET("/units/:cnpj/blocks", view, s.BlockHistory)
	api.POST("/blocks", s.requireAuthz(authorization.ObjectBlock, authorization.ActionBlockCreate), s.CreateBlock)
	api.POST("/blocks/sweep", s.requireAuthz(authorization.ObjectBlock, authorization.ActionBlockSweep), s.SweepBlocks)
	api.POST("/units/:cnpj/blocks/unblock", s.requireAuthz(authorization.ObjectBlock, authorization.ActionBlockUnblock), s.Unblock)
	api.POST("/units/:cnpj/blocks/systems", s.requireAuthz(authorization.ObjectBlock, authorization.ActionBlockCreate), s.UpdateBlockSystems)
}

type createBlockRequest struct {
	UnitCNPJ string   `json:"unit_cnpj"`
	Systems  []string `json:"systems"`
	Reason   string   `json:"reason"`
}

func (s *Server) CreateBlock(c *gin.Context) {
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	systems := make([]blockingdomain.System, 0, len(req.Systems))
	for _, sys := range req.Systems {
		systems = append(systems, blockingdomain.System(sys))
	}

	operator := c.GetString(contextOperatorKey)
	block, err := s.blockingSvc.Block(c.Request.Context(), blockingdomain.CreateBlockRequest{
		UnitCNPJ:  req.UnitCNPJ,
		Systems:   systems,
		Reason:    req.Reason,
		BlockedBy: operator,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "block.created", "block", block.ID.String(), auditdomain.RiskTierHigh, map[string]any{
		"unit_cnpj": block.UnitCNPJ,
		"systems":   req.Systems,
		"reason":    req.Reason,
	})
	c.JSON(http.StatusCreated, gin.H{"data": block})
}

func (s *Server) Unblock(c *gin.Context) {
	operator := c.GetString(contextOperatorKey)
	block, err := s.blockingSvc.Unblock(c.Request.Context(), c.Param("cnpj"), operator)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "block.released", "block", block.ID.String(), auditdomain.RiskTierHigh, map[string]any{
		"unit_cnpj": block.UnitCNPJ,
	})
	c.JSON(http.StatusOK, gin.H{"data": block})
}

type updateBlockSystemsRequest struct {
	Systems []string `json:"systems"`
	Reason  string   `json:"reason"`
}

func (s *Server) UpdateBlockSystems(c *gin.Context) {
	var req updateBlockSystemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	systems := make([]blockingdomain.System, 0, len(req.Systems))
	for _, sys := range req.Systems {
		systems = append(systems, blockingdomain.System(sys))
	}

	operator := c.GetString(contextOperatorKey)
	block, err := s.blockingSvc.UpdateSystems(c.Request.Context(), c.Param("cnpj"), blockingdomain.UpdateSystemsRequest{
		Systems:   systems,
		Reason:    req.Reason,
		UpdatedBy: operator,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "block.systems_updated", "block", block.ID.String(), auditdomain.RiskTierHigh, map[string]any{
		"unit_cnpj": block.UnitCNPJ,
		"systems":   req.Systems,
	})
	c.JSON(http.StatusOK, gin.H{"data": block})
}

func (s *Server) GetBlock(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	block, err := s.blockingSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": block})
}

func (s *Server) ListBlocks(c *gin.Context) {
	active, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	onlyActive := active != nil && *active
	blocks, err := s.blockingSvc.List(c.Request.Context(), onlyActive)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": blocks})
}

func (s *Server) BlockHistory(c *gin.Context) {
	blocks, err := s.blockingSvc.History(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": blocks})
}

func (s *Server) SweepBlocks(c *gin.Context) {
	report, err := s.blockingSvc.Sweep(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "block.sweep", "block", "all", auditdomain.RiskTierMedium, map[string]any{
		"total":   report.Total,
		"blocked": report.Blocked,
		"skipped": report.Skipped,
	})
	c.JSON(http.StatusOK, gin.H{"data": report})
}
