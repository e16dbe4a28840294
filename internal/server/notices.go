package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
)

func (s *Server) registerNoticeRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectNotice, authorization.ActionView)
	api.GET("/notices", view, s.ListNotices)
	api.GET("/notices/:id", view, s.GetNotice)
	api.POST("/notices", s.requireAuthz(authorization.ObjectNotice, authorization.ActionCreate), s.CreateNotice)
	api.PATCH("/notices/:id", s.requireAuthz(authorization.ObjectNotice, authorization.ActionUpdate), s.UpdateNotice)
	api.DELETE("/notices/:id", s.requireAuthz(authorization.ObjectNotice, authorization.ActionDelete), s.DeleteNotice)
	api.POST("/notices/:id/render", view, s.RenderNotice)
	api.POST("/notices/:id/pdf", view, s.RenderNoticePDF)
}

type createNoticeRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Body string `json:"body"`
}

func (s *Server) CreateNotice(c *gin.Context) {
	var req createNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	template, err := s.noticeSvc.Create(c.Request.Context(), noticedomain.CreateTemplateRequest{
		Name: req.Name,
		Kind: noticedomain.Kind(req.Kind),
		Body: req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": template})
}

func (s *Server) GetNotice(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		// Fall back to slug lookup for human-friendly URLs.
		template, slugErr := s.noticeSvc.GetBySlug(c.Request.Context(), c.Param("id"))
		if slugErr != nil {
			AbortWithError(c, slugErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": template})
		return
	}

	template, err := s.noticeSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

type updateNoticeRequest struct {
	Name *string `json:"name"`
	Kind *string `json:"kind"`
	Body *string `json:"body"`
}

func (s *Server) UpdateNotice(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req updateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var kind *noticedomain.Kind
	if req.Kind != nil {
		k := noticedomain.Kind(*req.Kind)
		kind = &k
	}
	template, err := s.noticeSvc.Update(c.Request.Context(), id, noticedomain.UpdateTemplateRequest{
		Name: req.Name,
		Kind: kind,
		Body: req.Body,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) DeleteNotice(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.noticeSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "notice.deleted", "notice_template", c.Param("id"), auditdomain.RiskTierMedium, nil)
	c.Status(http.StatusNoContent)
}

func (s *Server) ListNotices(c *gin.Context) {
	templates, err := s.noticeSvc.List(c.Request.Context(), noticedomain.Kind(c.Query("kind")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

type renderNoticeRequest struct {
	Values map[string]string `json:"values"`
}

func (s *Server) RenderNotice(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req renderNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rendered, err := s.noticeSvc.Render(c.Request.Context(), id, req.Values)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "notice.rendered", "notice_template", rendered.Slug, auditdomain.RiskTierLow, map[string]any{
		"kind": string(rendered.Kind),
	})
	c.JSON(http.StatusOK, gin.H{"data": rendered})
}

func (s *Server) RenderNoticePDF(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req renderNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	pdf, err := s.noticeSvc.RenderPDF(c.Request.Context(), id, req.Values)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "notice.pdf_generated", "notice_template", c.Param("id"), auditdomain.RiskTierLow, nil)
	c.Header("Content-Disposition", `attachment; filename="notificacao.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
