package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
)

func (s *Server) registerKanbanRoutes(api *gin.RouterGroup) {
	view := s.requireAuthz(authorization.ObjectKanban, authorization.ActionView)
	api.GET("/kanban/board", view, s.GetBoard)
	api.GET("/kanban/tratativas/:cnpj", view, s.ListTratativas)
	api.POST("/kanban/cards", s.requireAuthz(authorization.ObjectKanban, authorization.ActionCreate), s.CreateCard)
	api.POST("/kanban/cards/:id/move", s.requireAuthz(authorization.ObjectKanban, authorization.ActionUpdate), s.MoveCard)
	api.POST("/kanban/tratativas", s.requireAuthz(authorization.ObjectKanban, authorization.ActionCreate), s.AddTratativa)
}

func (s *Server) GetBoard(c *gin.Context) {
	board, err := s.kanbanSvc.GetBoard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": board})
}

type createCardRequest struct {
	UnitCNPJ   string     `json:"unit_cnpj"`
	AssignedTo string     `json:"assigned_to"`
	DueAt      *time.Time `json:"due_at"`
}

func (s *Server) CreateCard(c *gin.Context) {
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	card, err := s.kanbanSvc.CreateCard(c.Request.Context(), kanbandomain.CreateCardRequest{
		UnitCNPJ:   req.UnitCNPJ,
		AssignedTo: req.AssignedTo,
		DueAt:      req.DueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": card})
}

type moveCardRequest struct {
	To            string `json:"to"`
	Justification string `json:"justification"`
}

func (s *Server) MoveCard(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req moveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	operator := c.GetString(contextOperatorKey)
	card, err := s.kanbanSvc.MoveCard(c.Request.Context(), id, kanbandomain.MoveCardRequest{
		To:            kanbandomain.Column(req.To),
		Justification: req.Justification,
		Actor:         operator,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "kanban.card_moved", "kanban_card", card.ID.String(), auditdomain.RiskTierLow, map[string]any{
		"unit_cnpj": card.UnitCNPJ,
		"column":    string(card.Column),
	})
	c.JSON(http.StatusOK, gin.H{"data": card})
}

type addTratativaRequest struct {
	UnitCNPJ   string     `json:"unit_cnpj"`
	CardID     *string    `json:"card_id"`
	Kind       string     `json:"kind"`
	Notes      string     `json:"notes"`
	OccurredAt *time.Time `json:"occurred_at"`
}

func (s *Server) AddTratativa(c *gin.Context) {
	var req addTratativaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var cardID *snowflake.ID
	if req.CardID != nil {
		parsed, err := parseSnowflakeParam(*req.CardID)
		if err != nil {
			AbortWithError(c, newValidationError("card_id", "invalid_card_id", "invalid card id"))
			return
		}
		cardID = &parsed
	}

	operator := c.GetString(contextOperatorKey)
	tratativa, err := s.kanbanSvc.AddTratativa(c.Request.Context(), kanbandomain.AddTratativaRequest{
		UnitCNPJ:   req.UnitCNPJ,
		CardID:     cardID,
		Kind:       kanbandomain.TratativaKind(req.Kind),
		Notes:      req.Notes,
		Actor:      operator,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tratativa})
}

func (s *Server) ListTratativas(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	tratativas, err := s.kanbanSvc.ListTratativas(c.Request.Context(), c.Param("cnpj"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tratativas})
}
