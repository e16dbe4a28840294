package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/auditcontext"
	"go.uber.org/zap"
)

const (
	HeaderOperator     = "X-Operator"
	HeaderOperatorRole = "X-Operator-Role"

	contextOperatorKey = "operator"
	contextRoleKey     = "operator_role"
)

// OperatorContext resolves the acting operator from request headers and
// stamps it onto the context so audit records can attribute actions.
func OperatorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := strings.TrimSpace(c.GetHeader(HeaderOperator))
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderOperatorRole)))

		c.Set(contextOperatorKey, operator)
		c.Set(contextRoleKey, role)

		if operator != "" {
			ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeOperator), operator)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// requireAuthz gates a route on the casbin policy for the operator role.
func (s *Server) requireAuthz(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString(contextOperatorKey)
		role := c.GetString(contextRoleKey)

		if err := s.authzSvc.Authorize(c.Request.Context(), operator, role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func operatorFrom(c *gin.Context) (string, *string) {
	operator := strings.TrimSpace(c.GetString(contextOperatorKey))
	if operator == "" {
		return string(auditdomain.ActorTypeOperator), nil
	}
	return string(auditdomain.ActorTypeOperator), &operator
}

// audit records a sensitive mutation, never failing the request.
func (s *Server) audit(c *gin.Context, action, targetType, targetID string, risk auditdomain.RiskTier, metadata map[string]any) {
	actorType, actorID := operatorFrom(c)
	var target *string
	if targetID != "" {
		target = &targetID
	}
	if err := s.auditSvc.Record(c.Request.Context(), actorType, actorID, action, targetType, target, risk, metadata); err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}
