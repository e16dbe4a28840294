package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	agreementdomain "github.com/smallbiznis/cobranca/internal/agreement/domain"
	auditdomain "github.com/smallbiznis/cobranca/internal/audit/domain"
	"github.com/smallbiznis/cobranca/internal/authorization"
	blockingdomain "github.com/smallbiznis/cobranca/internal/blocking/domain"
	debtdomain "github.com/smallbiznis/cobranca/internal/debt/domain"
	franchiseedomain "github.com/smallbiznis/cobranca/internal/franchisee/domain"
	integrationdomain "github.com/smallbiznis/cobranca/internal/integration/domain"
	kanbandomain "github.com/smallbiznis/cobranca/internal/kanban/domain"
	noticedomain "github.com/smallbiznis/cobranca/internal/notice/domain"
	prioritydomain "github.com/smallbiznis/cobranca/internal/priority/domain"
	"github.com/smallbiznis/cobranca/internal/providers/notification"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isBusinessRuleError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "business_rule_violation",
			Message: err.Error(),
		}
	case errors.Is(err, integrationdomain.ErrConnectionTest),
		errors.Is(err, notification.ErrDeliveryFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authorization.ErrInvalidRole),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, franchiseedomain.ErrInvalidCNPJ),
		errors.Is(err, franchiseedomain.ErrNameRequired),
		errors.Is(err, debtdomain.ErrInvalidAmount),
		errors.Is(err, debtdomain.ErrInvalidType),
		errors.Is(err, agreementdomain.ErrJustificationRequired),
		errors.Is(err, agreementdomain.ErrReasonRequired),
		errors.Is(err, agreementdomain.ErrInvalidInstallments),
		errors.Is(err, agreementdomain.ErrInvalidValues),
		errors.Is(err, agreementdomain.ErrNoDebts),
		errors.Is(err, prioritydomain.ErrInvalidLevel),
		errors.Is(err, prioritydomain.ErrJustificationRequired),
		errors.Is(err, blockingdomain.ErrInvalidSystem),
		errors.Is(err, blockingdomain.ErrNoSystems),
		errors.Is(err, blockingdomain.ErrReasonRequired),
		errors.Is(err, kanbandomain.ErrInvalidColumn),
		errors.Is(err, kanbandomain.ErrJustificationRequired),
		errors.Is(err, kanbandomain.ErrNotesRequired),
		errors.Is(err, kanbandomain.ErrInvalidKind),
		errors.Is(err, noticedomain.ErrNameRequired),
		errors.Is(err, noticedomain.ErrBodyRequired),
		errors.Is(err, noticedomain.ErrInvalidKind),
		errors.Is(err, integrationdomain.ErrInvalidKind),
		errors.Is(err, integrationdomain.ErrInvalidConfig),
		errors.Is(err, integrationdomain.ErrMissingField),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, franchiseedomain.ErrUnitNotFound),
		errors.Is(err, debtdomain.ErrDebtNotFound),
		errors.Is(err, agreementdomain.ErrAgreementNotFound),
		errors.Is(err, prioritydomain.ErrPriorityNotFound),
		errors.Is(err, prioritydomain.ErrActionNotFound),
		errors.Is(err, blockingdomain.ErrBlockNotFound),
		errors.Is(err, blockingdomain.ErrNoActiveBlock),
		errors.Is(err, kanbandomain.ErrCardNotFound),
		errors.Is(err, noticedomain.ErrTemplateNotFound),
		errors.Is(err, integrationdomain.ErrSettingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, franchiseedomain.ErrUnitExists),
		errors.Is(err, kanbandomain.ErrCardExists),
		errors.Is(err, noticedomain.ErrTemplateExists),
		errors.Is(err, blockingdomain.ErrActiveBlockExists),
		errors.Is(err, agreementdomain.ErrActiveAgreementExists),
		errors.Is(err, debtdomain.ErrInvalidTransition),
		errors.Is(err, agreementdomain.ErrInvalidTransition),
		errors.Is(err, prioritydomain.ErrActionResolved),
		errors.Is(err, prioritydomain.ErrSweepInProgress),
		errors.Is(err, blockingdomain.ErrSweepInProgress):
		return true
	default:
		return false
	}
}

func isBusinessRuleError(err error) bool {
	switch {
	case errors.Is(err, agreementdomain.ErrUnitBlacklisted),
		errors.Is(err, agreementdomain.ErrStatusNotRenegotiable),
		errors.Is(err, integrationdomain.ErrSettingInactive):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasSuffix(code, "_required") {
		return strings.TrimSuffix(code, "_required")
	}
	return ""
}
