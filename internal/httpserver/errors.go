package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/idempotency"
)

type errorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Errors     []errorItem `json:"errors"`
}

func abortWith(c *gin.Context, status int, key, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Message:    key,
		Errors:     []errorItem{{Code: key, Message: msg}},
	})
}

// writeError maps a service error to a status and a message key prefixed
// by resource, e.g. "product.not_found".
func writeError(c *gin.Context, resource string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		code := "validation"
		if verr.Field != "" {
			code = verr.Field
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "validation.failed",
			Errors:     []errorItem{{Code: code, Message: verr.Msg}},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		abortWith(c, http.StatusBadRequest, "validation.failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		abortWith(c, http.StatusNotFound, resource+".not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWith(c, http.StatusConflict, resource+".exists", err.Error())
	case errors.Is(err, domain.ErrInUse):
		abortWith(c, http.StatusConflict, resource+".in_use", err.Error())
	case errors.Is(err, idempotency.ErrInProgress):
		abortWith(c, http.StatusConflict, "checkout.in_progress", err.Error())
	case errors.Is(err, domain.ErrAdminRequired):
		abortWith(c, http.StatusUnauthorized, "auth.admin_required", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		abortWith(c, http.StatusUnauthorized, "auth.unauthorized", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		abortWith(c, http.StatusUnauthorized, "auth.invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrEmailNotVerified):
		abortWith(c, http.StatusForbidden, "auth.email_not_verified", err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		abortWith(c, http.StatusUnauthorized, "auth.invalid_token", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		abortWith(c, http.StatusUnprocessableEntity, "product.out_of_stock", err.Error())
	case errors.Is(err, domain.ErrNotForSale):
		abortWith(c, http.StatusUnprocessableEntity, "product.not_for_sale", err.Error())
	case errors.Is(err, domain.ErrStockExceeded):
		abortWith(c, http.StatusUnprocessableEntity, "cart.stock_exceeded", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		abortWith(c, http.StatusUnprocessableEntity, "cart.empty", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		abortWith(c, http.StatusUnprocessableEntity, "order.invalid_transition", err.Error())
	case errors.Is(err, domain.ErrPaymentNotVerified):
		abortWith(c, http.StatusUnprocessableEntity, "payment.not_verified", err.Error())
	case errors.Is(err, domain.ErrPaymentUsed):
		abortWith(c, http.StatusConflict, "payment.used", err.Error())
	default:
		_ = c.Error(err)
		abortWith(c, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// writeBindError reports request body or query failures, one item per field
// when the validator produced them.
func writeBindError(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		abortWith(c, http.StatusBadRequest, "validation.failed", "malformed request body")
		return
	}
	items := make([]errorItem, 0, len(fields))
	for _, fe := range fields {
		items = append(items, errorItem{Code: lowerFirst(fe.Field()), Message: "failed on " + fe.Tag()})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    "validation.failed",
		Errors:     items,
	})
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	return string(s[0]+'a'-'A') + s[1:]
}
