package inventoryserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	catalogapp "github.com/hcustod/inventory-management-system/internal/domains/catalog/application"
	catalogports "github.com/hcustod/inventory-management-system/internal/domains/catalog/ports"
	identityports "github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
	ordersapp "github.com/hcustod/inventory-management-system/internal/domains/orders/application"
	ordersports "github.com/hcustod/inventory-management-system/internal/domains/orders/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// NewResponder builds the responder shared by every handler. Unmapped errors are logged
// to logger and answered with a generic 500.
func NewResponder(logger *slog.Logger) *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder("",
		mapIdentityError,
		mapCatalogError,
		mapOrderError,
	).WithLogger(logger)
}

func mapIdentityError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, identityports.ErrUnauthenticated) {
		return apierrors.ErrUnauthorized.WithDetail(identityports.ErrUnauthenticated.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapCatalogError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogapp.ErrIDMismatch):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(causeMessage(err, catalogapp.ErrInvalidInput)), true
	case errors.Is(err, catalogports.ErrCategoryNotFound),
		errors.Is(err, catalogports.ErrProductNotFound),
		errors.Is(err, catalogports.ErrConcurrentModification):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, catalogports.ErrDuplicateCategoryName),
		errors.Is(err, catalogports.ErrCategoryHasProducts),
		errors.Is(err, catalogports.ErrProductReferenced):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(causeMessage(err, ordersapp.ErrInvalidInput)), true
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// causeMessage drops the category sentinel from an error built as "%w: %w" so the client
// sees only the rule that failed.
func causeMessage(err, sentinel error) string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err.Error()
	}
	var parts []string
	for _, inner := range joined.Unwrap() {
		if inner == sentinel {
			continue
		}
		parts = append(parts, inner.Error())
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, ": ")
}

// respondBindingError reports malformed or invalid request input as a 400.
func respondBindingError(c *gin.Context, responder *apierrors.ChainedResponder, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		fields := make(map[string]string, len(invalid))
		for _, fe := range invalid {
			fields[lowerFirst(fe.Field())] = fe.Tag()
		}
		responder.ValidationFailed(c, fields)
		return
	}
	responder.BadRequest(c, err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func respondStatusProblem(c *gin.Context, responder *apierrors.ChainedResponder, status int, detail string) {
	switch status {
	case http.StatusUnauthorized:
		c.Header("WWW-Authenticate", `Bearer realm="inventory"`)
		responder.Respond(c, apierrors.ErrUnauthorized.WithDetail(detail))
	case http.StatusForbidden:
		responder.Respond(c, apierrors.ErrForbidden.WithDetail(detail))
	default:
		responder.Respond(c, apierrors.ErrBadRequest.WithDetail(detail))
	}
}
