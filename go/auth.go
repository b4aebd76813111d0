package inventoryserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	identitydomain "github.com/hcustod/inventory-management-system/internal/domains/identity/domain"
	identityports "github.com/hcustod/inventory-management-system/internal/domains/identity/ports"
	apierrors "github.com/hcustod/inventory-management-system/internal/shared/errors"
)

// Access is the minimum caller a route accepts.
type Access int

const (
	AccessAnonymous Access = iota
	AccessAuthenticated
	AccessUser
	AccessAdmin
)

// Authenticate resolves an optional bearer credential into a principal on the request
// context. Requests without an Authorization header continue anonymously; a header that
// does not authenticate is rejected.
func Authenticate(authenticator identityports.Authenticator, responder *apierrors.ChainedResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || authenticator == nil {
			c.Next()
			return
		}
		const prefix = "bearer "
		if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
			respondStatusProblem(c, responder, http.StatusUnauthorized, "Authorization header must use the Bearer scheme")
			return
		}
		principal, err := authenticator.Authenticate(c.Request.Context(), strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			if errors.Is(err, identityports.ErrUnauthenticated) {
				respondStatusProblem(c, responder, http.StatusUnauthorized, identityports.ErrUnauthenticated.Error())
				return
			}
			responder.RespondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(identitydomain.NewContext(c.Request.Context(), principal))
		c.Next()
	}
}

// Require enforces access on a route. Missing identity is a 401, a missing role a 403.
func Require(access Access, responder *apierrors.ChainedResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if access == AccessAnonymous {
			c.Next()
			return
		}
		principal, ok := identitydomain.FromContext(c.Request.Context())
		if !ok {
			respondStatusProblem(c, responder, http.StatusUnauthorized, "authentication required")
			return
		}
		switch access {
		case AccessUser:
			if !principal.HasRole(identitydomain.RoleUser) {
				respondStatusProblem(c, responder, http.StatusForbidden, "requires the User role")
				return
			}
		case AccessAdmin:
			if !principal.HasRole(identitydomain.RoleAdmin) {
				respondStatusProblem(c, responder, http.StatusForbidden, "requires the Admin role")
				return
			}
		}
		c.Next()
	}
}
