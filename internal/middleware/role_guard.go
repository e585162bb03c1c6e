package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courier-dispatch/internal/pkg/apperrors"
)

// RoleGuard allows only the listed roles through. Kitchen staff and admins
// share the management surface, so guards usually take more than one role.
func RoleGuard(allowed ...string) gin.HandlerFunc {
	roles := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		roles[r] = true
	}

	return func(c *gin.Context) {
		if !roles[c.GetString("role")] {
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.ErrorResponse{
				Error: apperrors.ErrorBody{
					Code:    "FORBIDDEN",
					Message: "insufficient permissions",
				},
			})
			return
		}

		c.Next()
	}
}
