package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/response"
)

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := CallerFromContext(r.Context())
			if err != nil {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(caller.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, caller.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
