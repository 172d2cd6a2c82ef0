package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/response"
)

// AdminOnly allows admin and owner roles.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := CallerFromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if !caller.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
