package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Caller is the authenticated user as read from the access token.
type Caller struct {
	UserID int64
	Role   user.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == user.RoleAdmin || c.Role == user.RoleOwner
}

// CallerFromContext reads user_id and role claims set by jwtauth.Verifier.
func CallerFromContext(ctx context.Context) (Caller, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Caller{}, auth.ErrInvalidToken
	}

	var userID int64
	switch v := claims["user_id"].(type) {
	case float64:
		userID = int64(v)
	case int64:
		userID = v
	case json.Number:
		userID, err = v.Int64()
		if err != nil {
			return Caller{}, auth.ErrInvalidToken
		}
	default:
		return Caller{}, auth.ErrInvalidToken
	}

	roleStr, ok := claims["role"].(string)
	if !ok || !user.Role(roleStr).IsValid() || userID <= 0 {
		return Caller{}, auth.ErrInvalidToken
	}

	return Caller{UserID: userID, Role: user.Role(roleStr)}, nil
}
