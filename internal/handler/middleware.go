package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"sendit/messenger/internal/pkg/apperr"
	"sendit/messenger/internal/pkg/auth"
	"sendit/messenger/internal/pkg/httputils"
)

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireOwner only lets requests through whose bearer token subject equals
// the {userId} path variable. With required=false it is a pass-through.
func RequireOwner(tokens TokenValidator, required bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, err := auth.BearerToken(r)
			if err != nil {
				httputils.ResponseAppError(w, r, apperr.New(apperr.CodeUnauthorized, "Missing bearer token"))
				return
			}

			claims, err := tokens.ValidateToken(tokenStr)
			if err != nil {
				httputils.ResponseAppError(w, r, apperr.Wrap(apperr.CodeUnauthorized, "Invalid token", err))
				return
			}

			if claims.Subject != mux.Vars(r)["userId"] {
				httputils.ResponseAppError(w, r, apperr.New(apperr.CodeForbidden, "Token does not belong to this user"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
