package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserIDFromContext returns the user id stored by requireAccessToken.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// requireAccessToken admits requests whose bearer token parses with signer
// and is an access token. Refresh and activation tokens are signed with the
// same key and must not open protected routes.
func requireAccessToken(signer auth.Signer, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := jwtauth.TokenFromHeader(r)
			if raw == "" {
				respondFail(w, http.StatusUnauthorized, "invalid or missing access token")
				return
			}

			claims, err := signer.Parse(secret, raw)
			if err != nil || claims.Kind != models.TokenKindAccess || claims.Subject == "" {
				respondFail(w, http.StatusUnauthorized, "invalid or missing access token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger logs one line per request. Paths are logged as routed
// patterns so activation tokens in URLs never reach the log.
func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"route", routePattern(r),
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}
