package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"go.uber.org/zap"
)

// Audit logs every write request (POST, PUT, PATCH, DELETE) with the caller,
// the matched route and the outcome. It must run after authentication.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	auditLog := logger.Named("audit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			fields := []zap.Field{
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status_code", rw.statusCode),
				zap.Bool("success", rw.statusCode < 400),
			}
			if id := r.URL.Query().Get("id"); id != "" {
				fields = append(fields, zap.String("entity_id", id))
			}
			if user, ok := auth.FromContext(r.Context()); ok {
				fields = append(fields,
					zap.String("user_id", user.UserID),
					zap.String("permission", string(user.Permission)),
					zap.Bool("system", user.System),
				)
			}
			auditLog.Info("write request", fields...)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
