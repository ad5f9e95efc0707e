package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/domain"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	tokens      *TokenManager
	apiKey      string
	systemEmail string
	logger      *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.AuthConfig, tokens *TokenManager, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:      tokens,
		apiKey:      cfg.APIKey,
		systemEmail: cfg.SystemEmail,
		logger:      logger,
	}
}

// Authenticate rejects requests without a valid API key or bearer token
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userCtx, authType, err := m.resolve(r)
		if err != nil {
			m.logger.Warn("authentication failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			writeUnauthorized(w, "Unauthorized: "+err.Error())
			return
		}
		if userCtx == nil {
			writeUnauthorized(w, "Unauthorized: missing authorization header")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", authType),
			zap.String("user_id", userCtx.UserID),
			zap.String("permission", string(userCtx.Permission)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// OptionalAuthenticate attaches the caller when credentials are valid and
// otherwise lets the request through anonymously. Handlers decide whether a caller is required.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, _, err := m.resolve(r)
		if err != nil {
			m.logger.Debug("optional auth: credentials rejected, continuing unauthenticated",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		if userCtx != nil {
			r = r.WithContext(WithUserContext(r.Context(), userCtx))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the caller may manage users
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			writeUnauthorized(w, "Unauthorized: no user context")
			return
		}
		if !userCtx.IsAdmin() {
			writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Forbidden: admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolve returns the caller for the request, nil when no credentials were sent.
func (m *Middleware) resolve(r *http.Request) (*UserContext, string, error) {
	if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
		if !m.validateAPIKey(apiKey) {
			return nil, "api_key", ErrInvalidToken
		}
		return SystemUser(m.systemEmail), "api_key", nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "", nil
	}
	token, err := ExtractBearerToken(authHeader)
	if err != nil {
		return nil, "jwt", err
	}
	userCtx, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, "jwt", err
	}
	return userCtx, "jwt", nil
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Error:  message,
		Type:   errType,
		Status: status,
	})
}
