package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims are the session token claims issued at sign-in
type Claims struct {
	UserID     string            `json:"user_id"`
	Email      string            `json:"email"`
	FullName   string            `json:"name"`
	Permission domain.Permission `json:"permission"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 session tokens.
// Revoked token ids are remembered until the token would have expired.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if issuer == "" {
		issuer = "ledgerline-crm"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// GenerateToken signs a token for the user and returns it with its expiry
func (tm *TokenManager) GenerateToken(user *domain.User) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is not configured")
	}
	if user == nil || user.ID == "" {
		return "", time.Time{}, fmt.Errorf("user id required")
	}

	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := Claims{
		UserID:     user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Permission: user.Permission,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token and returns the caller it represents
func (tm *TokenManager) ValidateToken(tokenString string) (*UserContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if tm.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	return &UserContext{
		UserID:     claims.UserID,
		Email:      claims.Email,
		FullName:   claims.FullName,
		Permission: claims.Permission,
		TokenID:    claims.ID,
	}, nil
}

// Revoke invalidates a token id until expiresAt
func (tm *TokenManager) Revoke(tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.revoked[tokenID] = expiresAt
	tm.pruneLocked()
}

// RevokeCaller invalidates the session token of the caller, if any
func (tm *TokenManager) RevokeCaller(user *UserContext) {
	tm.Revoke(user.TokenID, tm.now().Add(tm.ttl))
}

func (tm *TokenManager) isRevoked(tokenID string) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	_, ok := tm.revoked[tokenID]
	return ok
}

func (tm *TokenManager) pruneLocked() {
	now := tm.now()
	for id, exp := range tm.revoked {
		if now.After(exp) {
			delete(tm.revoked, id)
		}
	}
}

// ExtractBearerToken returns the token from an Authorization header value
func ExtractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
	}
	return parts[1], nil
}
