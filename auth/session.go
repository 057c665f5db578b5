// Package auth issues and validates the session tokens the gateway
// requires on every request. Sessions are HS256 JWTs bound to a caller
// id with a fixed lifetime.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services"
	"go.uber.org/zap"
)

// SessionClaims are the JWT claims carried by a session token. The tier
// is fixed at issue time so authorization decisions cannot be upgraded
// by the caller afterwards.
type SessionClaims struct {
	jwt.RegisteredClaims
	Tier models.Tier `json:"tier,omitempty"`
}

// SessionManager issues and authenticates session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSessionManager creates a session manager with the signing secret
// and session lifetime.
func NewSessionManager(secret []byte, ttl time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the time source, for tests.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// Issue mints a session token for the caller at the given tier.
func (m *SessionManager) Issue(callerID string, tier models.Tier) (string, error) {
	if callerID == "" {
		return "", fmt.Errorf("caller id is required")
	}
	if !tier.Valid() {
		return "", fmt.Errorf("unknown tier %q", tier)
	}

	now := m.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   callerID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Tier: tier,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies that the caller id is present and the session
// token is valid, unexpired, and bound to that caller. It returns the
// session id on success.
func (m *SessionManager) Authenticate(callerID, token string) (string, error) {
	claims, err := m.Verify(callerID, token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// Verify authenticates the token and returns its full claims, including
// the tier it was issued at.
func (m *SessionManager) Verify(callerID, token string) (*SessionClaims, error) {
	if callerID == "" {
		return nil, services.NewSecurityError(services.KindAuthRequired, "caller id is required", nil)
	}
	if token == "" {
		return nil, services.NewSecurityError(services.KindAuthRequired, "session token is required", nil)
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		m.logger.Warn("session validation failed",
			zap.String("caller_id", callerID),
			zap.Error(err))
		return nil, services.NewSecurityError(services.KindInvalidSession, "invalid or expired session", err)
	}

	if claims.Subject != callerID {
		m.logger.Warn("session not bound to caller",
			zap.String("caller_id", callerID),
			zap.String("subject", claims.Subject))
		return nil, services.NewSecurityError(services.KindInvalidSession, "session is not bound to this caller", nil)
	}

	return claims, nil
}
