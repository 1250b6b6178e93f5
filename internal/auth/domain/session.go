package domain

import (
	"time"

	"github.com/promogate/adminauth/pkg/idx"
)

// Session is a refresh-token session. The raw refresh token is never stored;
// TokenHash is its SHA-256 fingerprint. Rotation swaps TokenHash in place so
// the session id stays stable across refreshes.
type Session struct {
	ID        idx.ID
	UserID    idx.ID
	TokenHash string

	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time

	IPAddress string
	UserAgent string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the session can still mint access tokens.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
