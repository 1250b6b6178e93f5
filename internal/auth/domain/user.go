package domain

import (
	"time"

	"github.com/promogate/adminauth/pkg/idx"
)

// User is an administrative account. TOTP enrolment is a two-step affair:
// Setup stores a pending secret, Confirm promotes it. Only a promoted secret
// (TOTPEnabled true) participates in login.
type User struct {
	ID           idx.ID
	Username     string
	PasswordHash string

	// TOTPSecret is the active, confirmed secret. Encrypted at rest.
	TOTPSecret *string
	// TOTPPendingSecret holds a secret awaiting confirmation. Encrypted at rest.
	TOTPPendingSecret *string
	TOTPEnabled       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFARequired reports whether login must be completed with a second factor.
func (u User) MFARequired() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
