package service

import (
	"errors"
	"time"

	"github.com/promogate/adminauth/pkg/jwtx"
)

// Challenge purposes. A token minted for one step can never be replayed into
// another: validation always pins the expected purpose.
const (
	PurposeMFALogin = "mfa-login"
	PurposeMFASetup = "mfa-setup"
)

var ErrInvalidChallenge = errors.New("invalid_challenge")

// ChallengeIssuer mints and checks the short-lived, stateless tokens that
// bridge the two halves of a multi-step flow (password accepted, second
// factor pending). Nothing is persisted: validity is signature, issuer,
// expiry and purpose. Replay within the TTL is bounded by the strict rate
// limit on the endpoints that accept challenges.
type ChallengeIssuer struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration
}

// Issue mints a challenge token for the given user and purpose.
func (c *ChallengeIssuer) Issue(userID, purpose string) (token string, expiresAt time.Time, err error) {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultChallengeTTL
	}

	now := time.Now()
	claims := jwtx.NewChallengeClaims(userID, purpose, ttl, c.Issuer, now)
	token, err = c.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl).UTC(), nil
}

// Validate checks a challenge token against the expected purpose and returns
// the subject (user id). Every failure collapses to ErrInvalidChallenge so
// callers can't distinguish forged, expired, or repurposed tokens.
func (c *ChallengeIssuer) Validate(token, purpose string) (string, error) {
	claims, err := c.Verifier.Verify(token)
	if err != nil {
		return "", ErrInvalidChallenge
	}
	if err := claims.ValidatePurpose(purpose); err != nil {
		return "", ErrInvalidChallenge
	}
	if claims.Subject == "" {
		return "", ErrInvalidChallenge
	}
	return claims.Subject, nil
}
