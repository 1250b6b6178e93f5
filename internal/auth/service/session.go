package service

import (
	"context"
	"errors"
	"time"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/idx"
	"github.com/promogate/adminauth/pkg/jwtx"
	"github.com/promogate/adminauth/pkg/slogx"
)

var ErrInvalidRefresh = errors.New("invalid_refresh_token")

// SessionService owns the refresh-session lifecycle: creation after a
// completed login, single-use rotation on refresh, and revocation on logout.
// Raw refresh tokens exist only in flight; the store sees fingerprints.
type SessionService struct {
	Store  store.Store
	Signer jwtx.Signer

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Create opens a new session for the user and returns the first token pair.
func (s *SessionService) Create(ctx context.Context, user domain.User, ip, userAgent string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	session := domain.Session{
		ID:        idx.New(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.refreshTTL()),
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
		return nil, err
	}

	access, expiresAt, err := s.signAccess(user, session.ID.String(), now)
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("session created",
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
	)

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		User: &domain.Profile{
			ID:          user.ID.String(),
			Username:    user.Username,
			TOTPEnabled: user.TOTPEnabled,
			CreatedAt:   user.CreatedAt,
		},
	}, nil
}

// Refresh rotates a refresh token: the presented token is spent and a new
// pair is issued against the same session, with the session's client context
// updated to the caller performing the rotation. Rotation is a conditional
// swap in the store, so a token can only ever be redeemed once: the loser of
// a race gets ErrInvalidRefresh, same as a forged or expired token.
func (s *SessionService) Refresh(ctx context.Context, refreshOpaque, ip, userAgent string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	fp := cryptox.FingerprintToken(refreshOpaque)

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if session.RevokedAt != nil {
		l.Warn("refresh attempted on revoked session", "session_id", session.ID.String())
		return nil, ErrInvalidRefresh
	}
	if now.After(session.ExpiresAt) {
		// Mark it so the row stops looking live; best effort.
		_ = s.Store.Sessions().RevokeSession(ctx, session.ID.String())
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	newOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rotated, err := s.Store.Sessions().RotateSession(ctx, store.SessionRotation{
		OldHash:   fp,
		NewHash:   cryptox.FingerprintToken(newOpaque),
		ExpiresAt: now.Add(s.refreshTTL()),
		IPAddress: ip,
		UserAgent: userAgent,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			l.Warn("refresh rotation lost race, token already spent", "session_id", session.ID.String())
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	access, expiresAt, err := s.signAccess(user, rotated.ID.String(), now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: newOpaque,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// Revoke ends the session holding the given refresh token. Unknown and
// already-revoked tokens are a no-op: logout never leaks whether a token
// was valid.
func (s *SessionService) Revoke(ctx context.Context, refreshOpaque string) error {
	fp := cryptox.FingerprintToken(refreshOpaque)

	session, err := s.Store.Sessions().GetSessionByTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.Store.Sessions().RevokeSession(ctx, session.ID.String()); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("session revoked",
		"user_id", session.UserID.String(),
		"session_id", session.ID.String(),
	)
	return nil
}

// RevokeByID ends the session carrying the given id, typically the sid bound
// into the caller's access token. Idempotent.
func (s *SessionService) RevokeByID(ctx context.Context, sessionID string) error {
	if err := s.Store.Sessions().RevokeSession(ctx, sessionID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session revoked", "session_id", sessionID)
	return nil
}

// RevokeAllForUser ends every live session for a user, e.g. after a password
// change or MFA disable.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.Store.Sessions().RevokeAllUserSessions(ctx, userID)
}

func (s *SessionService) signAccess(user domain.User, sid string, now time.Time) (string, time.Time, error) {
	ttl := s.accessTTL()
	claims := jwtx.NewAccessClaims(user.ID.String(), sid, user.Username, ttl, s.Issuer, now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(ttl).UTC(), nil
}
