package service

import (
	"context"
	"errors"
	"sync"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidMFACode     = errors.New("invalid_mfa_code")
)

// dummyHash is an argon2 hash of a random throwaway password. Logins against
// unknown usernames verify against it so the work factor is paid either way
// and response timing doesn't reveal which usernames exist.
var (
	dummyHash     string
	dummyHashOnce sync.Once
)

func getDummyHash() string {
	dummyHashOnce.Do(func() {
		pw, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			pw = "fallback-dummy-password"
		}
		dummyHash, _ = cryptox.HashPassword(pw)
	})
	return dummyHash
}

// Credentials is a login attempt as received from the client.
type Credentials struct {
	Username string
	Password string

	// MFACode optionally completes the second factor in the same request.
	MFACode string

	IPAddress string
	UserAgent string
}

// ChallengeAnswer completes a login that stopped at the MFA challenge step.
type ChallengeAnswer struct {
	Challenge string
	Code      string

	IPAddress string
	UserAgent string
}

// AuthService is the login state machine: password check, optional second
// factor, then session issuance. All credential failures collapse into
// ErrInvalidCredentials / ErrInvalidMFACode so responses never distinguish
// unknown user, wrong password, or wrong code.
type AuthService struct {
	Store      store.Store
	Codec      *cryptox.Codec
	Sessions   *SessionService
	Challenges *ChallengeIssuer
}

// Login verifies the password and either issues tokens directly, or, when the
// account has a confirmed second factor and no code was supplied, returns an
// MFA challenge instead.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*domain.LoginResult, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same argon2 work an existing user would cost.
			_ = cryptox.VerifyPassword(creds.Password, getDummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(creds.Password, user.PasswordHash); err != nil {
		l.Info("password verification failed", "username", creds.Username)
		return nil, ErrInvalidCredentials
	}

	if !user.MFARequired() {
		tokens, err := s.Sessions.Create(ctx, user, creds.IPAddress, creds.UserAgent)
		if err != nil {
			return nil, err
		}
		return &domain.LoginResult{Tokens: tokens}, nil
	}

	// Second factor required. The client may have sent the code inline.
	if creds.MFACode != "" {
		if err := s.verifySecondFactor(ctx, user, creds.MFACode); err != nil {
			return nil, err
		}
		tokens, err := s.Sessions.Create(ctx, user, creds.IPAddress, creds.UserAgent)
		if err != nil {
			return nil, err
		}
		return &domain.LoginResult{Tokens: tokens}, nil
	}

	challenge, expiresAt, err := s.Challenges.Issue(user.ID.String(), PurposeMFALogin)
	if err != nil {
		return nil, err
	}

	l.Info("mfa challenge issued", "user_id", user.ID.String())

	return &domain.LoginResult{Challenge: &domain.MFAChallenge{
		MFARequired: true,
		Challenge:   challenge,
		ExpiresAt:   expiresAt,
	}}, nil
}

// VerifyChallenge completes a challenged login: the challenge token proves a
// recent password success, the code proves factor possession. A bad
// challenge and a bad code are indistinguishable to the caller.
func (s *AuthService) VerifyChallenge(ctx context.Context, answer ChallengeAnswer) (*domain.TokenPair, error) {
	userID, err := s.Challenges.Validate(answer.Challenge, PurposeMFALogin)
	if err != nil {
		return nil, ErrInvalidMFACode
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidMFACode
		}
		return nil, err
	}

	if !user.MFARequired() {
		// Challenge outlived an MFA disable; nothing left to verify against.
		return nil, ErrInvalidMFACode
	}

	if err := s.verifySecondFactor(ctx, user, answer.Code); err != nil {
		return nil, err
	}

	return s.Sessions.Create(ctx, user, answer.IPAddress, answer.UserAgent)
}

// verifySecondFactor accepts either a current TOTP code or an unused backup
// code. Backup codes are consumed on use: the store delete is the atomicity,
// so a code redeemed twice concurrently succeeds exactly once.
func (s *AuthService) verifySecondFactor(ctx context.Context, user domain.User, code string) error {
	l := slogx.FromContext(ctx)

	if user.TOTPSecret == nil {
		return ErrInvalidMFACode
	}
	secret, err := s.Codec.DecryptString(*user.TOTPSecret)
	if err != nil {
		l.Error("failed to decrypt totp secret", "user_id", user.ID.String(), "err", err)
		return ErrInvalidMFACode
	}

	if totp.Validate(code, secret) {
		return nil
	}

	consumed, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, user.ID.String(), cryptox.FingerprintToken(code))
	if err != nil {
		return err
	}
	if !consumed {
		l.Info("second factor verification failed", "user_id", user.ID.String())
		return ErrInvalidMFACode
	}

	l.Info("backup code consumed", "user_id", user.ID.String())
	return nil
}
