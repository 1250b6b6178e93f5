package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 8 // Number of backup codes in a set
	backupCodeBytes = 4 // Random bytes per code; rendered as 8 hex chars
)

var (
	ErrMFANotEnabled     = errors.New("mfa_not_enabled")
	ErrMFAAlreadyEnabled = errors.New("mfa_already_enabled")
)

// MFAService manages TOTP enrolment and backup codes. Enrolment is two-step:
// Setup parks an encrypted secret in the pending slot, Confirm proves the
// authenticator works and promotes it. Until promotion the active factor, if
// any, is untouched.
type MFAService struct {
	Store      store.Store
	Codec      *cryptox.Codec
	Challenges *ChallengeIssuer

	// TOTPIssuer is the issuer label in provisioning URIs (what the
	// authenticator app displays).
	TOTPIssuer string
}

// Setup starts TOTP enrolment. The caller proves their password, then
// receives the secret, the otpauth:// provisioning URI, and a short-lived
// setup challenge that Confirm requires. Re-running setup while enrolment is
// still pending replaces the pending secret; setup against an already
// confirmed factor is rejected. Unknown usernames and wrong passwords share
// one generic failure.
func (s *MFAService) Setup(ctx context.Context, username, password string) (*domain.MFASetup, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same argon2 work an existing user would cost.
			_ = cryptox.VerifyPassword(password, getDummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		return nil, ErrMFAAlreadyEnabled
	}
	userID := user.ID.String()

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.TOTPIssuer,
		AccountName: user.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	encSecret, err := s.Codec.Encrypt(key.Secret())
	if err != nil {
		return nil, err
	}
	if err := s.Store.Users().SetPendingTOTPSecret(ctx, userID, encSecret); err != nil {
		return nil, err
	}

	challenge, _, err := s.Challenges.Issue(userID, PurposeMFASetup)
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("totp enrolment started", "user_id", userID)

	return &domain.MFASetup{
		Secret:         key.Secret(),
		OTPAuthURL:     key.URL(),
		SetupChallenge: challenge,
	}, nil
}

// Confirm finishes enrolment: a valid code against the pending secret
// promotes it to active, flips totp_enabled, and mints a fresh backup code
// set. The codes are returned in plain text exactly once.
func (s *MFAService) Confirm(ctx context.Context, setupChallenge, code string) (*domain.BackupCodes, error) {
	userID, err := s.Challenges.Validate(setupChallenge, PurposeMFASetup)
	if err != nil {
		return nil, ErrInvalidMFACode
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Challenge outlived the account; same answer as a bad code.
			return nil, ErrInvalidMFACode
		}
		return nil, err
	}
	if user.TOTPPendingSecret == nil {
		return nil, ErrInvalidMFACode
	}

	secret, err := s.Codec.DecryptString(*user.TOTPPendingSecret)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to decrypt pending totp secret", "user_id", userID, "err", err)
		return nil, ErrInvalidMFACode
	}
	if !totp.Validate(code, secret) {
		return nil, ErrInvalidMFACode
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().PromoteTOTPSecret(ctx, userID); err != nil {
			return err
		}
		return replaceBackupCodes(ctx, tx, userID, codes)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrInvalidMFACode
		}
		return nil, err
	}

	slogx.FromContext(ctx).Info("totp enabled", "user_id", userID)

	return &domain.BackupCodes{Success: true, Codes: codes}, nil
}

// RegenerateBackupCodes replaces the whole backup set. Requires a current
// TOTP code; consuming a backup code to mint more backup codes would defeat
// the accounting.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID, code string) (*domain.BackupCodes, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.MFARequired() {
		return nil, ErrMFANotEnabled
	}

	if err := s.validateTOTP(ctx, user, code); err != nil {
		return nil, err
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return replaceBackupCodes(ctx, tx, userID, codes)
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("backup codes regenerated", "user_id", userID)

	return &domain.BackupCodes{Success: true, Codes: codes}, nil
}

// Disable turns the second factor off: both secrets are cleared and every
// backup code is deleted. Requires a current TOTP code.
func (s *MFAService) Disable(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MFARequired() {
		return ErrMFANotEnabled
	}

	if err := s.validateTOTP(ctx, user, code); err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DisableTOTP(ctx, userID); err != nil {
			return err
		}
		return tx.BackupCodes().DeleteAllBackupCodes(ctx, userID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("totp disabled", "user_id", userID)
	return nil
}

func (s *MFAService) validateTOTP(ctx context.Context, user domain.User, code string) error {
	secret, err := s.Codec.DecryptString(*user.TOTPSecret)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to decrypt totp secret", "user_id", user.ID.String(), "err", err)
		return ErrInvalidMFACode
	}
	if !totp.Validate(code, secret) {
		return ErrInvalidMFACode
	}
	return nil
}

func generateBackupCodes() ([]string, error) {
	codes := make([]string, 0, backupCodeCount)
	for range backupCodeCount {
		code, err := cryptox.GenerateHexCode(backupCodeBytes)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func replaceBackupCodes(ctx context.Context, tx store.Tx, userID string, codes []string) error {
	if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
		return err
	}
	for _, code := range codes {
		if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(code)); err != nil {
			return err
		}
	}
	return nil
}
