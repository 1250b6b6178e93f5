package domain

import "time"

// TokenPair is the result of a completed authentication or refresh. User is
// populated on login responses only; refresh returns tokens alone.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`

	User *Profile `json:"user,omitempty"`
}

// MFAChallenge is returned instead of a TokenPair when the account has a
// confirmed second factor and the login request carried no code.
type MFAChallenge struct {
	MFARequired bool      `json:"mfa_required"`
	Challenge   string    `json:"challenge"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginResult is the outcome of a password check: exactly one of Tokens or
// Challenge is set.
type LoginResult struct {
	Tokens    *TokenPair
	Challenge *MFAChallenge
}

// MFASetup carries everything the client needs to enrol an authenticator.
type MFASetup struct {
	Secret         string `json:"secret"`
	OTPAuthURL     string `json:"otpauth_url"`
	SetupChallenge string `json:"setup_challenge"`
}

// BackupCodes is a freshly generated recovery set. Codes are shown exactly
// once; only fingerprints survive server-side.
type BackupCodes struct {
	Success bool     `json:"success"`
	Codes   []string `json:"backup_codes"`
}

// Profile is the authenticated caller's own view of their account.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}
