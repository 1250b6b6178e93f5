package store

import (
	"context"
	"errors"
	"time"

	"github.com/promogate/adminauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned when a conditional update matched no rows,
	// e.g. a refresh rotation racing another rotation of the same token.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to actively stop people from accidentally doing transactions
// within transactions.
type Store interface {
	Users() Users
	Sessions() Sessions
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during password login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetPendingTOTPSecret stores an unconfirmed (encrypted) TOTP secret.
	// It never touches the active secret.
	SetPendingTOTPSecret(ctx context.Context, userID string, encSecret string) error

	// PromoteTOTPSecret moves the pending secret into place and flips
	// totp_enabled. Returns ErrConflict if there is no pending secret.
	PromoteTOTPSecret(ctx context.Context, userID string) error

	// DisableTOTP clears both secrets and totp_enabled.
	DisableTOTP(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// SessionRotation carries everything a refresh writes back onto the session
// row alongside the token swap.
type SessionRotation struct {
	OldHash   string
	NewHash   string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
}

type Sessions interface {
	// CreateSession stores a new refresh session record.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns the session holding the given refresh
	// token fingerprint, revoked or not. Callers judge liveness.
	GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error)

	// RotateSession atomically swaps OldHash for NewHash on a live session,
	// extending expiry and recording the rotating client's address and agent.
	// The update is conditional on the row still carrying OldHash with
	// revoked_at unset; if another rotation won the race it returns
	// ErrConflict and the caller treats the token as spent.
	RotateSession(ctx context.Context, rot SessionRotation) (domain.Session, error)

	// RevokeSession marks a session revoked by id. Revoking an already
	// revoked session is a no-op, not an error.
	RevokeSession(ctx context.Context, sessionID string) error

	// RevokeAllUserSessions bulk revocation for a user (e.g. password reset).
	RevokeAllUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping for rows past expires_at.
	DeleteExpiredSessions(ctx context.Context) error
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code fingerprint for a user.
	CreateBackupCode(ctx context.Context, userID string, codeHash string) error

	// ConsumeBackupCode deletes the code if present and reports whether it
	// was there. Delete-then-check makes concurrent redemption of the same
	// code single-winner.
	ConsumeBackupCode(ctx context.Context, userID string, codeHash string) (bool, error)

	// DeleteAllBackupCodes removes all backup codes for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUserBackupCodes returns the number of unused codes for a user.
	CountUserBackupCodes(ctx context.Context, userID string) (int, error)
}
