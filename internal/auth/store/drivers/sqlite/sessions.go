package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/idx"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `id, user_id, token_hash, expires_at, revoked_at, last_used_at, ip_address, user_agent, created_at, updated_at`

func scanSession(row *sql.Row) (domain.Session, error) {
	var (
		s          domain.Session
		id, userID string
		revokedAt  sql.NullTime
		lastUsedAt sql.NullTime
	)
	err := row.Scan(&id, &userID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &lastUsedAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	if s.ID, err = idx.Parse(id); err != nil {
		return domain.Session{}, err
	}
	if s.UserID, err = idx.Parse(userID); err != nil {
		return domain.Session{}, err
	}
	s.RevokedAt = mapNullTimePtr(revokedAt)
	s.LastUsedAt = mapNullTimePtr(lastUsedAt)
	return s, nil
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, expires_at, revoked_at, last_used_at, ip_address, user_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.TokenHash, s.ExpiresAt.UTC(),
		mapOptionalTime(s.RevokedAt), mapOptionalTime(s.LastUsedAt),
		s.IPAddress, s.UserAgent, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	return mapUniqueViolation(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, hash string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = ?`, hash)
	return scanSession(row)
}

// RotateSession is the linchpin of single-use refresh tokens. The UPDATE is
// conditional on the row still holding OldHash with revoked_at unset, so of
// two concurrent refreshes with the same token exactly one sees a row change.
// The winning rotation also stamps the session with the caller's current
// address and agent.
func (r *sessionsRepo) RotateSession(ctx context.Context, rot store.SessionRotation) (domain.Session, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET token_hash = ?, expires_at = ?, last_used_at = ?, ip_address = ?, user_agent = ?, updated_at = ?
		WHERE token_hash = ? AND revoked_at IS NULL`,
		rot.NewHash, rot.ExpiresAt.UTC(), now, rot.IPAddress, rot.UserAgent, now, rot.OldHash,
	)
	if err != nil {
		return domain.Session{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Session{}, err
	}
	if n == 0 {
		return domain.Session{}, store.ErrConflict
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token_hash = ?`, rot.NewHash)
	return scanSession(row)
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, sessionID string) error {
	// Idempotent: re-revoking keeps the original revoked_at.
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ?
		WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), sessionID,
	)
	return err
}

func (r *sessionsRepo) RevokeAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), time.Now().UTC(), userID,
	)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
