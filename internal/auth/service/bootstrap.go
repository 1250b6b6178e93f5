package service

import (
	"context"
	"errors"
	"time"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
	"github.com/promogate/adminauth/pkg/cryptox"
	"github.com/promogate/adminauth/pkg/idx"
	"github.com/promogate/adminauth/pkg/slogx"
)

type BootstrapService struct {
	Store store.Store
}

// EnsureAdminUser creates the configured admin account on first start. If the
// account exists but its hash no longer matches the configured password, the
// hash is re-synced so config stays the source of truth for the break-glass
// credential.
func (s *BootstrapService) EnsureAdminUser(ctx context.Context, username, password string) error {
	l := slogx.FromContext(ctx)

	if username == "" || password == "" {
		l.Debug("admin bootstrap skipped, no credentials configured")
		return nil
	}

	existing, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err == nil {
		if cryptox.VerifyPassword(password, existing.PasswordHash) == nil {
			return nil
		}
		newHash, err := cryptox.HashPassword(password)
		if err != nil {
			return err
		}
		if err := s.Store.Users().UpdatePasswordHash(ctx, existing.ID.String(), newHash); err != nil {
			return err
		}
		l.Info("admin password re-synced from configuration", "username", username)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New(),
		Username:     username,
		PasswordHash: passHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		// Racing replicas may both pass the existence check.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	l.Info("admin user created", "username", username, "user_id", user.ID.String())
	return nil
}
