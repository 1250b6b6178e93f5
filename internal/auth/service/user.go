package service

import (
	"context"

	"github.com/promogate/adminauth/internal/auth/domain"
	"github.com/promogate/adminauth/internal/auth/store"
)

type UserService struct {
	Store store.Store
}

// GetProfile fetches the caller's own account view.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:          user.ID.String(),
		Username:    user.Username,
		TOTPEnabled: user.TOTPEnabled,
		CreatedAt:   user.CreatedAt,
	}, nil
}
