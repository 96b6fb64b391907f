package services

import (
	"fmt"

	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/pkg/errors"
)

// ProfileStore is the directory surface profile management needs.
type ProfileStore interface {
	FindByID(id uint) (*models.User, error)
	UpdateProfile(id uint, nickname, bio string) error
	Withdraw(id uint, anonymizedNickname string) error
}

type UserService struct {
	store ProfileStore
}

func NewUserService(store ProfileStore) *UserService {
	return &UserService{store: store}
}

// UpdateProfile sanitizes and stores user-authored profile text. Nickname
// uniqueness is the store's constraint; a clash comes back as ALREADY_EXISTS.
func (s *UserService) UpdateProfile(userID uint, nickname, bio string) error {
	nickname = security.SanitizeProfileText(nickname)
	bio = security.SanitizeProfileText(bio)

	if !security.ValidateNickname(nickname) {
		return errors.New(errors.ErrCodeValidationFailed, "nickname must be 2-50 characters")
	}
	if len(bio) > 255 {
		return errors.New(errors.ErrCodeValidationFailed, "bio must be at most 255 characters")
	}

	return s.store.UpdateProfile(userID, nickname, bio)
}

// Withdraw anonymizes the account: PII and tokens are cleared as explicit
// store mutations, the row stays for referential integrity.
func (s *UserService) Withdraw(userID uint) error {
	if _, err := s.store.FindByID(userID); err != nil {
		return err
	}

	return s.store.Withdraw(userID, fmt.Sprintf("deleted_user_%d", userID))
}
