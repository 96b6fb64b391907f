package repositories

import (
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository is the gorm-backed user directory.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(user *models.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return errors.Wrap(result.Error, errors.ErrCodeAlreadyExists, "user already exists")
		}
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to create user")
	}
	return nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get user")
	}

	return &user, nil
}

// FindByDiscoveryToken retrieves the user currently holding token, or nil
func (r *UserRepository) FindByDiscoveryToken(token string) (*models.User, error) {
	var user models.User
	result := r.db.Where("discovery_token = ?", token).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up discovery token")
	}

	return &user, nil
}

// FindByDiscoveryTokensIn retrieves all users holding one of the given tokens
// in a single query
func (r *UserRepository) FindByDiscoveryTokensIn(tokens []string) ([]models.User, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var users []models.User
	result := r.db.Where("discovery_token IN ?", tokens).Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up discovery tokens")
	}

	return users, nil
}

// FindByPhoneHashIn retrieves all users whose phone search hash is in the
// given set in a single query
func (r *UserRepository) FindByPhoneHashIn(hashes []string) ([]models.User, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	var users []models.User
	result := r.db.Where("phone_search_hash IN ?", hashes).Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up phone hashes")
	}

	return users, nil
}

// FindByIDs retrieves users by primary key in a single query
func (r *UserRepository) FindByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	result := r.db.Where("id IN ?", ids).Find(&users)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get users")
	}

	return users, nil
}

// FindByProviderID retrieves the user registered under a sign-in identity, or nil
func (r *UserRepository) FindByProviderID(provider, providerID string) (*models.User, error) {
	var user models.User
	result := r.db.Where("provider = ? AND provider_id = ?", provider, providerID).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up identity")
	}

	return &user, nil
}

// FindByPhoneSearchHash retrieves the user registered under hash, or nil
func (r *UserRepository) FindByPhoneSearchHash(hash string) (*models.User, error) {
	var user models.User
	result := r.db.Where("phone_search_hash = ?", hash).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to look up phone hash")
	}

	return &user, nil
}

// ExistsByDiscoveryToken checks whether any active user holds the token
func (r *UserRepository) ExistsByDiscoveryToken(token string) (bool, error) {
	var count int64
	result := r.db.Model(&models.User{}).Where("discovery_token = ?", token).Count(&count)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to check discovery token")
	}
	return count > 0, nil
}

// ExistsByNickname checks whether a nickname is taken
func (r *UserRepository) ExistsByNickname(nickname string) (bool, error) {
	var count int64
	result := r.db.Model(&models.User{}).Where("nickname = ?", nickname).Count(&count)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to check nickname")
	}
	return count > 0, nil
}

// UpdateDiscoveryToken sets or clears (nil) a user's discovery token
func (r *UserRepository) UpdateDiscoveryToken(id uint, token *string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Update("discovery_token", token)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return errors.Wrap(result.Error, errors.ErrCodeStorageConflict, "discovery token already in use")
		}
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update discovery token")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}

// UpdateProfile updates nickname and bio
func (r *UserRepository) UpdateProfile(id uint, nickname, bio string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"nickname": nickname,
		"bio":      bio,
	})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return errors.Wrap(result.Error, errors.ErrCodeAlreadyExists, "nickname already taken")
		}
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update profile")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}

// Withdraw anonymizes a user in place: PII cleared, tokens revoked, status
// flipped to deleted. The row is kept so friendships referencing it stay
// consistent until cascades run.
func (r *UserRepository) Withdraw(id uint, anonymizedNickname string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"nickname":          anonymizedNickname,
		"bio":               "",
		"profile_url":       "",
		"phone_encrypted":   "",
		"phone_search_hash": nil,
		"discovery_token":   nil,
		"status":            models.UserStatusDeleted,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to withdraw user")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}
