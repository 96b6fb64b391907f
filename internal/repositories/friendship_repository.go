package repositories

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/pkg/errors"
	"gorm.io/gorm"
)

// FriendshipRepository is the gorm-backed relationship store. Unordered-pair
// uniqueness is enforced by idx_friendship_pair; a violation surfaces as
// STORAGE_CONFLICT so the service can decide how to report the lost race.
type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// FindAllInvolving retrieves every relationship the user participates in,
// either side, any status, in one query
func (r *FriendshipRepository) FindAllInvolving(userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	result := r.db.Where("requester_id = ? OR receiver_id = ?", userID, userID).Find(&friendships)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load relationships")
	}
	return friendships, nil
}

// FindPending retrieves the pending request from requester to receiver, or nil
func (r *FriendshipRepository) FindPending(requesterID, receiverID uint) (*models.Friendship, error) {
	var friendship models.Friendship
	result := r.db.Where(
		"requester_id = ? AND receiver_id = ? AND status = ?",
		requesterID, receiverID, models.FriendshipStatusPending,
	).First(&friendship)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to load pending request")
	}

	return &friendship, nil
}

// Insert creates a new relationship row
func (r *FriendshipRepository) Insert(friendship *models.Friendship) error {
	if err := r.db.Create(friendship).Error; err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeStorageConflict, "relationship already exists for pair")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create relationship")
	}
	return nil
}

// InsertConsumingToken atomically clears the target's discovery token and
// inserts the relationship row. Either both happen or neither does, so a
// failed insert never leaves the token silently burned.
func (r *FriendshipRepository) InsertConsumingToken(friendship *models.Friendship, targetID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			Update("discovery_token", nil).Error; err != nil {
			return err
		}
		return tx.Create(friendship).Error
	})

	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeStorageConflict, "relationship already exists for pair")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create relationship")
	}
	return nil
}

// UpdateStatus transitions an existing row in place
func (r *FriendshipRepository) UpdateStatus(id uint, status string) error {
	result := r.db.Model(&models.Friendship{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update relationship status")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "relationship not found")
	}
	return nil
}

// DeleteByPair deletes whatever row exists for the unordered pair and reports
// how many rows went away
func (r *FriendshipRepository) DeleteByPair(a, b uint) (int64, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	result := r.db.Where("pair_lo_id = ? AND pair_hi_id = ?", lo, hi).Delete(&models.Friendship{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to delete relationship")
	}
	return result.RowsAffected, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
