package models

import (
	"time"

	"gorm.io/gorm"
)

// Friendship is the single row per unordered user pair. Requester/Receiver
// keep the request direction while pending; PairLoID/PairHiID are the
// order-normalized copy backing the uniqueness constraint, so the store (not
// application checks) rejects a second row for the same pair.
type Friendship struct {
	ID          uint `gorm:"primaryKey"`
	RequesterID uint `gorm:"not null;index"`
	Requester   User `gorm:"foreignKey:RequesterID;constraint:OnDelete:CASCADE"`
	ReceiverID  uint `gorm:"not null;index"`
	Receiver    User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`

	PairLoID uint `gorm:"not null;index:idx_friendship_pair,unique"`
	PairHiID uint `gorm:"not null;index:idx_friendship_pair,unique"`

	Status    string    `gorm:"type:varchar(20);default:'pending'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Friendship status constants
const (
	FriendshipStatusPending    = "pending"
	FriendshipStatusFriendship = "friendship"
)

// OtherParticipant returns the participant that is not userID.
func (f *Friendship) OtherParticipant(userID uint) uint {
	if f.RequesterID == userID {
		return f.ReceiverID
	}
	return f.RequesterID
}

// BeforeCreate keeps the normalized pair columns in sync and rejects
// self-referencing rows. Create-time only: the repositories update existing
// rows column-wise, and gorm runs hooks on a blank receiver there.
func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.RequesterID == 0 || f.ReceiverID == 0 || f.RequesterID == f.ReceiverID {
		return gorm.ErrInvalidData
	}

	if f.RequesterID < f.ReceiverID {
		f.PairLoID, f.PairHiID = f.RequesterID, f.ReceiverID
	} else {
		f.PairLoID, f.PairHiID = f.ReceiverID, f.RequesterID
	}

	if f.Status != FriendshipStatusPending && f.Status != FriendshipStatusFriendship {
		return gorm.ErrInvalidData
	}

	return nil
}

func (Friendship) TableName() string {
	return "friendships"
}
