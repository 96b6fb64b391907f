package services

import (
	"github.com/teamproxima/proxima/internal/config"
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/pkg/errors"
	"github.com/teamproxima/proxima/pkg/utils"
)

// UserDirectory is the user-lookup contract the friend service consumes.
// Batched lookups must execute as single queries; that is what keeps
// resolution cost flat under heavy scan traffic.
type UserDirectory interface {
	FindByID(id uint) (*models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
	FindByDiscoveryToken(token string) (*models.User, error)
	FindByDiscoveryTokensIn(tokens []string) ([]models.User, error)
	FindByPhoneHashIn(hashes []string) ([]models.User, error)
	ExistsByDiscoveryToken(token string) (bool, error)
	UpdateDiscoveryToken(id uint, token *string) error
}

// FriendshipStore is the relationship persistence contract. Insert must
// enforce unordered-pair uniqueness and report a lost race as
// STORAGE_CONFLICT; InsertConsumingToken must clear the target's discovery
// token and insert in one unit of work.
type FriendshipStore interface {
	FindAllInvolving(userID uint) ([]models.Friendship, error)
	FindPending(requesterID, receiverID uint) (*models.Friendship, error)
	Insert(friendship *models.Friendship) error
	InsertConsumingToken(friendship *models.Friendship, targetID uint) error
	UpdateStatus(id uint, status string) error
	DeleteByPair(a, b uint) (int64, error)
}

// FriendshipStatusInfo is the pairwise relationship state seen from one side.
type FriendshipStatusInfo string

const (
	StatusNone          FriendshipStatusInfo = "NONE"
	StatusFriend        FriendshipStatusInfo = "FRIEND"
	StatusPendingToThem FriendshipStatusInfo = "PENDING_ME_TO_THEM"
	StatusPendingToMe   FriendshipStatusInfo = "PENDING_THEM_TO_ME"
)

// DiscoveredUser pairs a resolved nearby user with the caller's relationship
// to them.
type DiscoveredUser struct {
	User   models.User
	Status FriendshipStatusInfo
}

// FriendRequest is a pending incoming request with the requester resolved.
type FriendRequest struct {
	Friendship models.Friendship
	Requester  models.User
}

type FriendService struct {
	directory UserDirectory
	store     FriendshipStore

	tokenBytes       int
	tokenMaxAttempts int
	phoneHashKey     string
	countryCode      string
}

func NewFriendService(directory UserDirectory, store FriendshipStore, cfg *config.Config) *FriendService {
	return &FriendService{
		directory:        directory,
		store:            store,
		tokenBytes:       cfg.DiscoveryTokenBytes,
		tokenMaxAttempts: cfg.DiscoveryTokenMaxAttempts,
		phoneHashKey:     cfg.PhoneHashKey,
		countryCode:      cfg.DefaultCountryCode,
	}
}

// IssueDiscoveryToken generates a fresh discovery token for the user,
// replacing any previous one. Generation retries on collision; the directory's
// unique constraint is the source of truth, the pre-check just avoids burning
// a round trip on the common case. Exhausting the retry cap means the entropy
// pool or token width is misconfigured, not a user error.
func (s *FriendService) IssueDiscoveryToken(userID uint) (string, error) {
	if _, err := s.directory.FindByID(userID); err != nil {
		return "", err
	}

	for attempt := 0; attempt < s.tokenMaxAttempts; attempt++ {
		token, err := security.GenerateDiscoveryToken(s.tokenBytes)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInternalError, "failed to generate discovery token")
		}

		taken, err := s.directory.ExistsByDiscoveryToken(token)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		err = s.directory.UpdateDiscoveryToken(userID, &token)
		if err == nil {
			return token, nil
		}
		// A concurrent issue() can win the same value between the existence
		// check and the write; that conflict is retryable too.
		if errors.Code(err) == errors.ErrCodeStorageConflict {
			continue
		}
		return "", err
	}

	return "", errors.New(errors.ErrCodeEntropyExhausted, "could not generate a unique discovery token")
}

// RevokeDiscoveryToken clears the user's discovery token. Revoking a user
// with no active token succeeds.
func (s *FriendService) RevokeDiscoveryToken(userID uint) error {
	return s.directory.UpdateDiscoveryToken(userID, nil)
}

// FindUsersByTokens resolves a set of observed discovery tokens to users and
// computes the caller's relationship to each. Exactly one token lookup and
// one relationship fetch regardless of input size.
func (s *FriendService) FindUsersByTokens(myUserID uint, tokens []string) ([]DiscoveredUser, error) {
	if len(tokens) == 0 {
		return []DiscoveredUser{}, nil
	}

	users, err := s.directory.FindByDiscoveryTokensIn(tokens)
	if err != nil {
		return nil, err
	}

	byOther, err := s.relationshipsByOther(myUserID)
	if err != nil {
		return nil, err
	}

	discovered := make([]DiscoveredUser, 0, len(users))
	for _, user := range users {
		if user.ID == myUserID {
			continue
		}
		discovered = append(discovered, DiscoveredUser{
			User:   user,
			Status: s.StatusOf(myUserID, byOther[user.ID]),
		})
	}

	return discovered, nil
}

// StatusOf computes the relationship state from myUserID's perspective. Pure.
func (s *FriendService) StatusOf(myUserID uint, friendship *models.Friendship) FriendshipStatusInfo {
	if friendship == nil {
		return StatusNone
	}
	if friendship.Status == models.FriendshipStatusFriendship {
		return StatusFriend
	}
	if friendship.RequesterID == myUserID {
		return StatusPendingToThem
	}
	return StatusPendingToMe
}

// RequestFriend resolves targetToken and creates a pending request toward its
// holder. The token is consumed in the same unit of work as the insert.
func (s *FriendService) RequestFriend(myUserID uint, targetToken string) error {
	target, err := s.directory.FindByDiscoveryToken(targetToken)
	if err != nil {
		return err
	}
	if target == nil {
		return errors.New(errors.ErrCodeInvalidTarget, "discovery token does not resolve to a user")
	}

	if target.ID == myUserID {
		return errors.New(errors.ErrCodeSelfRequest, "cannot send a friend request to yourself")
	}

	if err := s.ensureNoRelationship(myUserID, target.ID); err != nil {
		return err
	}

	friendship := &models.Friendship{
		RequesterID: myUserID,
		ReceiverID:  target.ID,
		Status:      models.FriendshipStatusPending,
	}

	err = s.store.InsertConsumingToken(friendship, target.ID)
	if errors.Code(err) == errors.ErrCodeStorageConflict {
		// Lost an insert race to an identical pair; to the caller that is the
		// same outcome as the pre-check firing.
		return errors.New(errors.ErrCodeAlreadyExists, "relationship already exists")
	}
	return err
}

// AcceptFriend transitions the pending request from requesterID to the caller
// into a friendship. The row is updated in place, keeping its origin time.
func (s *FriendService) AcceptFriend(myUserID, requesterID uint) error {
	friendship, err := s.store.FindPending(requesterID, myUserID)
	if err != nil {
		return err
	}
	if friendship == nil {
		return errors.New(errors.ErrCodeNotFound, "friend request not found")
	}

	return s.store.UpdateStatus(friendship.ID, models.FriendshipStatusFriendship)
}

// AddFriend creates a friendship directly, skipping the pending step. Used by
// flows where both sides already consented (e.g. mutual contact match).
func (s *FriendService) AddFriend(myUserID, targetUserID uint) error {
	if myUserID == targetUserID {
		return errors.New(errors.ErrCodeSelfRequest, "cannot add yourself as a friend")
	}

	if _, err := s.directory.FindByID(targetUserID); err != nil {
		return err
	}

	if err := s.ensureNoRelationship(myUserID, targetUserID); err != nil {
		return err
	}

	friendship := &models.Friendship{
		RequesterID: myUserID,
		ReceiverID:  targetUserID,
		Status:      models.FriendshipStatusFriendship,
	}

	err := s.store.Insert(friendship)
	if errors.Code(err) == errors.ErrCodeStorageConflict {
		return errors.New(errors.ErrCodeAlreadyExists, "relationship already exists")
	}
	return err
}

// DeleteFriend removes whatever relationship exists with targetUserID,
// pending or established. Deleting a relationship that is not there is a
// no-op success, matching DELETE semantics.
func (s *FriendService) DeleteFriend(myUserID, targetUserID uint) error {
	_, err := s.store.DeleteByPair(myUserID, targetUserID)
	return err
}

// GetFriends returns the users on established friendships involving the caller.
func (s *FriendService) GetFriends(myUserID uint) ([]models.User, error) {
	friendships, err := s.store.FindAllInvolving(myUserID)
	if err != nil {
		return nil, err
	}

	var friendIDs []uint
	for i := range friendships {
		if friendships[i].Status == models.FriendshipStatusFriendship {
			friendIDs = append(friendIDs, friendships[i].OtherParticipant(myUserID))
		}
	}
	if len(friendIDs) == 0 {
		return []models.User{}, nil
	}

	return s.directory.FindByIDs(friendIDs)
}

// GetPendingRequests returns incoming pending requests with requesters resolved.
func (s *FriendService) GetPendingRequests(myUserID uint) ([]FriendRequest, error) {
	friendships, err := s.store.FindAllInvolving(myUserID)
	if err != nil {
		return nil, err
	}

	var incoming []models.Friendship
	var requesterIDs []uint
	for i := range friendships {
		if friendships[i].Status == models.FriendshipStatusPending && friendships[i].ReceiverID == myUserID {
			incoming = append(incoming, friendships[i])
			requesterIDs = append(requesterIDs, friendships[i].RequesterID)
		}
	}
	if len(incoming) == 0 {
		return []FriendRequest{}, nil
	}

	requesters, err := s.directory.FindByIDs(requesterIDs)
	if err != nil {
		return nil, err
	}
	requesterByID := make(map[uint]models.User, len(requesters))
	for _, u := range requesters {
		requesterByID[u.ID] = u
	}

	requests := make([]FriendRequest, 0, len(incoming))
	for _, f := range incoming {
		requests = append(requests, FriendRequest{
			Friendship: f,
			Requester:  requesterByID[f.RequesterID],
		})
	}

	return requests, nil
}

// MatchContacts finds registered users among the caller's address book. Raw
// numbers are normalized and hashed here; only hashes reach the directory,
// and nothing from the list is persisted or logged.
func (s *FriendService) MatchContacts(myUserID uint, rawPhoneNumbers []string) ([]models.User, error) {
	normalized := utils.NormalizePhoneNumbers(rawPhoneNumbers, s.countryCode)
	if len(normalized) == 0 {
		return []models.User{}, nil
	}

	hashes := make([]string, 0, len(normalized))
	for _, number := range normalized {
		hashes = append(hashes, security.HashPhoneNumber(number, s.phoneHashKey))
	}

	users, err := s.directory.FindByPhoneHashIn(hashes)
	if err != nil {
		return nil, err
	}

	matched := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.ID == myUserID {
			continue
		}
		matched = append(matched, user)
	}

	return matched, nil
}

func (s *FriendService) ensureNoRelationship(myUserID, otherID uint) error {
	byOther, err := s.relationshipsByOther(myUserID)
	if err != nil {
		return err
	}
	if _, exists := byOther[otherID]; exists {
		return errors.New(errors.ErrCodeAlreadyExists, "relationship already exists")
	}
	return nil
}

// relationshipsByOther loads every relationship involving the user and keys
// it by the other participant, so per-candidate status checks are map hits.
func (s *FriendService) relationshipsByOther(myUserID uint) (map[uint]*models.Friendship, error) {
	friendships, err := s.store.FindAllInvolving(myUserID)
	if err != nil {
		return nil, err
	}

	byOther := make(map[uint]*models.Friendship, len(friendships))
	for i := range friendships {
		byOther[friendships[i].OtherParticipant(myUserID)] = &friendships[i]
	}
	return byOther, nil
}
