package services

import (
	"github.com/teamproxima/proxima/internal/config"
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/pkg/errors"
)

// fakeDirectory is an in-memory UserDirectory/SignupDirectory. Every method
// counts as one round trip; phone lookups additionally record their argument
// lists so tests can assert that only hashes cross the storage boundary.
type fakeDirectory struct {
	users        map[uint]*models.User
	nextID       uint
	queries      int
	phoneLookups [][]string

	// nicknameTakenOnce makes the next ExistsByNickname call report a clash
	// regardless of the generated name, to force the collision branch.
	nicknameTakenOnce bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[uint]*models.User), nextID: 1}
}

func (d *fakeDirectory) addUser(nickname string) *models.User {
	user := &models.User{
		ID:       d.nextID,
		Nickname: nickname,
		Provider: models.ProviderPhone,
		Status:   models.UserStatusActive,
	}
	d.users[user.ID] = user
	d.nextID++
	return user
}

func (d *fakeDirectory) FindByID(id uint) (*models.User, error) {
	d.queries++
	if user, ok := d.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, errors.New(errors.ErrCodeNotFound, "user not found")
}

func (d *fakeDirectory) FindByIDs(ids []uint) ([]models.User, error) {
	d.queries++
	var found []models.User
	for _, id := range ids {
		if user, ok := d.users[id]; ok {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (d *fakeDirectory) FindByDiscoveryToken(token string) (*models.User, error) {
	d.queries++
	for _, user := range d.users {
		if user.DiscoveryToken != nil && *user.DiscoveryToken == token {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindByDiscoveryTokensIn(tokens []string) ([]models.User, error) {
	d.queries++
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	var found []models.User
	for _, user := range d.users {
		if user.DiscoveryToken != nil && tokenSet[*user.DiscoveryToken] {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (d *fakeDirectory) FindByPhoneHashIn(hashes []string) ([]models.User, error) {
	d.queries++
	d.phoneLookups = append(d.phoneLookups, hashes)

	hashSet := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		hashSet[h] = true
	}

	var found []models.User
	for _, user := range d.users {
		if user.PhoneSearchHash != nil && hashSet[*user.PhoneSearchHash] {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (d *fakeDirectory) FindByPhoneSearchHash(hash string) (*models.User, error) {
	d.queries++
	for _, user := range d.users {
		if user.PhoneSearchHash != nil && *user.PhoneSearchHash == hash {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) FindByProviderID(provider, providerID string) (*models.User, error) {
	d.queries++
	for _, user := range d.users {
		if user.Provider == provider && user.ProviderID == providerID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) ExistsByDiscoveryToken(token string) (bool, error) {
	d.queries++
	for _, user := range d.users {
		if user.DiscoveryToken != nil && *user.DiscoveryToken == token {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) ExistsByNickname(nickname string) (bool, error) {
	d.queries++
	if d.nicknameTakenOnce {
		d.nicknameTakenOnce = false
		return true, nil
	}
	for _, user := range d.users {
		if user.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) CreateUser(user *models.User) error {
	d.queries++
	user.ID = d.nextID
	d.nextID++
	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (d *fakeDirectory) UpdateDiscoveryToken(id uint, token *string) error {
	d.queries++
	user, ok := d.users[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if token != nil {
		for _, other := range d.users {
			if other.ID != id && other.DiscoveryToken != nil && *other.DiscoveryToken == *token {
				return errors.New(errors.ErrCodeStorageConflict, "discovery token already in use")
			}
		}
	}
	user.DiscoveryToken = token
	return nil
}

// fakeStore is an in-memory FriendshipStore enforcing unordered-pair
// uniqueness the way the Postgres index does.
type fakeStore struct {
	directory *fakeDirectory
	rows      map[uint]*models.Friendship
	nextID    uint
	queries   int

	// beforeInsert, when set, runs just before an insert checks the unique
	// index; tests use it to interleave a winning concurrent insert.
	beforeInsert func()
}

func newFakeStore(directory *fakeDirectory) *fakeStore {
	return &fakeStore{directory: directory, rows: make(map[uint]*models.Friendship), nextID: 1}
}

func (s *fakeStore) pairExists(a, b uint) bool {
	for _, row := range s.rows {
		if (row.RequesterID == a && row.ReceiverID == b) || (row.RequesterID == b && row.ReceiverID == a) {
			return true
		}
	}
	return false
}

func (s *fakeStore) FindAllInvolving(userID uint) ([]models.Friendship, error) {
	s.queries++
	var involved []models.Friendship
	for _, row := range s.rows {
		if row.RequesterID == userID || row.ReceiverID == userID {
			involved = append(involved, *row)
		}
	}
	return involved, nil
}

func (s *fakeStore) FindPending(requesterID, receiverID uint) (*models.Friendship, error) {
	s.queries++
	for _, row := range s.rows {
		if row.RequesterID == requesterID && row.ReceiverID == receiverID && row.Status == models.FriendshipStatusPending {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Insert(friendship *models.Friendship) error {
	s.queries++
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	if s.pairExists(friendship.RequesterID, friendship.ReceiverID) {
		return errors.New(errors.ErrCodeStorageConflict, "relationship already exists for pair")
	}
	friendship.ID = s.nextID
	s.nextID++
	copied := *friendship
	s.rows[friendship.ID] = &copied
	return nil
}

func (s *fakeStore) InsertConsumingToken(friendship *models.Friendship, targetID uint) error {
	s.queries++
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	if s.pairExists(friendship.RequesterID, friendship.ReceiverID) {
		return errors.New(errors.ErrCodeStorageConflict, "relationship already exists for pair")
	}
	if target, ok := s.directory.users[targetID]; ok {
		target.DiscoveryToken = nil
	}
	friendship.ID = s.nextID
	s.nextID++
	copied := *friendship
	s.rows[friendship.ID] = &copied
	return nil
}

func (s *fakeStore) UpdateStatus(id uint, status string) error {
	s.queries++
	row, ok := s.rows[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "relationship not found")
	}
	row.Status = status
	return nil
}

func (s *fakeStore) DeleteByPair(a, b uint) (int64, error) {
	s.queries++
	var deleted int64
	for id, row := range s.rows {
		if (row.RequesterID == a && row.ReceiverID == b) || (row.RequesterID == b && row.ReceiverID == a) {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "this_is_a_test_secret_key_with_32_chars_minimum",
		PhoneHashKey:              "test_phone_hash_key",
		PhoneEncKey:               "12345678901234567890123456789012",
		DefaultCountryCode:        "82",
		DiscoveryTokenBytes:       4,
		DiscoveryTokenMaxAttempts: 5,
	}
}

func newFriendFixture() (*fakeDirectory, *fakeStore, *FriendService) {
	directory := newFakeDirectory()
	store := newFakeStore(directory)
	return directory, store, NewFriendService(directory, store, testConfig())
}
