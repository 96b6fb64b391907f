package models

import (
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// Column updates run gorm hooks against a blank model receiver, so validation
// must not fire on the update path. These go through a dry-run gorm session to
// exercise the same statement shape the repositories use.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return db
}

func TestUser_ColumnUpdateBypassesCreateValidation(t *testing.T) {
	db := dryRunDB(t)

	tests := []struct {
		name string
		run  func(db *gorm.DB) *gorm.DB
	}{
		{
			name: "Clear discovery token",
			run: func(db *gorm.DB) *gorm.DB {
				return db.Model(&User{}).Where("id = ?", 1).Update("discovery_token", nil)
			},
		},
		{
			name: "Set discovery token",
			run: func(db *gorm.DB) *gorm.DB {
				token := "a1b2c3d4"
				return db.Model(&User{}).Where("id = ?", 1).Update("discovery_token", &token)
			},
		},
		{
			name: "Withdraw updates map",
			run: func(db *gorm.DB) *gorm.DB {
				return db.Model(&User{}).Where("id = ?", 1).Updates(map[string]interface{}{
					"nickname":          "deleted_user_1",
					"phone_search_hash": nil,
					"discovery_token":   nil,
					"status":            UserStatusDeleted,
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.run(db); result.Error != nil {
				t.Errorf("update statement error = %v, want nil", result.Error)
			}
		})
	}
}

func TestFriendship_ColumnUpdateBypassesCreateValidation(t *testing.T) {
	db := dryRunDB(t)

	result := db.Model(&Friendship{}).Where("id = ?", 1).Update("status", FriendshipStatusFriendship)
	if result.Error != nil {
		t.Errorf("update statement error = %v, want nil", result.Error)
	}
}

func TestFriendship_CreateRunsValidation(t *testing.T) {
	db := dryRunDB(t)

	f := &Friendship{RequesterID: 9, ReceiverID: 3, Status: FriendshipStatusPending}
	if result := db.Create(f); result.Error != nil {
		t.Fatalf("create statement error = %v", result.Error)
	}
	if f.PairLoID != 3 || f.PairHiID != 9 {
		t.Errorf("pair = (%d, %d), want (3, 9)", f.PairLoID, f.PairHiID)
	}

	self := &Friendship{RequesterID: 5, ReceiverID: 5, Status: FriendshipStatusPending}
	if result := db.Create(self); result.Error == nil {
		t.Error("create of self pair should fail")
	}
}
