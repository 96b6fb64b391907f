package services

import (
	"testing"

	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/pkg/errors"
)

type fakeVerifier struct {
	identity *Identity
	err      error
}

func (v *fakeVerifier) Verify(idToken string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func newAuthFixture(phoneVerifier, appleVerifier IdentityVerifier) (*fakeDirectory, *AuthService) {
	directory := newFakeDirectory()
	store := newFakeStore(directory)
	friends := NewFriendService(directory, store, testConfig())
	return directory, NewAuthService(directory, friends, phoneVerifier, appleVerifier, testConfig())
}

func TestLoginWithPhone_NewUser(t *testing.T) {
	phoneVerifier := &fakeVerifier{identity: &Identity{ProviderID: "firebase-uid-1", PhoneNumber: "+821012345678"}}
	directory, auth := newAuthFixture(phoneVerifier, &fakeVerifier{})

	response, err := auth.LoginWithPhone("id-token")
	if err != nil {
		t.Fatalf("LoginWithPhone() error = %v", err)
	}

	if !response.IsNewUser {
		t.Error("IsNewUser = false, want true on first login")
	}

	claims, err := security.ValidateJWT(response.AccessToken, testConfig().JWTSecret)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}

	user := directory.users[claims.UserID]
	if user == nil {
		t.Fatal("user not created")
	}
	if user.Provider != models.ProviderPhone || user.ProviderID != "firebase-uid-1" {
		t.Errorf("identity = (%q, %q), want (phone, firebase-uid-1)", user.Provider, user.ProviderID)
	}
	if user.Nickname == "" {
		t.Error("nickname not generated")
	}
	if user.DiscoveryToken == nil {
		t.Error("discovery token not bootstrapped on login")
	}

	// The raw number must appear nowhere on the stored record
	if user.PhoneSearchHash == nil {
		t.Fatal("phone search hash not set")
	}
	wantHash := security.HashPhoneNumber("+821012345678", testConfig().PhoneHashKey)
	if *user.PhoneSearchHash != wantHash {
		t.Errorf("phone search hash = %q, want %q", *user.PhoneSearchHash, wantHash)
	}
	if user.PhoneEncrypted == "" || user.PhoneEncrypted == "+821012345678" {
		t.Error("phone number must be stored encrypted")
	}

	decrypted, err := security.DecryptAES256(user.PhoneEncrypted, []byte(testConfig().PhoneEncKey))
	if err != nil || decrypted != "+821012345678" {
		t.Errorf("decrypted phone = %q (err %v), want +821012345678", decrypted, err)
	}
}

func TestLoginWithPhone_ExistingUser(t *testing.T) {
	phoneVerifier := &fakeVerifier{identity: &Identity{ProviderID: "firebase-uid-1", PhoneNumber: "+821012345678"}}
	directory, auth := newAuthFixture(phoneVerifier, &fakeVerifier{})

	first, err := auth.LoginWithPhone("id-token")
	if err != nil {
		t.Fatalf("first LoginWithPhone() error = %v", err)
	}
	second, err := auth.LoginWithPhone("id-token")
	if err != nil {
		t.Fatalf("second LoginWithPhone() error = %v", err)
	}

	if !first.IsNewUser || second.IsNewUser {
		t.Errorf("IsNewUser = (%v, %v), want (true, false)", first.IsNewUser, second.IsNewUser)
	}

	if len(directory.users) != 1 {
		t.Errorf("user count = %d, want 1 (no duplicate signup)", len(directory.users))
	}
}

func TestLoginWithPhone_Failures(t *testing.T) {
	tests := []struct {
		name     string
		verifier *fakeVerifier
		wantCode string
	}{
		{
			name:     "Verification fails",
			verifier: &fakeVerifier{err: errors.New(errors.ErrCodeUnauthorized, "bad token")},
			wantCode: errors.ErrCodeUnauthorized,
		},
		{
			name:     "Token without phone number",
			verifier: &fakeVerifier{identity: &Identity{ProviderID: "firebase-uid-1"}},
			wantCode: errors.ErrCodeUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, auth := newAuthFixture(tt.verifier, &fakeVerifier{})

			_, err := auth.LoginWithPhone("id-token")
			if errors.Code(err) != tt.wantCode {
				t.Errorf("error code = %q, want %q", errors.Code(err), tt.wantCode)
			}
		})
	}
}

func TestLoginWithApple(t *testing.T) {
	appleVerifier := &fakeVerifier{identity: &Identity{ProviderID: "apple-sub-1"}}
	directory, auth := newAuthFixture(&fakeVerifier{}, appleVerifier)

	first, err := auth.LoginWithApple("id-token")
	if err != nil {
		t.Fatalf("LoginWithApple() error = %v", err)
	}
	if !first.IsNewUser {
		t.Error("IsNewUser = false, want true on first login")
	}

	second, err := auth.LoginWithApple("id-token")
	if err != nil {
		t.Fatalf("second LoginWithApple() error = %v", err)
	}
	if second.IsNewUser {
		t.Error("IsNewUser = true, want false on repeat login")
	}

	if len(directory.users) != 1 {
		t.Fatalf("user count = %d, want 1", len(directory.users))
	}
	for _, user := range directory.users {
		if user.Provider != models.ProviderApple {
			t.Errorf("provider = %q, want apple", user.Provider)
		}
		if user.PhoneSearchHash != nil {
			t.Error("apple signup must not set a phone search hash")
		}
	}
}

func TestCreateWithFreshNickname_Collision(t *testing.T) {
	phoneVerifier := &fakeVerifier{identity: &Identity{ProviderID: "firebase-uid-2", PhoneNumber: "+821022222222"}}
	directory, auth := newAuthFixture(phoneVerifier, &fakeVerifier{})

	// Occupy every base nickname the generator could produce? Not feasible;
	// instead force the collision branch by making the directory report any
	// nickname as taken once.
	directory.nicknameTakenOnce = true

	if _, err := auth.LoginWithPhone("id-token"); err != nil {
		t.Fatalf("LoginWithPhone() error = %v", err)
	}

	for _, user := range directory.users {
		if got, want := user.Nickname[len(user.Nickname)-5:], "_fire"; got != want {
			t.Errorf("nickname suffix = %q, want %q (provider id prefix)", got, want)
		}
	}
}
