package services

import (
	"fmt"

	"github.com/teamproxima/proxima/internal/config"
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/pkg/errors"
	"github.com/teamproxima/proxima/pkg/utils"
)

// Identity is what a provider token verifies to. PhoneNumber is empty for
// providers that do not carry one (apple).
type Identity struct {
	ProviderID  string
	PhoneNumber string
}

// IdentityVerifier validates a provider-issued ID token (Firebase phone auth,
// Sign in with Apple). The SDK integrations live outside this module.
type IdentityVerifier interface {
	Verify(idToken string) (*Identity, error)
}

// SignupDirectory is the directory surface auth needs on top of UserDirectory.
type SignupDirectory interface {
	UserDirectory
	CreateUser(user *models.User) error
	FindByPhoneSearchHash(hash string) (*models.User, error)
	FindByProviderID(provider, providerID string) (*models.User, error)
	ExistsByNickname(nickname string) (bool, error)
}

// TokenIssuer hands out discovery tokens; satisfied by FriendService.
type TokenIssuer interface {
	IssueDiscoveryToken(userID uint) (string, error)
}

type AuthResponse struct {
	AccessToken string
	IsNewUser   bool
}

type AuthService struct {
	directory     SignupDirectory
	tokens        TokenIssuer
	phoneVerifier IdentityVerifier
	appleVerifier IdentityVerifier

	jwtSecret    string
	phoneHashKey string
	phoneEncKey  []byte
	countryCode  string
}

func NewAuthService(directory SignupDirectory, tokens TokenIssuer, phoneVerifier, appleVerifier IdentityVerifier, cfg *config.Config) *AuthService {
	return &AuthService{
		directory:     directory,
		tokens:        tokens,
		phoneVerifier: phoneVerifier,
		appleVerifier: appleVerifier,
		jwtSecret:     cfg.JWTSecret,
		phoneHashKey:  cfg.PhoneHashKey,
		phoneEncKey:   []byte(cfg.PhoneEncKey),
		countryCode:   cfg.DefaultCountryCode,
	}
}

// LoginWithPhone signs a user in (or up) from a verified phone-auth ID token.
// The phone number is keyed by its search hash; the raw number is stored
// encrypted only.
func (s *AuthService) LoginWithPhone(idToken string) (*AuthResponse, error) {
	identity, err := s.phoneVerifier.Verify(idToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "phone token verification failed")
	}
	if identity.PhoneNumber == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "verified token carries no phone number")
	}

	phoneNumber := utils.NormalizePhoneNumber(identity.PhoneNumber, s.countryCode)
	if phoneNumber == "" {
		return nil, errors.New(errors.ErrCodeValidationFailed, "phone number could not be normalized")
	}
	searchHash := security.HashPhoneNumber(phoneNumber, s.phoneHashKey)

	user, err := s.directory.FindByPhoneSearchHash(searchHash)
	if err != nil {
		return nil, err
	}

	isNewUser := user == nil
	if isNewUser {
		encrypted, err := security.EncryptAES256(phoneNumber, s.phoneEncKey)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encrypt phone number")
		}

		user = &models.User{
			Provider:        models.ProviderPhone,
			ProviderID:      identity.ProviderID,
			PhoneEncrypted:  encrypted,
			PhoneSearchHash: &searchHash,
			Status:          models.UserStatusActive,
		}
		if err := s.createWithFreshNickname(user); err != nil {
			return nil, err
		}
	}

	return s.finishLogin(user, isNewUser)
}

// LoginWithApple signs a user in (or up) from a verified Sign-in-with-Apple
// ID token. No phone number is involved; identity is the apple subject.
func (s *AuthService) LoginWithApple(idToken string) (*AuthResponse, error) {
	identity, err := s.appleVerifier.Verify(idToken)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUnauthorized, "apple token verification failed")
	}

	user, err := s.directory.FindByProviderID(models.ProviderApple, identity.ProviderID)
	if err != nil {
		return nil, err
	}

	isNewUser := user == nil
	if isNewUser {
		user = &models.User{
			Provider:   models.ProviderApple,
			ProviderID: identity.ProviderID,
			Status:     models.UserStatusActive,
		}
		if err := s.createWithFreshNickname(user); err != nil {
			return nil, err
		}
	}

	return s.finishLogin(user, isNewUser)
}

func (s *AuthService) createWithFreshNickname(user *models.User) error {
	nickname := utils.GenerateNickname()

	taken, err := s.directory.ExistsByNickname(nickname)
	if err != nil {
		return err
	}
	if taken {
		suffix := user.ProviderID
		if len(suffix) > 4 {
			suffix = suffix[:4]
		}
		nickname = fmt.Sprintf("%s_%s", nickname, suffix)
	}

	user.Nickname = nickname
	return s.directory.CreateUser(user)
}

func (s *AuthService) finishLogin(user *models.User, isNewUser bool) (*AuthResponse, error) {
	// Every login gets a live discovery token so nearby scans work right away
	if user.DiscoveryToken == nil {
		if _, err := s.tokens.IssueDiscoveryToken(user.ID); err != nil {
			return nil, err
		}
	}

	accessToken, err := security.GenerateJWT(user.ID, user.Nickname, s.jwtSecret)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to sign access token")
	}

	return &AuthResponse{
		AccessToken: accessToken,
		IsNewUser:   isNewUser,
	}, nil
}
