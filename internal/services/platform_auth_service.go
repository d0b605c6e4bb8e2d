package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/hash"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/policy"
	"github.com/authkit/authkit/internal/repository"
	"github.com/authkit/authkit/internal/token"
	"github.com/authkit/authkit/internal/utils"
)

var (
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordTooLong      = errors.New("password too long")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// PlatformAuthService handles operator signup, signin and session probing.
type PlatformAuthService struct {
	userRepo repository.UserRepository
	tokens   *token.Service
	hasher   *hash.Hasher
}

// NewPlatformAuthService creates a new PlatformAuthService.
func NewPlatformAuthService(userRepo repository.UserRepository, tokens *token.Service, hasher *hash.Hasher) *PlatformAuthService {
	return &PlatformAuthService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
	}
}

// PlatformSignupInput represents the information to create an operator account.
type PlatformSignupInput struct {
	Email    string
	Name     string
	Password *string
}

// Signup creates a platform operator account and issues a session token.
func (s *PlatformAuthService) Signup(input PlatformSignupInput) (*models.User, string, error) {
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	var passwordHash *string
	if input.Password != nil {
		if len(*input.Password) < constants.PlatformPasswordMinLength {
			return nil, "", ErrPasswordTooShort
		}
		if len(*input.Password) > policy.MaxPasswordBytes {
			return nil, "", ErrPasswordTooLong
		}
		digest, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, "", ErrFailedToHashPassword
		}
		passwordHash = &digest
	}

	userID, err := utils.GenerateID("user")
	if err != nil {
		return nil, "", ErrFailedToCreateUser
	}

	user := &models.User{
		ID:           userID,
		Email:        input.Email,
		Name:         input.Name,
		ImageURL:     utils.AvatarURL(userID),
		PasswordHash: passwordHash,
		Role:         models.RoleOwner,
		Metadata:     map[string]any{},
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.tokens.IssuePlatform(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session: %w", err)
	}

	return user, session, nil
}

// PlatformSigninInput holds the credentials for operator authentication.
type PlatformSigninInput struct {
	Email    string
	Password string
}

// Signin verifies credentials and issues a session token. Every failure mode
// collapses into ErrInvalidCredentials.
func (s *PlatformAuthService) Signin(input PlatformSigninInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == nil || !hash.Verify(input.Password, *user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	session, err := s.tokens.IssuePlatform(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session: %w", err)
	}

	return user, session, nil
}

// Me resolves a session cookie value to a user. Any verification failure is a
// soft "no session" (nil, nil) rather than an error; handlers render it as an
// empty body.
func (s *PlatformAuthService) Me(sessionToken string) (*models.User, error) {
	if sessionToken == "" {
		return nil, nil
	}

	payload, err := s.tokens.Verify(sessionToken, token.AudiencePlatform)
	if err != nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *PlatformAuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
