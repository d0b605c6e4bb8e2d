package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

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
	ErrUsernameRequired    = errors.New("username is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrEmailTaken          = errors.New("email already exists")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrUseMagicLink        = errors.New("please use magic link to sign in")
	ErrPasswordlessOff     = errors.New("passwordless sign in is not enabled")
	ErrMagicLinkInvalid    = errors.New("invalid or expired magic link")
	ErrMagicLinkExpired    = errors.New("magic link has expired")
	ErrMagicLinkConsumed   = errors.New("magic link has already been used")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// EnvironmentContext is the trust context a guard attaches after resolving
// the caller's environment keys.
type EnvironmentContext struct {
	EnvironmentID   string
	ProjectID       string
	EnvironmentType models.EnvironmentType
	Settings        *models.ProjectSettings
}

// TokenPair is the access/refresh pair issued by every successful tenant
// authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TenantAuthService implements the tenant-facing identity flows: signup,
// signin, magic links and token refresh, all scoped to an environment's user
// pool.
type TenantAuthService struct {
	userRepo   repository.UserRepository
	magicRepo  repository.MagicLinkRepository
	tokens     *token.Service
	hasher     *hash.Hasher
	mailer     Mailer
	appBaseURL string
}

// NewTenantAuthService creates a new TenantAuthService.
func NewTenantAuthService(
	userRepo repository.UserRepository,
	magicRepo repository.MagicLinkRepository,
	tokens *token.Service,
	hasher *hash.Hasher,
	mailer Mailer,
	appBaseURL string,
) *TenantAuthService {
	return &TenantAuthService{
		userRepo:   userRepo,
		magicRepo:  magicRepo,
		tokens:     tokens,
		hasher:     hasher,
		mailer:     mailer,
		appBaseURL: appBaseURL,
	}
}

func (s *TenantAuthService) issuePair(userID, projectID string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// TenantSignupInput represents the information to register a tenant user.
type TenantSignupInput struct {
	Email    string
	Name     string
	Username *string
	Password *string
}

// Signup registers a tenant user in the environment's project. Requirements
// depend on the project's feature flags; passwords are policy-checked. The
// username pre-check is a UX nicety only: the partial unique index is the
// real guarantee, and a lost race surfaces as ErrUsernameTaken.
func (s *TenantAuthService) Signup(env EnvironmentContext, input TenantSignupInput) (*models.User, *models.ProjectUserLink, *TokenPair, error) {
	if env.Settings.EnableUsername && input.Username == nil {
		return nil, nil, nil, ErrUsernameRequired
	}

	if !env.Settings.EnablePasswordless && input.Password == nil {
		return nil, nil, nil, ErrPasswordRequired
	}

	var passwordHash *string
	if input.Password != nil {
		if err := policy.ValidatePassword(*input.Password, env.Settings); err != nil {
			return nil, nil, nil, err
		}
		digest, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, nil, nil, ErrFailedToHashPassword
		}
		passwordHash = &digest
	}

	// Email uniqueness is per project and spans the users/links split, so it
	// cannot be a single-table constraint; the pre-check here is the
	// enforcement point.
	if _, _, err := s.userRepo.FindProjectUserByEmail(env.ProjectID, input.Email); err == nil {
		return nil, nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	if input.Username != nil {
		if _, _, err := s.userRepo.FindProjectUserByUsername(env.ProjectID, *input.Username); err == nil {
			return nil, nil, nil, ErrUsernameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, fmt.Errorf("failed to check username: %w", err)
		}
	}

	userID, err := utils.GenerateID("user")
	if err != nil {
		return nil, nil, nil, ErrFailedToCreateUser
	}

	linkID, err := utils.GenerateID("link")
	if err != nil {
		return nil, nil, nil, ErrFailedToCreateUser
	}

	user := &models.User{
		ID:            userID,
		Email:         input.Email,
		Name:          input.Name,
		ImageURL:      utils.AvatarURL(userID),
		Username:      input.Username,
		PasswordHash:  passwordHash,
		EmailVerified: !env.Settings.EmailVerificationRequired,
		Role:          models.RoleMember,
		Metadata:      map[string]any{},
	}

	link := &models.ProjectUserLink{
		ID:              linkID,
		ProjectID:       env.ProjectID,
		ProjectUsername: input.Username,
	}

	if err := s.userRepo.CreateWithProjectLink(user, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, nil, ErrUsernameTaken
		}
		return nil, nil, nil, fmt.Errorf("failed to complete signup: %w", err)
	}

	pair, err := s.issuePair(user.ID, env.ProjectID)
	if err != nil {
		return nil, nil, nil, err
	}

	return user, link, pair, nil
}

// TenantSigninInput holds the tenant credentials. Identifier is either an
// email (contains "@") or a project-scoped username.
type TenantSigninInput struct {
	Identifier string
	Password   *string
}

// Signin authenticates a tenant user and issues a fresh token pair. The
// identifier is always resolved through the project-scoped link, never a
// global email lookup.
func (s *TenantAuthService) Signin(env EnvironmentContext, input TenantSigninInput) (*models.User, *models.ProjectUserLink, *TokenPair, error) {
	var (
		user *models.User
		link *models.ProjectUserLink
		err  error
	)

	if strings.Contains(input.Identifier, "@") {
		user, link, err = s.userRepo.FindProjectUserByEmail(env.ProjectID, input.Identifier)
	} else {
		user, link, err = s.userRepo.FindProjectUserByUsername(env.ProjectID, input.Identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrInvalidCredentials
		}
		return nil, nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if env.Settings.EnablePasswordless && input.Password == nil {
		return nil, nil, nil, ErrUseMagicLink
	}

	if user.PasswordHash == nil || input.Password == nil {
		return nil, nil, nil, ErrInvalidCredentials
	}

	if !hash.Verify(*input.Password, *user.PasswordHash) {
		return nil, nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID, env.ProjectID)
	if err != nil {
		return nil, nil, nil, err
	}

	return user, link, pair, nil
}

// MagicLinkStart creates a single-use sign-in link for an existing project
// user and hands it to the mailer. No account is created here; that is the
// verify step's auto-registration path.
func (s *TenantAuthService) MagicLinkStart(env EnvironmentContext, email string) (string, error) {
	if !env.Settings.EnablePasswordless {
		return "", ErrPasswordlessOff
	}

	user, _, err := s.userRepo.FindProjectUserByEmail(env.ProjectID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	linkID, err := utils.GenerateID("magic")
	if err != nil {
		return "", fmt.Errorf("failed to generate link id: %w", err)
	}

	linkToken, err := utils.GenerateMagicLinkToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate link token: %w", err)
	}

	magicLink := &models.MagicLink{
		ID:            linkID,
		ProjectID:     env.ProjectID,
		EnvironmentID: env.EnvironmentID,
		UserID:        &user.ID,
		Email:         email,
		Token:         linkToken,
		ExpiresAt:     time.Now().Add(constants.MagicLinkTTL),
	}

	if err := s.magicRepo.Create(magicLink); err != nil {
		return "", fmt.Errorf("failed to create magic link: %w", err)
	}

	magicURL := fmt.Sprintf("%s/auth/verify?token=%s", s.appBaseURL, linkToken)

	// Fire and forget: delivery failures never roll back link creation.
	go func() {
		if err := s.mailer.SendMagicLink(email, magicURL); err != nil {
			log.Printf("failed to send magic link to %s: %v", email, err)
		}
	}()

	return magicURL, nil
}

// MagicLinkVerify redeems a magic link. Unknown, expired and consumed links
// are distinct user-visible failures. When the link carries no user the email
// is auto-registered into the project. Consumption and email verification
// commit atomically; a replay always fails with ErrMagicLinkConsumed.
func (s *TenantAuthService) MagicLinkVerify(env EnvironmentContext, linkToken string) (*models.User, *TokenPair, error) {
	magicLink, err := s.magicRepo.FindByToken(env.ProjectID, env.EnvironmentID, linkToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMagicLinkInvalid
		}
		return nil, nil, fmt.Errorf("failed to find magic link: %w", err)
	}

	if magicLink.Expired(time.Now()) {
		return nil, nil, ErrMagicLinkExpired
	}

	if magicLink.Consumed() {
		return nil, nil, ErrMagicLinkConsumed
	}

	var (
		user    *models.User
		newLink *models.ProjectUserLink
	)

	if magicLink.UserID != nil {
		user, err = s.userRepo.FindByID(*magicLink.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find user: %w", err)
		}
	} else {
		userID, err := utils.GenerateID("user")
		if err != nil {
			return nil, nil, ErrFailedToCreateUser
		}
		linkID, err := utils.GenerateID("link")
		if err != nil {
			return nil, nil, ErrFailedToCreateUser
		}

		name := magicLink.Email
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}

		user = &models.User{
			ID:            userID,
			Email:         magicLink.Email,
			Name:          name,
			ImageURL:      utils.AvatarURL(userID),
			EmailVerified: true,
			Role:          models.RoleMember,
			Metadata:      map[string]any{},
		}
		newLink = &models.ProjectUserLink{
			ID:        linkID,
			ProjectID: env.ProjectID,
		}
	}

	if err := s.magicRepo.Redeem(magicLink, user, newLink); err != nil {
		if errors.Is(err, repository.ErrLinkConsumed) {
			return nil, nil, ErrMagicLinkConsumed
		}
		return nil, nil, fmt.Errorf("failed to redeem magic link: %w", err)
	}
	user.EmailVerified = true

	pair, err := s.issuePair(user.ID, env.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Refresh exchanges a refresh token for a fresh token pair. The token must
// carry the refresh audience and must belong to this environment's project.
func (s *TenantAuthService) Refresh(env EnvironmentContext, refreshToken string) (*models.User, *TokenPair, error) {
	payload, err := s.tokens.Verify(refreshToken, token.AudienceRefresh)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	if payload.ProjectID != env.ProjectID {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	pair, err := s.issuePair(user.ID, env.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// GetUser retrieves a tenant user by ID.
func (s *TenantAuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns a page of the project's users.
func (s *TenantAuthService) ListUsers(env EnvironmentContext, params utils.PaginationParams) ([]models.ProjectUserLink, int64, error) {
	links, total, err := s.userRepo.ListProjectUsers(env.ProjectID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list project users: %w", err)
	}
	return links, total, nil
}
