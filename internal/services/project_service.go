package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/hash"
	"github.com/authkit/authkit/internal/keys"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/repository"
	"github.com/authkit/authkit/internal/utils"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidProjectName  = errors.New("project name cannot be empty")
	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrProductionExists    = errors.New("production environment already exists")
)

// CreatedEnvironment pairs an environment row with the plaintext secret key
// that is returned to the caller exactly once.
type CreatedEnvironment struct {
	Environment *models.ProjectEnvironment
	SecretKey   string
}

// ProjectService provides the project and environment lifecycle.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	envRepo     repository.EnvironmentRepository
	hasher      *hash.Hasher
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, envRepo repository.EnvironmentRepository, hasher *hash.Hasher) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		envRepo:     envRepo,
		hasher:      hasher,
	}
}

func (s *ProjectService) newEnvironment(projectID string, envType models.EnvironmentType) (*CreatedEnvironment, error) {
	envID, err := utils.GenerateID("env")
	if err != nil {
		return nil, fmt.Errorf("failed to generate environment id: %w", err)
	}

	envKeys, err := keys.GenerateEnvironmentKeys(envType, s.hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to generate environment keys: %w", err)
	}

	return &CreatedEnvironment{
		Environment: &models.ProjectEnvironment{
			ID:             envID,
			ProjectID:      projectID,
			Type:           envType,
			PublishableKey: envKeys.PublishableKey,
			SecretKeyHash:  envKeys.SecretKeyHash,
		},
		SecretKey: envKeys.SecretKey,
	}, nil
}

// CreateProject creates a project with its development environment, default
// settings and the creating user linked as owner, all in one atomic unit.
func (s *ProjectService) CreateProject(ownerID, name string) (*models.Project, *CreatedEnvironment, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, ErrInvalidProjectName
	}

	projectID, err := utils.GenerateID("project")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate project id: %w", err)
	}

	slug, err := utils.GenerateSlug()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	settingsID, err := utils.GenerateID("settings")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate settings id: %w", err)
	}

	linkID, err := utils.GenerateID("link")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate link id: %w", err)
	}

	project := &models.Project{
		ID:   projectID,
		Slug: slug,
		Name: name,
	}

	created, err := s.newEnvironment(projectID, models.EnvironmentDevelopment)
	if err != nil {
		return nil, nil, err
	}

	settings := models.DefaultSettings(projectID)
	settings.ID = settingsID

	link := &models.ProjectUserLink{
		ID:     linkID,
		UserID: ownerID,
	}

	if err := s.projectRepo.CreateWithDefaults(project, created.Environment, settings, link); err != nil {
		return nil, nil, fmt.Errorf("failed to create project: %w", err)
	}

	project.Settings = settings

	return project, created, nil
}

// ListProjects returns the projects the user is linked to.
func (s *ProjectService) ListProjects(userID string) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project with its environments and settings. Callers
// not linked to the project get ErrProjectNotFound rather than a forbidden,
// to avoid leaking project existence.
func (s *ProjectService) GetProject(projectID, userID string) (*models.Project, error) {
	if _, err := s.projectRepo.FindLink(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify project access: %w", err)
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}

// CreateProductionEnvironment provisions a project's production environment.
// At most one may exist; a second attempt fails with ErrProductionExists. The
// development environment is never created here, it exists from project
// creation.
func (s *ProjectService) CreateProductionEnvironment(projectID, userID string) (*CreatedEnvironment, error) {
	if _, err := s.projectRepo.FindLink(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify project access: %w", err)
	}

	if _, err := s.envRepo.FindByProjectAndType(projectID, models.EnvironmentProduction); err == nil {
		return nil, ErrProductionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check environments: %w", err)
	}

	created, err := s.newEnvironment(projectID, models.EnvironmentProduction)
	if err != nil {
		return nil, err
	}

	if err := s.envRepo.Create(created.Environment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductionExists
		}
		return nil, fmt.Errorf("failed to create environment: %w", err)
	}

	return created, nil
}

// RotateSecret regenerates an environment's secret key. The old secret stops
// verifying the moment the new hash is stored; the new plaintext is returned
// once and never retrievable again.
func (s *ProjectService) RotateSecret(projectID, environmentID, userID string) (*CreatedEnvironment, error) {
	if _, err := s.projectRepo.FindLink(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify project access: %w", err)
	}

	env, err := s.envRepo.FindByID(environmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvironmentNotFound
		}
		return nil, fmt.Errorf("failed to find environment: %w", err)
	}
	if env.ProjectID != projectID {
		return nil, ErrEnvironmentNotFound
	}

	envKeys, err := keys.GenerateEnvironmentKeys(env.Type, s.hasher)
	if err != nil {
		return nil, fmt.Errorf("failed to generate environment keys: %w", err)
	}

	if err := s.envRepo.UpdateSecretKeyHash(env.ID, envKeys.SecretKeyHash); err != nil {
		return nil, fmt.Errorf("failed to rotate secret: %w", err)
	}

	env.SecretKeyHash = envKeys.SecretKeyHash

	return &CreatedEnvironment{Environment: env, SecretKey: envKeys.SecretKey}, nil
}

// SettingsUpdate is a partial update of a project's settings; nil fields are
// left untouched.
type SettingsUpdate struct {
	EnableUsername            *bool
	EnablePasswordless        *bool
	EmailVerificationRequired *bool
	PasswordMinLength         *int
	PasswordMaxLength         *int
	PasswordRequireUppercase  *bool
	PasswordRequireLowercase  *bool
	PasswordRequireNumbers    *bool
	PasswordRequireSpecial    *bool
}

func (u SettingsUpdate) changes() map[string]any {
	updates := map[string]any{}
	if u.EnableUsername != nil {
		updates["enable_username"] = *u.EnableUsername
	}
	if u.EnablePasswordless != nil {
		updates["enable_passwordless"] = *u.EnablePasswordless
	}
	if u.EmailVerificationRequired != nil {
		updates["email_verification_required"] = *u.EmailVerificationRequired
	}
	if u.PasswordMinLength != nil {
		updates["password_min_length"] = *u.PasswordMinLength
	}
	if u.PasswordMaxLength != nil {
		updates["password_max_length"] = *u.PasswordMaxLength
	}
	if u.PasswordRequireUppercase != nil {
		updates["password_require_uppercase"] = *u.PasswordRequireUppercase
	}
	if u.PasswordRequireLowercase != nil {
		updates["password_require_lowercase"] = *u.PasswordRequireLowercase
	}
	if u.PasswordRequireNumbers != nil {
		updates["password_require_numbers"] = *u.PasswordRequireNumbers
	}
	if u.PasswordRequireSpecial != nil {
		updates["password_require_special"] = *u.PasswordRequireSpecial
	}
	return updates
}

// UpdateSettings applies a partial settings update. Tokens and sessions
// issued under the old policy stay valid.
func (s *ProjectService) UpdateSettings(projectID, userID string, update SettingsUpdate) (*models.ProjectSettings, error) {
	if _, err := s.projectRepo.FindLink(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify project access: %w", err)
	}

	settings, err := s.projectRepo.UpdateSettings(projectID, update.changes())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return settings, nil
}
