package repository

import (
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/utils"
)

// UserRepository defines the interface for user and project-link data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithProjectLink creates a user and their project link within a
	// single transaction.
	CreateWithProjectLink(user *models.User, link *models.ProjectUserLink) error

	// FindByID finds a user by ID
	FindByID(id string) (*models.User, error)

	// FindByEmail finds a user by email across the whole platform. Only
	// valid for platform operator accounts; tenant lookups must be
	// project-scoped.
	FindByEmail(email string) (*models.User, error)

	// FindProjectUserByEmail resolves a user through the project-scoped
	// link by email.
	FindProjectUserByEmail(projectID, email string) (*models.User, *models.ProjectUserLink, error)

	// FindProjectUserByUsername resolves a user through the project-scoped
	// link by project username (exact, case-sensitive).
	FindProjectUserByUsername(projectID, username string) (*models.User, *models.ProjectUserLink, error)

	// ListProjectUsers returns a page of the project's user links with
	// their users preloaded, plus the total count.
	ListProjectUsers(projectID string, params utils.PaginationParams) ([]models.ProjectUserLink, int64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithDefaults creates a project together with its development
	// environment, default settings and owner link as one atomic unit.
	CreateWithDefaults(project *models.Project, env *models.ProjectEnvironment, settings *models.ProjectSettings, link *models.ProjectUserLink) error

	// FindByID finds a project by ID with environments and settings preloaded
	FindByID(id string) (*models.Project, error)

	// ListByUserID lists projects the user is linked to
	ListByUserID(userID string) ([]models.Project, error)

	// FindLink finds the link between a project and a user
	FindLink(projectID, userID string) (*models.ProjectUserLink, error)

	// FindSettings finds a project's settings
	FindSettings(projectID string) (*models.ProjectSettings, error)

	// UpdateSettings applies a partial update to a project's settings and
	// returns the updated row.
	UpdateSettings(projectID string, updates map[string]any) (*models.ProjectSettings, error)
}

// EnvironmentRepository defines the interface for environment data access
type EnvironmentRepository interface {
	// Create creates a new environment
	Create(env *models.ProjectEnvironment) error

	// FindByID finds an environment by ID
	FindByID(id string) (*models.ProjectEnvironment, error)

	// FindByProjectAndType finds a project's environment of the given type
	FindByProjectAndType(projectID string, envType models.EnvironmentType) (*models.ProjectEnvironment, error)

	// UpdateSecretKeyHash replaces the stored secret hash, invalidating the
	// previous secret immediately.
	UpdateSecretKeyHash(id, secretKeyHash string) error
}

// MagicLinkRepository defines the interface for magic link data access
type MagicLinkRepository interface {
	// Create persists a new magic link
	Create(link *models.MagicLink) error

	// FindByToken finds a link by exact token scoped to project and
	// environment.
	FindByToken(projectID, environmentID, token string) (*models.MagicLink, error)

	// Redeem consumes the link and marks the user's email verified in one
	// transaction. When newLink is non-nil the user is created first
	// (auto-registration). Consumption is a compare-and-set on consumedAt;
	// a lost race returns ErrLinkConsumed.
	Redeem(link *models.MagicLink, user *models.User, newLink *models.ProjectUserLink) error
}
