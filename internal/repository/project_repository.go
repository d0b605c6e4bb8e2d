package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/models"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithDefaults creates the project, its development environment, its
// default settings and the owner link in one transaction. Partial creation
// must never be observable: the guards treat a project without settings as an
// integrity failure.
func (r *GormProjectRepository) CreateWithDefaults(project *models.Project, env *models.ProjectEnvironment, settings *models.ProjectSettings, link *models.ProjectUserLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		env.ProjectID = project.ID
		if err := tx.Create(env).Error; err != nil {
			return fmt.Errorf("failed to create environment: %w", err)
		}

		settings.ProjectID = project.ID
		if err := tx.Create(settings).Error; err != nil {
			return fmt.Errorf("failed to create settings: %w", err)
		}

		link.ProjectID = project.ID
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("failed to create owner link: %w", err)
		}

		return nil
	})
}

// FindByID finds a project by ID with environments and settings preloaded
func (r *GormProjectRepository) FindByID(id string) (*models.Project, error) {
	var project models.Project
	err := r.db.
		Preload("Environments").
		Preload("Settings").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByUserID lists projects the user is linked to
func (r *GormProjectRepository) ListByUserID(userID string) ([]models.Project, error) {
	var links []models.ProjectUserLink
	err := r.db.
		Preload("Project").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}

	projects := make([]models.Project, len(links))
	for i, link := range links {
		projects[i] = link.Project
	}
	return projects, nil
}

// FindLink finds the link between a project and a user
func (r *GormProjectRepository) FindLink(projectID, userID string) (*models.ProjectUserLink, error) {
	var link models.ProjectUserLink
	err := r.db.
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// FindSettings finds a project's settings
func (r *GormProjectRepository) FindSettings(projectID string) (*models.ProjectSettings, error) {
	var settings models.ProjectSettings
	if err := r.db.Where("project_id = ?", projectID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies a partial update and returns the fresh row. Already
// issued sessions and tokens are not invalidated by a policy change.
func (r *GormProjectRepository) UpdateSettings(projectID string, updates map[string]any) (*models.ProjectSettings, error) {
	if len(updates) > 0 {
		err := r.db.Model(&models.ProjectSettings{}).
			Where("project_id = ?", projectID).
			Updates(updates).Error
		if err != nil {
			return nil, err
		}
	}
	return r.FindSettings(projectID)
}
