package repository

import (
	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/models"
)

// GormEnvironmentRepository is a GORM implementation of EnvironmentRepository
type GormEnvironmentRepository struct {
	db *gorm.DB
}

// NewEnvironmentRepository creates a new EnvironmentRepository
func NewEnvironmentRepository(db *gorm.DB) EnvironmentRepository {
	return &GormEnvironmentRepository{db: db}
}

// Create creates a new environment
func (r *GormEnvironmentRepository) Create(env *models.ProjectEnvironment) error {
	return r.db.Create(env).Error
}

// FindByID finds an environment by ID
func (r *GormEnvironmentRepository) FindByID(id string) (*models.ProjectEnvironment, error) {
	var env models.ProjectEnvironment
	if err := r.db.Where("id = ?", id).First(&env).Error; err != nil {
		return nil, err
	}
	return &env, nil
}

// FindByProjectAndType finds a project's environment of the given type
func (r *GormEnvironmentRepository) FindByProjectAndType(projectID string, envType models.EnvironmentType) (*models.ProjectEnvironment, error) {
	var env models.ProjectEnvironment
	err := r.db.
		Where("project_id = ? AND type = ?", projectID, envType).
		First(&env).Error
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// UpdateSecretKeyHash replaces the stored secret hash
func (r *GormEnvironmentRepository) UpdateSecretKeyHash(id, secretKeyHash string) error {
	return r.db.Model(&models.ProjectEnvironment{}).
		Where("id = ?", id).
		Update("secret_key_hash", secretKeyHash).Error
}
