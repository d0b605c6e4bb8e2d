package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/database"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/utils"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateWithProjectLink creates the user and the project link atomically. A
// duplicate username race is not pre-checkable; the unique index surfaces it
// as gorm.ErrDuplicatedKey.
func (r *GormUserRepository) CreateWithProjectLink(user *models.User, link *models.ProjectUserLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		link.UserID = user.ID

		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("failed to create project user link: %w", err)
		}

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email (platform scope)
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) findProjectUser(projectID string, cond string, arg string) (*models.User, *models.ProjectUserLink, error) {
	var link models.ProjectUserLink
	err := r.db.
		Joins("JOIN users ON users.id = project_user_links.user_id").
		Where("project_user_links.project_id = ?", projectID).
		Where(cond, arg).
		Preload("User").
		First(&link).Error
	if err != nil {
		return nil, nil, err
	}
	return &link.User, &link, nil
}

// FindProjectUserByEmail resolves a user by email within a single project.
// Email is unique per project, not globally, so a bare users lookup would be
// wrong here.
func (r *GormUserRepository) FindProjectUserByEmail(projectID, email string) (*models.User, *models.ProjectUserLink, error) {
	return r.findProjectUser(projectID, "users.email = ?", email)
}

// FindProjectUserByUsername resolves a user by their project-scoped username.
func (r *GormUserRepository) FindProjectUserByUsername(projectID, username string) (*models.User, *models.ProjectUserLink, error) {
	return r.findProjectUser(projectID, "project_user_links.project_username = ?", username)
}

// ListProjectUsers returns a page of project user links with users preloaded.
func (r *GormUserRepository) ListProjectUsers(projectID string, params utils.PaginationParams) ([]models.ProjectUserLink, int64, error) {
	var total int64
	if err := r.db.Model(&models.ProjectUserLink{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var links []models.ProjectUserLink
	err := r.db.
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Scopes(database.Paginate(params)).
		Preload("User").
		Find(&links).Error
	if err != nil {
		return nil, 0, err
	}

	return links, total, nil
}
