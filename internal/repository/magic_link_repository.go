package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/models"
)

// ErrLinkConsumed is returned when a magic link redemption loses the race to
// another redemption of the same token.
var ErrLinkConsumed = errors.New("magic link repository: link already consumed")

// GormMagicLinkRepository is a GORM implementation of MagicLinkRepository
type GormMagicLinkRepository struct {
	db *gorm.DB
}

// NewMagicLinkRepository creates a new MagicLinkRepository
func NewMagicLinkRepository(db *gorm.DB) MagicLinkRepository {
	return &GormMagicLinkRepository{db: db}
}

// Create persists a new magic link
func (r *GormMagicLinkRepository) Create(link *models.MagicLink) error {
	return r.db.Create(link).Error
}

// FindByToken finds a link by exact token scoped to project and environment.
// The scoping prevents cross-tenant replay even if two tokens ever collided.
func (r *GormMagicLinkRepository) FindByToken(projectID, environmentID, token string) (*models.MagicLink, error) {
	var link models.MagicLink
	err := r.db.
		Where("token = ? AND project_id = ? AND environment_id = ?", token, projectID, environmentID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Redeem consumes the link and verifies the user's email atomically. The
// compare-and-set on consumed_at is the enforcement point for single use:
// of N concurrent redemptions exactly one updates the row.
func (r *GormMagicLinkRepository) Redeem(link *models.MagicLink, user *models.User, newLink *models.ProjectUserLink) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.Model(&models.MagicLink{}).
			Where("id = ? AND consumed_at IS NULL", link.ID).
			Update("consumed_at", now)
		if res.Error != nil {
			return fmt.Errorf("failed to consume magic link: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrLinkConsumed
		}

		if newLink != nil {
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			newLink.UserID = user.ID
			if err := tx.Create(newLink).Error; err != nil {
				return fmt.Errorf("failed to create project user link: %w", err)
			}
		}

		err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("email_verified", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}

		link.ConsumedAt = &now
		return nil
	})
}
