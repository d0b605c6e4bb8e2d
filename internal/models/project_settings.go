package models

import "time"

// ProjectSettings holds a project's feature flags and password policy.
// Created alongside the project; a project without settings is treated as an
// integrity violation by the access guards.
type ProjectSettings struct {
	ID        string `gorm:"type:varchar(64);primarykey" json:"id"`
	ProjectID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"project_id"`

	// Feature flags
	EnableUsername            bool `gorm:"not null;default:false" json:"enable_username"`
	EnablePasswordless        bool `gorm:"not null;default:false" json:"enable_passwordless"`
	EmailVerificationRequired bool `gorm:"not null;default:false" json:"email_verification_required"`

	// Password policy
	PasswordMinLength        int  `gorm:"not null;default:8" json:"password_min_length"`
	PasswordMaxLength        int  `gorm:"not null;default:128" json:"password_max_length"`
	PasswordRequireUppercase bool `gorm:"not null;default:false" json:"password_require_uppercase"`
	PasswordRequireLowercase bool `gorm:"not null;default:false" json:"password_require_lowercase"`
	PasswordRequireNumbers   bool `gorm:"not null;default:false" json:"password_require_numbers"`
	PasswordRequireSpecial   bool `gorm:"not null;default:false" json:"password_require_special"`

	Metadata  map[string]any `gorm:"serializer:json" json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DefaultSettings returns the settings a newly created project starts with.
func DefaultSettings(projectID string) *ProjectSettings {
	return &ProjectSettings{
		ProjectID:         projectID,
		PasswordMinLength: 8,
		PasswordMaxLength: 128,
		Metadata:          map[string]any{},
	}
}
