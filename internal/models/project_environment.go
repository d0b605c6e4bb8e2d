package models

import "time"

type EnvironmentType string

const (
	EnvironmentDevelopment EnvironmentType = "development"
	EnvironmentProduction  EnvironmentType = "production"
)

// ProjectEnvironment is a project's isolated credential scope. The secret key
// is stored only as a bcrypt hash; its plaintext leaves the process exactly
// once, at generation or rotation time.
type ProjectEnvironment struct {
	ID             string          `gorm:"type:varchar(64);primarykey" json:"id"`
	ProjectID      string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_project_env_type" json:"project_id"`
	Type           EnvironmentType `gorm:"type:varchar(20);not null;uniqueIndex:idx_project_env_type" json:"type"`
	PublishableKey string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"publishable_key"`
	SecretKeyHash  string          `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`

	// Relations
	Project    Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	MagicLinks []MagicLink `gorm:"foreignKey:EnvironmentID;constraint:OnDelete:CASCADE" json:"-"`
}
