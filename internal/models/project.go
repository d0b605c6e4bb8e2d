package models

import "time"

// Project is the root of a tenant's isolated namespace.
type Project struct {
	ID        string    `gorm:"type:varchar(64);primarykey" json:"id"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	UserLinks    []ProjectUserLink    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Environments []ProjectEnvironment `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"environments,omitempty"`
	Settings     *ProjectSettings     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}
