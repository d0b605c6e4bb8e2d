package models

import "time"

// ProjectUserLink associates a User with a Project. ProjectUsername is a
// project-scoped handle, unique within the project only when set (partial
// unique index); the same user may carry different usernames per project.
type ProjectUserLink struct {
	ID              string    `gorm:"type:varchar(64);primarykey" json:"id"`
	ProjectID       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_project_user;uniqueIndex:idx_project_username" json:"project_id"`
	UserID          string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_project_user" json:"user_id"`
	ProjectUsername *string   `gorm:"type:varchar(255);uniqueIndex:idx_project_username,where:project_username IS NOT NULL" json:"project_username"`
	CreatedAt       time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
