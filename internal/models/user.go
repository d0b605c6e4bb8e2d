package models

import (
	"time"
)

type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleMember UserRole = "member"
)

// User is a platform-owned identity. Email is intentionally not globally
// unique for tenant users: per-project uniqueness lives on ProjectUserLink.
// Platform operator accounts enforce email uniqueness in the service layer.
type User struct {
	ID            string         `gorm:"type:varchar(64);primarykey" json:"id"`
	Email         string         `gorm:"type:varchar(255);not null;index" json:"email"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	ImageURL      string         `gorm:"type:varchar(512);not null" json:"image_url"`
	Username      *string        `gorm:"type:varchar(255)" json:"username"`
	PasswordHash  *string        `gorm:"type:varchar(255)" json:"-"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	Role          UserRole       `gorm:"type:varchar(20);not null;default:member" json:"role"`
	Metadata      map[string]any `gorm:"serializer:json" json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Relations
	ProjectLinks []ProjectUserLink `gorm:"foreignKey:UserID" json:"-"`
	MagicLinks   []MagicLink       `gorm:"foreignKey:UserID" json:"-"`
}
