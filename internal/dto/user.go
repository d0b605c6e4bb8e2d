package dto

import (
	"time"

	"github.com/authkit/authkit/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url"`
	Username      *string         `json:"username"`
	EmailVerified bool            `json:"email_verified"`
	Role          models.UserRole `json:"role"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToUserDTO converts a user to DTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		ImageURL:      user.ImageURL,
		Username:      user.Username,
		EmailVerified: user.EmailVerified,
		Role:          user.Role,
		CreatedAt:     user.CreatedAt,
	}
}

// TenantUserDTO represents a tenant user with their project-scoped username
type TenantUserDTO struct {
	UserDTO
	ProjectUsername *string `json:"project_username"`
}

// ToTenantUserDTO converts a user and their project link to DTO
func ToTenantUserDTO(user models.User, link *models.ProjectUserLink) TenantUserDTO {
	out := TenantUserDTO{UserDTO: ToUserDTO(user)}
	if link != nil {
		out.ProjectUsername = link.ProjectUsername
	}
	return out
}

// TenantSessionDTO is the response for every successful tenant
// authentication: the user plus an access/refresh token pair. Tokens travel
// in the body, never cookies; storage is the caller's concern.
type TenantSessionDTO struct {
	User         TenantUserDTO `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
}

// TenantUserListDTO is a paginated page of a project's users
type TenantUserListDTO struct {
	Users []TenantUserDTO `json:"users"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int64           `json:"total"`
}
