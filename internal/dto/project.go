package dto

import (
	"time"

	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/services"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// EnvironmentDTO represents an environment in API responses. The secret key
// hash never leaves the server; only the publishable key is exposed.
type EnvironmentDTO struct {
	ID             string                 `json:"id"`
	Type           models.EnvironmentType `json:"type"`
	PublishableKey string                 `json:"publishable_key"`
	CreatedAt      time.Time              `json:"created_at"`
}

// CreatedEnvironmentDTO additionally carries the plaintext secret key. Only
// used at creation and rotation time; the secret is never retrievable again.
type CreatedEnvironmentDTO struct {
	EnvironmentDTO
	SecretKey string `json:"secret_key"`
}

// SettingsDTO represents project settings in API responses
type SettingsDTO struct {
	EnableUsername            bool `json:"enable_username"`
	EnablePasswordless        bool `json:"enable_passwordless"`
	EmailVerificationRequired bool `json:"email_verification_required"`
	PasswordMinLength         int  `json:"password_min_length"`
	PasswordMaxLength         int  `json:"password_max_length"`
	PasswordRequireUppercase  bool `json:"password_require_uppercase"`
	PasswordRequireLowercase  bool `json:"password_require_lowercase"`
	PasswordRequireNumbers    bool `json:"password_require_numbers"`
	PasswordRequireSpecial    bool `json:"password_require_special"`
}

// ProjectDetailDTO represents a project with environments and settings
type ProjectDetailDTO struct {
	ProjectDTO
	Environments []EnvironmentDTO `json:"environments"`
	Settings     *SettingsDTO     `json:"settings"`
}

// ToProjectDTO converts a project to DTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:        project.ID,
		Slug:      project.Slug,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
	}
}

// ToEnvironmentDTO converts an environment to DTO
func ToEnvironmentDTO(env models.ProjectEnvironment) EnvironmentDTO {
	return EnvironmentDTO{
		ID:             env.ID,
		Type:           env.Type,
		PublishableKey: env.PublishableKey,
		CreatedAt:      env.CreatedAt,
	}
}

// ToCreatedEnvironmentDTO converts a freshly keyed environment to DTO
func ToCreatedEnvironmentDTO(created services.CreatedEnvironment) CreatedEnvironmentDTO {
	return CreatedEnvironmentDTO{
		EnvironmentDTO: ToEnvironmentDTO(*created.Environment),
		SecretKey:      created.SecretKey,
	}
}

// ToSettingsDTO converts settings to DTO
func ToSettingsDTO(settings models.ProjectSettings) SettingsDTO {
	return SettingsDTO{
		EnableUsername:            settings.EnableUsername,
		EnablePasswordless:        settings.EnablePasswordless,
		EmailVerificationRequired: settings.EmailVerificationRequired,
		PasswordMinLength:         settings.PasswordMinLength,
		PasswordMaxLength:         settings.PasswordMaxLength,
		PasswordRequireUppercase:  settings.PasswordRequireUppercase,
		PasswordRequireLowercase:  settings.PasswordRequireLowercase,
		PasswordRequireNumbers:    settings.PasswordRequireNumbers,
		PasswordRequireSpecial:    settings.PasswordRequireSpecial,
	}
}

// ToProjectDetailDTO converts a project with preloaded relations to DTO
func ToProjectDetailDTO(project models.Project) ProjectDetailDTO {
	environments := make([]EnvironmentDTO, len(project.Environments))
	for i, env := range project.Environments {
		environments[i] = ToEnvironmentDTO(env)
	}

	detail := ProjectDetailDTO{
		ProjectDTO:   ToProjectDTO(project),
		Environments: environments,
	}

	if project.Settings != nil {
		settings := ToSettingsDTO(*project.Settings)
		detail.Settings = &settings
	}

	return detail
}
