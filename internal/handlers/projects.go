package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/dto"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/middleware"
	"github.com/authkit/authkit/internal/services"
)

// ProjectHandler coordinates the project and environment lifecycle. All
// routes run behind the platform session guard.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project with its development environment, default
// settings and owner link. The response is the only time the development
// environment's secret key appears in plaintext.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, created, err := h.projectService.CreateProject(userID, req.Name)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project":     dto.ToProjectDTO(*project),
		"environment": dto.ToCreatedEnvironmentDTO(*created),
	})
}

// ListProjects returns the projects the caller is linked to.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, err := h.projectService.ListProjects(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	out := make([]dto.ProjectDTO, len(projects))
	for i, project := range projects {
		out[i] = dto.ToProjectDTO(project)
	}

	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// GetProject returns a project with environments and settings.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	project, err := h.projectService.GetProject(c.Param("id"), userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project))
}

// CreateEnvironment provisions the project's production environment. The
// development environment always exists, so only production can be created.
func (h *ProjectHandler) CreateEnvironment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	created, err := h.projectService.CreateProductionEnvironment(c.Param("id"), userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCreatedEnvironmentDTO(*created))
}

// RotateSecret regenerates an environment's secret key, invalidating the old
// one immediately.
func (h *ProjectHandler) RotateSecret(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	created, err := h.projectService.RotateSecret(c.Param("id"), c.Param("env_id"), userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCreatedEnvironmentDTO(*created))
}

// UpdateSettings applies a partial update to the project's settings.
func (h *ProjectHandler) UpdateSettings(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateSettingsRequest struct {
		EnableUsername            *bool `json:"enable_username"`
		EnablePasswordless        *bool `json:"enable_passwordless"`
		EmailVerificationRequired *bool `json:"email_verification_required"`
		PasswordMinLength         *int  `json:"password_min_length" binding:"omitempty,min=4,max=128"`
		PasswordMaxLength         *int  `json:"password_max_length" binding:"omitempty,min=8,max=128"`
		PasswordRequireUppercase  *bool `json:"password_require_uppercase"`
		PasswordRequireLowercase  *bool `json:"password_require_lowercase"`
		PasswordRequireNumbers    *bool `json:"password_require_numbers"`
		PasswordRequireSpecial    *bool `json:"password_require_special"`
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	settings, err := h.projectService.UpdateSettings(c.Param("id"), userID, services.SettingsUpdate{
		EnableUsername:            req.EnableUsername,
		EnablePasswordless:        req.EnablePasswordless,
		EmailVerificationRequired: req.EmailVerificationRequired,
		PasswordMinLength:         req.PasswordMinLength,
		PasswordMaxLength:         req.PasswordMaxLength,
		PasswordRequireUppercase:  req.PasswordRequireUppercase,
		PasswordRequireLowercase:  req.PasswordRequireLowercase,
		PasswordRequireNumbers:    req.PasswordRequireNumbers,
		PasswordRequireSpecial:    req.PasswordRequireSpecial,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSettingsDTO(*settings))
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProjectName):
		apierrors.BadRequest(c, "Project name cannot be empty")
	case errors.Is(err, services.ErrProductionExists):
		apierrors.Conflict(c, "Production environment already exists")
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrEnvironmentNotFound):
		apierrors.NotFound(c, "Environment not found")
	default:
		apierrors.InternalError(c, "")
	}
}
