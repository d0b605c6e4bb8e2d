package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/dto"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/middleware"
	"github.com/authkit/authkit/internal/policy"
	"github.com/authkit/authkit/internal/services"
	"github.com/authkit/authkit/internal/utils"
)

// TenantAuthHandler coordinates tenant-facing authentication. Every route
// runs behind an environment guard that attaches the trust context.
type TenantAuthHandler struct {
	authService *services.TenantAuthService
}

// NewTenantAuthHandler creates a new TenantAuthHandler.
func NewTenantAuthHandler(authService *services.TenantAuthService) *TenantAuthHandler {
	return &TenantAuthHandler{
		authService: authService,
	}
}

// Signup registers a tenant user in the environment's project.
func (h *TenantAuthHandler) Signup(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	type SignupRequest struct {
		Email    string  `json:"email" binding:"required,email"`
		Name     string  `json:"name" binding:"required"`
		Username *string `json:"username"`
		Password *string `json:"password"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, link, pair, err := h.authService.Signup(env, services.TenantSignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondTenantAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TenantSessionDTO{
		User:         dto.ToTenantUserDTO(*user, link),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Signin authenticates a tenant user by email or project username.
func (h *TenantAuthHandler) Signin(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	type SigninRequest struct {
		Identifier string  `json:"identifier" binding:"required"`
		Password   *string `json:"password"`
	}

	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, link, pair, err := h.authService.Signin(env, services.TenantSigninInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		respondTenantAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TenantSessionDTO{
		User:         dto.ToTenantUserDTO(*user, link),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// MagicLinkStart issues a single-use sign-in link for an existing user.
func (h *TenantAuthHandler) MagicLinkStart(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	type StartRequest struct {
		Email string `json:"email" binding:"required,email"`
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	magicURL, err := h.authService.MagicLinkStart(env, req.Email)
	if err != nil {
		respondTenantAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"magic_url": magicURL})
}

// MagicLinkVerify redeems a magic link and signs the user in.
func (h *TenantAuthHandler) MagicLinkVerify(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	type VerifyRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.MagicLinkVerify(env, req.Token)
	if err != nil {
		respondTenantAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TenantSessionDTO{
		User:         dto.ToTenantUserDTO(*user, nil),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh exchanges a refresh token for a fresh token pair.
func (h *TenantAuthHandler) Refresh(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, pair, err := h.authService.Refresh(env, req.RefreshToken)
	if err != nil {
		respondTenantAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TenantSessionDTO{
		User:         dto.ToTenantUserDTO(*user, nil),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the tenant user authenticated by the access-token middleware.
func (h *TenantAuthHandler) Me(c *gin.Context) {
	user, exists := middleware.GetTenantUser(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDTO(user)})
}

// ListUsers returns a page of the project's users. Strict-environment only.
func (h *TenantAuthHandler) ListUsers(c *gin.Context) {
	env, exists := middleware.GetEnvironment(c)
	if !exists {
		apierrors.Unauthorized(c, "Invalid credentials")
		return
	}

	params := utils.GetPaginationParams(c)

	links, total, err := h.authService.ListUsers(env, params)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	users := make([]dto.TenantUserDTO, len(links))
	for i, link := range links {
		l := link
		users[i] = dto.ToTenantUserDTO(link.User, &l)
	}

	c.JSON(http.StatusOK, dto.TenantUserListDTO{
		Users: users,
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	})
}

func respondTenantAuthError(c *gin.Context, err error) {
	var violation *policy.Violation

	switch {
	case errors.As(err, &violation):
		apierrors.BadRequest(c, violation.Reason)
	case errors.Is(err, services.ErrUsernameRequired):
		apierrors.BadRequest(c, "Username is required")
	case errors.Is(err, services.ErrPasswordRequired):
		apierrors.BadRequest(c, "Password is required")
	case errors.Is(err, services.ErrUseMagicLink):
		apierrors.BadRequest(c, "Please use magic link to sign in")
	case errors.Is(err, services.ErrPasswordlessOff):
		apierrors.BadRequest(c, "Passwordless sign in is not enabled")
	case errors.Is(err, services.ErrMagicLinkInvalid):
		apierrors.BadRequest(c, "Invalid or expired magic link")
	case errors.Is(err, services.ErrMagicLinkExpired):
		apierrors.BadRequest(c, "Magic link has expired")
	case errors.Is(err, services.ErrMagicLinkConsumed):
		apierrors.BadRequest(c, "Magic link has already been used")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already exists")
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "Username already exists")
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidRefreshToken):
		apierrors.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		apierrors.InternalError(c, "")
	}
}
