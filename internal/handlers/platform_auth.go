package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/dto"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/services"
)

// PlatformAuthHandler coordinates platform operator authentication.
type PlatformAuthHandler struct {
	authService   *services.PlatformAuthService
	secureCookies bool
}

// NewPlatformAuthHandler creates a new PlatformAuthHandler. secureCookies
// should be true in release mode (HTTPS only).
func NewPlatformAuthHandler(authService *services.PlatformAuthService, secureCookies bool) *PlatformAuthHandler {
	return &PlatformAuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

func (h *PlatformAuthHandler) setSessionCookie(c *gin.Context, session string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, session, constants.SessionMaxAge, "/", "", h.secureCookies, true)
}

func (h *PlatformAuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.SessionCookieName, "", -1, "/", "", h.secureCookies, true)
}

// Signup registers a platform operator and starts a session.
func (h *PlatformAuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Email    string  `json:"email" binding:"required,email"`
		Name     string  `json:"name" binding:"required"`
		Password *string `json:"password"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, session, err := h.authService.Signup(services.PlatformSignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondPlatformAuthError(c, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusCreated, gin.H{"user": dto.ToUserDTO(*user)})
}

// Signin authenticates a platform operator and starts a session.
func (h *PlatformAuthHandler) Signin(c *gin.Context) {
	type SigninRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, session, err := h.authService.Signin(services.PlatformSigninInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondPlatformAuthError(c, err)
		return
	}

	h.setSessionCookie(c, session)
	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDTO(*user)})
}

// Signout clears the session cookie.
func (h *PlatformAuthHandler) Signout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"message": "Signed out successfully",
	})
}

// Me is a soft session probe: verification failures yield a null user, never
// an error status.
func (h *PlatformAuthHandler) Me(c *gin.Context) {
	raw, err := c.Cookie(constants.SessionCookieName)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.authService.Me(raw)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDTO(*user)})
}

func respondPlatformAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserExists):
		apierrors.Conflict(c, "User already exists")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, "Password must be at least 8 characters")
	case errors.Is(err, services.ErrPasswordTooLong):
		apierrors.BadRequest(c, "Password must be no more than 72 characters")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
