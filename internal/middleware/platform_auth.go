package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/database"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/token"
)

func invalidSession(c *gin.Context) {
	apierrors.Unauthorized(c, "Invalid session")
	c.Abort()
}

// RequirePlatformSession verifies the session cookie as a platform-audience
// token and loads the referenced user. Missing cookie, bad token, wrong
// audience and vanished user all fail closed with the same response.
func RequirePlatformSession(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(constants.SessionCookieName)
		if err != nil || raw == "" {
			invalidSession(c)
			return
		}

		payload, err := tokens.Verify(raw, token.AudiencePlatform)
		if err != nil {
			invalidSession(c)
			return
		}

		var user models.User
		if err := database.GetDB().Where("id = ?", payload.UserID).First(&user).Error; err != nil {
			invalidSession(c)
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// GetUserID retrieves the authenticated platform user's ID from context.
func GetUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}

	userID, ok := value.(string)
	return userID, ok
}

// GetUser retrieves the authenticated platform user from context.
func GetUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}
