package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/database"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/token"
)

// RequireTenantAccess runs after an environment guard and verifies a Bearer
// access token scoped to the same project. Refresh tokens are rejected by the
// audience check.
func RequireTenantAccess(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		env, exists := GetEnvironment(c)
		if !exists {
			invalidCredentials(c)
			return
		}

		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			invalidCredentials(c)
			return
		}

		payload, err := tokens.Verify(raw, token.AudienceAccess)
		if err != nil {
			invalidCredentials(c)
			return
		}

		if payload.ProjectID != env.ProjectID {
			invalidCredentials(c)
			return
		}

		var user models.User
		if err := database.GetDB().Where("id = ?", payload.UserID).First(&user).Error; err != nil {
			invalidCredentials(c)
			return
		}

		c.Set(constants.ContextKeyTenantUser, user)
		c.Next()
	}
}

// GetTenantUser retrieves the authenticated tenant user from context.
func GetTenantUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(constants.ContextKeyTenantUser)
	if !exists {
		return models.User{}, false
	}

	user, ok := value.(models.User)
	return user, ok
}
