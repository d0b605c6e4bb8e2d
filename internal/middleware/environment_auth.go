package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/database"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/keys"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/services"
)

// invalidCredentials fails the request closed. Every guard failure, missing
// header, unknown key, wrong secret or missing settings, produces this same
// response so callers cannot distinguish "not found" from "wrong".
func invalidCredentials(c *gin.Context) {
	apierrors.Unauthorized(c, "Invalid credentials")
	c.Abort()
}

func resolveEnvironment(c *gin.Context, publishableKey string) (*models.ProjectEnvironment, *models.ProjectSettings, bool) {
	var env models.ProjectEnvironment
	if err := database.GetDB().Where("publishable_key = ?", publishableKey).First(&env).Error; err != nil {
		invalidCredentials(c)
		return nil, nil, false
	}

	// A project without settings is never a valid state; treat it as an
	// integrity violation, not a lookup miss.
	var settings models.ProjectSettings
	if err := database.GetDB().Where("project_id = ?", env.ProjectID).First(&settings).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.InternalError(c, "")
			c.Abort()
			return nil, nil, false
		}
		invalidCredentials(c)
		return nil, nil, false
	}

	return &env, &settings, true
}

func attachEnvironment(c *gin.Context, env *models.ProjectEnvironment, settings *models.ProjectSettings) {
	c.Set(constants.ContextKeyEnvironment, services.EnvironmentContext{
		EnvironmentID:   env.ID,
		ProjectID:       env.ProjectID,
		EnvironmentType: env.Type,
		Settings:        settings,
	})
}

// RequirePublicEnvironment resolves the publishable-key header into an
// environment trust context. Public tier: no proof of secret possession.
func RequirePublicEnvironment() gin.HandlerFunc {
	return func(c *gin.Context) {
		publishableKey := c.GetHeader(constants.HeaderPublishableKey)
		if publishableKey == "" {
			invalidCredentials(c)
			return
		}

		env, settings, ok := resolveEnvironment(c, publishableKey)
		if !ok {
			return
		}

		attachEnvironment(c, env, settings)
		c.Next()
	}
}

// RequireStrictEnvironment additionally demands the secret-key header and
// verifies it against the stored hash. Used for privileged server-side
// operations.
func RequireStrictEnvironment() gin.HandlerFunc {
	return func(c *gin.Context) {
		publishableKey := c.GetHeader(constants.HeaderPublishableKey)
		secretKey := c.GetHeader(constants.HeaderSecretKey)
		if publishableKey == "" || secretKey == "" {
			invalidCredentials(c)
			return
		}

		env, settings, ok := resolveEnvironment(c, publishableKey)
		if !ok {
			return
		}

		if !keys.VerifySecretKey(secretKey, env.SecretKeyHash) {
			invalidCredentials(c)
			return
		}

		attachEnvironment(c, env, settings)
		c.Next()
	}
}

// GetEnvironment retrieves the environment trust context attached by the
// environment guards.
func GetEnvironment(c *gin.Context) (services.EnvironmentContext, bool) {
	value, exists := c.Get(constants.ContextKeyEnvironment)
	if !exists {
		return services.EnvironmentContext{}, false
	}

	env, ok := value.(services.EnvironmentContext)
	return env, ok
}
