package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/authkit/authkit/internal/database"
	"github.com/authkit/authkit/internal/hash"
	"github.com/authkit/authkit/internal/middleware"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/repository"
	"github.com/authkit/authkit/internal/services"
	"github.com/authkit/authkit/internal/token"
)

type testEnv struct {
	db             *gorm.DB
	tokens         *token.Service
	hasher         *hash.Hasher
	platformAuth   *services.PlatformAuthService
	tenantAuth     *services.TenantAuthService
	projectService *services.ProjectService
	router         *gin.Engine
}

// setupTestEnv builds an in-memory database and the full router, including
// the guard middleware, so tests exercise the same chain as production.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled second connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectUserLink{},
		&models.ProjectEnvironment{},
		&models.ProjectSettings{},
		&models.MagicLink{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	tokens, err := token.New("test-signing-secret")
	require.NoError(t, err)

	hasher, err := hash.New(4)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	envRepo := repository.NewEnvironmentRepository(db)
	magicRepo := repository.NewMagicLinkRepository(db)

	platformAuth := services.NewPlatformAuthService(userRepo, tokens, hasher)
	tenantAuth := services.NewTenantAuthService(userRepo, magicRepo, tokens, hasher, services.NewLogMailer(), "http://localhost:3000")
	projectService := services.NewProjectService(projectRepo, envRepo, hasher)

	platformAuthHandler := NewPlatformAuthHandler(platformAuth, false)
	tenantAuthHandler := NewTenantAuthHandler(tenantAuth)
	projectHandler := NewProjectHandler(projectService)

	r := gin.New()
	api := r.Group("/api")

	platformRoutes := api.Group("/platform/auth")
	platformRoutes.POST("/signup", platformAuthHandler.Signup)
	platformRoutes.POST("/signin", platformAuthHandler.Signin)
	platformRoutes.POST("/signout", platformAuthHandler.Signout)
	platformRoutes.GET("/me", platformAuthHandler.Me)

	projectRoutes := api.Group("/projects")
	projectRoutes.Use(middleware.RequirePlatformSession(tokens))
	projectRoutes.POST("", projectHandler.CreateProject)
	projectRoutes.GET("", projectHandler.ListProjects)
	projectRoutes.GET("/:id", projectHandler.GetProject)
	projectRoutes.POST("/:id/environments", projectHandler.CreateEnvironment)
	projectRoutes.POST("/:id/environments/:env_id/rotate", projectHandler.RotateSecret)
	projectRoutes.PATCH("/:id/settings", projectHandler.UpdateSettings)

	tenantAuthRoutes := api.Group("/tenant/auth")
	tenantAuthRoutes.Use(middleware.RequirePublicEnvironment())
	tenantAuthRoutes.POST("/signup", tenantAuthHandler.Signup)
	tenantAuthRoutes.POST("/signin", tenantAuthHandler.Signin)
	tenantAuthRoutes.POST("/magic-link/start", tenantAuthHandler.MagicLinkStart)
	tenantAuthRoutes.POST("/magic-link/verify", tenantAuthHandler.MagicLinkVerify)
	tenantAuthRoutes.POST("/refresh", tenantAuthHandler.Refresh)
	tenantAuthRoutes.GET("/me", middleware.RequireTenantAccess(tokens), tenantAuthHandler.Me)

	tenantUserRoutes := api.Group("/tenant/users")
	tenantUserRoutes.Use(middleware.RequireStrictEnvironment())
	tenantUserRoutes.GET("", tenantAuthHandler.ListUsers)

	return &testEnv{
		db:             db,
		tokens:         tokens,
		hasher:         hasher,
		platformAuth:   platformAuth,
		tenantAuth:     tenantAuth,
		projectService: projectService,
		router:         r,
	}
}

func (env *testEnv) request(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range mutate {
		fn(req)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func strPtr(s string) *string {
	return &s
}

// createPlatformUser registers an operator and returns the user and session
// token.
func (env *testEnv) createPlatformUser(t *testing.T, email string) (*models.User, string) {
	t.Helper()

	user, session, err := env.platformAuth.Signup(services.PlatformSignupInput{
		Email:    email,
		Name:     "Operator",
		Password: strPtr("supersecret"),
	})
	require.NoError(t, err)
	return user, session
}

// createProject creates a project for the owner and returns the project and
// its development environment with the plaintext secret key.
func (env *testEnv) createProject(t *testing.T, ownerID, name string) (*models.Project, *services.CreatedEnvironment) {
	t.Helper()

	project, created, err := env.projectService.CreateProject(ownerID, name)
	require.NoError(t, err)
	return project, created
}

func withSession(session string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "auth-kit.session", Value: session})
	}
}

func withEnvironment(publishableKey string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("publishable-key", publishableKey)
	}
}

func withSecretKey(secretKey string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("secret-key", secretKey)
	}
}
