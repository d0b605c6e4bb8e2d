package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/authkit/authkit/internal/dto"
	apierrors "github.com/authkit/authkit/internal/errors"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/services"
)

// tenantFixture is a project with a development environment ready for tenant
// flows.
type tenantFixture struct {
	project *models.Project
	created *services.CreatedEnvironment
}

func setupTenantFixture(t *testing.T, env *testEnv) tenantFixture {
	t.Helper()

	owner, _ := env.createPlatformUser(t, "owner@example.com")
	project, created := env.createProject(t, owner.ID, "Acme")
	return tenantFixture{project: project, created: created}
}

func (f tenantFixture) updateSettings(t *testing.T, env *testEnv, changes map[string]any) {
	t.Helper()
	err := env.db.Model(&models.ProjectSettings{}).
		Where("project_id = ?", f.project.ID).
		Updates(changes).Error
	require.NoError(t, err)
}

func TestTenantSignup(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TenantSessionDTO
	decodeBody(t, w, &response)
	require.Equal(t, "alice@example.com", response.User.Email)
	require.Equal(t, "member", string(response.User.Role))
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)
	require.NotEqual(t, response.AccessToken, response.RefreshToken)

	// Verification not required, so the account starts verified.
	require.True(t, response.User.EmailVerified)
}

func TestTenantSignup_EmailVerificationRequired(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"email_verification_required": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.TenantSessionDTO
	decodeBody(t, w, &response)
	require.False(t, response.User.EmailVerified)
}

func TestTenantSignup_MissingEnvironmentKey(t *testing.T) {
	env := setupTestEnv(t)
	setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantSignup_UsernameRequired(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_username": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Username is required", response.Message)
}

func TestTenantSignup_PasswordRequired(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email": "alice@example.com",
		"name":  "Alice",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Password is required", response.Message)
}

func TestTenantSignup_PolicyViolation(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"password_require_uppercase": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Password must contain at least one uppercase letter", response.Message)
}

// A password under the configured maximum but over the bcrypt input limit is
// a policy violation, not an internal error.
func TestTenantSignup_PasswordOverBcryptLimit(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": strings.Repeat("a", 100),
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Password must be no more than 72 characters", response.Message)
}

func TestTenantSignup_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	signup := func() int {
		w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
			"email":    "alice@example.com",
			"name":     "Alice",
			"password": "password123",
		}, withEnvironment(f.created.Environment.PublishableKey))
		return w.Code
	}

	require.Equal(t, http.StatusCreated, signup())
	require.Equal(t, http.StatusConflict, signup())

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("email = ?", "alice@example.com").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestTenantSignup_DuplicateUsername(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_username": true})

	signup := func(email string) int {
		w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
			"email":    email,
			"name":     "Alice",
			"username": "alice",
			"password": "password123",
		}, withEnvironment(f.created.Environment.PublishableKey))
		return w.Code
	}

	require.Equal(t, http.StatusCreated, signup("alice@example.com"))
	require.Equal(t, http.StatusConflict, signup("alice2@example.com"))
}

func TestTenantSignin_ByEmail(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	envCtx := services.EnvironmentContext{
		EnvironmentID: f.created.Environment.ID,
		ProjectID:     f.project.ID,
		Settings:      f.project.Settings,
	}
	_, _, _, err := env.tenantAuth.Signup(envCtx, services.TenantSignupInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: strPtr("password123"),
	})
	require.NoError(t, err)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice@example.com",
		"password":   "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TenantSessionDTO
	decodeBody(t, w, &response)
	require.Equal(t, "alice@example.com", response.User.Email)
	require.NotEmpty(t, response.AccessToken)
}

func TestTenantSignin_ByUsername(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_username": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"username": "alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice",
		"password":   "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)
}

// Identical emails in different projects are distinct users; signin must
// resolve through the project-scoped link, never a global email lookup.
func TestTenantSignin_ProjectScoped(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	otherOwner, _ := env.createPlatformUser(t, "other-owner@example.com")
	_, otherCreated := env.createProject(t, otherOwner.ID, "Globex")

	// alice signs up only in the Globex project.
	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(otherCreated.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	// Signing in against Acme's environment must not find her.
	w = env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice@example.com",
		"password":   "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// But the original project still works.
	w = env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice@example.com",
		"password":   "password123",
	}, withEnvironment(otherCreated.Environment.PublishableKey))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTenantSignin_PasswordlessDirective(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email": "alice@example.com",
		"name":  "Alice",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	// Signin without a password is a directive, not a generic failure.
	w = env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice@example.com",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Please use magic link to sign in", response.Message)
}

func TestTenantSignin_NoPasswordSet(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email": "alice@example.com",
		"name":  "Alice",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/tenant/auth/signin", map[string]any{
		"identifier": "alice@example.com",
		"password":   "whatever123",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMagicLink_StartAndVerify(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email": "alice@example.com",
		"name":  "Alice",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/start", map[string]any{
		"email": "alice@example.com",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)

	var startResponse struct {
		MagicURL string `json:"magic_url"`
	}
	decodeBody(t, w, &startResponse)
	require.Contains(t, startResponse.MagicURL, "http://localhost:3000/auth/verify?token=")

	var link models.MagicLink
	require.NoError(t, env.db.Where("project_id = ?", f.project.ID).First(&link).Error)
	require.Contains(t, startResponse.MagicURL, link.Token)

	w = env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": link.Token,
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TenantSessionDTO
	decodeBody(t, w, &response)
	require.Equal(t, "alice@example.com", response.User.Email)
	require.True(t, response.User.EmailVerified)
	require.NotEmpty(t, response.AccessToken)

	// Replay always fails: the link is forever consumed.
	w = env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": link.Token,
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var replayResponse apierrors.APIError
	decodeBody(t, w, &replayResponse)
	require.Equal(t, "Magic link has already been used", replayResponse.Message)
}

func TestMagicLinkStart_RequiresPasswordless(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/start", map[string]any{
		"email": "alice@example.com",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

// Starting a link for an unknown email is NotFound: start never creates
// accounts.
func TestMagicLinkStart_UnknownEmail(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/start", map[string]any{
		"email": "nobody@example.com",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMagicLinkVerify_UnknownToken(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": "nonexistent",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Invalid or expired magic link", response.Message)
}

func TestMagicLinkVerify_Expired(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	link := models.MagicLink{
		ID:            "magic_expired00001",
		ProjectID:     f.project.ID,
		EnvironmentID: f.created.Environment.ID,
		Email:         "alice@example.com",
		Token:         "expiredtoken",
		ExpiresAt:     time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(&link).Error)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": "expiredtoken",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response apierrors.APIError
	decodeBody(t, w, &response)
	require.Equal(t, "Magic link has expired", response.Message)
}

// A magic link with no prior account auto-registers the email on verify.
func TestMagicLinkVerify_AutoRegistration(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	link := models.MagicLink{
		ID:            "magic_newuser00001",
		ProjectID:     f.project.ID,
		EnvironmentID: f.created.Environment.ID,
		Email:         "newcomer@example.com",
		Token:         "newusertoken",
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, env.db.Create(&link).Error)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": "newusertoken",
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TenantSessionDTO
	decodeBody(t, w, &response)
	require.Equal(t, "newcomer@example.com", response.User.Email)
	require.Equal(t, "newcomer", response.User.Name)
	require.True(t, response.User.EmailVerified)

	var createdLink models.ProjectUserLink
	require.NoError(t, env.db.Where("project_id = ? AND user_id = ?", f.project.ID, response.User.ID).First(&createdLink).Error)
}

// Tokens are scoped to project+environment; the same token presented through
// a different environment's keys must not resolve.
func TestMagicLinkVerify_CrossEnvironment(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)
	f.updateSettings(t, env, map[string]any{"enable_passwordless": true})

	otherOwner, _ := env.createPlatformUser(t, "other-owner@example.com")
	_, otherCreated := env.createProject(t, otherOwner.ID, "Globex")

	link := models.MagicLink{
		ID:            "magic_scoped000001",
		ProjectID:     f.project.ID,
		EnvironmentID: f.created.Environment.ID,
		Email:         "alice@example.com",
		Token:         "scopedtoken",
		ExpiresAt:     time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, env.db.Create(&link).Error)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/magic-link/verify", map[string]any{
		"token": "scopedtoken",
	}, withEnvironment(otherCreated.Environment.PublishableKey))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTenantRefresh(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	var session dto.TenantSessionDTO
	decodeBody(t, w, &session)

	w = env.request(t, http.MethodPost, "/api/tenant/auth/refresh", map[string]any{
		"refresh_token": session.RefreshToken,
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusOK, w.Code)

	var refreshed dto.TenantSessionDTO
	decodeBody(t, w, &refreshed)
	require.Equal(t, session.User.ID, refreshed.User.ID)
	require.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted where a refresh token is expected.
	w = env.request(t, http.MethodPost, "/api/tenant/auth/refresh", map[string]any{
		"refresh_token": session.AccessToken,
	}, withEnvironment(f.created.Environment.PublishableKey))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantMe(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	var session dto.TenantSessionDTO
	decodeBody(t, w, &session)

	withBearer := func(tok string) func(*http.Request) {
		return func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	w = env.request(t, http.MethodGet, "/api/tenant/auth/me", nil,
		withEnvironment(f.created.Environment.PublishableKey), withBearer(session.AccessToken))

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		User dto.UserDTO `json:"user"`
	}
	decodeBody(t, w, &response)
	require.Equal(t, session.User.ID, response.User.ID)

	// A refresh token must not pass the access guard.
	w = env.request(t, http.MethodGet, "/api/tenant/auth/me", nil,
		withEnvironment(f.created.Environment.PublishableKey), withBearer(session.RefreshToken))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantListUsers_StrictGuard(t *testing.T) {
	env := setupTestEnv(t)
	f := setupTenantFixture(t, env)

	w := env.request(t, http.MethodPost, "/api/tenant/auth/signup", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "password123",
	}, withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusCreated, w.Code)

	// Publishable key alone is not enough.
	w = env.request(t, http.MethodGet, "/api/tenant/users", nil,
		withEnvironment(f.created.Environment.PublishableKey))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong secret fails with the exact same response as an unknown key.
	w = env.request(t, http.MethodGet, "/api/tenant/users", nil,
		withEnvironment(f.created.Environment.PublishableKey), withSecretKey("sk_test_wrong"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongSecretBody := w.Body.String()

	w = env.request(t, http.MethodGet, "/api/tenant/users", nil,
		withEnvironment("pk_test_unknown"), withSecretKey("sk_test_wrong"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, wrongSecretBody, w.Body.String())

	// The real secret works.
	w = env.request(t, http.MethodGet, "/api/tenant/users", nil,
		withEnvironment(f.created.Environment.PublishableKey), withSecretKey(f.created.SecretKey))
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TenantUserListDTO
	decodeBody(t, w, &response)
	require.EqualValues(t, 2, response.Total) // owner link + alice
	require.Len(t, response.Users, 2)
}
