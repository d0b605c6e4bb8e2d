package constants

import "time"

// Session and credential transport
const (
	SessionCookieName    = "auth-kit.session"
	HeaderPublishableKey = "publishable-key"
	HeaderSecretKey      = "secret-key"
)

// Context keys set by the middleware chain
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUser        = "user"
	ContextKeyEnvironment = "environment"
	ContextKeyTenantUser  = "tenant_user"
)

// Token lifetimes
const (
	AccessTokenTTL   = 15 * time.Minute
	RefreshTokenTTL  = 7 * 24 * time.Hour
	PlatformTokenTTL = 7 * 24 * time.Hour

	MagicLinkTTL = 15 * time.Minute
)

// Generated identifier sizes
const (
	IDLength             = 12
	EnvironmentKeyLength = 24
	MagicLinkTokenLength = 32
)

// SessionMaxAge is the platform session cookie max-age in seconds.
const SessionMaxAge = int(PlatformTokenTTL / time.Second)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PlatformPasswordMinLength applies to platform operator accounts; tenant
// password rules come from each project's settings.
const PlatformPasswordMinLength = 8
