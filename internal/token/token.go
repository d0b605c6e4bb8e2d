// Package token issues and verifies the three signed token kinds: platform
// sessions, tenant access tokens and tenant refresh tokens. Verification
// always enforces the expected audience, so a refresh token can never pass
// where an access token is required.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authkit/authkit/internal/constants"
)

// Audience tags the purpose a token was issued for.
type Audience string

const (
	AudienceAccess   Audience = "access"
	AudienceRefresh  Audience = "refresh"
	AudiencePlatform Audience = "platform"
)

var (
	// ErrInvalidToken covers signature mismatch, expiry and malformed input.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrAudienceMismatch is returned when a structurally valid token was
	// issued for a different audience than the caller expects.
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// Payload is the verified content of a token.
type Payload struct {
	UserID    string
	ProjectID string
	Type      Audience
}

type claims struct {
	UserID    string   `json:"userId"`
	ProjectID string   `json:"projectId,omitempty"`
	TokenType Audience `json:"type"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a process-wide HS256 secret fixed at
// startup.
type Service struct {
	secret []byte
	now    func() time.Time
}

// New creates a token Service. An empty secret is a configuration error and
// must abort startup.
func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is not set")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

func (s *Service) issue(userID, projectID string, audience Audience, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		UserID:    userID,
		ProjectID: projectID,
		TokenType: audience,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", audience, err)
	}
	return signed, nil
}

// IssueAccess returns a short lived tenant access token.
func (s *Service) IssueAccess(userID, projectID string) (string, error) {
	return s.issue(userID, projectID, AudienceAccess, constants.AccessTokenTTL)
}

// IssueRefresh returns a tenant refresh token.
func (s *Service) IssueRefresh(userID, projectID string) (string, error) {
	return s.issue(userID, projectID, AudienceRefresh, constants.RefreshTokenTTL)
}

// IssuePlatform returns a platform session token.
func (s *Service) IssuePlatform(userID string) (string, error) {
	return s.issue(userID, "", AudiencePlatform, constants.PlatformTokenTTL)
}

// Verify parses and validates a token and enforces that it was issued for the
// expected audience. Any structural, signature or expiry failure is
// ErrInvalidToken; a wrong audience is ErrAudienceMismatch.
func (s *Service) Verify(raw string, expected Audience) (*Payload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	if c.TokenType != expected {
		return nil, ErrAudienceMismatch
	}

	return &Payload{
		UserID:    c.UserID,
		ProjectID: c.ProjectID,
		Type:      c.TokenType,
	}, nil
}
