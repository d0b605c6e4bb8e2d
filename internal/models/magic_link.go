package models

import "time"

// MagicLink is a single-use, time-bounded passwordless sign-in token scoped
// to a project and environment. Once ConsumedAt is set the link is
// permanently invalid; expired links are rejected lazily at verify time.
type MagicLink struct {
	ID            string     `gorm:"type:varchar(64);primarykey" json:"id"`
	ProjectID     string     `gorm:"type:varchar(64);not null;index" json:"project_id"`
	EnvironmentID string     `gorm:"type:varchar(64);not null;index" json:"environment_id"`
	UserID        *string    `gorm:"type:varchar(64)" json:"user_id"`
	Email         string     `gorm:"type:varchar(255);not null" json:"email"`
	Token         string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt    *time.Time `json:"consumed_at"`
	CreatedAt     time.Time  `json:"created_at"`

	// Relations
	Project     Project            `gorm:"foreignKey:ProjectID" json:"-"`
	Environment ProjectEnvironment `gorm:"foreignKey:EnvironmentID" json:"-"`
	User        *User              `gorm:"foreignKey:UserID" json:"-"`
}

// Expired reports whether the link is no longer valid at t. The expiry
// instant itself counts as expired.
func (m *MagicLink) Expired(t time.Time) bool {
	return !t.Before(m.ExpiresAt)
}

// Consumed reports whether the link has already been used.
func (m *MagicLink) Consumed() bool {
	return m.ConsumedAt != nil
}
