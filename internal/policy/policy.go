// Package policy evaluates a project's configurable password policy against a
// candidate password.
package policy

import (
	"fmt"
	"strings"

	"github.com/authkit/authkit/internal/models"
)

// SpecialCharacters is the fixed set accepted by the special-character rule.
const SpecialCharacters = "!@#$%^&*"

// MaxPasswordBytes is the hard ceiling on password length. bcrypt only
// consumes the first 72 bytes of its input, so anything longer must be
// rejected here rather than silently truncated or failed at hash time.
const MaxPasswordBytes = 72

// Violation describes the first policy rule a password failed. The message is
// surfaced to callers verbatim.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return v.Reason
}

func containsAny(password, set string) bool {
	return strings.ContainsAny(password, set)
}

// ValidatePassword checks the candidate against the project's settings.
// Checks run in a fixed order and short-circuit on the first failure: min
// length, max length, then each enabled character-class requirement. The
// effective maximum never exceeds MaxPasswordBytes even when the project's
// configured maximum is higher.
func ValidatePassword(password string, settings *models.ProjectSettings) error {
	if len(password) < settings.PasswordMinLength {
		return &Violation{Reason: fmt.Sprintf("Password must be at least %d characters long", settings.PasswordMinLength)}
	}

	maxLength := settings.PasswordMaxLength
	if maxLength > MaxPasswordBytes {
		maxLength = MaxPasswordBytes
	}
	if len(password) > maxLength {
		return &Violation{Reason: fmt.Sprintf("Password must be no more than %d characters", maxLength)}
	}

	if settings.PasswordRequireUppercase && !containsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return &Violation{Reason: "Password must contain at least one uppercase letter"}
	}

	if settings.PasswordRequireLowercase && !containsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		return &Violation{Reason: "Password must contain at least one lowercase letter"}
	}

	if settings.PasswordRequireNumbers && !containsAny(password, "0123456789") {
		return &Violation{Reason: "Password must contain at least one number"}
	}

	if settings.PasswordRequireSpecial && !containsAny(password, SpecialCharacters) {
		return &Violation{Reason: "Password must contain at least one special character"}
	}

	return nil
}
