package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/authkit/authkit/internal/models"
)

func baseSettings() *models.ProjectSettings {
	return &models.ProjectSettings{
		PasswordMinLength: 8,
		PasswordMaxLength: 128,
	}
}

func TestValidatePassword_Defaults(t *testing.T) {
	require.NoError(t, ValidatePassword("longenough", baseSettings()))
}

func TestValidatePassword_MinLength(t *testing.T) {
	err := ValidatePassword("short", baseSettings())
	require.Error(t, err)
	require.Equal(t, "Password must be at least 8 characters long", err.Error())
}

func TestValidatePassword_MaxLength(t *testing.T) {
	settings := baseSettings()
	settings.PasswordMaxLength = 10

	err := ValidatePassword("waytoolongpassword", settings)
	require.Error(t, err)
	require.Equal(t, "Password must be no more than 10 characters", err.Error())
}

// Even when the configured maximum allows it, a password longer than bcrypt
// can consume is a policy violation, not a hashing failure.
func TestValidatePassword_BcryptCeiling(t *testing.T) {
	settings := baseSettings()
	require.Equal(t, 128, settings.PasswordMaxLength)

	err := ValidatePassword(strings.Repeat("a", 100), settings)
	require.Error(t, err)
	require.Equal(t, "Password must be no more than 72 characters", err.Error())

	require.NoError(t, ValidatePassword(strings.Repeat("a", 72), settings))

	// A configured maximum below the ceiling still reports its own bound.
	settings.PasswordMaxLength = 10
	err = ValidatePassword(strings.Repeat("a", 11), settings)
	require.Error(t, err)
	require.Equal(t, "Password must be no more than 10 characters", err.Error())
}

func TestValidatePassword_CharacterClasses(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*models.ProjectSettings)
		password  string
		wantErr   string
	}{
		{
			name:      "uppercase missing",
			configure: func(s *models.ProjectSettings) { s.PasswordRequireUppercase = true },
			password:  "lowercase1!",
			wantErr:   "Password must contain at least one uppercase letter",
		},
		{
			name:      "lowercase missing",
			configure: func(s *models.ProjectSettings) { s.PasswordRequireLowercase = true },
			password:  "UPPERCASE1!",
			wantErr:   "Password must contain at least one lowercase letter",
		},
		{
			name:      "number missing",
			configure: func(s *models.ProjectSettings) { s.PasswordRequireNumbers = true },
			password:  "NoNumbers!",
			wantErr:   "Password must contain at least one number",
		},
		{
			name:      "special missing",
			configure: func(s *models.ProjectSettings) { s.PasswordRequireSpecial = true },
			password:  "NoSpecial1",
			wantErr:   "Password must contain at least one special character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := baseSettings()
			tt.configure(settings)

			err := ValidatePassword(tt.password, settings)
			require.Error(t, err)
			require.Equal(t, tt.wantErr, err.Error())

			var violation *Violation
			require.ErrorAs(t, err, &violation)
		})
	}
}

// A password violating several rules at once always reports them in policy
// order: length bounds first, then character classes.
func TestValidatePassword_OrderSensitive(t *testing.T) {
	settings := baseSettings()
	settings.PasswordRequireUppercase = true
	settings.PasswordRequireNumbers = true

	err := ValidatePassword("abc", settings)
	require.Error(t, err)
	require.Equal(t, "Password must be at least 8 characters long", err.Error())

	err = ValidatePassword("abcdefgh", settings)
	require.Error(t, err)
	require.Equal(t, "Password must contain at least one uppercase letter", err.Error())

	err = ValidatePassword("Abcdefgh", settings)
	require.Error(t, err)
	require.Equal(t, "Password must contain at least one number", err.Error())

	require.NoError(t, ValidatePassword("Abcdefg1", settings))
}

func TestValidatePassword_SpecialSet(t *testing.T) {
	settings := baseSettings()
	settings.PasswordRequireSpecial = true

	for _, ch := range SpecialCharacters {
		require.NoError(t, ValidatePassword("password"+string(ch), settings))
	}

	// Characters outside the fixed set do not satisfy the rule.
	err := ValidatePassword("password-", settings)
	require.Error(t, err)
}
