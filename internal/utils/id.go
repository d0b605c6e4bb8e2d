package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/authkit/authkit/internal/constants"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomString returns a random string of the given length drawn from the
// alphanumeric alphabet. Collisions are cryptographically negligible;
// uniqueness is still enforced by database constraints, not here.
func RandomString(length int) (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateID returns an opaque identifier of the form "{prefix}_{random12}",
// e.g. "user_a1B2c3D4e5F6".
func GenerateID(prefix string) (string, error) {
	core, err := RandomString(constants.IDLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, core), nil
}

// GenerateMagicLinkToken returns the opaque single-use token embedded in
// magic link URLs.
func GenerateMagicLinkToken() (string, error) {
	return RandomString(constants.MagicLinkTokenLength)
}
