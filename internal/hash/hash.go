package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor applied to user passwords and
// environment secret keys alike.
const DefaultCost = 12

// Hasher performs one-way credential hashing with a fixed work factor.
type Hasher struct {
	cost int
}

// New returns a Hasher with the given bcrypt cost. A misconfigured cost is a
// startup error, not a per-request condition.
func New(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns the bcrypt digest of the secret.
func (h *Hasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the secret matches the digest. The digest embeds its
// own cost, so verification needs no Hasher state.
func Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
