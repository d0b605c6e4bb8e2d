// Package keys generates environment key pairs. Publishable keys identify an
// environment to any caller; secret keys prove privileged possession and are
// stored only as a hash.
package keys

import (
	"fmt"

	"github.com/authkit/authkit/internal/constants"
	"github.com/authkit/authkit/internal/hash"
	"github.com/authkit/authkit/internal/models"
	"github.com/authkit/authkit/internal/utils"
)

// EnvironmentKeys is the result of a key generation or rotation. SecretKey is
// the only place the plaintext secret ever appears; it is never persisted.
type EnvironmentKeys struct {
	PublishableKey string
	SecretKey      string
	SecretKeyHash  string
}

func keyPrefix(envType models.EnvironmentType) string {
	if envType == models.EnvironmentProduction {
		return "live"
	}
	return "test"
}

// GenerateEnvironmentKeys draws two independent random cores and builds
// "pk_{test|live}_{core}" / "sk_{test|live}_{core}" keys. An exact core
// collision triggers a redraw of the secret core.
func GenerateEnvironmentKeys(envType models.EnvironmentType, hasher *hash.Hasher) (*EnvironmentKeys, error) {
	prefix := keyPrefix(envType)

	publishableCore, err := utils.RandomString(constants.EnvironmentKeyLength)
	if err != nil {
		return nil, err
	}

	secretCore, err := utils.RandomString(constants.EnvironmentKeyLength)
	if err != nil {
		return nil, err
	}
	for secretCore == publishableCore {
		secretCore, err = utils.RandomString(constants.EnvironmentKeyLength)
		if err != nil {
			return nil, err
		}
	}

	secretKey := fmt.Sprintf("sk_%s_%s", prefix, secretCore)
	secretKeyHash, err := hasher.Hash(secretKey)
	if err != nil {
		return nil, err
	}

	return &EnvironmentKeys{
		PublishableKey: fmt.Sprintf("pk_%s_%s", prefix, publishableCore),
		SecretKey:      secretKey,
		SecretKeyHash:  secretKeyHash,
	}, nil
}

// VerifySecretKey reports whether a presented secret key matches the stored
// hash.
func VerifySecretKey(secretKey, secretKeyHash string) bool {
	return hash.Verify(secretKey, secretKeyHash)
}
