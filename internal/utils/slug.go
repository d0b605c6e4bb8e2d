package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var slugAdjectives = []string{
	"autumn", "bold", "broken", "calm", "crimson", "damp", "dawn", "divine",
	"dry", "empty", "falling", "fragrant", "frosty", "gentle", "green",
	"hidden", "holy", "icy", "late", "lingering", "little", "lively", "long",
	"misty", "morning", "muddy", "nameless", "old", "patient", "polished",
	"proud", "purple", "quiet", "rapid", "restless", "rough", "shy",
	"silent", "small", "snowy", "solitary", "sparkling", "spring", "still",
	"summer", "twilight", "wandering", "weathered", "white", "wild", "winter",
}

var slugNouns = []string{
	"bird", "breeze", "brook", "bush", "butterfly", "cherry", "cloud",
	"darkness", "dawn", "dew", "dream", "dust", "feather", "field", "fire",
	"firefly", "flower", "fog", "forest", "frog", "frost", "glade", "glitter",
	"grass", "haze", "hill", "lake", "leaf", "meadow", "moon", "morning",
	"mountain", "night", "paper", "pine", "pond", "rain", "resonance",
	"river", "sea", "shadow", "shape", "silence", "sky", "smoke", "snow",
	"sound", "star", "sun", "sunset", "surf", "thunder", "tree", "violet",
	"voice", "water", "waterfall", "wave", "wildflower", "wind", "wood",
}

func pick(words []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("failed to pick slug word: %w", err)
	}
	return words[n.Int64()], nil
}

// GenerateSlug returns a human-readable project slug in the form
// "adjective-noun-NNNN". Global uniqueness is enforced by the projects
// table's unique index; the numeric suffix keeps retries cheap.
func GenerateSlug() (string, error) {
	adj, err := pick(slugAdjectives)
	if err != nil {
		return "", err
	}
	noun, err := pick(slugNouns)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", adj, noun, n.Int64()), nil
}
