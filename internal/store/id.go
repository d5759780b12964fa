package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// User and session ids are a short kind prefix plus a random UUID in hex,
// e.g. "au-3f2a9c...".
const (
	userIDPrefix    = "au"
	sessionIDPrefix = "as"
)

func generateAuthID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("id prefix is required")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "-" + strings.ReplaceAll(id.String(), "-", ""), nil
}
