package id

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateID creates a unique 16-character hexadecimal ID.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
