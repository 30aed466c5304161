// Package uuid generates crawl run identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// NewRunID returns a UUIDv7 string. v7 IDs sort by creation time, so run IDs
// in logs and notifications order chronologically.
func NewRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

// ValidRunID reports whether s parses as a UUID of any version.
func ValidRunID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
