package domain

import "github.com/google/uuid"

// IsID reports whether s is a well-formed entity id. Malformed ids are treated as missing entities.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
