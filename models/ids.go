package models

import "github.com/google/uuid"

// NewID returns a fresh entity identity.
func NewID() string {
	return uuid.NewString()
}
