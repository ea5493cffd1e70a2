package platform

import "github.com/google/uuid"

// NewID returns a random UUID used as the primary key of panel rows.
func NewID() string {
	return uuid.NewString()
}
