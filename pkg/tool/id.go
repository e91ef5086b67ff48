package tool

import "github.com/google/uuid"

func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateToken returns a random opaque value for lock ownership and trace ids.
func GenerateToken() string {
	return uuid.NewString()
}
