package ids

import (
	"github.com/google/uuid"
)

// Generator produces identifiers that can be mocked for testing
type Generator interface {
	// NewID returns a new globally unique identifier
	NewID() string
}

// UUIDGenerator implements Generator with random (v4) UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new UUIDv4 string
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}
