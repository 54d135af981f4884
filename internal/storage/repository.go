package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/grid-test-engine/internal/models"
)

// ErrNotFound is returned when a generated test does not exist
var ErrNotFound = errors.New("generated test not found")

// Repository defines the interface for generated test persistence
type Repository interface {
	// Count returns the number of persisted generated tests
	Count(ctx context.Context) (int, error)

	// Save writes a generated test, replacing any test with the same id
	Save(ctx context.Context, test *models.Topic) error

	Get(ctx context.Context, id string) (*models.Topic, error)
	List(ctx context.Context) ([]models.GeneratedTestSummary, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
