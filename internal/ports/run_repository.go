package ports

import (
	"context"
	"milk-collection-service/internal/domain"
)

// Port: a boundary for storing and retrieving completed runs.
type RunRepository interface {
	Save(ctx context.Context, run *domain.Run) error
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*domain.Run, error)
	// List returns runs newest first. An empty trigger matches every run.
	List(ctx context.Context, trigger domain.Trigger) ([]*domain.Run, error)
	// Latest returns the newest run of the trigger or domain.ErrNotFound.
	Latest(ctx context.Context, trigger domain.Trigger) (*domain.Run, error)
}
