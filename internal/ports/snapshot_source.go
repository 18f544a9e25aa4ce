package ports

import (
	"context"
	"milk-collection-service/internal/domain"
)

// Port: supplies the active vendors, hubs and fleet for a run.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}
