package store

import (
	"context"

	"github.com/fabric-testbed/slicer/internal/model"
)

// Source supplies raw inventory records for snapshot construction.
//
// Failure modes are opaque to the cache - a fetch either returns records or
// an error, and on error the previously published snapshot stays current.
type Source interface {
	// Fetch returns the current records of the given kind from the
	// upstream inventory.
	Fetch(ctx context.Context, kind model.Kind) ([]model.Record, error)
}
