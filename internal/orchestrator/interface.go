package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/fabric-testbed/slicer/internal/model"
)

// Client submits resolved topologies to the external orchestrator.
//
// Submissions are never retried here and never compensated - cancellation
// after submission does not retract it.
type Client interface {
	// Submit hands a resolved topology to the orchestrator, returning
	// the accepted slice identifier.
	Submit(ctx context.Context, topo *model.ResolvedTopology) (uuid.UUID, error)
}
