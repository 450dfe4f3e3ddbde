package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fabric-testbed/slicer/internal/model"
)

// MockClient records submissions and supports error injection.
type MockClient struct {
	mu sync.Mutex

	Submitted []*model.ResolvedTopology
	Err       error
}

// NewMockClient returns an orchestrator client that accepts everything.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Submit implements the Client interface.
func (c *MockClient) Submit(_ context.Context, topo *model.ResolvedTopology) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		return uuid.Nil, c.Err
	}

	c.Submitted = append(c.Submitted, topo)

	return uuid.New(), nil
}
