package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabric-testbed/slicer/internal/app"
	"github.com/fabric-testbed/slicer/internal/cache"
	"github.com/fabric-testbed/slicer/internal/metrics"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/orchestrator"
	"github.com/fabric-testbed/slicer/internal/query"
	"github.com/fabric-testbed/slicer/internal/store"
	"github.com/fabric-testbed/slicer/internal/topology"
)

var ErrUnknownKind = errors.Wrap(model.ErrValidation, "unknown inventory kind")

// Service is the query/command surface exposed to the surrounding
// protocol layer - inventory queries over the cached snapshots, slice
// topology builds and modifications, and the manual refresh trigger.
type Service struct {
	stores       store.Stores
	refresher    *cache.Refresher
	orchestrator orchestrator.Client
	config       *app.Configuration
	logger       *logrus.Logger
}

// New returns a Service. The refresher may be nil when snapshots are
// published by other means (client commands, tests).
func New(stores store.Stores, refresher *cache.Refresher, client orchestrator.Client, config *app.Configuration, logger *logrus.Logger) *Service {
	return &Service{
		stores:       stores,
		refresher:    refresher,
		orchestrator: client,
		config:       config,
		logger:       logger,
	}
}

// Query evaluates a filter/sort/pagination request against the current
// snapshot of the given kind. A stale snapshot is never an error - the
// best available data is returned.
func (s *Service) Query(ctx context.Context, kind model.Kind, filter query.Filter, sortSpec *query.Sort, limit, offset int) (*query.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, ok := s.stores[kind]
	if !ok {
		metrics.QueryCounter.WithLabelValues(string(kind), "invalid").Inc()
		return nil, errors.Wrap(ErrUnknownKind, string(kind))
	}

	if limit <= 0 {
		limit = s.config.PageLimitDefault
	}

	if s.config.PageLimitMax > 0 && limit > s.config.PageLimitMax {
		limit = s.config.PageLimitMax
	}

	startTS := time.Now()

	page, err := query.Run(st.Current(), filter, sortSpec, limit, offset, query.Options{
		FetchCeiling: s.config.CacheMaxFetch,
		SortCeiling:  s.config.MaxFetchForSort,
	})
	if err != nil {
		metrics.QueryCounter.WithLabelValues(string(kind), "invalid").Inc()
		return nil, err
	}

	metrics.QueryCounter.WithLabelValues(string(kind), "ok").Inc()
	metrics.QueryRunTimeSummary.WithLabelValues(string(kind)).Observe(time.Since(startTS).Seconds())

	return page, nil
}

// Build compiles a BuildSpec into a ResolvedTopology against the current
// site snapshot. No partial topology is returned on error.
func (s *Service) Build(ctx context.Context, spec *model.BuildSpec) (*model.ResolvedTopology, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builder := topology.NewBuilder(s.stores[model.KindSites].Current(), s.logger)

	topo, err := builder.Build(spec)
	if err != nil {
		metrics.BuildCounter.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.BuildCounter.WithLabelValues("resolved").Inc()

	return topo, nil
}

// Modify reconciles a ModifyDiff against an existing topology. Removals
// always execute before additions. The default is all-or-nothing.
func (s *Service) Modify(ctx context.Context, existing *model.ResolvedTopology, diff *model.ModifyDiff, opts ...topology.ReconcileOption) (*model.ModifyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	builder := topology.NewBuilder(s.stores[model.KindSites].Current(), s.logger)

	result, err := builder.Reconcile(existing, diff, opts...)
	if err != nil {
		metrics.ModifyCounter.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.ModifyCounter.WithLabelValues("resolved").Inc()

	return result, nil
}

// Submit hands a resolved topology to the orchestrator. Submission is
// never retried and a cancellation after submission does not retract it.
func (s *Service) Submit(ctx context.Context, topo *model.ResolvedTopology) (uuid.UUID, error) {
	return s.orchestrator.Submit(ctx, topo)
}

// Refresh triggers an immediate cache refresh of the given kind,
// coalescing with any in-flight refresh.
func (s *Service) Refresh(kind model.Kind) error {
	if _, ok := s.stores[kind]; !ok {
		return errors.Wrap(ErrUnknownKind, string(kind))
	}

	if s.refresher != nil {
		s.refresher.Kick(kind)
	}

	return nil
}

// RefreshAll triggers an immediate refresh of every inventory kind.
func (s *Service) RefreshAll() {
	if s.refresher != nil {
		s.refresher.KickAll()
	}
}
