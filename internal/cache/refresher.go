package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabric-testbed/slicer/internal/metrics"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/store"
)

var ErrRefresh = errors.Wrap(model.ErrUpstreamFetch, "cache refresh")

// Refresher keeps the per-kind snapshot stores current by fetching from
// the inventory source on a fixed interval, one background loop per kind.
//
// A failed fetch leaves the previous snapshot published and retries with a
// backed-off delay capped at the refresh interval. A fetch that exceeds
// the per-cycle ceiling is truncated but still published - a
// partial-but-consistent inventory is preferred to none.
type Refresher struct {
	source store.Source
	stores store.Stores

	interval     time.Duration
	fetchTimeout time.Duration
	maxFetch     int

	kickChs map[model.Kind]chan struct{}
	syncWG  *sync.WaitGroup
	logger  *logrus.Logger
}

// New returns a Refresher for the given stores.
func New(source store.Source, stores store.Stores, interval, fetchTimeout time.Duration, maxFetch int, logger *logrus.Logger) *Refresher {
	kickChs := map[model.Kind]chan struct{}{}
	for kind := range stores {
		kickChs[kind] = make(chan struct{}, 1)
	}

	return &Refresher{
		source:       source,
		stores:       stores,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		maxFetch:     maxFetch,
		kickChs:      kickChs,
		syncWG:       &sync.WaitGroup{},
		logger:       logger,
	}
}

// Run starts one refresh loop per inventory kind and returns. The loops
// stop when ctx is canceled, Wait blocks until they have.
func (r *Refresher) Run(ctx context.Context) {
	r.logger.WithFields(logrus.Fields{
		"interval":  r.interval.String(),
		"max_fetch": r.maxFetch,
		"kinds":     len(r.stores),
	}).Info("cache refresher running")

	for kind := range r.stores {
		r.syncWG.Add(1)

		go func(kind model.Kind) {
			defer r.syncWG.Done()
			r.loop(ctx, kind)
		}(kind)
	}
}

// Wait blocks until all refresh loops have returned.
func (r *Refresher) Wait() {
	r.syncWG.Wait()
}

// Kick requests an immediate refresh of the given kind. It is idempotent
// and non-blocking - a kick during an in-flight fetch coalesces with it.
func (r *Refresher) Kick(kind model.Kind) {
	ch, ok := r.kickChs[kind]
	if !ok {
		return
	}

	select {
	case ch <- struct{}{}:
	default:
	}
}

// KickAll requests an immediate refresh of every kind.
func (r *Refresher) KickAll() {
	for kind := range r.kickChs {
		r.Kick(kind)
	}
}

// loop cycles Idle -> Fetching -> Publishing -> Idle until ctx is
// canceled. A manual kick pre-empts the idle wait, never an in-flight
// fetch.
func (r *Refresher) loop(ctx context.Context, kind model.Kind) {
	retry := &backoff.Backoff{
		Min:    time.Second,
		Max:    r.interval,
		Factor: 2,
		Jitter: true,
	}

	timer := time.NewTimer(0) // first refresh immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
		case <-r.kickChs[kind]:
		}

		err := r.refresh(ctx, kind)

		// a kick received while fetching coalesces with that fetch
		select {
		case <-r.kickChs[kind]:
		default:
		}

		delay := r.interval
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			delay = retry.Duration()

			r.logger.WithFields(logrus.Fields{
				"kind":  kind,
				"retry": delay.String(),
				"err":   err.Error(),
			}).Warn("inventory fetch failed, previous snapshot retained")
		} else {
			retry.Reset()
		}

		timer.Reset(delay)
	}
}

// refresh fetches records for a kind and publishes a new snapshot. On
// error no publish occurs and the previous snapshot remains current.
func (r *Refresher) refresh(ctx context.Context, kind model.Kind) error {
	startTS := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	records, err := r.source.Fetch(fetchCtx, kind)
	if err != nil {
		metrics.RefreshCounter.WithLabelValues(string(kind), "failed").Inc()
		return errors.Wrap(ErrRefresh, err.Error())
	}

	truncated := false
	if r.maxFetch > 0 && len(records) > r.maxFetch {
		records = records[:r.maxFetch]
		truncated = true

		metrics.RefreshTruncatedCount.WithLabelValues(string(kind)).Inc()
	}

	r.stores[kind].Publish(&model.Snapshot{
		Kind:      kind,
		Records:   records,
		FetchedAt: time.Now(),
		Truncated: truncated,
	})

	metrics.RefreshCounter.WithLabelValues(string(kind), "published").Inc()
	metrics.RefreshRunTimeSummary.WithLabelValues(string(kind)).Observe(time.Since(startTS).Seconds())

	r.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"records":   len(records),
		"truncated": truncated,
		"elapsed":   time.Since(startTS).String(),
	}).Debug("published inventory snapshot")

	return nil
}
