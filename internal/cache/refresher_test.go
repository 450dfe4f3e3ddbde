package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fabric-testbed/slicer/internal/fixtures"
	"github.com/fabric-testbed/slicer/internal/model"
	"github.com/fabric-testbed/slicer/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return logger
}

func newTestRefresher(source store.Source, interval time.Duration, maxFetch int) (*Refresher, store.Stores) {
	stores := store.NewStores()
	return New(source, stores, interval, time.Second, maxFetch, testLogger()), stores
}

func TestRefresherPublishes(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := store.NewMockSource()
	refresher, stores := newTestRefresher(source, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Run(ctx)

	require.Eventually(t, func() bool {
		for _, kind := range model.Kinds() {
			if stores[kind].Current().Empty() {
				return false
			}
		}

		return true
	}, time.Second, 10*time.Millisecond)

	snap := stores[model.KindSites].Current()
	assert.Len(t, snap.Records, len(fixtures.Sites))
	assert.False(t, snap.Truncated)
	assert.False(t, snap.FetchedAt.IsZero())

	cancel()
	refresher.Wait()
}

func TestRefresherFailureRetainsSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := store.NewMockSource()
	source.SetError(model.KindSites, errors.New("inventory unreachable"))

	refresher, stores := newTestRefresher(source, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Run(ctx)

	// hosts publish, sites stay on the primed empty snapshot
	require.Eventually(t, func() bool {
		return !stores[model.KindHosts].Current().Empty()
	}, time.Second, 10*time.Millisecond)

	primed := stores[model.KindSites].Current()
	assert.True(t, primed.Empty())
	assert.True(t, primed.FetchedAt.IsZero())

	// once the source recovers a kick publishes without waiting the interval
	source.SetError(model.KindSites, nil)
	refresher.Kick(model.KindSites)

	require.Eventually(t, func() bool {
		return !stores[model.KindSites].Current().Empty()
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	refresher.Wait()
}

func TestRefresherTruncates(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := store.NewMockSource()
	refresher, stores := newTestRefresher(source, time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Run(ctx)

	require.Eventually(t, func() bool {
		return !stores[model.KindSites].Current().Empty()
	}, time.Second, 10*time.Millisecond)

	snap := stores[model.KindSites].Current()
	assert.Len(t, snap.Records, 2)
	assert.True(t, snap.Truncated)

	cancel()
	refresher.Wait()
}

func TestRefresherKick(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := store.NewMockSource()
	refresher, stores := newTestRefresher(source, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Run(ctx)

	require.Eventually(t, func() bool {
		return !stores[model.KindSites].Current().Empty()
	}, time.Second, 10*time.Millisecond)

	fetched := source.Fetches(model.KindSites)

	refresher.Kick(model.KindSites)

	require.Eventually(t, func() bool {
		return source.Fetches(model.KindSites) > fetched
	}, time.Second, 10*time.Millisecond)

	// a kick for an unknown kind is a no-op
	refresher.Kick(model.Kind("bogus"))

	cancel()
	refresher.Wait()
}

func TestRefresherStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	source := store.NewMockSource()
	refresher, _ := newTestRefresher(source, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Run(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		refresher.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher loops did not stop on context cancel")
	}
}
