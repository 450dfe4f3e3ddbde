package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/slicer/internal/fixtures"
	"github.com/fabric-testbed/slicer/internal/model"
)

func TestStoreInitialSnapshot(t *testing.T) {
	s := New(model.KindSites)

	snap := s.Current()
	require.NotNil(t, snap)

	assert.Equal(t, model.KindSites, snap.Kind)
	assert.True(t, snap.Empty())
}

func TestStorePublishCurrent(t *testing.T) {
	s := New(model.KindSites)

	published := &model.Snapshot{
		Kind:      model.KindSites,
		Records:   fixtures.Sites,
		FetchedAt: time.Now(),
	}

	s.Publish(published)

	snap := s.Current()
	assert.Equal(t, published, snap)
	assert.Len(t, snap.Records, len(fixtures.Sites))
}

// readers observe either the old or the new snapshot, never a torn one
func TestStoreConcurrentReaders(t *testing.T) {
	s := New(model.KindSites)

	var wg sync.WaitGroup

	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-stop:
					return
				default:
				}

				snap := s.Current()
				assert.NotNil(t, snap)
				assert.Equal(t, model.KindSites, snap.Kind)
				assert.True(t, len(snap.Records) == 0 || len(snap.Records) == len(fixtures.Sites))
			}
		}()
	}

	for i := 0; i < 100; i++ {
		s.Publish(&model.Snapshot{
			Kind:      model.KindSites,
			Records:   fixtures.Sites,
			FetchedAt: time.Now(),
		})
	}

	close(stop)
	wg.Wait()
}

func TestNewStoresCoversAllKinds(t *testing.T) {
	stores := NewStores()

	assert.Len(t, stores, len(model.Kinds()))

	for _, kind := range model.Kinds() {
		st, ok := stores[kind]
		require.True(t, ok, kind)
		assert.Equal(t, kind, st.Kind())
	}
}
