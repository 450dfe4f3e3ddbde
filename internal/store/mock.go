package store

import (
	"context"
	"sync"

	"github.com/fabric-testbed/slicer/internal/fixtures"
	"github.com/fabric-testbed/slicer/internal/model"
)

// MockSource serves fixture records and supports per-kind error injection.
type MockSource struct {
	mu sync.Mutex

	records map[model.Kind][]model.Record
	errs    map[model.Kind]error

	// FetchCount tracks fetches per kind for refresher tests.
	FetchCount map[model.Kind]int
}

// NewMockSource returns a Source serving the fixtures inventory.
func NewMockSource() *MockSource {
	return &MockSource{
		records: map[model.Kind][]model.Record{
			model.KindSites:         fixtures.Sites,
			model.KindHosts:         fixtures.Hosts,
			model.KindFacilityPorts: fixtures.FacilityPorts,
			model.KindLinks:         fixtures.Links,
		},
		errs:       map[model.Kind]error{},
		FetchCount: map[model.Kind]int{},
	}
}

// SetRecords replaces the records served for a kind.
func (s *MockSource) SetRecords(kind model.Kind, records []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[kind] = records
}

// SetError makes subsequent fetches of the kind fail with err, nil clears.
func (s *MockSource) SetError(kind model.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errs[kind] = err
}

// Fetches returns the fetch count for a kind.
func (s *MockSource) Fetches(kind model.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.FetchCount[kind]
}

// Fetch implements the Source interface.
func (s *MockSource) Fetch(_ context.Context, kind model.Kind) ([]model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FetchCount[kind]++

	if err := s.errs[kind]; err != nil {
		return nil, err
	}

	return s.records[kind], nil
}
