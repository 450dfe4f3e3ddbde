package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-testbed/slicer/internal/fixtures"
	"github.com/fabric-testbed/slicer/internal/model"
)

func snapshot(records []model.Record) *model.Snapshot {
	return &model.Snapshot{
		Kind:      model.KindSites,
		Records:   records,
		FetchedAt: time.Now(),
	}
}

func names(items []model.Record) []string {
	found := make([]string, 0, len(items))
	for _, item := range items {
		found = append(found, item.Name())
	}

	return found
}

func TestRunFilter(t *testing.T) {
	testcases := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{
			"nil filter matches all",
			nil,
			[]string{"RENC", "UCSD", "STAR"},
		},
		{
			"bare value is eq shorthand",
			Filter{"name": "RENC"},
			[]string{"RENC"},
		},
		{
			"gte on numeric field",
			Filter{"cores_available": map[string]interface{}{"gte": 64}},
			[]string{"RENC", "STAR"},
		},
		{
			"lt on numeric field",
			Filter{"cores_available": map[string]interface{}{"lt": 64}},
			[]string{"UCSD"},
		},
		{
			"numeric coercion across int and float",
			Filter{"cores_available": map[string]interface{}{"eq": float64(90)}},
			[]string{"RENC"},
		},
		{
			"top level keys conjoin",
			Filter{
				"ptp_capable":     true,
				"cores_available": map[string]interface{}{"gte": 64},
			},
			[]string{"RENC", "STAR"},
		},
		{
			"ne excludes",
			Filter{"name": map[string]interface{}{"ne": "UCSD"}},
			[]string{"RENC", "STAR"},
		},
		{
			"in over list operand",
			Filter{"name": map[string]interface{}{"in": []interface{}{"UCSD", "STAR"}}},
			[]string{"UCSD", "STAR"},
		},
		{
			"contains substring on string field",
			Filter{"address": map[string]interface{}{"contains": "Chapel"}},
			[]string{"RENC"},
		},
		{
			"contains is case sensitive",
			Filter{"address": map[string]interface{}{"contains": "chapel"}},
			[]string{},
		},
		{
			"icontains folds case",
			Filter{"address": map[string]interface{}{"icontains": "chapel"}},
			[]string{"RENC"},
		},
		{
			"contains on mapping matches keys",
			Filter{"components": map[string]interface{}{"contains": "GPU-Tesla T4"}},
			[]string{"RENC"},
		},
		{
			"icontains on mapping",
			Filter{"components": map[string]interface{}{"icontains": "smartnic"}},
			[]string{"RENC", "STAR"},
		},
		{
			"contains on list matches stringified elements",
			Filter{"hosts": map[string]interface{}{"contains": "star-w2"}},
			[]string{"STAR"},
		},
		{
			"regex on stringified value",
			Filter{"name": map[string]interface{}{"regex": "^(RENC|STAR)$"}},
			[]string{"RENC", "STAR"},
		},
		{
			"invalid regex excludes records without failing the query",
			Filter{"name": map[string]interface{}{"regex": "("}},
			[]string{},
		},
		{
			"any over list elements",
			Filter{"hosts": map[string]interface{}{"any": map[string]interface{}{"contains": "w3"}}},
			[]string{"STAR"},
		},
		{
			"all over list elements",
			Filter{"hosts": map[string]interface{}{"all": map[string]interface{}{"contains": "fabric-testbed"}}},
			[]string{"RENC", "UCSD", "STAR"},
		},
		{
			"or disjunction of sub-filters",
			Filter{"or": []interface{}{
				map[string]interface{}{"name": "UCSD"},
				map[string]interface{}{"cores_available": map[string]interface{}{"gte": 200}},
			}},
			[]string{"UCSD", "STAR"},
		},
		{
			"or conjoined with a sibling key",
			Filter{
				"ptp_capable": true,
				"or": []interface{}{
					map[string]interface{}{"name": "RENC"},
					map[string]interface{}{"name": "UCSD"},
				},
			},
			[]string{"RENC"},
		},
		{
			"dot path into nested mapping",
			Filter{"components.GPU-Tesla T4.capacity": map[string]interface{}{"gte": 4}},
			[]string{"RENC"},
		},
		{
			"missing field never matches ordering predicates",
			Filter{"nonexistent": map[string]interface{}{"gte": 0}},
			[]string{},
		},
		{
			"missing field equals nil operand",
			Filter{"nonexistent": nil},
			[]string{"RENC", "UCSD", "STAR"},
		},
		{
			"missing field fails bare eq against a value",
			Filter{"nonexistent": "x"},
			[]string{},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Run(snapshot(fixtures.Sites), tc.filter, nil, 0, 0, Options{})
			require.NoError(t, err)

			assert.ElementsMatch(t, tc.expected, names(page.Items))
			assert.Equal(t, len(tc.expected), page.Total)
		})
	}
}

func TestRunFilterErrors(t *testing.T) {
	testcases := []struct {
		name     string
		filter   Filter
		offset   int
		expected error
	}{
		{
			"unknown operator rejected",
			Filter{"name": map[string]interface{}{"matches": "RENC"}},
			0,
			ErrUnknownOperator,
		},
		{
			"in with non-list operand rejected",
			Filter{"name": map[string]interface{}{"in": "RENC"}},
			0,
			ErrMalformedFilter,
		},
		{
			"or with non-list operand rejected",
			Filter{"or": "name"},
			0,
			ErrMalformedFilter,
		},
		{
			"negative offset rejected",
			nil,
			-1,
			ErrBadPagination,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(snapshot(fixtures.Sites), tc.filter, nil, 0, tc.offset, Options{})
			require.Error(t, err)

			assert.ErrorIs(t, err, model.ErrValidation)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestRunSort(t *testing.T) {
	testcases := []struct {
		name     string
		sortSpec *Sort
		expected []string
	}{
		{
			"ascending numeric",
			&Sort{Field: "cores_available", Direction: "asc"},
			[]string{"UCSD", "RENC", "STAR"},
		},
		{
			"descending numeric",
			&Sort{Field: "cores_available", Direction: "desc"},
			[]string{"STAR", "RENC", "UCSD"},
		},
		{
			"ascending string",
			&Sort{Field: "name", Direction: "asc"},
			[]string{"RENC", "STAR", "UCSD"},
		},
		{
			"direction is case insensitive",
			&Sort{Field: "name", Direction: "DESC"},
			[]string{"UCSD", "STAR", "RENC"},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Run(snapshot(fixtures.Sites), nil, tc.sortSpec, 0, 0, Options{})
			require.NoError(t, err)

			assert.Equal(t, tc.expected, names(page.Items))
		})
	}
}

func TestRunSortMissingFieldLast(t *testing.T) {
	records := []model.Record{
		{"name": "a", "rank": 3},
		{"name": "b"},
		{"name": "c", "rank": 1},
		{"name": "d", "rank": nil},
	}

	page, err := Run(snapshot(records), nil, &Sort{Field: "rank", Direction: "asc"}, 0, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, names(page.Items))

	// missing stays last when descending too
	page, err = Run(snapshot(records), nil, &Sort{Field: "rank", Direction: "desc"}, 0, 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(page.Items))
}

func TestRunSortStable(t *testing.T) {
	records := []model.Record{
		{"name": "a", "tier": 1},
		{"name": "b", "tier": 1},
		{"name": "c", "tier": 1},
	}

	page, err := Run(snapshot(records), nil, &Sort{Field: "tier", Direction: "asc"}, 0, 0, Options{})
	require.NoError(t, err)

	// ties preserve snapshot order
	assert.Equal(t, []string{"a", "b", "c"}, names(page.Items))
}

func TestRunPagination(t *testing.T) {
	testcases := []struct {
		name            string
		limit           int
		offset          int
		expected        []string
		expectedTotal   int
		expectedHasMore bool
	}{
		{"first page", 2, 0, []string{"RENC", "UCSD"}, 3, true},
		{"second page", 2, 2, []string{"STAR"}, 3, false},
		{"offset beyond set", 2, 10, []string{}, 3, false},
		{"no limit returns all", 0, 0, []string{"RENC", "UCSD", "STAR"}, 3, false},
		{"offset without limit", 0, 1, []string{"UCSD", "STAR"}, 3, false},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := Run(snapshot(fixtures.Sites), nil, nil, tc.limit, tc.offset, Options{})
			require.NoError(t, err)

			assert.Equal(t, tc.expected, names(page.Items))
			assert.Equal(t, tc.expectedTotal, page.Total)
			assert.Equal(t, len(tc.expected), page.Count)
			assert.Equal(t, tc.offset, page.Offset)
			assert.Equal(t, tc.expectedHasMore, page.HasMore)
		})
	}
}

func TestRunFetchCeiling(t *testing.T) {
	records := make([]model.Record, 0, 10)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		records = append(records, model.Record{"name": name})
	}

	// total counts every match even past the ceiling
	page, err := Run(snapshot(records), nil, nil, 0, 0, Options{FetchCeiling: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, 4, page.Count)
	assert.True(t, page.HasMore)

	// the sort ceiling applies only when sorting and only when stricter
	page, err = Run(snapshot(records), nil, &Sort{Field: "name"}, 0, 0, Options{FetchCeiling: 4, SortCeiling: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 10, page.Total)

	page, err = Run(snapshot(records), nil, nil, 0, 0, Options{FetchCeiling: 4, SortCeiling: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Count)
}

func TestRunEmptySnapshot(t *testing.T) {
	page, err := Run(snapshot(nil), Filter{"name": "RENC"}, nil, 10, 0, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.Count)
	assert.False(t, page.HasMore)
}

func TestValidateNestedOr(t *testing.T) {
	err := Validate(Filter{"or": []interface{}{
		map[string]interface{}{"name": map[string]interface{}{"bogus": 1}},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)
}
