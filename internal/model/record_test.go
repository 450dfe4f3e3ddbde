package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordName(t *testing.T) {
	testcases := []struct {
		name     string
		record   Record
		expected string
	}{
		{"named record", Record{"name": "RENC"}, "RENC"},
		{"link composite identity", Record{"node_a": "RENC", "node_b": "STAR"}, "RENC--STAR"},
		{"no identity", Record{"state": "Active"}, ""},
		{"non-string name", Record{"name": 42}, ""},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.Name())
		})
	}
}

func TestRecordField(t *testing.T) {
	record := Record{
		"name": "RENC",
		"components": map[string]interface{}{
			"GPU-Tesla T4": map[string]interface{}{"capacity": 4},
		},
		"empty": nil,
	}

	testcases := []struct {
		name            string
		path            string
		expected        interface{}
		expectedPresent bool
	}{
		{"top level", "name", "RENC", true},
		{"nested mapping", "components.GPU-Tesla T4.capacity", 4, true},
		{"intermediate path", "components.GPU-Tesla T4", map[string]interface{}{"capacity": 4}, true},
		{"present nil value", "empty", nil, true},
		{"absent field", "nope", nil, false},
		{"absent nested field", "components.nope", nil, false},
		{"path through a scalar", "name.sub", nil, false},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			val, present := record.Field(tc.path)

			require.Equal(t, tc.expectedPresent, present)
			assert.Equal(t, tc.expected, val)
		})
	}
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "RENC", Stringify("RENC"))
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "true", Stringify(true))
}

func TestSnapshotEmpty(t *testing.T) {
	var snap *Snapshot
	assert.True(t, snap.Empty())

	assert.True(t, (&Snapshot{Kind: KindSites}).Empty())
	assert.False(t, (&Snapshot{Kind: KindSites, Records: []Record{{"name": "RENC"}}}).Empty())
}
