package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an inventory record kind served by the resource cache.
type Kind string

const (
	KindSites         Kind = "sites"
	KindHosts         Kind = "hosts"
	KindFacilityPorts Kind = "facilityports"
	KindLinks         Kind = "links"
)

// Kinds returns the supported inventory kinds.
func Kinds() []Kind {
	return []Kind{KindSites, KindHosts, KindFacilityPorts, KindLinks}
}

// Record is a single inventory record - a site, host, facility port or link
// as reported by the upstream inventory source.
//
// Fields are heterogeneous across kinds, a field value is a scalar, a list
// or a nested mapping. A field may be absent, absence is not an error and
// is handled by the query engine (absent sorts last, never matches ordering
// predicates).
type Record map[string]interface{}

// Name returns the record's identifying field.
//
// Link records carry no 'name' field upstream, their identity is the
// composite of their endpoints.
func (r Record) Name() string {
	if v, ok := r["name"].(string); ok {
		return v
	}

	if a, ok := r["node_a"].(string); ok {
		if b, ok := r["node_b"].(string); ok {
			return a + "--" + b
		}
	}

	return ""
}

// Field resolves a possibly dot-notated field path against the record,
// traversing nested mappings (e.g. "components.GPU-Tesla T4").
//
// The second return value reports whether the field is present.
func (r Record) Field(path string) (interface{}, bool) {
	var val interface{} = map[string]interface{}(r)

	for _, part := range strings.Split(path, ".") {
		m, ok := val.(map[string]interface{})
		if !ok {
			return nil, false
		}

		val, ok = m[part]
		if !ok {
			return nil, false
		}
	}

	return val, true
}

// Stringify returns the string form of a field value, the form the query
// engine matches regex and list-element predicates against.
func Stringify(v interface{}) string {
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}

// Snapshot is an immutable, totally ordered set of records of one kind.
//
// A snapshot is owned by the cache refresher until published, after
// publication it is shared read-only by all concurrent queries and must not
// be mutated.
type Snapshot struct {
	Kind      Kind
	Records   []Record
	FetchedAt time.Time

	// Truncated indicates the upstream fetch exceeded the per-cycle
	// ceiling and the record set was cut off at the ceiling.
	Truncated bool
}

// Empty returns true when the snapshot holds no records.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Records) == 0
}
