package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/fabric-testbed/slicer/internal/model"
)

var (
	ErrUnknownOperator = errors.Wrap(model.ErrValidation, "unknown filter operator")
	ErrMalformedFilter = errors.Wrap(model.ErrValidation, "malformed filter")
	ErrBadPagination   = errors.Wrap(model.ErrValidation, "invalid pagination parameter")
)

// operators is the closed set of filter operators. Caller-supplied
// expressions outside this grammar are rejected, never evaluated.
var operators = map[string]bool{
	"eq": true, "ne": true,
	"lt": true, "lte": true, "gt": true, "gte": true,
	"in": true, "contains": true, "icontains": true,
	"regex": true, "any": true, "all": true,
}

// Filter is a declarative filter expression - each top-level key is
// conjoined (AND), the "or" key holds a list of sub-filters (disjoined),
// a bare value is shorthand for eq. Field names support dot-path
// traversal into nested mappings.
type Filter map[string]interface{}

// Sort orders results by one field. Records missing the field sort after
// present ones regardless of direction.
type Sort struct {
	Field     string `json:"field" mapstructure:"field"`
	Direction string `json:"direction" mapstructure:"direction"`
}

// Page is the query response envelope.
type Page struct {
	Items   []model.Record `json:"items"`
	Total   int            `json:"total"`
	Count   int            `json:"count"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

// Options carries the engine's fetch ceilings, fixed at process start.
type Options struct {
	// FetchCeiling caps how many matched records are materialized for a
	// query before truncation.
	FetchCeiling int

	// SortCeiling is the stricter ceiling applied when the request
	// sorts, since sorting materializes more of the set.
	SortCeiling int
}

// Run evaluates filter, sort and pagination against a snapshot.
//
// Total is always the full match count independent of limit/offset or the
// ceilings, and HasMore reflects the true remainder. limit <= 0 means no
// page limit (the service layer applies configured defaults and maximums
// before calling here).
func Run(snap *model.Snapshot, filter Filter, sortSpec *Sort, limit, offset int, opts Options) (*Page, error) {
	if offset < 0 {
		return nil, errors.Wrap(ErrBadPagination, "offset must be non-negative")
	}

	if err := Validate(filter); err != nil {
		return nil, err
	}

	ceiling := opts.FetchCeiling
	if sortSpec != nil && sortSpec.Field != "" && opts.SortCeiling > 0 && opts.SortCeiling < ceiling {
		ceiling = opts.SortCeiling
	}

	var (
		matched []model.Record
		total   int
	)

	for _, record := range snap.Records {
		if !matchRecord(record, filter) {
			continue
		}

		total++

		if ceiling <= 0 || len(matched) < ceiling {
			matched = append(matched, record)
		}
	}

	if sortSpec != nil && sortSpec.Field != "" {
		applySort(matched, sortSpec)
	}

	start := offset
	if start > len(matched) {
		start = len(matched)
	}

	end := len(matched)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	items := matched[start:end]

	return &Page{
		Items:   items,
		Total:   total,
		Count:   len(items),
		Offset:  offset,
		HasMore: offset+len(items) < total,
	}, nil
}

// Validate checks a filter expression against the closed grammar without
// evaluating it. Invalid regex operands are not rejected here - they fail
// per-record at evaluation time.
func Validate(filter Filter) error {
	for key, spec := range filter {
		if key == "or" {
			subs, ok := spec.([]interface{})
			if !ok {
				if typed, okTyped := spec.([]Filter); okTyped {
					for _, sub := range typed {
						if err := Validate(sub); err != nil {
							return err
						}
					}
					continue
				}

				return errors.Wrap(ErrMalformedFilter, "'or' operand must be a list of sub-filters")
			}

			for _, sub := range subs {
				subMap, ok := sub.(map[string]interface{})
				if !ok {
					return errors.Wrap(ErrMalformedFilter, "'or' operand must be a list of sub-filters")
				}

				if err := Validate(subMap); err != nil {
					return err
				}
			}

			continue
		}

		opMap, ok := spec.(map[string]interface{})
		if !ok {
			// bare value, eq shorthand
			continue
		}

		for op, operand := range opMap {
			if !operators[op] {
				return errors.Wrap(ErrUnknownOperator, op)
			}

			if op == "in" {
				if _, ok := operand.([]interface{}); !ok {
					return errors.Wrap(ErrMalformedFilter, "'in' operand must be a list")
				}
			}
		}
	}

	return nil
}

func matchRecord(record model.Record, filter Filter) bool {
	for key, spec := range filter {
		if key == "or" {
			if !matchOr(record, spec) {
				return false
			}

			continue
		}

		val, present := record.Field(key)

		if opMap, ok := spec.(map[string]interface{}); ok {
			for op, operand := range opMap {
				if !matchOperator(val, present, op, operand) {
					return false
				}
			}

			continue
		}

		if !valueEqual(val, present, spec) {
			return false
		}
	}

	return true
}

func matchOr(record model.Record, spec interface{}) bool {
	switch subs := spec.(type) {
	case []interface{}:
		if len(subs) == 0 {
			return true
		}

		for _, sub := range subs {
			if subMap, ok := sub.(map[string]interface{}); ok && matchRecord(record, subMap) {
				return true
			}
		}
	case []Filter:
		if len(subs) == 0 {
			return true
		}

		for _, sub := range subs {
			if matchRecord(record, sub) {
				return true
			}
		}
	}

	return false
}

// matchOperator evaluates one operator. Missing fields never satisfy
// ordering predicates and only satisfy eq/ne when explicitly testing
// absence against nil.
func matchOperator(val interface{}, present bool, op string, operand interface{}) bool {
	switch op {
	case "eq":
		return valueEqual(val, present, operand)
	case "ne":
		return !valueEqual(val, present, operand)
	case "lt", "lte", "gt", "gte":
		if !present || val == nil {
			return false
		}

		cmp, comparable := compareValues(val, operand)
		if !comparable {
			return false
		}

		switch op {
		case "lt":
			return cmp < 0
		case "lte":
			return cmp <= 0
		case "gt":
			return cmp > 0
		default:
			return cmp >= 0
		}
	case "in":
		list, ok := operand.([]interface{})
		if !ok {
			return false
		}

		for _, item := range list {
			if valueEqual(val, present, item) {
				return true
			}
		}

		return false
	case "contains":
		return matchContains(val, present, operand, false)
	case "icontains":
		return matchContains(val, present, operand, true)
	case "regex":
		if !present {
			return false
		}

		// an invalid pattern fails the predicate for this record only,
		// it never fails the whole query
		re, err := regexp.Compile(model.Stringify(operand))
		if err != nil {
			return false
		}

		return re.MatchString(model.Stringify(val))
	case "any", "all":
		list, ok := asList(val)
		if !ok {
			return false
		}

		for _, elem := range list {
			elemMatch := matchElement(elem, operand)
			if op == "any" && elemMatch {
				return true
			}

			if op == "all" && !elemMatch {
				return false
			}
		}

		return op == "all"
	}

	return false
}

// matchElement applies an element-level spec (an operator mapping or a
// bare eq value) to a list element, for the any/all operators.
func matchElement(elem, spec interface{}) bool {
	if opMap, ok := spec.(map[string]interface{}); ok {
		for op, operand := range opMap {
			if !matchOperator(elem, true, op, operand) {
				return false
			}
		}

		return true
	}

	return valueEqual(elem, true, spec)
}

// matchContains is polymorphic by the stored value's type - substring on
// strings, key membership on mappings, stringified-element membership on
// lists. icontains case-folds both sides.
func matchContains(val interface{}, present bool, operand interface{}, fold bool) bool {
	if !present {
		return false
	}

	needle := model.Stringify(operand)
	if fold {
		needle = strings.ToLower(needle)
	}

	has := func(s string) bool {
		if fold {
			s = strings.ToLower(s)
		}

		return strings.Contains(s, needle)
	}

	switch v := val.(type) {
	case string:
		return has(v)
	case map[string]interface{}:
		for key := range v {
			if has(key) {
				return true
			}
		}

		return false
	default:
		list, ok := asList(val)
		if !ok {
			return false
		}

		for _, elem := range list {
			if has(model.Stringify(elem)) {
				return true
			}
		}

		return false
	}
}

func asList(val interface{}) ([]interface{}, bool) {
	list, ok := val.([]interface{})
	return list, ok
}

// valueEqual compares with numeric coercion so YAML ints match JSON
// floats. Absent fields equal only an explicit nil operand.
func valueEqual(val interface{}, present bool, operand interface{}) bool {
	if !present || val == nil {
		return operand == nil
	}

	if operand == nil {
		return false
	}

	if a, aok := asFloat(val); aok {
		if b, bok := asFloat(operand); bok {
			return a == b
		}

		return false
	}

	return model.Stringify(val) == model.Stringify(operand)
}

// compareValues orders two values when both are numeric or both strings.
func compareValues(a, b interface{}) (int, bool) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}

		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}

	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// applySort stable-sorts records by the sort field, records missing the
// field ordered last in both directions. Ties preserve snapshot order.
func applySort(records []model.Record, spec *Sort) {
	desc := strings.EqualFold(spec.Direction, "desc")

	sort.SliceStable(records, func(i, j int) bool {
		vi, pi := records[i].Field(spec.Field)
		vj, pj := records[j].Field(spec.Field)

		pi = pi && vi != nil
		pj = pj && vj != nil

		// missing sorts last regardless of direction
		if pi != pj {
			return pi
		}

		if !pi {
			return false
		}

		cmp, comparable := compareValues(vi, vj)
		if !comparable {
			cmp = strings.Compare(model.Stringify(vi), model.Stringify(vj))
		}

		if desc {
			return cmp > 0
		}

		return cmp < 0
	})
}
