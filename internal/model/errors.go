package model

import "github.com/pkg/errors"

var (
	// ErrValidation indicates a malformed filter or build/modify spec -
	// unknown field, unsupported operator, topology referencing an
	// undeclared node. Always local, never retried.
	ErrValidation = errors.New("validation error")

	// ErrResourceExhaustion indicates no site or NIC satisfies the
	// requested constraints. The caller must resubmit with relaxed
	// constraints.
	ErrResourceExhaustion = errors.New("no resource satisfies constraints")

	// ErrUpstreamFetch indicates an inventory fetch failed. Recovered
	// locally by retaining the prior snapshot - surfaced only as a
	// staleness signal, never as a query failure.
	ErrUpstreamFetch = errors.New("upstream inventory fetch error")

	// ErrSubmission indicates the orchestrator rejected a resolved
	// topology. Surfaced verbatim, no compensation is attempted.
	ErrSubmission = errors.New("orchestrator submission error")
)
