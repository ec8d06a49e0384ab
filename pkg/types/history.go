// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InvocationStatus describes how a recorded tool invocation ended.
type InvocationStatus string

const (
	// InvocationOK marks an invocation that completed normally.
	InvocationOK InvocationStatus = "ok"

	// InvocationDegraded marks an invocation that returned a result but
	// reported warnings along the way, such as enrichment falling back
	// to bare ids.
	InvocationDegraded InvocationStatus = "degraded"

	// InvocationError marks an invocation that failed outright.
	InvocationError InvocationStatus = "error"
)

// Invocation is one recorded tool call: which tool ran, the argument
// that identifies the request, and how it went. The argument is the
// user-meaningful part of the input (a query string, a PMID), not a full
// dump of the request.
type Invocation struct {
	ID         string           `json:"id" yaml:"id"`
	Tool       string           `json:"tool" yaml:"tool"`
	Argument   string           `json:"argument" yaml:"argument"`
	Status     InvocationStatus `json:"status" yaml:"status"`
	Detail     string           `json:"detail,omitempty" yaml:"detail,omitempty"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms"`
}
