// Package domain holds scan types independent of transport or storage
package domain

import (
	"time"

	"shelfscan/internal/core/barcode"
)

// RawDetection is one decoded value as reported by a capture source
// ephemeral, never stored
type RawDetection struct {
	Value      string       `json:"value"`
	Kind       barcode.Kind `json:"kind,omitempty"`
	ObservedAt time.Time    `json:"observed_at,omitempty"`
}

// State is the session controller state
type State string

const (
	// StateIdle waits for the first accepted detection of a burst
	StateIdle State = "idle"

	// StateAccumulating counts detections while the quiet timer runs
	StateAccumulating State = "accumulating"

	// StateEvaluating is the short window in which the burst is being judged
	StateEvaluating State = "evaluating"

	// StateAwaitingResolution waits on the product lookup for a promoted code
	StateAwaitingResolution State = "awaiting_resolution"
)

// EventKind names a UI notification
type EventKind string

const (
	// EventNoEvidence means a burst had nothing usable, prompt to move closer
	EventNoEvidence EventKind = "no-evidence"

	// EventInsufficient means the leader did not reach the threshold
	EventInsufficient EventKind = "insufficient"

	// EventConfirmed means a code resolved to at least one product
	EventConfirmed EventKind = "confirmed"

	// EventInvalid means a code permanently failed to resolve
	EventInvalid EventKind = "invalid"

	// EventRetry means resolution failed for a transient reason
	EventRetry EventKind = "retry"

	// EventWarning surfaces non fatal faults such as a failed registry write
	EventWarning EventKind = "warning"

	// EventSession announces start, stop and reset
	EventSession EventKind = "session"
)

// Event is what the UI stream carries
type Event struct {
	Kind      EventKind `json:"kind"`
	Code      string    `json:"code,omitempty"`
	Count     int       `json:"count,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// OutcomeKind is the result class of a resolution
type OutcomeKind string

const (
	// OutcomeAlreadyConfirmed means the registry already knew the code, no lookup ran
	OutcomeAlreadyConfirmed OutcomeKind = "already_confirmed"

	// OutcomeConfirmed means the lookup found at least one product
	OutcomeConfirmed OutcomeKind = "confirmed"

	// OutcomeInvalid means the lookup permanently failed for this code
	OutcomeInvalid OutcomeKind = "invalid"

	// OutcomeTransient means the lookup could not be completed, the code stays eligible
	OutcomeTransient OutcomeKind = "transient_failure"
)

// Outcome is the result of resolving one promoted code
type Outcome struct {
	Kind     OutcomeKind  `json:"kind"`
	Code     string       `json:"code"`
	Reason   string       `json:"reason,omitempty"`
	Products []ProductRef `json:"products,omitempty"`
	Err      error        `json:"-"`
}

// ProductRef is the minimal product identity returned by a lookup
type ProductRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Brand string `json:"brand,omitempty"`
	Code  string `json:"code,omitempty"`
}

// LookupResult is the product lookup answer for one code
type LookupResult struct {
	Found   bool         `json:"found"`
	Results []ProductRef `json:"results"`
}

// RegistrySnapshot is the persisted form of the known-code registry
type RegistrySnapshot struct {
	Confirmed []string `json:"confirmed"`
	Invalid   []string `json:"invalid"`
}

// AuditRow records one evaluation or resolution for offline analysis
type AuditRow struct {
	At        time.Time
	SessionID string
	Stage     string // "evaluate" | "resolve"
	Verdict   string
	Code      string
	Count     int
	Reason    string
}
