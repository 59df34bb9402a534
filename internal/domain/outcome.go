package domain

import "time"

// SyncStatus classifies the result of one reconciliation pass.
type SyncStatus string

const (
	// StatusSynced means at least one record was added or overwritten.
	StatusSynced SyncStatus = "synced"

	// StatusUpToDate means the snapshot matched the collection exactly.
	StatusUpToDate SyncStatus = "up-to-date"

	// StatusFailed means the remote fetch failed; nothing was mutated.
	StatusFailed SyncStatus = "failed"

	// StatusSkipped means another sync was in flight and this request
	// was dropped rather than run concurrently.
	StatusSkipped SyncStatus = "skipped"
)

// SyncOutcome reports what one reconciliation pass did.
type SyncOutcome struct {
	Status       SyncStatus `json:"status"`
	NewCount     int        `json:"newCount"`
	UpdatedCount int        `json:"updatedCount"`

	// Conflicts carries unresolved disagreements under the manual
	// policy. Empty otherwise.
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// Reason explains a failure. Empty on success.
	Reason string `json:"reason,omitempty"`

	// CompletedAt is when the pass finished.
	CompletedAt time.Time `json:"completedAt"`
}

// Failed builds a failure outcome. Failures are side-effect free: the
// collection is untouched and the schedule continues.
func Failed(reason string, at time.Time) SyncOutcome {
	return SyncOutcome{Status: StatusFailed, Reason: reason, CompletedAt: at}
}

// Changed reports whether the pass mutated the collection.
func (o SyncOutcome) Changed() bool {
	return o.NewCount > 0 || o.UpdatedCount > 0
}
