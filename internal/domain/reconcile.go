package domain

// Policy selects how a category conflict between a local record and its
// remote counterpart is resolved. It is fixed once at configuration time
// and applied uniformly across the merge.
type Policy string

const (
	// PolicyRemoteWins overwrites the local category with the remote one.
	// This is the default: the remote endpoint is nominally the source
	// of truth, and "most recently fetched" is the only ordering signal
	// available. A local edit made between two syncs to a record that
	// also changed upstream is lost under this policy.
	PolicyRemoteWins Policy = "remote-wins"

	// PolicyLocalWins keeps the local category and ignores the remote one.
	PolicyLocalWins Policy = "local-wins"

	// PolicyManual applies no change; conflicts are surfaced in the sync
	// outcome so a user can decide per record.
	PolicyManual Policy = "manual"
)

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyRemoteWins, PolicyLocalWins, PolicyManual:
		return true
	}

	return false
}

// Overwrite is a planned in-place category change to an existing local
// record, produced when the remote-wins policy resolves a conflict.
type Overwrite struct {
	// Index is the position of the record in the local collection.
	Index int

	// Category is the remote value that replaces the local one.
	Category string
}

// Conflict describes a category disagreement left unresolved by the
// manual policy.
type Conflict struct {
	Quote          Quote  `json:"quote"`
	LocalCategory  string `json:"localCategory"`
	RemoteCategory string `json:"remoteCategory"`
}

// Plan is the result of diffing a remote snapshot against the local
// collection. Applying it is the store's job; computing it mutates
// nothing.
type Plan struct {
	// Additions are remote records with no local counterpart, in
	// snapshot order.
	Additions []Quote

	// Overwrites are conflict resolutions under the remote-wins policy.
	Overwrites []Overwrite

	// Conflicts are unresolved disagreements under the manual policy.
	Conflicts []Conflict
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Additions) == 0 && len(p.Overwrites) == 0
}

// Reconcile diffs a remote snapshot against the local collection and
// plans the merge under the given policy.
//
// Identity: a remote record matches a local one by stable ID when both
// carry one, else by structural key (exact text). A remote record that
// matches nothing is an addition. A match with an identical category is
// already in sync. A match with a differing category is a conflict,
// resolved per policy.
//
// The local slice is read-only here; repeated reconciliation against an
// unchanged snapshot is idempotent.
func Reconcile(local, remote []Quote, policy Policy) Plan {
	var plan Plan

	// Later matches must see earlier planned overwrites so that a
	// snapshot containing the same record twice does not double-count.
	planned := make(map[int]string)

	for _, rq := range remote {
		idx := findMatch(local, rq)
		if idx < 0 {
			plan.Additions = append(plan.Additions, rq)
			continue
		}

		localCategory := local[idx].Category
		if c, ok := planned[idx]; ok {
			localCategory = c
		}

		if localCategory == rq.Category {
			continue
		}

		switch policy {
		case PolicyRemoteWins:
			plan.Overwrites = append(plan.Overwrites, Overwrite{Index: idx, Category: rq.Category})
			planned[idx] = rq.Category
		case PolicyLocalWins:
			// Keep local, nothing to do.
		case PolicyManual:
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Quote:          local[idx],
				LocalCategory:  localCategory,
				RemoteCategory: rq.Category,
			})
		}
	}

	return plan
}

// findMatch returns the index of the first local record identical in
// identity to q, or -1. Insertion order decides which of several
// structural duplicates is matched.
func findMatch(local []Quote, q Quote) int {
	for i, lq := range local {
		if lq.Same(q) {
			return i
		}
	}

	return -1
}

// Missing returns the local records that have no counterpart in the
// remote snapshot. These are candidates for the fire-and-forget push
// back to the remote after a merge.
func Missing(local, remote []Quote) []Quote {
	var out []Quote

	for _, lq := range local {
		if findMatch(remote, lq) < 0 {
			out = append(out, lq)
		}
	}

	return out
}
