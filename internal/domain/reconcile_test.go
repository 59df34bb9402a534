package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_NewRecord(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{
		{Text: "A", Category: "X"},
		{Text: "B", Category: "Y"},
	}

	plan := Reconcile(local, remote, PolicyRemoteWins)

	require.Len(t, plan.Additions, 1)
	assert.Equal(t, "B", plan.Additions[0].Text)
	assert.Empty(t, plan.Overwrites)
	assert.Empty(t, plan.Conflicts)
}

func TestReconcile_ConflictRemoteWins(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{{Text: "A", Category: "Z"}}

	plan := Reconcile(local, remote, PolicyRemoteWins)

	require.Len(t, plan.Overwrites, 1)
	assert.Equal(t, 0, plan.Overwrites[0].Index)
	assert.Equal(t, "Z", plan.Overwrites[0].Category)
	assert.Empty(t, plan.Additions)
}

func TestReconcile_ConflictLocalWins(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{{Text: "A", Category: "Z"}}

	plan := Reconcile(local, remote, PolicyLocalWins)

	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Conflicts)
}

func TestReconcile_ConflictManual(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{{Text: "A", Category: "Z"}}

	plan := Reconcile(local, remote, PolicyManual)

	assert.True(t, plan.Empty(), "manual policy must not plan mutations")
	require.Len(t, plan.Conflicts, 1)
	assert.Equal(t, "X", plan.Conflicts[0].LocalCategory)
	assert.Equal(t, "Z", plan.Conflicts[0].RemoteCategory)
}

func TestReconcile_UpToDate(t *testing.T) {
	local := []Quote{
		{ID: "1", Text: "A", Category: "X"},
		{ID: "2", Text: "B", Category: "Y"},
	}
	remote := []Quote{
		{Text: "A", Category: "X"},
		{Text: "B", Category: "Y"},
	}

	plan := Reconcile(local, remote, PolicyRemoteWins)

	assert.True(t, plan.Empty())
}

func TestReconcile_Idempotent(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{{Text: "A", Category: "Z"}}

	first := Reconcile(local, remote, PolicyRemoteWins)
	require.Len(t, first.Overwrites, 1)

	// Apply the overwrite, then reconcile again: no further changes.
	local[0].Category = first.Overwrites[0].Category
	second := Reconcile(local, remote, PolicyRemoteWins)
	assert.True(t, second.Empty())
}

func TestReconcile_DuplicateRemoteEntries(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}
	remote := []Quote{
		{Text: "A", Category: "Z"},
		{Text: "A", Category: "Z"},
	}

	plan := Reconcile(local, remote, PolicyRemoteWins)

	// The second occurrence sees the planned overwrite and is a no-op.
	assert.Len(t, plan.Overwrites, 1)
}

func TestReconcile_MatchesByIDBeforeText(t *testing.T) {
	// An edited text with a stable ID still matches the same entity.
	local := []Quote{{ID: "1", Text: "A (edited)", Category: "X"}}
	remote := []Quote{{ID: "1", Text: "A", Category: "Z"}}

	plan := Reconcile(local, remote, PolicyRemoteWins)

	assert.Empty(t, plan.Additions)
	require.Len(t, plan.Overwrites, 1)
	assert.Equal(t, "Z", plan.Overwrites[0].Category)
}

func TestReconcile_EmptyRemote(t *testing.T) {
	local := []Quote{{ID: "1", Text: "A", Category: "X"}}

	plan := Reconcile(local, nil, PolicyRemoteWins)

	assert.True(t, plan.Empty())
}

func TestMissing(t *testing.T) {
	local := []Quote{
		{ID: "1", Text: "A", Category: "X"},
		{ID: "2", Text: "B", Category: "Y"},
	}
	remote := []Quote{{Text: "A", Category: "X"}}

	missing := Missing(local, remote)

	require.Len(t, missing, 1)
	assert.Equal(t, "B", missing[0].Text)
}

func TestPolicy_Valid(t *testing.T) {
	assert.True(t, PolicyRemoteWins.Valid())
	assert.True(t, PolicyLocalWins.Valid())
	assert.True(t, PolicyManual.Valid())
	assert.False(t, Policy("server-wins").Valid())
	assert.False(t, Policy("").Valid())
}

func BenchmarkReconcile(b *testing.B) {
	local := make([]Quote, 200)
	remote := make([]Quote, 200)
	for i := range local {
		local[i] = Quote{ID: string(rune('a' + i%26)), Text: "quote " + string(rune(i)), Category: "X"}
		remote[i] = Quote{Text: "quote " + string(rune(i)), Category: "Y"}
	}

	b.ResetTimer()
	for range b.N {
		Reconcile(local, remote, PolicyRemoteWins)
	}
}
