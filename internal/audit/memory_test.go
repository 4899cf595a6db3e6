package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournalRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	j := NewMemoryJournal()

	require.NoError(t, j.Record(ctx, Entry{Actor: "admin_vega", Action: ActionPin, TargetID: "p1"}))
	require.NoError(t, j.Record(ctx, Entry{Actor: "admin_vega", Action: ActionDelete, TargetID: "r1", ParentID: "p1"}))
	require.NoError(t, j.Record(ctx, Entry{Actor: "admin_orion", Action: ActionUnpin, TargetID: "p1"}))

	all, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ActionUnpin, all[0].Action)
	assert.Equal(t, ActionPin, all[2].Action)

	for _, e := range all {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.At.IsZero())
	}

	two, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "r1", two[1].TargetID)
	assert.Equal(t, "p1", two[1].ParentID)
}

func TestMemoryJournalEmpty(t *testing.T) {
	entries, err := NewMemoryJournal().Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
