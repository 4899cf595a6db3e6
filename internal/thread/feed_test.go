package thread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/nova-forum/internal/models"
)

func ids(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestOrderPinnedFirstStable(t *testing.T) {
	in := []models.Post{
		{ID: "a"},
		{ID: "b", Pinned: true},
		{ID: "c"},
		{ID: "d", Pinned: true},
		{ID: "e"},
	}

	out := Order(in)
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids(out))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(in), "input must not be reordered")
	assert.Equal(t, ids(out), ids(Order(out)), "ordering must be idempotent")
}

func TestOrderKeepsReplies(t *testing.T) {
	in := []models.Post{{
		ID:      "a",
		Pinned:  true,
		Replies: []models.Reply{{ID: "r2"}, {ID: "r1"}, {ID: "r3"}},
	}}

	out := Order(in)
	require.Len(t, out, 1)
	assert.Equal(t, in[0].Replies, out[0].Replies)
}

func TestOrderEmpty(t *testing.T) {
	assert.Empty(t, Order(nil))
}

func TestFeedIsStableAcrossReads(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := s.CreatePost(ctx, nova, text)
		require.NoError(t, err)
	}
	snap := s.Snapshot()
	require.True(t, s.TogglePin(ctx, admin, snap[2].ID))

	first := s.Feed()
	second := s.Feed()
	assert.Equal(t, first, second)
	assert.Equal(t, snap[2].ID, first[0].ID)
	assert.Equal(t, ids(snap), ids(s.Snapshot()), "feed reads never mutate storage order")
}

func TestDoubleTogglePinRestoresPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	var created []models.Post
	for _, text := range []string{"p1", "p2", "p3", "p4"} {
		p, err := s.CreatePost(ctx, nova, text)
		require.NoError(t, err)
		created = append(created, p)
	}
	p1, p2, p4 := created[0], created[1], created[3]

	require.True(t, s.TogglePin(ctx, admin, p4.ID))
	require.True(t, s.TogglePin(ctx, admin, p1.ID))
	original, _ := s.Post(p2.ID)
	before := ids(s.Feed())

	require.True(t, s.TogglePin(ctx, admin, p2.ID))
	pinnedOrder := ids(s.Feed())
	// p2 sits between the other pinned posts by store order.
	assert.Equal(t, []string{p4.ID, p2.ID, p1.ID}, pinnedOrder[:3])

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Like(ctx, vega, p1.ID, ""))
	}
	assert.Equal(t, pinnedOrder, ids(s.Feed()), "likes must not move pinned posts")

	require.True(t, s.TogglePin(ctx, admin, p2.ID))
	final, _ := s.Post(p2.ID)
	assert.Equal(t, original.Pinned, final.Pinned)
	assert.Equal(t, before, ids(s.Feed()))
}
