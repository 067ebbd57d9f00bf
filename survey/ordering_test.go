package survey

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rank integrity under mixed insert/move/remove sequences: whatever the
// operations, the ranks of a version stay exactly 1..N.
func TestRankDensity(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	survey, err := store.CreateSurvey(ctx, "survey")
	require.NoError(t, err)
	version, err := store.LatestVersion(ctx, survey.ID)
	require.NoError(t, err)

	ids := []int64{}
	add := func(rank int) {
		q, err := store.AddQuestion(ctx, survey.ID, AddQuestion{
			FieldKey: "tx", Text: "q", Rank: rank})
		require.NoError(t, err)
		ids = append(ids, q.ID)
		requireDense(t, db, version.ID, len(ids))
	}
	move := func(i, rank int) {
		require.NoError(t, store.MoveQuestion(ctx, survey.ID, ids[i], 0, rank))
		requireDense(t, db, version.ID, len(ids))
	}
	remove := func(i int) {
		require.NoError(t, store.RemoveQuestion(ctx, survey.ID, ids[i], 0))
		ids = append(ids[:i], ids[i+1:]...)
		requireDense(t, db, version.ID, len(ids))
	}

	add(0) // append
	add(1) // insert at head
	add(2) // insert in the middle
	add(9) // beyond the end clamps to append
	add(0)
	move(0, 5)
	move(4, 1)
	move(2, 2)
	move(2, 2) // no-op
	remove(2)
	remove(0)
	add(2)
	move(1, 3)
	remove(2)
	requireDense(t, db, version.ID, len(ids))
}

func TestInsertShiftsSiblings(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	survey, err := store.CreateSurvey(ctx, "survey")
	require.NoError(t, err)

	first, err := store.AddQuestion(ctx, survey.ID, AddQuestion{FieldKey: "tx", Text: "first"})
	require.NoError(t, err)
	second, err := store.AddQuestion(ctx, survey.ID, AddQuestion{FieldKey: "tx", Text: "second"})
	require.NoError(t, err)

	// inserting at rank 2 pushes "second" down
	middle, err := store.AddQuestion(ctx, survey.ID, AddQuestion{
		FieldKey: "tx", Text: "middle", Rank: 2})
	require.NoError(t, err)

	questions, err := store.Questions(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t,
		[]int64{first.ID, middle.ID, second.ID},
		questionIDs(questions))
}
