package survey

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/model"
)

func sampleSurvey(t *testing.T, store *Store) *model.Survey {
	t.Helper()
	ctx := context.Background()

	survey, err := store.CreateSurvey(ctx, "survey")
	require.NoError(t, err)

	add := func(fieldKey, text string, parms model.FieldParms) {
		_, err := store.AddQuestion(ctx, survey.ID, AddQuestion{
			FieldKey: fieldKey, Text: text, FieldParms: parms})
		require.NoError(t, err)
	}
	add("mt", "multi", nil)
	add("tx", "text value and stuff and things", nil)
	add("dr", "drop", model.Parms("a", "Apple", "b", "Bear"))
	add("rd", "radio", model.Parms("c", "Chair", "d", "Dog"))
	add("ch", "check", model.Parms("e", "Egg", "f", "Fan"))
	add("rt", "rating", nil)
	add("in", "integer", nil)
	add("fl", "float", nil)

	return survey
}

func countRows(t *testing.T, db *sql.DB, table string) (count int) {
	t.Helper()
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM `+table).Scan(&count))
	return
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	survey := sampleSurvey(t, store)

	expected, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	require.Len(t, expected.Questions, 8)
	assert.Equal(t, "survey", expected.Name)
	assert.Equal(t, model.Parms("a", "Apple", "b", "Bear"), expected.Questions[2].FieldParms)

	// replaying a survey's own snapshot changes nothing
	require.NoError(t, store.ReplaceFromSnapshot(ctx, survey.ID, expected, 0))

	assert.Equal(t, 1, countRows(t, db, "survey"))
	assert.Equal(t, 8, countRows(t, db, "question"))

	actual, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestSnapshotDelta(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	survey := sampleSurvey(t, store)

	expected, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)

	// rename, reorder, edit, and add in one delta
	expected.Name = "Renamed"
	expected.Questions[4], expected.Questions[5] = expected.Questions[5], expected.Questions[4]
	expected.Questions[0].Text = "edit text label"
	expected.Questions[0].Required = true
	expected.Questions = append([]model.SnapshotQuestion{{
		ID:         0,
		FieldKey:   "dr",
		Text:       "a new question",
		Required:   true,
		FieldParms: model.Parms("g", "Good", "h", "Hello"),
	}}, expected.Questions...)

	require.NoError(t, store.ReplaceFromSnapshot(ctx, survey.ID, expected, 0))

	// the new question's id was assigned in place
	assert.NotZero(t, expected.Questions[0].ID)

	actual, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	// -- removal delta
	delta := &model.Snapshot{Remove: []int64{expected.Questions[0].ID}}
	require.NoError(t, store.ReplaceFromSnapshot(ctx, survey.ID, delta, 0))

	expected.Questions = expected.Questions[1:]
	actual, err = store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestSnapshotBadQuestionIds(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	survey := sampleSurvey(t, store)

	snapshot, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	badID := snapshot.Questions[len(snapshot.Questions)-1].ID + 10

	err = store.ReplaceFromSnapshot(ctx, survey.ID, &model.Snapshot{
		Questions: []model.SnapshotQuestion{{ID: badID}},
	}, 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	err = store.ReplaceFromSnapshot(ctx, survey.ID, &model.Snapshot{
		Remove: []int64{badID},
	}, 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	// errors leave nothing applied
	actual, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, snapshot, actual)
}

func TestSnapshotAtomicity(t *testing.T) {
	store, db := testStore(t)
	ctx := context.Background()

	survey := sampleSurvey(t, store)
	before, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)

	// a valid add followed by a bad edit rolls the add back too
	err = store.ReplaceFromSnapshot(ctx, survey.ID, &model.Snapshot{
		Questions: []model.SnapshotQuestion{
			{ID: 0, FieldKey: "tx", Text: "will not survive"},
			{ID: 99999},
		},
	}, 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	assert.Equal(t, 8, countRows(t, db, "question"))
	after, err := store.ToSnapshot(ctx, survey.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
