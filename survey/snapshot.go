package survey

import (
	"context"
	"encoding/json"

	"github.com/formwell/formwell/model"
)

// ToSnapshot serializes a version's full question set, in rank order,
// into the shape editor UIs round-trip against.
func (s *Store) ToSnapshot(ctx context.Context, surveyID, versionID int64) (*model.Snapshot, error) {
	survey, err := s.Survey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	questions, err := s.Questions(ctx, surveyID, versionID)
	if err != nil {
		return nil, err
	}

	snapshot := model.Snapshot{
		Name:      survey.Name,
		Questions: make([]model.SnapshotQuestion, 0, len(questions)),
	}
	for _, question := range questions {
		snapshot.Questions = append(snapshot.Questions, model.SnapshotQuestion{
			ID:         question.ID,
			FieldKey:   question.FieldKey,
			Text:       question.Text,
			Required:   question.Required,
			FieldParms: question.FieldParms,
		})
	}
	return &snapshot, nil
}

// ReplaceFromSnapshot reconciles a version's question set to match the
// given snapshot: new questions (id 0) are added and their snapshot ids
// rewritten in place, existing questions are overwritten, ranks are
// reassigned from array position in a second pass once identities are
// stable, and finally any listed removals are detached. The whole
// reconciliation is one transaction; on any error nothing is applied.
func (s *Store) ReplaceFromSnapshot(ctx context.Context, surveyID int64, snapshot *model.Snapshot, versionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	version, err := resolveVersion(ctx, tx, surveyID, versionID)
	if err != nil {
		return err
	}
	if err = validateEditable(ctx, tx, version.ID); err != nil {
		return err
	}

	if snapshot.Name != "" {
		_, err = tx.ExecContext(ctx, `
			UPDATE survey SET name = ?, updated = CURRENT_TIMESTAMP
			WHERE id = ?`,
			snapshot.Name, surveyID,
		)
		if err != nil {
			return err
		}
	}

	// first pass: create and edit, so every entry has a stable id
	for i := range snapshot.Questions {
		entry := &snapshot.Questions[i]
		if entry.ID == 0 {
			question, err := addQuestionTx(ctx, tx, surveyID, AddQuestion{
				FieldKey:   entry.FieldKey,
				Text:       entry.Text,
				Required:   entry.Required,
				FieldParms: entry.FieldParms,
				VersionID:  version.ID,
			})
			if err != nil {
				return err
			}
			entry.ID = question.ID
			continue
		}

		if err = questionInSurvey(ctx, tx, surveyID, entry.ID); err != nil {
			return err
		}

		parmsJson, err := json.Marshal(entry.FieldParms)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE question
			SET text = ?, required = ?, field_parms = ?, updated = CURRENT_TIMESTAMP
			WHERE id = ?`,
			entry.Text, entry.Required, string(parmsJson), entry.ID,
		)
		if err != nil {
			return err
		}
	}

	// second pass: the array is the authoritative ordering, so ranks
	// are rewritten from position instead of interleaving reorders
	// with the inserts above
	for i, entry := range snapshot.Questions {
		_, err = tx.ExecContext(ctx, `
			UPDATE question_order SET rank = ?
			WHERE survey_version_id = ? AND question_id = ?`,
			i+1, version.ID, entry.ID,
		)
		if err != nil {
			return err
		}
	}

	for _, questionID := range snapshot.Remove {
		if err = questionInSurvey(ctx, tx, surveyID, questionID); err != nil {
			return err
		}
		if err = removeQuestionTx(ctx, tx, surveyID, questionID, version.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
