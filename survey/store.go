// Package survey implements the versioned questionnaire core: surveys
// own ordered, typed questions; a version becomes immutable as soon as
// one answer is recorded against it, and further edits fork a new
// version.
package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/formwell/formwell/fields"
	"github.com/formwell/formwell/model"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateSurvey creates a survey together with its initial version.
func (s *Store) CreateSurvey(ctx context.Context, name string) (*model.Survey, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var surveyID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (name) VALUES (?)
		RETURNING id`,
		name,
	).Scan(&surveyID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO survey_version (survey_id, version_num) VALUES (?, 1)`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &model.Survey{ID: surveyID, Name: name}, nil
}

// Survey looks up a survey by id.
func (s *Store) Survey(ctx context.Context, surveyID int64) (*model.Survey, error) {
	survey := model.Survey{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM survey WHERE id = ?`,
		surveyID,
	).Scan(&survey.ID, &survey.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrSurveyNotFound, surveyID)
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// Surveys lists all surveys.
func (s *Store) Surveys(ctx context.Context) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM survey ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		survey := model.Survey{}
		if err = rows.Scan(&survey.ID, &survey.Name); err != nil {
			return nil, err
		}
		surveys = append(surveys, survey)
	}
	return surveys, rows.Err()
}

// LatestVersion returns the survey version with the highest version
// number.
func (s *Store) LatestVersion(ctx context.Context, surveyID int64) (*model.SurveyVersion, error) {
	return latestVersion(ctx, s.db, surveyID)
}

func latestVersion(ctx context.Context, q querier, surveyID int64) (*model.SurveyVersion, error) {
	version := model.SurveyVersion{}
	err := q.QueryRowContext(ctx, `
		SELECT id, survey_id, version_num
		FROM survey_version
		WHERE survey_id = ?
		ORDER BY version_num DESC
		LIMIT 1`,
		surveyID,
	).Scan(&version.ID, &version.SurveyID, &version.VersionNum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrSurveyNotFound, surveyID)
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// Version looks up a survey version by id.
func (s *Store) Version(ctx context.Context, versionID int64) (*model.SurveyVersion, error) {
	version := model.SurveyVersion{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, survey_id, version_num FROM survey_version WHERE id = ?`,
		versionID,
	).Scan(&version.ID, &version.SurveyID, &version.VersionNum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrVersionNotFound, versionID)
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// resolveVersion maps version id 0 to the survey's latest version, and
// verifies any explicit version actually belongs to the survey.
func resolveVersion(ctx context.Context, q querier, surveyID, versionID int64) (*model.SurveyVersion, error) {
	if versionID == 0 {
		return latestVersion(ctx, q, surveyID)
	}

	version := model.SurveyVersion{}
	err := q.QueryRowContext(ctx, `
		SELECT id, survey_id, version_num
		FROM survey_version
		WHERE id = ? AND survey_id = ?`,
		versionID, surveyID,
	).Scan(&version.ID, &version.SurveyID, &version.VersionNum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrVersionNotFound, versionID)
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// IsEditable reports whether a version can still take structural edits,
// that is, whether no answer has been recorded against it. This is
// computed live; there is no stored lock flag.
func (s *Store) IsEditable(ctx context.Context, versionID int64) (bool, error) {
	if _, err := s.Version(ctx, versionID); err != nil {
		return false, err
	}
	return isEditable(ctx, s.db, versionID)
}

func isEditable(ctx context.Context, q querier, versionID int64) (bool, error) {
	var answers int
	err := q.QueryRowContext(ctx, `
		SELECT count(*) FROM answer WHERE survey_version_id = ?`,
		versionID,
	).Scan(&answers)
	if err != nil {
		return false, err
	}
	return answers == 0, nil
}

// validateEditable runs inside the same transaction as the structural
// write that follows it, so a concurrent answer cannot slip in between
// the check and the write.
func validateEditable(ctx context.Context, tx *sql.Tx, versionID int64) error {
	editable, err := isEditable(ctx, tx, versionID)
	if err != nil {
		return err
	}
	if !editable {
		return fmt.Errorf("%w: version id=%d", ErrEditNotAllowed, versionID)
	}
	return nil
}

// NewVersion forks the survey: it creates a version numbered one past
// the current latest and copies that version's full question set and
// ordering. The new version starts editable.
func (s *Store) NewVersion(ctx context.Context, surveyID int64) (*model.SurveyVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	prior, err := latestVersion(ctx, tx, surveyID)
	if err != nil {
		return nil, err
	}

	version := model.SurveyVersion{SurveyID: surveyID, VersionNum: prior.VersionNum + 1}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey_version (survey_id, version_num) VALUES (?, ?)
		RETURNING id`,
		surveyID, version.VersionNum,
	).Scan(&version.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_version (question_id, survey_version_id)
		SELECT question_id, ? FROM question_order WHERE survey_version_id = ?`,
		version.ID, prior.ID,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_order (survey_version_id, question_id, rank)
		SELECT ?, question_id, rank FROM question_order WHERE survey_version_id = ?`,
		version.ID, prior.ID,
	)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &version, nil
}

type AddQuestion struct {
	FieldKey   string
	Text       string
	Rank       int // 0 appends at the end
	Required   bool
	FieldParms model.FieldParms
	VersionID  int64 // 0 targets the latest version
}

// AddQuestion creates a question on an editable version of the survey
// and slots it into the version's ordering.
func (s *Store) AddQuestion(ctx context.Context, surveyID int64, add AddQuestion) (*model.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	question, err := addQuestionTx(ctx, tx, surveyID, add)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return question, nil
}

func addQuestionTx(ctx context.Context, tx *sql.Tx, surveyID int64, add AddQuestion) (*model.Question, error) {
	version, err := resolveVersion(ctx, tx, surveyID, add.VersionID)
	if err != nil {
		return nil, err
	}
	if err = validateEditable(ctx, tx, version.ID); err != nil {
		return nil, err
	}

	field, err := fields.Get(add.FieldKey)
	if err != nil {
		return nil, err
	}
	if err = field.CheckParms(add.FieldParms); err != nil {
		return nil, err
	}

	parmsJson, err := json.Marshal(add.FieldParms)
	if err != nil {
		return nil, err
	}

	question := model.Question{
		SurveyID:   surveyID,
		FieldKey:   add.FieldKey,
		Text:       add.Text,
		Required:   add.Required,
		FieldParms: add.FieldParms,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO question (survey_id, field_key, text, required, field_parms)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		surveyID, add.FieldKey, add.Text, add.Required, string(parmsJson),
	).Scan(&question.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_version (question_id, survey_version_id) VALUES (?, ?)`,
		question.ID, version.ID,
	)
	if err != nil {
		return nil, err
	}

	rank, err := questionRanks.insert(ctx, tx, version.ID, add.Rank)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_order (survey_version_id, question_id, rank)
		VALUES (?, ?, ?)`,
		version.ID, question.ID, rank,
	)
	if err != nil {
		return nil, err
	}

	return &question, nil
}

// RemoveQuestion detaches a question from a version and closes the rank
// gap. The question row itself survives while other versions still
// reference it.
func (s *Store) RemoveQuestion(ctx context.Context, surveyID, questionID, versionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = removeQuestionTx(ctx, tx, surveyID, questionID, versionID); err != nil {
		return err
	}
	return tx.Commit()
}

func removeQuestionTx(ctx context.Context, tx *sql.Tx, surveyID, questionID, versionID int64) error {
	version, err := resolveVersion(ctx, tx, surveyID, versionID)
	if err != nil {
		return err
	}
	if err = validateEditable(ctx, tx, version.ID); err != nil {
		return err
	}

	if err = questionInSurvey(ctx, tx, surveyID, questionID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM question_version
		WHERE question_id = ? AND survey_version_id = ?`,
		questionID, version.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("%w: question id=%d, version id=%d",
			ErrNotAttached, questionID, version.ID)
	}

	var orderID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM question_order
		WHERE question_id = ? AND survey_version_id = ?`,
		questionID, version.ID,
	).Scan(&orderID)
	if err != nil {
		return err
	}
	return questionRanks.remove(ctx, tx, version.ID, orderID)
}

// MoveQuestion repositions a question within a version's ordering. The
// target rank is clamped into the valid range.
func (s *Store) MoveQuestion(ctx context.Context, surveyID, questionID, versionID int64, rank int) error {
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
	if err = questionInSurvey(ctx, tx, surveyID, questionID); err != nil {
		return err
	}

	var orderID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM question_order
		WHERE question_id = ? AND survey_version_id = ?`,
		questionID, version.ID,
	).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: question id=%d, version id=%d",
			ErrNotAttached, questionID, version.ID)
	}
	if err != nil {
		return err
	}

	if err = questionRanks.moveTo(ctx, tx, version.ID, orderID, rank); err != nil {
		return err
	}
	return tx.Commit()
}

func questionInSurvey(ctx context.Context, q querier, surveyID, questionID int64) error {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM question WHERE id = ? AND survey_id = ?`,
		questionID, surveyID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id=%d", ErrQuestionNotFound, questionID)
	}
	return err
}

// Questions returns the questions attached to a version in rank order.
func (s *Store) Questions(ctx context.Context, surveyID, versionID int64) ([]model.Question, error) {
	version, err := resolveVersion(ctx, s.db, surveyID, versionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.survey_id, q.field_key, q.text, q.required, q.field_parms
		FROM question_order o
		INNER JOIN question q ON (q.id = o.question_id)
		WHERE o.survey_version_id = ?
		ORDER BY o.rank`,
		version.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		question := model.Question{}
		var parms string
		err = rows.Scan(&question.ID, &question.SurveyID, &question.FieldKey,
			&question.Text, &question.Required, &parms)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(parms), &question.FieldParms); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// AnswerQuestion validates and records an answer against a question and
// version, dispatching the value to the storage column the question's
// field type dictates. Recording the first answer makes the version
// non-editable. Re-answering the same (question, version, group)
// triple updates the stored value in place.
func (s *Store) AnswerQuestion(ctx context.Context, surveyID, questionID, answerGroup int64, value string, versionID int64) (*model.Answer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	version, err := resolveVersion(ctx, tx, surveyID, versionID)
	if err != nil {
		return nil, err
	}

	question := model.Question{}
	var parms string
	err = tx.QueryRowContext(ctx, `
		SELECT id, survey_id, field_key, field_parms
		FROM question
		WHERE id = ? AND survey_id = ?`,
		questionID, surveyID,
	).Scan(&question.ID, &question.SurveyID, &question.FieldKey, &parms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrQuestionNotFound, questionID)
	}
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(parms), &question.FieldParms); err != nil {
		return nil, err
	}

	var attached int
	err = tx.QueryRowContext(ctx, `
		SELECT count(*) FROM question_version
		WHERE question_id = ? AND survey_version_id = ?`,
		question.ID, version.ID,
	).Scan(&attached)
	if err != nil {
		return nil, err
	}
	if attached == 0 {
		return nil, fmt.Errorf("%w: question id=%d, version id=%d",
			ErrNotAttached, question.ID, version.ID)
	}

	field, err := fields.Get(question.FieldKey)
	if err != nil {
		return nil, err
	}
	if err = field.CheckValue(question.FieldParms, value); err != nil {
		return nil, err
	}

	var (
		text, key  sql.NullString
		integer    sql.NullInt64
		float      sql.NullFloat64
		typedValue any
	)
	switch field.Storage {
	case fields.StorageKey, fields.StorageMultiKey:
		key = sql.NullString{String: value, Valid: true}
		typedValue = value
	case fields.StorageInt:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, err
		}
		integer = sql.NullInt64{Int64: n, Valid: true}
		typedValue = n
	case fields.StorageFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		float = sql.NullFloat64{Float64: f, Valid: true}
		typedValue = f
	default:
		text = sql.NullString{String: value, Valid: true}
		typedValue = value
	}

	answer := model.Answer{
		QuestionID:      question.ID,
		SurveyVersionID: version.ID,
		AnswerGroup:     answerGroup,
		Value:           typedValue,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO answer
			(question_id, survey_version_id, answer_group,
			 answer_text, answer_key, answer_int, answer_float)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (question_id, survey_version_id, answer_group) DO UPDATE SET
			answer_text = excluded.answer_text,
			answer_key = excluded.answer_key,
			answer_int = excluded.answer_int,
			answer_float = excluded.answer_float,
			updated = CURRENT_TIMESTAMP
		RETURNING id`,
		question.ID, version.ID, answerGroup, text, key, integer, float,
	).Scan(&answer.ID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &answer, nil
}

// Answers returns the recorded answers for one version and answer
// group, in question rank order.
func (s *Store) Answers(ctx context.Context, versionID, answerGroup int64) ([]model.Answer, error) {
	if _, err := s.Version(ctx, versionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			a.id, a.question_id, a.survey_version_id, a.answer_group,
			a.answer_text, a.answer_key, a.answer_int, a.answer_float,
			q.field_key
		FROM answer a
		INNER JOIN question q ON (q.id = a.question_id)
		LEFT OUTER JOIN question_order o
			ON (o.question_id = a.question_id AND o.survey_version_id = a.survey_version_id)
		WHERE a.survey_version_id = ? AND a.answer_group = ?
		ORDER BY o.rank`,
		versionID, answerGroup,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		answer := model.Answer{}
		var (
			text, key sql.NullString
			integer   sql.NullInt64
			float     sql.NullFloat64
			fieldKey  string
		)
		err = rows.Scan(&answer.ID, &answer.QuestionID, &answer.SurveyVersionID,
			&answer.AnswerGroup, &text, &key, &integer, &float, &fieldKey)
		if err != nil {
			return nil, err
		}

		field, err := fields.Get(fieldKey)
		if err != nil {
			return nil, err
		}
		switch field.Storage {
		case fields.StorageKey, fields.StorageMultiKey:
			answer.Value = key.String
		case fields.StorageInt:
			answer.Value = integer.Int64
		case fields.StorageFloat:
			answer.Value = float.Float64
		default:
			answer.Value = text.String
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}
