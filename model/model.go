package model

import "fmt"

type Survey struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type SurveyVersion struct {
	ID         int64 `json:"id,omitempty"`
	SurveyID   int64 `json:"survey_id"`
	VersionNum int   `json:"version_num"`
}

type Question struct {
	ID         int64      `json:"id"`
	SurveyID   int64      `json:"survey_id"`
	FieldKey   string     `json:"field_key"`
	Text       string     `json:"text"`
	Required   bool       `json:"required"`
	FieldParms FieldParms `json:"field_parms"`
}

// ShortText returns the question text truncated to 15 characters.
func (q Question) ShortText() string {
	return truncate(q.Text)
}

type QuestionOrder struct {
	ID              int64 `json:"id,omitempty"`
	SurveyVersionID int64 `json:"survey_version_id"`
	QuestionID      int64 `json:"question_id"`
	Rank            int   `json:"rank"`
}

// Answer holds a recorded response. Value is typed by the question's
// field storage kind: string for text and choice keys (multi-choice is
// a comma-joined key list), int64 for integers, float64 for floats.
type Answer struct {
	ID              int64 `json:"id"`
	QuestionID      int64 `json:"question_id"`
	SurveyVersionID int64 `json:"survey_version_id"`
	AnswerGroup     int64 `json:"answer_group"`
	Value           any   `json:"value"`
}

// DisplayValue returns a string version of the value limited to 15
// characters.
func (a Answer) DisplayValue() string {
	return truncate(fmt.Sprintf("%v", a.Value))
}

func truncate(s string) string {
	if len(s) >= 15 {
		return s[:12] + "..."
	}
	return s
}

// Snapshot is the full ordered question-set representation an editor UI
// round-trips against.
type Snapshot struct {
	Name      string             `json:"name"`
	Questions []SnapshotQuestion `json:"questions"`
	Remove    []int64            `json:"remove,omitempty"`
}

type SnapshotQuestion struct {
	ID         int64      `json:"id"`
	FieldKey   string     `json:"field_key"`
	Text       string     `json:"text"`
	Required   bool       `json:"required"`
	FieldParms FieldParms `json:"field_parms"`
}
