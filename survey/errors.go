package survey

import "errors"

var (
	// ErrEditNotAllowed is returned for structural edits against a
	// version that already has answers; callers recover by forking a
	// new version first.
	ErrEditNotAllowed = errors.New("survey version has answers and cannot be edited")

	// ErrNotAttached is returned when answering a question that does
	// not belong to the targeted survey version.
	ErrNotAttached = errors.New("question is not attached to survey version")

	ErrSurveyNotFound   = errors.New("survey not found")
	ErrVersionNotFound  = errors.New("survey version not found")
	ErrQuestionNotFound = errors.New("question not found")
)
