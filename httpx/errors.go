package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/formwell/formwell/fields"
	"github.com/formwell/formwell/log"
	"github.com/formwell/formwell/survey"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// LogCoreError maps core errors onto transport statuses: lookup
// failures become 404, edit conflicts 409, validation failures 400,
// anything else 500.
func LogCoreError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, survey.ErrSurveyNotFound),
		errors.Is(err, survey.ErrVersionNotFound),
		errors.Is(err, survey.ErrQuestionNotFound):
		log.Debugf("%s: %s", code, err)
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, survey.ErrEditNotAllowed),
		errors.Is(err, survey.ErrNotAttached):
		log.Debugf("%s: %s", code, err)
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, fields.ErrUnknownFieldType),
		errors.Is(err, fields.ErrInvalidParameters),
		errors.Is(err, fields.ErrInvalidValue):
		log.Debugf("%s: %s", code, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		LogInternalError(w, code, err)
	}
}
