package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/formwell/formwell/app"
	"github.com/formwell/formwell/fields"
	"github.com/formwell/formwell/httpx"
	"github.com/formwell/formwell/log"
	"github.com/formwell/formwell/model"
)

// ListFieldTypes serves the field catalog editor UIs build their
// question-type choices from.
func ListFieldTypes(app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		catalog := []map[string]any{}
		for _, f := range fields.All() {
			catalog = append(catalog, map[string]any{
				"key":        f.Key,
				"name":       f.Name,
				"parametric": f.Parametric,
			})
		}
		render.JSON(w, r, map[string]any{
			"fields": catalog,
		})
	}
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			Name string `json:"name"`
		}{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := app.CreateSurvey(r.Context(), body.Name)
		if err != nil {
			httpx.LogInternalError(w, "db.create_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": survey.ID,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Surveys(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, versionId, ok := surveyVersionParams(w, r)
		if !ok {
			return
		}

		snapshot, err := app.ToSnapshot(r.Context(), surveyId, versionId)
		if err != nil {
			httpx.LogCoreError(w, "db.get_survey", err)
			return
		}

		version, err := resolveVersion(app, r, surveyId, versionId)
		if err != nil {
			httpx.LogCoreError(w, "db.get_survey.version", err)
			return
		}
		editable, err := app.IsEditable(r.Context(), version.ID)
		if err != nil {
			httpx.LogCoreError(w, "db.get_survey.editable", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":          surveyId,
			"version_id":  version.ID,
			"version_num": version.VersionNum,
			"editable":    editable,
			"survey":      snapshot,
		})
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, versionId, ok := surveyVersionParams(w, r)
		if !ok {
			return
		}

		snapshot := model.Snapshot{}
		err := render.DecodeJSON(r.Body, &snapshot)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.ReplaceFromSnapshot(r.Context(), surveyId, &snapshot, versionId)
		if err != nil {
			httpx.LogCoreError(w, "db.update_survey", err)
			return
		}

		render.JSON(w, r, snapshot)
	}
}

func NewSurveyVersion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		version, err := app.NewVersion(r.Context(), surveyId)
		if err != nil {
			httpx.LogCoreError(w, "db.new_version", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, version)
	}
}

func SubmitAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		body := struct {
			VersionID   int64 `json:"version_id"`
			AnswerGroup int64 `json:"answer_group"`
			Answers     []struct {
				QuestionID int64  `json:"question_id"`
				Value      string `json:"value"`
			} `json:"answers"`
		}{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		answers := make([]model.Answer, 0, len(body.Answers))
		for _, a := range body.Answers {
			answer, err := app.AnswerQuestion(r.Context(), surveyId,
				a.QuestionID, body.AnswerGroup, a.Value, body.VersionID)
			if err != nil {
				httpx.LogCoreError(w, "db.answer_question", err)
				return
			}
			answers = append(answers, *answer)
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"answers": answers,
		})
	}
}

func GetAnswers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, versionId, ok := surveyVersionParams(w, r)
		if !ok {
			return
		}
		group, err := strconv.ParseInt(r.URL.Query().Get("group"), 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.group")
			return
		}

		version, err := resolveVersion(app, r, surveyId, versionId)
		if err != nil {
			httpx.LogCoreError(w, "db.get_answers.version", err)
			return
		}

		answers, err := app.Answers(r.Context(), version.ID, group)
		if err != nil {
			httpx.LogCoreError(w, "db.get_answers", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"answers": answers,
		})
	}
}

// surveyVersionParams parses the survey id path param and the optional
// version query param (0 = latest).
func surveyVersionParams(w http.ResponseWriter, r *http.Request) (surveyId, versionId int64, ok bool) {
	surveyId, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return 0, 0, false
	}

	if v := r.URL.Query().Get("version"); v != "" {
		versionId, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.version")
			return 0, 0, false
		}
	}
	return surveyId, versionId, true
}

func resolveVersion(app app.App, r *http.Request, surveyId, versionId int64) (*model.SurveyVersion, error) {
	if versionId == 0 {
		return app.LatestVersion(r.Context(), surveyId)
	}
	return app.Version(r.Context(), versionId)
}
