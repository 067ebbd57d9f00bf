package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formwell/formwell/app"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/fields", ListFieldTypes(app))

	api.Post("/surveys", CreateSurvey(app))
	api.Get("/surveys", ListSurveys(app))
	api.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
	api.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
	api.Post(`/surveys/{id:^\d+$}/versions`, NewSurveyVersion(app))
	api.Post(`/surveys/{id:^\d+$}/answers`, SubmitAnswers(app))
	api.Get(`/surveys/{id:^\d+$}/answers`, GetAnswers(app))

	return api
}
