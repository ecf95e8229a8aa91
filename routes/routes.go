package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"surveyforge/app"
	"surveyforge/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer, middlewares.Cors)

	root.Mount("/api", apiRouter(app))
	root.Get("/ws/dashboard/{refid}", app.Hub.Subscribe)
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// survey definitions
	api.Post("/surveys", CreateSurvey(app))
	api.Get("/surveys", ListSurveys(app))
	api.Get("/surveys/{refid}", GetSurveyByRefID(app))
	api.Put("/surveys/{refid}", UpdateSurvey(app))
	api.Delete("/surveys/{refid}", DeleteSurvey(app))

	// collected responses
	api.Post("/responses", CreateResponse(app))
	api.Post("/responses/bulk", BulkCreateResponses(app))
	api.Get("/responses/{refid}", GetResponses(app))
	api.Get("/export/{refid}", ExportResponsesCSV(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
