package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.AllowAll().Handler)

	mux.Get("/health", app.handlers.HealthHandler)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/run", app.handlers.RunHandler)
		r.Get("/programs", app.handlers.ListProgramsHandler)
		r.Get("/runs", app.handlers.ListRunsHandler)
	})

	// Artifacts are served straight off the output directory so the
	// composer and the UI can fetch them by the URL in a run response.
	fs := http.StripPrefix("/outputs/", http.FileServer(http.Dir(app.cfg.OutputDir)))
	mux.Get("/outputs/*", fs.ServeHTTP)

	return mux
}
