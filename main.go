package main

import (
	"errors"
	"net/http"
	"time"

	"surveyforge/app"
	"surveyforge/config"
	"surveyforge/database"
	"surveyforge/live"
	"surveyforge/log"
	"surveyforge/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	app := app.App{
		DB:     db,
		Config: cfg,
		Hub:    live.NewHub(),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     handler,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// no write timeout: dashboard websockets stay open indefinitely
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
