package app

import (
	"database/sql"

	"surveyforge/config"
	"surveyforge/live"
)

type App struct {
	*sql.DB
	config.Config
	Hub *live.Hub
}
