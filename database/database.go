package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"surveyforge/config"
)

func Open(cfg config.Config) (db *sql.DB, err error) {
	// foreign_keys must go through the DSN so every pooled connection
	// enforces the response -> survey cascade
	db, err = sql.Open("sqlite3", cfg.DBUrl+"?_fk=true")
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	return
}
