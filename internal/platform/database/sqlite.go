package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"leadflow/internal/platform/config"
)

func New(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.Path
	if len(dsn) > 5 && dsn[:5] == "file:" {
		dsn = dsn[5:]
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}
