package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var DB *sqlx.DB

// InitPostgres opens the sqlx pool, retrying while the database comes up.
func InitPostgres(dsn string) (*sqlx.DB, error) {
	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			DB.SetMaxOpenConns(10)
			DB.SetConnMaxIdleTime(5 * time.Minute)
			return DB, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, err
}
