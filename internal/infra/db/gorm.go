package db

import (
	"fmt"
	"net/url"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the store and returns *gorm.DB.
func Connect() (*gorm.DB, error) {
	return Open(DSN())
}

func Open(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return gdb, nil
}

// DSN prefers DATABASE_URL and otherwise builds a postgres:// URL from POSTGRES_* vars.
// The URL form is shared by gorm and golang-migrate.
func DSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getenv("POSTGRES_USER", "postgres"), getenv("POSTGRES_PASSWORD", "postgres")),
		Host:   getenv("POSTGRES_HOST", "localhost") + ":" + getenv("POSTGRES_PORT", "5432"),
		Path:   "/" + getenv("POSTGRES_DB", "shopsphere"),
	}
	q := u.Query()
	q.Set("sslmode", getenv("POSTGRES_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
