package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == pgUniqueViolation
}

func isCheckViolation(err error) bool {
	return errors.Is(err, gorm.ErrCheckConstraintViolated) || pgCode(err) == pgCheckViolation
}
