package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
)

// Failure kinds. Every error returned by this package that belongs to one of
// them matches with errors.Is.
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrOutOfStock              = errors.New("out of stock")
	ErrOrderAlreadyProcessed   = errors.New("order already processed")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	ErrWriteFailure            = errors.New("write failure")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
)

var kindStatus = map[error]int{
	ErrValidation:              http.StatusBadRequest,
	ErrNotFound:                http.StatusNotFound,
	ErrOutOfStock:              http.StatusConflict,
	ErrOrderAlreadyProcessed:   http.StatusConflict,
	ErrPaymentAlreadyCompleted: http.StatusConflict,
	ErrWriteFailure:            http.StatusInternalServerError,
	ErrGatewayUnavailable:      http.StatusServiceUnavailable,
}

type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Kind }

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func newKindError(kind error, message string) error {
	return &HTTPError{Status: kindStatus[kind], Message: message, Kind: kind}
}

func validationError(message string) error { return newKindError(ErrValidation, message) }

func notFoundError(message string) error { return newKindError(ErrNotFound, message) }

func dbError() error { return NewHTTPError(http.StatusInternalServerError, "db error") }

// storeError maps a repository error onto the taxonomy.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFoundError(what + " not found")
	case errors.Is(err, repo.ErrNoRowsAffected):
		return newKindError(ErrWriteFailure, what+" write affected no rows")
	default:
		return dbError()
	}
}

// txError keeps classified errors from inside WithinTx and hides raw store errors (commit failures).
func txError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return dbError()
}
