package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	repo "github.com/riturajpurohit95/shopSphere-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestKindErrorsAreDistinct(t *testing.T) {
	kinds := []error{ErrValidation, ErrNotFound, ErrOutOfStock, ErrOrderAlreadyProcessed, ErrPaymentAlreadyCompleted, ErrWriteFailure}
	for i, k := range kinds {
		err := newKindError(k, "x")
		for j, other := range kinds {
			assert.Equal(t, i == j, errors.Is(err, other), "%v vs %v", k, other)
		}
	}
}

func TestStoreError(t *testing.T) {
	he, ok := AsHTTPError(storeError(fmt.Errorf("wrap: %w", repo.ErrNotFound), "order"))
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusNotFound, he.Status)
		assert.Equal(t, "order not found", he.Message)
	}

	he, _ = AsHTTPError(storeError(repo.ErrNoRowsAffected, "payment"))
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.ErrorIs(t, he, ErrWriteFailure)

	he, _ = AsHTTPError(storeError(errors.New("conn reset"), "order"))
	assert.Equal(t, "db error", he.Message)
	assert.Nil(t, he.Kind)
}

func TestTxErrorHidesRawStoreErrors(t *testing.T) {
	assert.NoError(t, txError(nil))

	he, ok := AsHTTPError(txError(errors.New("commit failed")))
	if assert.True(t, ok) {
		assert.Equal(t, http.StatusInternalServerError, he.Status)
	}

	kept := validationError("bad")
	assert.Same(t, kept, txError(kept))
}
