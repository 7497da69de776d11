package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestError_KindMatching(t *testing.T) {
	err := insufficientStockf("product %d at %s: have %s, need %s", 1, "MAIN", "20", "25")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, CodeInsufficientStock, KindOf(err))

	wrapped := fmt.Errorf("adjust stock: %w", err)
	assert.ErrorIs(t, wrapped, ErrInsufficientStock)
	assert.Equal(t, CodeInsufficientStock, KindOf(wrapped))
}

func TestError_SpecificSentinels(t *testing.T) {
	err := &Error{Kind: ErrValidation, Msg: "move category 3 under 7", Err: ErrCycleDetected}
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.NotErrorIs(t, err, ErrSelfParent)
	assert.Equal(t, "move category 3 under 7: category move would create a cycle", err.Error())
}

func TestStorageErr_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, CodeConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, CodeNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, CodeValidation},
		{"connection failure", errors.New("connection reset by peer"), CodeStorage},
		{"already classified", notFoundf("product 9 not found"), CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storageErr("op", tt.err)
			assert.Equal(t, tt.want, KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestKindOf_Nil(t *testing.T) {
	assert.Equal(t, "", KindOf(nil))
	assert.Equal(t, CodeStorage, KindOf(errors.New("boom")))
}
