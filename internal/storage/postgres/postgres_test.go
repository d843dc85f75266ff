package postgres

import (
	"context"
	"errors"
	"testing"

	"cashback-optimizer/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErr_NoRows(t *testing.T) {
	err := wrapErr("get bank", pgx.ErrNoRows)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrUnavailable)
}

func TestWrapErr_ForeignKeyViolation(t *testing.T) {
	err := wrapErr("insert card", &pgconn.PgError{Code: "23503", ConstraintName: "cards_bank_id_fkey"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWrapErr_CheckViolation(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{"cashback_categories_cashback_percent_check", "cashback_percent"},
		{"cashback_categories_category_name_check", "category_name"},
		{"cashback_categories_month_check", "month"},
		{"cashback_categories_year_check", "year"},
		{"banks_name_check", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := wrapErr("insert", &pgconn.PgError{Code: "23514", ConstraintName: tt.constraint})
			assert.ErrorIs(t, err, domain.ErrValidation)
			ve, ok := domain.AsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWrapErr_UnknownCheck(t *testing.T) {
	err := wrapErr("insert", &pgconn.PgError{Code: "23514", ConstraintName: "something_else"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, ok := domain.AsValidation(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "something_else")
}

func TestWrapErr_Unavailable(t *testing.T) {
	for _, cause := range []error{
		&pgconn.PgError{Code: "40001"},
		context.DeadlineExceeded,
		errors.New("connection refused"),
	} {
		err := wrapErr("list offers", cause)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.ErrorIs(t, err, cause)
	}
}
