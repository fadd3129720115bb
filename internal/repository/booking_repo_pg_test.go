package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/partnerbooking/internal/domain"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, domain.ErrBookingNotFound), domain.ErrNotFound)
	other := errors.New("conn reset")
	assert.Equal(t, other, notFound(other, domain.ErrBookingNotFound))
}

type fakeTx struct {
	pgx.Tx
}

func TestQuerier_PrefersTransactionFromContext(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.Same(t, pool, querier(context.Background(), pool))

	tx := &fakeTx{}
	ctx := context.WithValue(context.Background(), txKey{}, pgx.Tx(tx))
	assert.Same(t, tx, querier(ctx, pool))
}
