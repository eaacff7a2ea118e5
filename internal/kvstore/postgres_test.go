package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/2beens/gymtracker/internal/kvstore"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*kvstore.PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	store, err := kvstore.NewPostgresStore(context.Background(), mock)
	require.NoError(t, err)
	return store, mock
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT store_value FROM kv_store WHERE store_key = \$1`).
		WithArgs("workoutRoutines").
		WillReturnRows(pgxmock.NewRows([]string{"store_value"}).AddRow(`[{"id":"r1"}]`))
	mock.ExpectQuery(`SELECT store_value FROM kv_store WHERE store_key = \$1`).
		WithArgs("workoutHistory").
		WillReturnError(pgx.ErrNoRows)

	value, found, err := store.Get(context.Background(), "workoutRoutines")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"r1"}]`, value)

	_, found, err = store.Get(context.Background(), "workoutHistory")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set(t *testing.T) {
	store, mock := newPostgresStore(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO kv_store`).
		WithArgs("workoutHistory", `[]`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO kv_store`).
		WithArgs("workoutRoutines", `[]`).
		WillReturnError(errors.New("conn closed"))

	require.NoError(t, store.Set(context.Background(), "workoutHistory", `[]`))
	err := store.Set(context.Background(), "workoutRoutines", `[]`)
	assert.ErrorContains(t, err, "conn closed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStore_CreateTableFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS kv_store`).
		WillReturnError(errors.New("permission denied"))

	store, err := kvstore.NewPostgresStore(context.Background(), mock)
	assert.Nil(t, store)
	assert.ErrorContains(t, err, "permission denied")
}
