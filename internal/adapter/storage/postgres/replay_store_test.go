package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReplayStore(mock)
	response := []byte(`{"success":true}`)

	mock.ExpectQuery("SELECT response FROM tx_replay").
		WithArgs("tx-1").
		WillReturnRows(pgxmock.NewRows([]string{"response"}).AddRow(response))

	got, err := store.Get(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, response, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplayStore_Get_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReplayStore(mock)

	mock.ExpectQuery("SELECT response FROM tx_replay").
		WithArgs("tx-unknown").
		WillReturnRows(pgxmock.NewRows([]string{"response"}))

	got, err := store.Get(context.Background(), "tx-unknown")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplayStore_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewReplayStore(mock)

	mock.ExpectExec("INSERT INTO tx_replay").
		WithArgs("tx-1", []byte("payload"), float64(86400)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Set(context.Background(), "tx-1", []byte("payload"), 24*time.Hour)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
