package postgres

import (
	"context"
	"encoding/json"
	"testing"

	"carbon-credit-ledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordRow(t *testing.T, v any) *pgxmock.Rows {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return pgxmock.NewRows([]string{"record"}).AddRow(raw)
}

func TestLedger_GetCredit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	credit := &domain.CarbonCredit{ID: "C1", ProjectID: "P1", Amount: 100, Owner: "alice", Status: domain.CreditStatusActive}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT record FROM ledger_state").
		WithArgs(colCredits, "C1").
		WillReturnRows(recordRow(t, credit))
	mock.ExpectRollback()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	got, err := tx.Credits().Get("C1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, credit.Owner, got.Owner)
	assert.Equal(t, credit.Amount, got.Amount)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GetCredit_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT record FROM ledger_state").
		WithArgs(colCredits, "missing").
		WillReturnRows(pgxmock.NewRows([]string{"record"}))
	mock.ExpectRollback()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	got, err := tx.Credits().Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_PutAndCommit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_state").
		WithArgs(colListings, "L1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO settlement_balances").
		WithArgs("alice", int64(5000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, tx.Listings().Put(&domain.Listing{ID: "L1", Quantity: 10}))
	require.NoError(t, tx.Settlement().SetBalance("alice", 5000))
	require.NoError(t, tx.Commit(context.Background()))

	// Deferred rollback after commit must be a silent no-op.
	assert.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_BalanceDefaultsToZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM settlement_balances").
		WithArgs("nobody").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	bal, err := tx.Settlement().Balance("nobody")
	assert.NoError(t, err)
	assert.Zero(t, bal)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ListCredits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	c1, _ := json.Marshal(&domain.CarbonCredit{ID: "C1", Amount: 100})
	c2, _ := json.Marshal(&domain.CarbonCredit{ID: "C2", Amount: 50})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT record FROM ledger_state WHERE collection").
		WithArgs(colCredits).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(c1).AddRow(c2))
	mock.ExpectRollback()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	all, err := tx.Credits().List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_GovernanceSingleton(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cfg := &domain.GovernanceConfig{Admins: []string{"admin"}, CommunityVoteThreshold: 10, FlagThreshold: 5}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT record FROM ledger_state").
		WithArgs(colGovernance, governanceID).
		WillReturnRows(recordRow(t, cfg))
	mock.ExpectRollback()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	got, err := tx.Governance().Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.CommunityVoteThreshold)

	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_AppendTrade(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trade_log").
		WithArgs("T1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, tx.Trades().Append(&domain.TradeRecord{ID: "T1", Quantity: 5}))
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_CommitTwiceFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	ledger := NewLedger(mock)
	tx, err := ledger.Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	assert.Error(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
