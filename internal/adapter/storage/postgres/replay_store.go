package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ReplayStore implements ports.IdempotencyCache on the tx_replay table, for
// deployments that run without Redis. Keys are host transaction ids.
type ReplayStore struct {
	pool Pool
}

// NewReplayStore creates a PostgreSQL-backed replay store.
func NewReplayStore(pool Pool) *ReplayStore {
	return &ReplayStore{pool: pool}
}

// Get retrieves the recorded outcome for a transaction id.
// Returns nil, nil if the id has not been seen or the record expired.
func (r *ReplayStore) Get(ctx context.Context, key string) ([]byte, error) {
	var response []byte
	err := r.pool.QueryRow(ctx,
		`SELECT response FROM tx_replay WHERE tx_id = $1 AND expires_at > now()`,
		key).Scan(&response)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tx replay: %w", err)
	}
	return response, nil
}

// Set records a transaction outcome with TTL.
func (r *ReplayStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tx_replay (tx_id, response, expires_at)
		 VALUES ($1, $2, now() + make_interval(secs => $3))
		 ON CONFLICT (tx_id) DO UPDATE SET response = EXCLUDED.response, expires_at = EXCLUDED.expires_at`,
		key, value, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("set tx replay: %w", err)
	}
	return nil
}
