// Package postgres persists the engine state layout: the pool table, the
// per-provider position/lock/reward tables, the append-only swap history,
// and the scalar counters.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapLedger/internal/model"
)

// Store provides Postgres persistence for the engine.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pools (
		id BIGINT PRIMARY KEY,
		asset_a TEXT NOT NULL,
		asset_b TEXT NOT NULL,
		reserve_a NUMERIC(20,0) NOT NULL,
		reserve_b NUMERIC(20,0) NOT NULL,
		liquidity_total NUMERIC(20,0) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS liquidity_positions (
		pool_id BIGINT NOT NULL,
		provider TEXT NOT NULL,
		balance NUMERIC(20,0) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pool_id, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS time_locks (
		pool_id BIGINT NOT NULL,
		provider TEXT NOT NULL,
		locked_until BIGINT NOT NULL,
		locked_at BIGINT NOT NULL,
		PRIMARY KEY (pool_id, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS reward_states (
		pool_id BIGINT NOT NULL,
		provider TEXT NOT NULL,
		last_claim BIGINT NOT NULL,
		accrued NUMERIC(20,0) NOT NULL,
		PRIMARY KEY (pool_id, provider)
	)`,
	`CREATE TABLE IF NOT EXISTS swap_history (
		id BIGINT PRIMARY KEY,
		pool_id BIGINT NOT NULL,
		trader TEXT NOT NULL,
		asset_in TEXT NOT NULL,
		asset_out TEXT NOT NULL,
		amount_in NUMERIC(20,0) NOT NULL,
		amount_out NUMERIC(20,0) NOT NULL,
		fee NUMERIC(20,0) NOT NULL,
		price_impact_bps BIGINT NOT NULL,
		ts BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS engine_state (
		name TEXT PRIMARY KEY,
		value NUMERIC(20,0) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pool_window_metrics (
		pool_id BIGINT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts BIGINT NOT NULL,
		window_end_ts BIGINT NOT NULL,
		swap_count BIGINT NOT NULL,
		volume_in NUMERIC(20,0) NOT NULL,
		volume_out NUMERIC(20,0) NOT NULL,
		fee_total NUMERIC(20,0) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (pool_id, window_size_seconds, window_start_ts)
	)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces the persisted engine state with snap in a single
// transaction. Swap history rows are append-only and never rewritten.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"pools", "liquidity_positions", "time_locks", "reward_states"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	batch := &pgx.Batch{}
	for _, p := range snap.Pools {
		batch.Queue(`
			INSERT INTO pools (id, asset_a, asset_b, reserve_a, reserve_b, liquidity_total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, int64(p.ID), p.AssetA, p.AssetB, p.ReserveA, p.ReserveB, p.LiquidityTotal, p.CreatedAt)
	}
	for _, pos := range snap.Positions {
		batch.Queue(`
			INSERT INTO liquidity_positions (pool_id, provider, balance, updated_at)
			VALUES ($1, $2, $3, now())
		`, int64(pos.PoolID), pos.Provider, pos.Balance)
	}
	for _, lock := range snap.TimeLocks {
		batch.Queue(`
			INSERT INTO time_locks (pool_id, provider, locked_until, locked_at)
			VALUES ($1, $2, $3, $4)
		`, int64(lock.PoolID), lock.Provider, lock.LockedUntil, lock.LockedAt)
	}
	for _, rs := range snap.RewardStates {
		batch.Queue(`
			INSERT INTO reward_states (pool_id, provider, last_claim, accrued)
			VALUES ($1, $2, $3, $4)
		`, int64(rs.PoolID), rs.Provider, rs.LastClaim, rs.Accrued)
	}
	for _, rec := range snap.Swaps {
		batch.Queue(`
			INSERT INTO swap_history (id, pool_id, trader, asset_in, asset_out, amount_in, amount_out, fee, price_impact_bps, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING
		`, int64(rec.ID), int64(rec.PoolID), rec.Trader, rec.AssetIn, rec.AssetOut,
			rec.AmountIn, rec.AmountOut, rec.Fee, int64(rec.PriceImpactBps), rec.Timestamp)
	}
	for name, value := range map[string]uint64{
		"last_pool_id":  snap.LastPoolID,
		"last_swap_id":  snap.LastSwapID,
		"platform_fees": snap.PlatformFees,
	} {
		batch.Queue(`
			INSERT INTO engine_state (name, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, name, value)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LoadSnapshot reads the full persisted engine state.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot

	rows, err := s.pool.Query(ctx, `
		SELECT id, asset_a, asset_b, reserve_a, reserve_b, liquidity_total, created_at
		FROM pools ORDER BY id
	`)
	if err != nil {
		return snap, fmt.Errorf("load pools: %w", err)
	}
	for rows.Next() {
		var p model.Pool
		var id int64
		if err := rows.Scan(&id, &p.AssetA, &p.AssetB, &p.ReserveA, &p.ReserveB, &p.LiquidityTotal, &p.CreatedAt); err != nil {
			rows.Close()
			return snap, err
		}
		p.ID = uint64(id)
		snap.Pools = append(snap.Pools, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT pool_id, provider, balance FROM liquidity_positions ORDER BY pool_id, provider
	`)
	if err != nil {
		return snap, fmt.Errorf("load positions: %w", err)
	}
	for rows.Next() {
		var pos model.LiquidityPosition
		var poolID int64
		if err := rows.Scan(&poolID, &pos.Provider, &pos.Balance); err != nil {
			rows.Close()
			return snap, err
		}
		pos.PoolID = uint64(poolID)
		snap.Positions = append(snap.Positions, pos)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT pool_id, provider, locked_until, locked_at FROM time_locks ORDER BY pool_id, provider
	`)
	if err != nil {
		return snap, fmt.Errorf("load time locks: %w", err)
	}
	for rows.Next() {
		var lock model.TimeLock
		var poolID int64
		if err := rows.Scan(&poolID, &lock.Provider, &lock.LockedUntil, &lock.LockedAt); err != nil {
			rows.Close()
			return snap, err
		}
		lock.PoolID = uint64(poolID)
		snap.TimeLocks = append(snap.TimeLocks, lock)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT pool_id, provider, last_claim, accrued FROM reward_states ORDER BY pool_id, provider
	`)
	if err != nil {
		return snap, fmt.Errorf("load reward states: %w", err)
	}
	for rows.Next() {
		var rs model.RewardState
		var poolID int64
		if err := rows.Scan(&poolID, &rs.Provider, &rs.LastClaim, &rs.Accrued); err != nil {
			rows.Close()
			return snap, err
		}
		rs.PoolID = uint64(poolID)
		snap.RewardStates = append(snap.RewardStates, rs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, pool_id, trader, asset_in, asset_out, amount_in, amount_out, fee, price_impact_bps, ts
		FROM swap_history ORDER BY id
	`)
	if err != nil {
		return snap, fmt.Errorf("load swap history: %w", err)
	}
	for rows.Next() {
		var rec model.SwapRecord
		var id, poolID, impact int64
		if err := rows.Scan(&id, &poolID, &rec.Trader, &rec.AssetIn, &rec.AssetOut,
			&rec.AmountIn, &rec.AmountOut, &rec.Fee, &impact, &rec.Timestamp); err != nil {
			rows.Close()
			return snap, err
		}
		rec.ID = uint64(id)
		rec.PoolID = uint64(poolID)
		rec.PriceImpactBps = uint64(impact)
		snap.Swaps = append(snap.Swaps, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	snap.LastPoolID, err = s.loadState(ctx, "last_pool_id")
	if err != nil {
		return snap, err
	}
	snap.LastSwapID, err = s.loadState(ctx, "last_swap_id")
	if err != nil {
		return snap, err
	}
	snap.PlatformFees, err = s.loadState(ctx, "platform_fees")
	if err != nil {
		return snap, err
	}

	return snap, nil
}

// loadState returns a scalar counter, zero when absent.
func (s *Store) loadState(ctx context.Context, name string) (uint64, error) {
	var value uint64
	row := s.pool.QueryRow(ctx, `SELECT value FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return value, nil
}

// LoadState returns a named scalar from engine_state.
func (s *Store) LoadState(ctx context.Context, name string) (int64, bool, error) {
	var value int64
	row := s.pool.QueryRow(ctx, `SELECT value FROM engine_state WHERE name=$1`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

// SaveState stores a named scalar in engine_state.
func (s *Store) SaveState(ctx context.Context, name string, value int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_state (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, name, value)
	return err
}

// PutSwapBatch appends swap records to the history table. Implements the
// engine's swap sink.
func (s *Store) PutSwapBatch(swaps []model.SwapRecord) error {
	if len(swaps) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range swaps {
		batch.Queue(`
			INSERT INTO swap_history (id, pool_id, trader, asset_in, asset_out, amount_in, amount_out, fee, price_impact_bps, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING
		`, int64(rec.ID), int64(rec.PoolID), rec.Trader, rec.AssetIn, rec.AssetOut,
			rec.AmountIn, rec.AmountOut, rec.Fee, int64(rec.PriceImpactBps), rec.Timestamp)
	}

	br := s.pool.SendBatch(context.Background(), batch)
	defer br.Close()

	for range swaps {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates aggregated pool window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_id, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume_in, volume_out, fee_total, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
			ON CONFLICT (pool_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume_in = EXCLUDED.volume_in,
				volume_out = EXCLUDED.volume_out,
				fee_total = EXCLUDED.fee_total,
				updated_at = now()
		`,
			int64(m.PoolID),
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.VolumeIn,
			m.VolumeOut,
			m.FeeTotal,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
