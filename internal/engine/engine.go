// Package engine implements the AMM pool ledger and swap-execution core:
// pool registry, liquidity-share accounting, swap execution, reward accrual,
// the fee treasury, and the append-only swap history. Every mutating
// operation validates all preconditions before applying any write, and
// operations against the same pool are serialized by a per-pool lock.
package engine

import (
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"swapLedger/internal/capability"
	"swapLedger/internal/metrics"
	"swapLedger/internal/model"
)

// Fee and guard constants, in basis points of 10,000.
const (
	FeeBps            = 30
	RatioToleranceBps = 50
	MaxPriceImpactBps = 1000
)

// RewardPolicy selects what happens to rewards accrued up to a liquidity
// add/remove.
type RewardPolicy int

const (
	// RewardAutoClaim pays accrued rewards out before resetting the state.
	RewardAutoClaim RewardPolicy = iota
	// RewardForfeit resets accrued rewards without paying them, reporting
	// the forfeited figure to the caller only.
	RewardForfeit
)

// Config holds the engine's initialization-time settings. Owner is compared
// by identity on owner-gated calls and never reassigned at runtime.
type Config struct {
	Owner          string
	ModuleAccount  string
	FeeAsset       string
	RewardAsset    string
	RewardRate     uint64 // reward units per liquidity share per second
	RewardPolicy   RewardPolicy
	MinLockPeriod  time.Duration
	ApprovedHashes []string // hex-encoded contract code hashes for gated swaps
}

// DefaultConfig returns the engine defaults used when a field is unset.
func DefaultConfig() Config {
	return Config{
		ModuleAccount: "amm-engine",
		RewardRate:    1,
		RewardPolicy:  RewardAutoClaim,
		MinLockPeriod: time.Hour,
	}
}

// SwapSink receives executed swap records for persistence. A nil sink
// disables forwarding; the in-memory history is kept either way.
type SwapSink interface {
	PutSwapBatch(swaps []model.SwapRecord) error
}

// poolState bundles a pool with the records keyed by it. Its lock serializes
// all mutating operations against the pool; queries take it shared.
type poolState struct {
	mu        sync.RWMutex
	pool      model.Pool
	positions map[string]uint64
	locks     map[string]model.TimeLock
	rewards   map[string]model.RewardState
}

// Engine is the AMM state machine.
type Engine struct {
	cfg      Config
	log      *zap.Logger
	met      *metrics.EngineMetrics
	clock    capability.Clock
	attestor capability.CodeAttestor
	verifier capability.SignatureVerifier
	transfer capability.AssetTransfer
	sink     SwapSink

	approved map[string]struct{}

	mu         sync.RWMutex // guards pools map and lastPoolID
	pools      map[uint64]*poolState
	lastPoolID uint64

	histMu     sync.RWMutex // guards swaps and lastSwapID
	swaps      map[uint64]model.SwapRecord
	lastSwapID uint64

	feeMu        sync.Mutex
	platformFees uint64
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.EngineMetrics) Option { return func(e *Engine) { e.met = m } }

// WithClock overrides the time source.
func WithClock(c capability.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithAttestor sets the code-attestation collaborator.
func WithAttestor(a capability.CodeAttestor) Option { return func(e *Engine) { e.attestor = a } }

// WithVerifier sets the signature-verification collaborator.
func WithVerifier(v capability.SignatureVerifier) Option { return func(e *Engine) { e.verifier = v } }

// WithTransfer sets the asset-transfer collaborator.
func WithTransfer(t capability.AssetTransfer) Option { return func(e *Engine) { e.transfer = t } }

// WithSwapSink forwards executed swaps to sink.
func WithSwapSink(s SwapSink) Option { return func(e *Engine) { e.sink = s } }

// New builds an Engine from cfg. Zero-value config fields fall back to
// DefaultConfig.
func New(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.ModuleAccount == "" {
		cfg.ModuleAccount = def.ModuleAccount
	}
	if cfg.RewardRate == 0 {
		cfg.RewardRate = def.RewardRate
	}
	if cfg.MinLockPeriod == 0 {
		cfg.MinLockPeriod = def.MinLockPeriod
	}

	e := &Engine{
		cfg:      cfg,
		log:      zap.NewNop(),
		clock:    capability.SystemClock{},
		pools:    make(map[uint64]*poolState),
		swaps:    make(map[uint64]model.SwapRecord),
		approved: make(map[string]struct{}),
	}
	for _, h := range cfg.ApprovedHashes {
		e.approved[h] = struct{}{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApproveCodeHash adds a contract code hash to the allow-list for gated swaps.
func (e *Engine) ApproveCodeHash(hash []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.approved[hex.EncodeToString(hash)] = struct{}{}
}

func (e *Engine) isApproved(hash []byte) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.approved[hex.EncodeToString(hash)]
	return ok
}

// sortedKeys returns the map's keys in lexical order so snapshots are
// deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// now returns the current time in unix seconds.
func (e *Engine) now() int64 {
	return e.clock.Now().Unix()
}

// getPoolState returns the live pool entry for id.
func (e *Engine) getPoolState(id uint64) (*poolState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ps, ok := e.pools[id]
	if !ok {
		return nil, fmt.Errorf("pool %d: %w", id, ErrPoolNotFound)
	}
	return ps, nil
}

// Snapshot copies the engine's full persisted state. It acquires every pool
// lock shared, so the copy is consistent with respect to any single pool.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := model.Snapshot{LastPoolID: e.lastPoolID}

	ids := make([]uint64, 0, len(e.pools))
	for id := range e.pools {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		ps := e.pools[id]
		ps.mu.RLock()
		snap.Pools = append(snap.Pools, ps.pool)
		for _, provider := range sortedKeys(ps.positions) {
			snap.Positions = append(snap.Positions, model.LiquidityPosition{
				PoolID: id, Provider: provider, Balance: ps.positions[provider],
			})
		}
		for _, provider := range sortedKeys(ps.locks) {
			snap.TimeLocks = append(snap.TimeLocks, ps.locks[provider])
		}
		for _, provider := range sortedKeys(ps.rewards) {
			snap.RewardStates = append(snap.RewardStates, ps.rewards[provider])
		}
		ps.mu.RUnlock()
	}

	e.histMu.RLock()
	snap.LastSwapID = e.lastSwapID
	for id := uint64(1); id <= e.lastSwapID; id++ {
		if rec, ok := e.swaps[id]; ok {
			snap.Swaps = append(snap.Swaps, rec)
		}
	}
	e.histMu.RUnlock()

	e.feeMu.Lock()
	snap.PlatformFees = e.platformFees
	e.feeMu.Unlock()

	return snap
}

// Restore replaces the engine state with snap. Intended for startup only;
// it must not run concurrently with operations.
func (e *Engine) Restore(snap model.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pools := make(map[uint64]*poolState, len(snap.Pools))
	for _, p := range snap.Pools {
		pools[p.ID] = &poolState{
			pool:      p,
			positions: make(map[string]uint64),
			locks:     make(map[string]model.TimeLock),
			rewards:   make(map[string]model.RewardState),
		}
	}
	for _, pos := range snap.Positions {
		ps, ok := pools[pos.PoolID]
		if !ok {
			return fmt.Errorf("restore: position references unknown pool %d", pos.PoolID)
		}
		ps.positions[pos.Provider] = pos.Balance
	}
	for _, lock := range snap.TimeLocks {
		ps, ok := pools[lock.PoolID]
		if !ok {
			return fmt.Errorf("restore: time lock references unknown pool %d", lock.PoolID)
		}
		ps.locks[lock.Provider] = lock
	}
	for _, rs := range snap.RewardStates {
		ps, ok := pools[rs.PoolID]
		if !ok {
			return fmt.Errorf("restore: reward state references unknown pool %d", rs.PoolID)
		}
		ps.rewards[rs.Provider] = rs
	}

	swaps := make(map[uint64]model.SwapRecord, len(snap.Swaps))
	for _, rec := range snap.Swaps {
		swaps[rec.ID] = rec
	}

	e.pools = pools
	e.lastPoolID = snap.LastPoolID

	e.histMu.Lock()
	e.swaps = swaps
	e.lastSwapID = snap.LastSwapID
	e.histMu.Unlock()

	e.feeMu.Lock()
	e.platformFees = snap.PlatformFees
	e.feeMu.Unlock()

	if e.met != nil {
		e.met.PoolsTotal.Set(float64(len(pools)))
	}
	return nil
}
