package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"swapLedger/internal/capability"
	"swapLedger/internal/model"
)

func newSwapPool(t *testing.T, e *Engine) uint64 {
	t.Helper()
	id, err := e.CreatePool(context.Background(), "alice", "hbd", "hive", 1000, 1000)
	require.NoError(t, err)
	return id
}

func TestExecuteSwapConstantProduct(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	// 100 in at 30 bps: 100*9970/10000 = 99 effective,
	// out = 1000*99/(1000+99) = 90 truncated.
	res, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 0, clock.Now().Unix()+60)
	require.NoError(t, err)
	require.Equal(t, uint64(90), res.AmountOut)
	require.Equal(t, uint64(1), res.FeePaid)
	require.Equal(t, uint64(1), res.SwapID)
	// Nominal out at spot is 99; shortfall (99-90)*10000/99 = 909 bps.
	require.Equal(t, uint64(909), res.PriceImpactBps)

	pool, err := e.GetPool(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1100), pool.ReserveA, "full input enters the reserve")
	require.Equal(t, uint64(910), pool.ReserveB)

	require.Equal(t, uint64(1), e.PlatformFees())

	rec, err := e.GetSwap(res.SwapID)
	require.NoError(t, err)
	require.Equal(t, model.SwapRecord{
		ID:             1,
		PoolID:         id,
		Trader:         "bob",
		AssetIn:        "hbd",
		AssetOut:       "hive",
		AmountIn:       100,
		AmountOut:      90,
		Fee:            1,
		PriceImpactBps: 909,
		Timestamp:      clock.Now().Unix(),
	}, rec)
}

func TestSwapKNeverDecreases(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	for i := 0; i < 20; i++ {
		before, err := e.GetPool(id)
		require.NoError(t, err)

		asset := "hbd"
		if i%2 == 1 {
			asset = "hive"
		}
		if _, err := e.ExecuteSwap(ctx, id, "bob", asset, 50, 0, clock.Now().Unix()+60); err != nil {
			// Small pools eventually truncate output to zero; that is a
			// rejection, not an invariant break.
			require.ErrorIs(t, err, ErrInvalidAmount)
			break
		}

		after, err := e.GetPool(id)
		require.NoError(t, err)
		kBefore := before.ReserveA * before.ReserveB
		kAfter := after.ReserveA * after.ReserveB
		require.GreaterOrEqual(t, kAfter, kBefore)
	}
}

func TestQuoteIsIdempotentAndMatchesExecution(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	id := newSwapPool(t, e)

	q1, err := e.Quote(id, "hbd", 100)
	require.NoError(t, err)
	q2, err := e.Quote(id, "hbd", 100)
	require.NoError(t, err)
	require.Equal(t, q1, q2)

	res, err := e.ExecuteSwap(context.Background(), id, "bob", "hbd", 100, 0, clock.Now().Unix()+60)
	require.NoError(t, err)
	require.Equal(t, q1.AmountOut, res.AmountOut)
	require.Equal(t, q1.Fee, res.FeePaid)
	require.Equal(t, q1.PriceImpactBps, res.PriceImpactBps)
}

func TestSwapDeadline(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	_, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 0, clock.Now().Unix()-1)
	require.ErrorIs(t, err, ErrSwapExpired)

	// Deadline exactly at now still executes.
	_, err = e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 0, clock.Now().Unix())
	require.NoError(t, err)
}

func TestLegacySwapIgnoresDeadline(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	clock.Advance(24 * time.Hour)
	_, err := e.Swap(ctx, id, "bob", "hbd", 100, 0)
	require.NoError(t, err)
}

func TestSwapValidation(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)
	deadline := clock.Now().Unix() + 60

	_, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 0, 0, deadline)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = e.ExecuteSwap(ctx, id, "bob", "btc", 100, 0, deadline)
	require.ErrorIs(t, err, ErrInvalidAsset)

	_, err = e.ExecuteSwap(ctx, 99, "bob", "hbd", 100, 0, deadline)
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestSwapMinOutput(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	_, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 91, clock.Now().Unix()+60)
	require.ErrorIs(t, err, ErrMinOutputNotMet)

	_, err = e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 90, clock.Now().Unix()+60)
	require.NoError(t, err)
}

func TestSwapPriceImpactCeiling(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	// 200 in: 199 effective, out = 1000*199/1199 = 165,
	// impact (199-165)*10000/199 = 1708 bps > 1000.
	_, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 200, 0, clock.Now().Unix()+60)
	require.ErrorIs(t, err, ErrPriceImpactTooHigh)

	pool, err := e.GetPool(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), pool.ReserveA, "rejected swap must not mutate reserves")
}

func TestSwapZeroOutputRejected(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()

	id, err := e.CreatePool(ctx, "alice", "hbd", "hive", 1000, 10)
	require.NoError(t, err)

	// 1 in loses the whole amount to the fee truncation; output is zero.
	_, err = e.ExecuteSwap(ctx, id, "bob", "hbd", 1, 0, clock.Now().Unix()+60)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSwapHistoryIsAppendOnly(t *testing.T) {
	e, clock := newTestEngine(t, Config{})
	ctx := context.Background()
	id := newSwapPool(t, e)

	require.Equal(t, uint64(1), e.NextSwapID())

	first, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 0, clock.Now().Unix()+60)
	require.NoError(t, err)
	second, err := e.ExecuteSwap(ctx, id, "bob", "hive", 50, 0, clock.Now().Unix()+60)
	require.NoError(t, err)

	require.Equal(t, first.SwapID+1, second.SwapID)
	require.Equal(t, second.SwapID+1, e.NextSwapID())

	_, err = e.GetSwap(99)
	require.ErrorIs(t, err, ErrSwapNotFound)

	rec, err := e.GetSwap(first.SwapID)
	require.NoError(t, err)
	require.Equal(t, uint64(100), rec.AmountIn)
}

// sinkRecorder captures swap records forwarded by the engine.
type sinkRecorder struct {
	records []model.SwapRecord
}

func (s *sinkRecorder) PutSwapBatch(swaps []model.SwapRecord) error {
	s.records = append(s.records, swaps...)
	return nil
}

func TestSwapSinkReceivesRecords(t *testing.T) {
	sink := &sinkRecorder{}
	e, clock := newTestEngine(t, Config{}, WithSwapSink(sink))
	ctx := context.Background()
	id := newSwapPool(t, e)

	res, err := e.ExecuteSwap(ctx, id, "bob", "hbd", 100, 0, clock.Now().Unix()+60)
	require.NoError(t, err)

	require.Len(t, sink.records, 1)
	require.Equal(t, res.SwapID, sink.records[0].ID)
}

func TestExecuteSwapApproved(t *testing.T) {
	attestor := capability.NewKeccakAttestor()
	attestor.Register("hbd", []byte("hbd contract code"))

	e, clock := newTestEngine(t, Config{}, WithAttestor(attestor))
	ctx := context.Background()
	id := newSwapPool(t, e)
	deadline := clock.Now().Unix() + 60

	// Known contract, but not on the allow-list yet.
	_, err := e.ExecuteSwapApproved(ctx, id, "bob", "hbd", 100, 0, deadline)
	require.ErrorIs(t, err, ErrInvalidContractHash)

	hash, ok := attestor.CodeHash("hbd")
	require.True(t, ok)
	e.ApproveCodeHash(hash)

	res, err := e.ExecuteSwapApproved(ctx, id, "bob", "hbd", 100, 0, deadline)
	require.NoError(t, err)
	require.Equal(t, uint64(90), res.AmountOut)

	// Unknown contract.
	_, err = e.ExecuteSwapApproved(ctx, id, "bob", "hive", 10, 0, deadline)
	require.ErrorIs(t, err, ErrInvalidContractHash)
}

// staticVerifier accepts or rejects every signature.
type staticVerifier bool

func (v staticVerifier) Verify(_, _, _ []byte) bool { return bool(v) }

func TestExecuteSignedSwap(t *testing.T) {
	ctx := context.Background()

	intent := SwapIntent{
		Trader:       "bob",
		PoolID:       1,
		AssetIn:      "hbd",
		AmountIn:     100,
		MinAmountOut: 0,
	}

	e, clock := newTestEngine(t, Config{}, WithVerifier(staticVerifier(false)))
	newSwapPool(t, e)
	intent.Deadline = clock.Now().Unix() + 60

	_, err := e.ExecuteSignedSwap(ctx, intent, []byte("sig"), []byte("pub"))
	require.ErrorIs(t, err, ErrInvalidSignature)

	e2, clock2 := newTestEngine(t, Config{}, WithVerifier(staticVerifier(true)))
	newSwapPool(t, e2)
	intent.Deadline = clock2.Now().Unix() + 60

	res, err := e2.ExecuteSignedSwap(ctx, intent, []byte("sig"), []byte("pub"))
	require.NoError(t, err)
	require.Equal(t, uint64(90), res.AmountOut)
}

func TestSwapIntentDigestDistinguishesFields(t *testing.T) {
	base := SwapIntent{Trader: "bob", PoolID: 1, AssetIn: "hbd", AmountIn: 100, Deadline: 10}

	altered := base
	altered.AmountIn = 101
	require.NotEqual(t, base.Digest(), altered.Digest())

	// Length-prefixing keeps adjacent string fields from bleeding together.
	a := SwapIntent{Trader: "ab", AssetIn: "c"}
	b := SwapIntent{Trader: "a", AssetIn: "bc"}
	require.NotEqual(t, a.Digest(), b.Digest())
}
