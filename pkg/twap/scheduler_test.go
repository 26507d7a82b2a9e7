package twap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypergate/pkg/exchange"
	"hypergate/pkg/orders"
	"hypergate/pkg/precision"
)

type fakeSubmitter struct {
	batches  [][]orders.Request
	errs     []error // consumed per call; nil entry means success
	onSubmit func()
}

func (f *fakeSubmitter) Submit(_ context.Context, batch []orders.Request) (*exchange.OrderResponse, error) {
	if f.onSubmit != nil {
		f.onSubmit()
	}
	call := len(f.batches)
	f.batches = append(f.batches, batch)
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	resp := &exchange.OrderResponse{Status: "ok"}
	resp.Response.Data.Statuses = []exchange.OrderStatusResponse{
		{Filled: &exchange.FilledOrder{Oid: int64(1000 + call)}},
	}
	return resp, nil
}

type staticMids map[string]string

func (m staticMids) Mid(symbol string) (decimal.Decimal, bool) {
	raw, ok := m[precision.Canonical(symbol)]
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.RequireFromString(raw), true
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
}

// testHarness wires a scheduler with manual timers and a frozen clock.
type testHarness struct {
	scheduler *Scheduler
	submitter *fakeSubmitter
	timers    *[]scheduledCall
	now       *time.Time
}

func newHarness(mids staticMids) *testHarness {
	submitter := &fakeSubmitter{}
	timers := &[]scheduledCall{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := &testHarness{submitter: submitter, timers: timers, now: &now}
	h.scheduler = NewScheduler(submitter, mids, precision.NewTable(),
		WithClock(func() time.Time { return *h.now }),
		WithAfterFunc(func(d time.Duration, fn func()) {
			*timers = append(*timers, scheduledCall{delay: d, fn: fn})
		}),
	)
	return h
}

func TestDistributeSizes(t *testing.T) {
	t.Run("front_loaded", func(t *testing.T) {
		// 12 units over 5 intervals: 3,3,2,2,2.
		sizes, err := distributeSizes(decimal.RequireFromString("0.00012"), 5, 5)
		require.NoError(t, err)
		want := []string{"0.00003", "0.00003", "0.00002", "0.00002", "0.00002"}
		require.Len(t, sizes, 5)
		sum := decimal.Zero
		for i, s := range sizes {
			assert.Equal(t, want[i], s.String())
			sum = sum.Add(s)
		}
		assert.True(t, sum.Equal(decimal.RequireFromString("0.00012")))
	})

	t.Run("exact_division", func(t *testing.T) {
		sizes, err := distributeSizes(decimal.NewFromInt(10), 0, 5)
		require.NoError(t, err)
		for _, s := range sizes {
			assert.Equal(t, "2", s.String())
		}
	})

	t.Run("drops_sub_increment_dust", func(t *testing.T) {
		// 1.2345 at szDecimals=2 is 123.45 units: not a clean multiple,
		// so the dust is floored away rather than rounded up.
		sizes, err := distributeSizes(decimal.RequireFromString("1.2345"), 2, 2)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, s := range sizes {
			sum = sum.Add(s)
		}
		assert.Equal(t, "1.23", sum.String())
	})

	t.Run("too_small", func(t *testing.T) {
		_, err := distributeSizes(decimal.NewFromInt(1), 0, 2)
		require.ErrorIs(t, err, ErrSizeTooSmall)
	})
}

func TestCreateBtcFiveSlices(t *testing.T) {
	h := newHarness(staticMids{})

	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol:          "BTC-PERP",
		IsBuy:           true,
		TotalSize:       "0.00012",
		DurationMinutes: 30,
		Intervals:       5,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusActive, snap.Status)
	assert.Equal(t, []string{"0.00003", "0.00003", "0.00002", "0.00002", "0.00002"}, snap.SubOrderSizes)
	assert.Equal(t, int64(6*60*1000), snap.IntervalMs)

	// Sub-order 0 ran synchronously; 1..4 are scheduled at +6, +12, +18, +24.
	require.Len(t, h.submitter.batches, 1)
	first := h.submitter.batches[0][0]
	assert.Equal(t, "0.00003", first.Size)
	assert.Equal(t, exchange.TifIoc, first.TIF)
	assert.True(t, first.IsBuy)

	require.Len(t, *h.timers, 4)
	for i, call := range *h.timers {
		assert.Equal(t, time.Duration(i+1)*6*time.Minute, call.delay)
	}
	assert.Equal(t, 1, snap.CompletedOrders)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, int64(1000), snap.Results[0].Oid)
}

func TestCreateRunsToCompletion(t *testing.T) {
	h := newHarness(staticMids{})

	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)

	for _, call := range *h.timers {
		call.fn()
	}

	got, err := h.scheduler.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 5, got.CompletedOrders)
	assert.Equal(t, 0, got.FailedOrders)
	require.NotNil(t, got.CompletedAt)
	require.Len(t, got.Results, 5)
}

func TestScheduleAnchorsToCreationTime(t *testing.T) {
	h := newHarness(staticMids{})
	// The synchronous first order takes 45s; later slices must still fire at
	// createdAt + i·interval, not drift by that latency.
	h.submitter.onSubmit = func() { *h.now = h.now.Add(45 * time.Second) }

	_, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)

	require.Len(t, *h.timers, 4)
	for i, call := range *h.timers {
		assert.Equal(t, time.Duration(i+1)*6*time.Minute-45*time.Second, call.delay)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(staticMids{"BTC": "100000"})
	ctx := context.Background()
	base := Params{Symbol: "BTC", TotalSize: "0.1", DurationMinutes: 30, Intervals: 5}

	t.Run("intervals_bounds", func(t *testing.T) {
		for _, n := range []int{1, 101} {
			p := base
			p.Intervals = n
			_, err := h.scheduler.Create(ctx, p)
			require.ErrorIs(t, err, ErrIntervalsOutOfRange)
		}
		for _, n := range []int{2, 100} {
			p := base
			p.Intervals = n
			_, err := h.scheduler.Create(ctx, p)
			require.NoError(t, err)
		}
	})

	t.Run("duration_bounds", func(t *testing.T) {
		for _, m := range []int{4, 1441} {
			p := base
			p.DurationMinutes = m
			_, err := h.scheduler.Create(ctx, p)
			require.ErrorIs(t, err, ErrDurationOutOfRange)
		}
		for _, m := range []int{5, 1440} {
			p := base
			p.DurationMinutes = m
			_, err := h.scheduler.Create(ctx, p)
			require.NoError(t, err)
		}
	})

	t.Run("bad_size", func(t *testing.T) {
		p := base
		p.TotalSize = "-1"
		_, err := h.scheduler.Create(ctx, p)
		require.Error(t, err)
	})
}

func TestCreateDogeTooSmall(t *testing.T) {
	h := newHarness(staticMids{"DOGE": "0.15"})

	// DOGE szDecimals=0: one whole coin cannot split across two intervals.
	_, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "DOGE", IsBuy: true, TotalSize: "1", DurationMinutes: 30, Intervals: 2,
	})
	require.ErrorIs(t, err, ErrSizeTooSmall)

	tasks, _ := h.scheduler.List()
	assert.Empty(t, tasks, "no task stored on validation failure")
	assert.Empty(t, h.submitter.batches)
}

func TestCreateFirstOrderFailed(t *testing.T) {
	h := newHarness(staticMids{})
	h.submitter.errs = []error{errors.New("Insufficient margin")}

	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.ErrorIs(t, err, ErrFirstOrderFailed)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Empty(t, *h.timers, "no schedule after a first-order failure")
}

func TestCancelMidRun(t *testing.T) {
	h := newHarness(staticMids{})

	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)

	// Run one scheduled sub-order, then cancel.
	(*h.timers)[0].fn()
	cancelled, err := h.scheduler.Cancel(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// Remaining timers fire but record nothing.
	for _, call := range (*h.timers)[1:] {
		call.fn()
	}
	got, err := h.scheduler.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.Len(t, got.Results, 2)
	assert.Len(t, h.submitter.batches, 2)

	// Cancel on a terminal task errors and changes nothing.
	again, err := h.scheduler.Cancel(snap.ID)
	require.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, got.Status, again.Status)
	assert.Equal(t, got.CancelledAt.Unix(), again.CancelledAt.Unix())
}

func TestSubOrderFailureDoesNotAbort(t *testing.T) {
	h := newHarness(staticMids{})
	h.submitter.errs = []error{nil, errors.New("Order too large"), nil, nil, nil}

	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)

	for _, call := range *h.timers {
		call.fn()
	}

	got, err := h.scheduler.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status, "one failure does not doom the task")
	assert.Equal(t, 4, got.CompletedOrders)
	assert.Equal(t, 1, got.FailedOrders)
	require.Len(t, got.Results, 5)
	assert.NotEmpty(t, got.Results[1].Error)
}

func TestPartialFailuresStillComplete(t *testing.T) {
	h := newHarness(staticMids{})
	boom := errors.New("exchange down")
	h.submitter.errs = []error{nil, boom, boom}

	// Sub-order 0 succeeds; both scheduled slices fail. One success is
	// enough for the task to finish as completed.
	snap, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "ETH", IsBuy: false, TotalSize: "0.003", DurationMinutes: 30, Intervals: 3,
	})
	require.NoError(t, err)

	for _, call := range *h.timers {
		call.fn()
	}
	got, _ := h.scheduler.Get(snap.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1, got.CompletedOrders)
	assert.Equal(t, 2, got.FailedOrders)
}

func TestSubOrderNotionalFloor(t *testing.T) {
	// 0.00002 BTC at a $100k mid is $2, below the $10 floor.
	h := newHarness(staticMids{"BTC": "100000"})

	_, err := h.scheduler.Create(context.Background(), Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.0001", DurationMinutes: 30, Intervals: 5,
	})
	require.ErrorIs(t, err, ErrFirstOrderFailed)
	assert.Empty(t, h.submitter.batches, "floor rejection never reaches the pipeline")
}

func TestListCounters(t *testing.T) {
	h := newHarness(staticMids{})
	ctx := context.Background()

	first, err := h.scheduler.Create(ctx, Params{
		Symbol: "BTC", IsBuy: true, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)
	_, err = h.scheduler.Create(ctx, Params{
		Symbol: "BTC", IsBuy: false, TotalSize: "0.00012", DurationMinutes: 30, Intervals: 5,
	})
	require.NoError(t, err)

	_, err = h.scheduler.Cancel(first.ID)
	require.NoError(t, err)

	snaps, counts := h.scheduler.List()
	require.Len(t, snaps, 2)
	assert.Equal(t, first.ID, snaps[0].ID, "creation order preserved")
	assert.Equal(t, 1, counts[StatusActive])
	assert.Equal(t, 1, counts[StatusCancelled])

	_, err = h.scheduler.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = h.scheduler.Cancel("nope")
	require.ErrorIs(t, err, ErrNotFound)
}
