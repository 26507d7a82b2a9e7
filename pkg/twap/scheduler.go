package twap

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"hypergate/pkg/exchange"
	"hypergate/pkg/orders"
	"hypergate/pkg/precision"
)

// Status is a task's lifecycle state. Terminal states are absorbing.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Validation bounds for create parameters.
const (
	MinIntervals       = 2
	MaxIntervals       = 100
	MinDurationMinutes = 5
	MaxDurationMinutes = 1440
)

// minNotionalUSD is the exchange's $10 order-value floor, enforced per
// sub-order whenever a live mid is available.
var minNotionalUSD = decimal.NewFromInt(10)

// Params are the caller-supplied task parameters.
type Params struct {
	Symbol          string
	IsBuy           bool
	TotalSize       string
	DurationMinutes int
	Intervals       int
	ReduceOnly      bool
}

// Result records the outcome of one executed sub-order.
type Result struct {
	Index      int       `json:"index"`
	Size       string    `json:"size"`
	ExecutedAt time.Time `json:"executedAt"`
	Oid        int64     `json:"oid,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Task is one TWAP schedule. All mutable fields are guarded by mu.
type Task struct {
	mu sync.Mutex

	id         string
	symbol     string
	isBuy      bool
	reduceOnly bool
	totalSize  decimal.Decimal
	subSizes   []decimal.Decimal
	duration   int
	interval   time.Duration

	status          Status
	createdAt       time.Time
	completedAt     time.Time
	cancelledAt     time.Time
	completedOrders int
	failedOrders    int
	results         []Result
}

// Snapshot is the formatted, immutable view of a task returned to callers.
type Snapshot struct {
	ID              string     `json:"id"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"`
	TotalSize       string     `json:"totalSize"`
	SubOrderSizes   []string   `json:"subOrderSizes"`
	Intervals       int        `json:"intervals"`
	DurationMinutes int        `json:"durationMinutes"`
	IntervalMs      int64      `json:"intervalMs"`
	ReduceOnly      bool       `json:"reduceOnly"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CompletedOrders int        `json:"completedOrders"`
	FailedOrders    int        `json:"failedOrders"`
	Results         []Result   `json:"results"`
}

func (t *Task) snapshotLocked(table *precision.Table) Snapshot {
	side := "sell"
	if t.isBuy {
		side = "buy"
	}
	sizes := make([]string, len(t.subSizes))
	for i, s := range t.subSizes {
		sizes[i] = table.FormatSize(t.symbol, s)
	}
	results := make([]Result, len(t.results))
	copy(results, t.results)

	snap := Snapshot{
		ID:              t.id,
		Symbol:          t.symbol,
		Side:            side,
		TotalSize:       table.FormatSize(t.symbol, t.totalSize),
		SubOrderSizes:   sizes,
		Intervals:       len(t.subSizes),
		DurationMinutes: t.duration,
		IntervalMs:      t.interval.Milliseconds(),
		ReduceOnly:      t.reduceOnly,
		Status:          t.status,
		CreatedAt:       t.createdAt,
		CompletedOrders: t.completedOrders,
		FailedOrders:    t.failedOrders,
		Results:         results,
	}
	if !t.completedAt.IsZero() {
		at := t.completedAt
		snap.CompletedAt = &at
	}
	if !t.cancelledAt.IsZero() {
		at := t.cancelledAt
		snap.CancelledAt = &at
	}
	return snap
}

// Submitter is the slice of the order pipeline the scheduler drives.
type Submitter interface {
	Submit(ctx context.Context, batch []orders.Request) (*exchange.OrderResponse, error)
}

// Scheduler owns all TWAP tasks in the process. Sub-orders after the first
// are fired by one-shot timers that re-check task status before running, so
// cancellation needs no timer bookkeeping.
type Scheduler struct {
	pipeline Submitter
	tape     orders.MidSource
	table    *precision.Table

	clock func() time.Time
	after func(d time.Duration, fn func())

	mu    sync.RWMutex
	tasks map[string]*Task
	order []string

	seq atomic.Int64
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAfterFunc overrides timer scheduling, for tests.
func WithAfterFunc(after func(time.Duration, func())) SchedulerOption {
	return func(s *Scheduler) {
		if after != nil {
			s.after = after
		}
	}
}

// NewScheduler wires a scheduler from its collaborators.
func NewScheduler(pipeline Submitter, tape orders.MidSource, table *precision.Table, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pipeline: pipeline,
		tape:     tape,
		table:    table,
		clock:    time.Now,
		tasks:    make(map[string]*Task),
	}
	s.after = func(d time.Duration, fn func()) {
		time.AfterFunc(d, func() { threading.RunSafe(fn) })
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the parameters, distributes sub-order sizes, executes
// sub-order 0 synchronously, and schedules the rest. A first-order rejection
// marks the task failed and returns ErrFirstOrderFailed.
func (s *Scheduler) Create(ctx context.Context, params Params) (Snapshot, error) {
	var zero Snapshot

	symbol := precision.Canonical(params.Symbol)
	if symbol == "" {
		return zero, fmt.Errorf("twap: symbol is required")
	}
	if params.Intervals < MinIntervals || params.Intervals > MaxIntervals {
		return zero, ErrIntervalsOutOfRange
	}
	if params.DurationMinutes < MinDurationMinutes || params.DurationMinutes > MaxDurationMinutes {
		return zero, ErrDurationOutOfRange
	}
	totalSize, err := decimal.NewFromString(params.TotalSize)
	if err != nil || !totalSize.IsPositive() {
		return zero, fmt.Errorf("twap: total size must be a positive number")
	}

	spec := s.table.Get(symbol)
	subSizes, err := distributeSizes(totalSize, spec.SzDecimals, params.Intervals)
	if err != nil {
		return zero, err
	}
	minSize := s.table.MinOrderSize(symbol)
	for _, size := range subSizes {
		if size.LessThan(minSize) {
			return zero, ErrSizeTooSmall
		}
	}

	now := s.clock()
	task := &Task{
		id:         fmt.Sprintf("twap-%d-%d", now.UnixMilli(), s.seq.Add(1)),
		symbol:     symbol,
		isBuy:      params.IsBuy,
		reduceOnly: params.ReduceOnly,
		totalSize:  totalSize,
		subSizes:   subSizes,
		duration:   params.DurationMinutes,
		interval:   time.Duration(params.DurationMinutes) * time.Minute / time.Duration(params.Intervals),
		status:     StatusActive,
		createdAt:  now,
	}

	s.mu.Lock()
	s.tasks[task.id] = task
	s.order = append(s.order, task.id)
	s.mu.Unlock()

	// The first slice runs in the caller's context so an unplaceable order
	// surfaces immediately instead of minutes later.
	if ok := s.executeSubOrder(ctx, task, 0); !ok {
		task.mu.Lock()
		task.status = StatusFailed
		task.completedAt = s.clock()
		snap := task.snapshotLocked(s.table)
		task.mu.Unlock()
		return snap, ErrFirstOrderFailed
	}

	// Slice i fires at createdAt + i·interval: anchoring to creation time
	// keeps first-order latency from shifting the whole schedule.
	for i := 1; i < len(subSizes); i++ {
		index := i
		delay := task.createdAt.Add(time.Duration(index) * task.interval).Sub(s.clock())
		if delay < 0 {
			delay = 0
		}
		s.after(delay, func() {
			s.runScheduled(task, index)
		})
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	return task.snapshotLocked(s.table), nil
}

// Get returns a snapshot of one task.
func (s *Scheduler) Get(id string) (Snapshot, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	task.mu.Lock()
	defer task.mu.Unlock()
	return task.snapshotLocked(s.table), nil
}

// List returns all tasks in creation order plus counters by status.
func (s *Scheduler) List() ([]Snapshot, map[Status]int) {
	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	tasks := make([]*Task, 0, len(ids))
	for _, id := range ids {
		if task, ok := s.tasks[id]; ok {
			tasks = append(tasks, task)
		}
	}
	s.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(tasks))
	counts := map[Status]int{}
	for _, task := range tasks {
		task.mu.Lock()
		snap := task.snapshotLocked(s.table)
		task.mu.Unlock()
		snaps = append(snaps, snap)
		counts[snap.Status]++
	}
	return snaps, counts
}

// Cancel marks an active task cancelled. Pending timers become no-ops; they
// are left to expire on their own.
func (s *Scheduler) Cancel(id string) (Snapshot, error) {
	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	if task.status != StatusActive {
		return task.snapshotLocked(s.table), ErrNotActive
	}
	task.status = StatusCancelled
	task.cancelledAt = s.clock()
	logx.Infof("twap: task %s cancelled after %d/%d sub-orders", task.id,
		task.completedOrders+task.failedOrders, len(task.subSizes))
	return task.snapshotLocked(s.table), nil
}

func (s *Scheduler) runScheduled(task *Task, index int) {
	s.executeSubOrder(context.Background(), task, index)
}

// executeSubOrder runs sub-order index and records its outcome. It returns
// false when the order failed (or the task was no longer active).
func (s *Scheduler) executeSubOrder(ctx context.Context, task *Task, index int) bool {
	task.mu.Lock()
	if task.status != StatusActive {
		task.mu.Unlock()
		return false
	}
	size := task.subSizes[index]
	symbol := task.symbol
	isBuy := task.isBuy
	reduceOnly := task.reduceOnly
	task.mu.Unlock()

	sizeStr := s.table.FormatSize(symbol, size)

	var failure string
	if size.LessThan(s.table.MinOrderSize(symbol)) {
		failure = "sub-order below minimum order size"
	} else if mid, ok := s.tape.Mid(symbol); ok && size.Mul(mid).LessThan(minNotionalUSD) {
		failure = "sub-order value below $10 minimum"
	}

	var oid int64
	if failure == "" {
		resp, err := s.pipeline.Submit(ctx, []orders.Request{{
			Symbol:     symbol,
			IsBuy:      isBuy,
			Size:       sizeStr,
			ReduceOnly: reduceOnly,
			TIF:        exchange.TifIoc,
		}})
		if err != nil {
			failure = err.Error()
		} else {
			oid = firstOid(resp)
		}
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	if task.status != StatusActive {
		// Cancelled while the order was in flight: record nothing.
		return false
	}

	result := Result{Index: index, Size: sizeStr, ExecutedAt: s.clock(), Oid: oid, Error: failure}
	task.results = append(task.results, result)
	if failure == "" {
		task.completedOrders++
	} else {
		task.failedOrders++
		logx.Errorf("twap: task %s sub-order %d failed: %s", task.id, index, failure)
	}

	if index == len(task.subSizes)-1 {
		if task.completedOrders > 0 {
			task.status = StatusCompleted
		} else {
			task.status = StatusFailed
		}
		task.completedAt = s.clock()
	}
	return failure == ""
}

func firstOid(resp *exchange.OrderResponse) int64 {
	if resp == nil {
		return 0
	}
	for _, status := range resp.Response.Data.Statuses {
		if status.Resting != nil {
			return status.Resting.Oid
		}
		if status.Filled != nil {
			return status.Filled.Oid
		}
	}
	return 0
}
