package pricetape

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"

	"hypergate/pkg/exchange"
	"hypergate/pkg/precision"
)

// DefaultPollInterval is how often the tape refreshes mids from upstream.
const DefaultPollInterval = 2 * time.Second

// ErrNoPrices is returned by PollOnce when upstream yields an empty mids map.
var ErrNoPrices = errors.New("pricetape: upstream returned no mids")

// PricePoint is one symbol's latest mid and when it was observed.
type PricePoint struct {
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// Update is the payload broadcast to subscribers after each successful poll.
type Update struct {
	Type      string                `json:"type"`
	Prices    map[string]PricePoint `json:"prices"`
	Network   string                `json:"network"`
	Timestamp int64                 `json:"timestamp"`
}

// Tape polls upstream mids on an interval and fans the snapshot out to SSE
// subscribers. The snapshot is keyed by SYMBOL-PERP. A poll failure keeps the
// previous snapshot; subscribers simply see no event for that cycle.
type Tape struct {
	interval time.Duration
	clock    func() time.Time

	assetTTL time.Duration

	mu       sync.RWMutex
	info     exchange.Info
	network  precision.Network
	table    *precision.Table
	assets   *AssetIDCache
	snapshot map[string]PricePoint
	subs     map[*Subscriber]struct{}
	stop     chan struct{}
	running  bool
	// gen increments on every network switch; a poll only installs its
	// snapshot if the generation it started under is still current.
	gen uint64

	// fetchMu serializes fetches: ticker polls collapse via TryLock, a
	// network switch waits on it so its fetch cannot be skipped.
	fetchMu sync.Mutex
}

// TapeOption customizes a Tape.
type TapeOption func(*Tape)

// WithPollInterval overrides the poll cadence.
func WithPollInterval(d time.Duration) TapeOption {
	return func(t *Tape) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithAssetTTL overrides how long the asset-id cache is trusted.
func WithAssetTTL(ttl time.Duration) TapeOption {
	return func(t *Tape) {
		if ttl > 0 {
			t.assetTTL = ttl
			t.assets = NewAssetIDCache(t.info, ttl)
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) TapeOption {
	return func(t *Tape) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTape builds a tape over the given info transport. The precision table is
// primed from every meta fetch so size formatting tracks upstream listings.
func NewTape(info exchange.Info, network precision.Network, table *precision.Table, opts ...TapeOption) *Tape {
	t := &Tape{
		interval: DefaultPollInterval,
		assetTTL: DefaultAssetTTL,
		clock:    time.Now,
		info:     info,
		network:  network,
		table:    table,
		assets:   NewAssetIDCache(info, DefaultAssetTTL),
		snapshot: make(map[string]PricePoint),
		subs:     make(map[*Subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Assets exposes the asset-id cache the tape keeps warm.
func (t *Tape) Assets() *AssetIDCache {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.assets
}

// Lookup resolves a symbol through the tape's current asset-id cache. It
// tracks cache replacement on network switches, unlike a captured Assets().
func (t *Tape) Lookup(ctx context.Context, symbol string) (int, error) {
	return t.Assets().Lookup(ctx, symbol)
}

// Network reports which upstream network the tape is tracking.
func (t *Tape) Network() precision.Network {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.network
}

// Start launches the poll loop. Idempotent.
func (t *Tape) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	threading.GoSafe(func() { t.loop(stop) })
}

func (t *Tape) loop(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	// Warm the snapshot before the first tick.
	if err := t.PollOnce(context.Background()); err != nil {
		logx.Errorf("pricetape: initial poll failed: %v", err)
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.PollOnce(context.Background()); err != nil {
				logx.Errorf("pricetape: poll failed: %v", err)
			}
		}
	}
}

// Stop halts the poll loop and closes all subscribers. Idempotent.
func (t *Tape) Stop() {
	t.mu.Lock()
	if t.running {
		close(t.stop)
		t.running = false
	}
	subs := t.subs
	t.subs = make(map[*Subscriber]struct{})
	t.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

// PollOnce fetches mids (and meta, concurrently) once and broadcasts the new
// snapshot. Overlapping calls collapse: a poll arriving while another is in
// flight returns immediately without fetching.
func (t *Tape) PollOnce(ctx context.Context) error {
	if !t.fetchMu.TryLock() {
		return nil
	}
	defer t.fetchMu.Unlock()
	return t.poll(ctx)
}

// pollWait is PollOnce without the collapse: it waits out any in-flight
// fetch. SwitchNetwork uses it so the post-switch fetch always runs.
func (t *Tape) pollWait(ctx context.Context) error {
	t.fetchMu.Lock()
	defer t.fetchMu.Unlock()
	return t.poll(ctx)
}

func (t *Tape) poll(ctx context.Context) error {
	t.mu.RLock()
	gen := t.gen
	info := t.info
	assets := t.assets
	table := t.table
	t.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mids    exchange.AllMids
		midsErr error
		meta    *exchange.Meta
		metaErr error
	)
	wg.Add(2)
	threading.GoSafe(func() {
		defer wg.Done()
		mids, midsErr = info.AllMids(ctx)
	})
	threading.GoSafe(func() {
		defer wg.Done()
		meta, metaErr = info.Meta(ctx)
	})
	wg.Wait()

	// Meta is best effort: prices stay useful without fresh listings. Skip
	// priming when a switch happened mid-fetch; the listings belong to the
	// old network and its asset cache is already detached.
	if metaErr != nil {
		logx.WithContext(ctx).Errorf("pricetape: meta fetch failed: %v", metaErr)
	} else if t.currentGen() == gen {
		assets.Populate(meta)
		if table != nil {
			sizes := make(map[string]int, len(meta.Universe))
			for _, entry := range meta.Universe {
				sizes[entry.Name] = entry.SzDecimals
			}
			table.Prime(sizes)
		}
	}

	if midsErr != nil {
		return midsErr
	}
	if len(mids) == 0 {
		return ErrNoPrices
	}

	now := t.clock().UnixMilli()
	snapshot := make(map[string]PricePoint, len(mids))
	for coin, mid := range mids {
		base := precision.Canonical(coin)
		if base == "" || mid == "" {
			continue
		}
		snapshot[precision.PerpKey(base)] = PricePoint{Price: mid, Timestamp: now}
	}

	t.mu.Lock()
	if t.gen != gen {
		// A switch landed while this poll was in flight: these mids are
		// from the old network, drop them.
		t.mu.Unlock()
		return nil
	}
	t.snapshot = snapshot
	network := t.network
	t.mu.Unlock()

	t.broadcast(Update{
		Type:      "priceUpdate",
		Prices:    snapshot,
		Network:   string(network),
		Timestamp: now,
	})
	return nil
}

// Snapshot returns a copy of the latest prices keyed by SYMBOL-PERP.
func (t *Tape) Snapshot() map[string]PricePoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]PricePoint, len(t.snapshot))
	for k, v := range t.snapshot {
		out[k] = v
	}
	return out
}

// Mid returns the latest mid for a symbol as a decimal.
func (t *Tape) Mid(symbol string) (decimal.Decimal, bool) {
	key := precision.PerpKey(symbol)
	t.mu.RLock()
	point, ok := t.snapshot[key]
	t.mu.RUnlock()
	if !ok {
		return decimal.Decimal{}, false
	}
	mid, err := decimal.NewFromString(point.Price)
	if err != nil || !mid.IsPositive() {
		return decimal.Decimal{}, false
	}
	return mid, true
}

// Subscribe registers an SSE subscriber. If a snapshot already exists the
// subscriber receives it as its first event.
func (t *Tape) Subscribe() *Subscriber {
	sub := newSubscriber()

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	snapshot := t.snapshot
	network := t.network
	t.mu.Unlock()

	if len(snapshot) > 0 {
		if payload, err := json.Marshal(Update{
			Type:      "priceUpdate",
			Prices:    snapshot,
			Network:   string(network),
			Timestamp: t.clock().UnixMilli(),
		}); err == nil {
			sub.ch <- payload
		}
	}
	return sub
}

// Unsubscribe detaches a subscriber and closes its channel.
func (t *Tape) Unsubscribe(sub *Subscriber) {
	t.mu.Lock()
	_, ok := t.subs[sub]
	delete(t.subs, sub)
	t.mu.Unlock()
	if ok {
		sub.close()
	}
}

// SubscriberCount reports how many subscribers are attached.
func (t *Tape) SubscriberCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

func (t *Tape) broadcast(update Update) {
	payload, err := json.Marshal(update)
	if err != nil {
		logx.Errorf("pricetape: marshal update: %v", err)
		return
	}

	t.mu.Lock()
	var stale []*Subscriber
	for sub := range t.subs {
		select {
		case sub.ch <- payload:
		default:
			// Slow consumer: detach instead of blocking the tape.
			delete(t.subs, sub)
			stale = append(stale, sub)
		}
	}
	t.mu.Unlock()

	for _, sub := range stale {
		sub.close()
	}
	if len(stale) > 0 {
		logx.Infof("pricetape: dropped %d slow subscriber(s)", len(stale))
	}
}

func (t *Tape) currentGen() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

// SwitchNetwork repoints the tape at a different upstream, clears the
// snapshot and asset-id cache, and performs one synchronous fetch so callers
// observe fresh prices before the switch is reported successful. Bumping the
// generation first makes any poll still in flight discard its result instead
// of resurrecting old-network mids.
func (t *Tape) SwitchNetwork(ctx context.Context, info exchange.Info, network precision.Network) error {
	if !network.Valid() {
		return errors.New("pricetape: invalid network")
	}

	t.mu.Lock()
	wasRunning := t.running
	if wasRunning {
		close(t.stop)
		t.running = false
	}
	t.gen++
	t.info = info
	t.network = network
	t.snapshot = make(map[string]PricePoint)
	t.assets = NewAssetIDCache(info, t.assetTTL)
	t.mu.Unlock()

	err := t.pollWait(ctx)
	if wasRunning {
		t.Start()
	}
	return err
}
