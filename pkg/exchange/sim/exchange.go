package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"hypergate/pkg/exchange"
)

// Exchange is an in-memory stand-in for the upstream venue, useful for local
// development and tests that need the full gateway wiring without keys or
// network access. Orders fill immediately at their limit price; trigger
// orders rest until cancelled.
type Exchange struct {
	mu sync.Mutex

	universe []exchange.UniverseEntry
	mids     map[string]string

	nextOid  int64
	open     map[int64]exchange.OpenOrder
	position map[string]decimal.Decimal // signed size by coin
	entry    map[string]decimal.Decimal

	leverage  map[int]int
	isoMargin map[int]int64

	accountValue decimal.Decimal
}

var (
	_ exchange.Transport = (*Exchange)(nil)
	_ exchange.Info      = (*Exchange)(nil)
)

// New builds a sim venue listing the given universe with starting mids.
func New(universe []exchange.UniverseEntry, mids map[string]string) *Exchange {
	m := make(map[string]string, len(mids))
	for k, v := range mids {
		m[strings.ToUpper(k)] = v
	}
	return &Exchange{
		universe:     universe,
		mids:         m,
		nextOid:      1,
		open:         make(map[int64]exchange.OpenOrder),
		position:     make(map[string]decimal.Decimal),
		entry:        make(map[string]decimal.Decimal),
		leverage:     make(map[int]int),
		isoMargin:    make(map[int]int64),
		accountValue: decimal.NewFromInt(10000),
	}
}

// SetMid moves a coin's mid price.
func (e *Exchange) SetMid(coin, mid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mids[strings.ToUpper(coin)] = mid
}

// Position returns the signed position size for a coin.
func (e *Exchange) Position(coin string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position[strings.ToUpper(coin)]
}

func (e *Exchange) coinByAsset(asset int) (string, error) {
	if asset < 0 || asset >= len(e.universe) {
		return "", fmt.Errorf("sim: unknown asset %d", asset)
	}
	return e.universe[asset].Name, nil
}

func (e *Exchange) Order(_ context.Context, orders []exchange.Order, _ exchange.Grouping) (*exchange.OrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := &exchange.OrderResponse{Status: "ok"}
	resp.Response.Type = "order"
	for _, order := range orders {
		coin, err := e.coinByAsset(order.Asset)
		if err != nil {
			return nil, err
		}
		oid := e.nextOid
		e.nextOid++

		if order.OrderType.Trigger != nil {
			side := "A"
			if order.IsBuy {
				side = "B"
			}
			e.open[oid] = exchange.OpenOrder{Coin: coin, Side: side, LimitPx: order.LimitPx, Sz: order.Sz, Oid: oid}
			resp.Response.Data.Statuses = append(resp.Response.Data.Statuses,
				exchange.OrderStatusResponse{Resting: &exchange.RestingOrder{Oid: oid}})
			continue
		}

		size, err := decimal.NewFromString(order.Sz)
		if err != nil || !size.IsPositive() {
			resp.Response.Data.Statuses = append(resp.Response.Data.Statuses,
				exchange.OrderStatusResponse{Error: "Invalid size"})
			continue
		}
		if !order.IsBuy {
			size = size.Neg()
		}
		prev := e.position[coin]
		e.position[coin] = prev.Add(size)
		if prev.IsZero() {
			px, _ := decimal.NewFromString(order.LimitPx)
			e.entry[coin] = px
		}
		resp.Response.Data.Statuses = append(resp.Response.Data.Statuses,
			exchange.OrderStatusResponse{Filled: &exchange.FilledOrder{TotalSz: order.Sz, AvgPx: order.LimitPx, Oid: oid}})
	}
	return resp, nil
}

func (e *Exchange) Cancel(_ context.Context, cancels []exchange.Cancel) (*exchange.OrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := &exchange.OrderResponse{Status: "ok"}
	resp.Response.Type = "cancel"
	for _, cancel := range cancels {
		if _, ok := e.open[cancel.Oid]; !ok {
			resp.Response.Data.Statuses = append(resp.Response.Data.Statuses,
				exchange.OrderStatusResponse{Error: fmt.Sprintf("Order %d not found", cancel.Oid)})
			continue
		}
		delete(e.open, cancel.Oid)
		resp.Response.Data.Statuses = append(resp.Response.Data.Statuses,
			exchange.OrderStatusResponse{Resting: &exchange.RestingOrder{Oid: cancel.Oid}})
	}
	return resp, nil
}

func (e *Exchange) UpdateLeverage(_ context.Context, asset int, _ bool, leverage int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.coinByAsset(asset); err != nil {
		return err
	}
	if leverage <= 0 {
		return fmt.Errorf("sim: leverage must be positive")
	}
	e.leverage[asset] = leverage
	return nil
}

func (e *Exchange) UpdateIsolatedMargin(_ context.Context, asset int, _ bool, ntli int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.coinByAsset(asset); err != nil {
		return err
	}
	e.isoMargin[asset] += ntli
	return nil
}

func (e *Exchange) Meta(context.Context) (*exchange.Meta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	universe := make([]exchange.UniverseEntry, len(e.universe))
	copy(universe, e.universe)
	return &exchange.Meta{Universe: universe}, nil
}

func (e *Exchange) AllMids(context.Context) (exchange.AllMids, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mids := make(exchange.AllMids, len(e.mids))
	for k, v := range e.mids {
		mids[k] = v
	}
	return mids, nil
}

func (e *Exchange) ClearinghouseState(_ context.Context, _ string) (*exchange.AccountState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := &exchange.AccountState{
		MarginSummary: exchange.MarginSummary{
			AccountValue: e.accountValue.String(),
			TotalRawUSD:  e.accountValue.String(),
		},
		Withdrawable: e.accountValue.String(),
	}
	for coin, size := range e.position {
		if size.IsZero() {
			continue
		}
		state.AssetPositions = append(state.AssetPositions, exchange.AssetPosition{
			Type: "oneWay",
			Position: exchange.Position{
				Coin:    coin,
				Szi:     size.String(),
				EntryPx: e.entry[coin].String(),
			},
		})
	}
	return state, nil
}

func (e *Exchange) SpotClearinghouseState(context.Context, string) (*exchange.SpotState, error) {
	return &exchange.SpotState{}, nil
}

func (e *Exchange) OpenOrders(context.Context, string) ([]exchange.OpenOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]exchange.OpenOrder, 0, len(e.open))
	for _, order := range e.open {
		out = append(out, order)
	}
	return out, nil
}
