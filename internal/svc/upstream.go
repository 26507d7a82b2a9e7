package svc

import (
	"context"
	"sync"

	"hypergate/pkg/exchange"
	"hypergate/pkg/exchange/hyperliquid"
)

// upstream is a swappable handle on the current exchange client. The tape,
// pipeline, and scheduler hold this indirection so a network switch only has
// to replace the inner client.
type upstream struct {
	mu     sync.RWMutex
	client *hyperliquid.Client
}

var (
	_ exchange.Transport = (*upstream)(nil)
	_ exchange.Info      = (*upstream)(nil)
)

func (u *upstream) current() *hyperliquid.Client {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.client
}

func (u *upstream) swap(client *hyperliquid.Client) {
	u.mu.Lock()
	u.client = client
	u.mu.Unlock()
}

func (u *upstream) Order(ctx context.Context, orders []exchange.Order, grouping exchange.Grouping) (*exchange.OrderResponse, error) {
	return u.current().Order(ctx, orders, grouping)
}

func (u *upstream) Cancel(ctx context.Context, cancels []exchange.Cancel) (*exchange.OrderResponse, error) {
	return u.current().Cancel(ctx, cancels)
}

func (u *upstream) UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error {
	return u.current().UpdateLeverage(ctx, asset, isCross, leverage)
}

func (u *upstream) UpdateIsolatedMargin(ctx context.Context, asset int, isBuy bool, ntli int64) error {
	return u.current().UpdateIsolatedMargin(ctx, asset, isBuy, ntli)
}

func (u *upstream) Meta(ctx context.Context) (*exchange.Meta, error) {
	return u.current().Meta(ctx)
}

func (u *upstream) AllMids(ctx context.Context) (exchange.AllMids, error) {
	return u.current().AllMids(ctx)
}

func (u *upstream) ClearinghouseState(ctx context.Context, user string) (*exchange.AccountState, error) {
	return u.current().ClearinghouseState(ctx, user)
}

func (u *upstream) SpotClearinghouseState(ctx context.Context, user string) (*exchange.SpotState, error) {
	return u.current().SpotClearinghouseState(ctx, user)
}

func (u *upstream) OpenOrders(ctx context.Context, user string) ([]exchange.OpenOrder, error) {
	return u.current().OpenOrders(ctx, user)
}
