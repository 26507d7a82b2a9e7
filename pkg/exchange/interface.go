package exchange

import "context"

// Transport covers the signed, state-changing exchange capabilities the
// gateway consumes. Implementations own signing and wire transport.
type Transport interface {
	Order(ctx context.Context, orders []Order, grouping Grouping) (*OrderResponse, error)
	Cancel(ctx context.Context, cancels []Cancel) (*OrderResponse, error)
	UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error
	UpdateIsolatedMargin(ctx context.Context, asset int, isBuy bool, ntli int64) error
}

// Info covers the unsigned read-only upstream endpoints.
type Info interface {
	Meta(ctx context.Context) (*Meta, error)
	AllMids(ctx context.Context) (AllMids, error)
	ClearinghouseState(ctx context.Context, user string) (*AccountState, error)
	SpotClearinghouseState(ctx context.Context, user string) (*SpotState, error)
	OpenOrders(ctx context.Context, user string) ([]OpenOrder, error)
}
