package hyperliquid

import (
	"context"
	"fmt"

	"hypergate/pkg/exchange"
)

// Order submits a batch of orders under the given grouping tag.
func (c *Client) Order(ctx context.Context, orders []exchange.Order, grouping exchange.Grouping) (*exchange.OrderResponse, error) {
	action, err := buildOrderAction(orders, grouping)
	if err != nil {
		return nil, err
	}
	var resp exchange.OrderResponse
	if err := c.doExchangeRequest(ctx, action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel cancels resting orders by oid.
func (c *Client) Cancel(ctx context.Context, cancels []exchange.Cancel) (*exchange.OrderResponse, error) {
	if len(cancels) == 0 {
		return nil, fmt.Errorf("hyperliquid: at least one cancel required")
	}
	action := buildCancelAction(cancels)
	var resp exchange.OrderResponse
	if err := c.doExchangeRequest(ctx, action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateLeverage adjusts leverage for an asset.
func (c *Client) UpdateLeverage(ctx context.Context, asset int, isCross bool, leverage int) error {
	if asset < 0 {
		return errInvalidAsset
	}
	if leverage <= 0 {
		return fmt.Errorf("hyperliquid: leverage must be positive")
	}
	action := Action{
		Type:     ActionTypeUpdateLeverage,
		Asset:    &asset,
		IsCross:  &isCross,
		Leverage: leverage,
	}
	return c.doExchangeRequest(ctx, action, nil)
}

// UpdateIsolatedMargin adds (positive ntli) or removes (negative ntli)
// isolated margin on an asset, denominated in USD millionths.
func (c *Client) UpdateIsolatedMargin(ctx context.Context, asset int, isBuy bool, ntli int64) error {
	if asset < 0 {
		return errInvalidAsset
	}
	if ntli == 0 {
		return fmt.Errorf("hyperliquid: ntli must be non-zero")
	}
	action := Action{
		Type:  ActionTypeUpdateIsolatedMargin,
		Asset: &asset,
		IsBuy: &isBuy,
		Ntli:  ntli,
	}
	return c.doExchangeRequest(ctx, action, nil)
}

var _ exchange.Transport = (*Client)(nil)
