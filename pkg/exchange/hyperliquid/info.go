package hyperliquid

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"hypergate/pkg/exchange"
)

// Meta fetches the asset universe listing.
func (c *Client) Meta(ctx context.Context) (*exchange.Meta, error) {
	var meta exchange.Meta
	if err := c.doInfoRequest(ctx, infoRequest{Type: "meta"}, &meta); err != nil {
		return nil, err
	}
	if len(meta.Universe) == 0 {
		return nil, fmt.Errorf("hyperliquid: meta response contained no assets")
	}
	return &meta, nil
}

// AllMids fetches the current mid price for every listed coin.
func (c *Client) AllMids(ctx context.Context) (exchange.AllMids, error) {
	var mids exchange.AllMids
	if err := c.doInfoRequest(ctx, infoRequest{Type: "allMids"}, &mids); err != nil {
		return nil, err
	}
	return mids, nil
}

// ClearinghouseState fetches the perp account state for a user address.
func (c *Client) ClearinghouseState(ctx context.Context, user string) (*exchange.AccountState, error) {
	addr, err := normalizeAddress(user)
	if err != nil {
		return nil, err
	}
	var state exchange.AccountState
	if err := c.doInfoRequest(ctx, infoRequest{Type: "clearinghouseState", User: addr}, &state); err != nil {
		return nil, err
	}
	if strings.TrimSpace(state.MarginSummary.AccountValue) == "" &&
		strings.TrimSpace(state.CrossMarginSummary.AccountValue) == "" {
		return nil, fmt.Errorf("hyperliquid: clearinghouseState missing margin summary")
	}
	return &state, nil
}

// SpotClearinghouseState fetches spot balances for a user address.
func (c *Client) SpotClearinghouseState(ctx context.Context, user string) (*exchange.SpotState, error) {
	addr, err := normalizeAddress(user)
	if err != nil {
		return nil, err
	}
	var state exchange.SpotState
	if err := c.doInfoRequest(ctx, infoRequest{Type: "spotClearinghouseState", User: addr}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// OpenOrders lists resting orders for a user address.
func (c *Client) OpenOrders(ctx context.Context, user string) ([]exchange.OpenOrder, error) {
	addr, err := normalizeAddress(user)
	if err != nil {
		return nil, err
	}
	var orders []exchange.OpenOrder
	if err := c.doInfoRequest(ctx, infoRequest{Type: "openOrders", User: addr}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func normalizeAddress(user string) (string, error) {
	if !common.IsHexAddress(user) {
		return "", fmt.Errorf("hyperliquid: invalid user address %q", user)
	}
	return common.HexToAddress(user).Hex(), nil
}

var _ exchange.Info = (*Client)(nil)
