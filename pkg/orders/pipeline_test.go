package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypergate/pkg/exchange"
	"hypergate/pkg/precision"
)

type fakeTransport struct {
	orders   []exchange.Order
	grouping exchange.Grouping
	calls    int
	resp     *exchange.OrderResponse
	err      error
}

func (f *fakeTransport) Order(_ context.Context, orders []exchange.Order, grouping exchange.Grouping) (*exchange.OrderResponse, error) {
	f.calls++
	f.orders = orders
	f.grouping = grouping
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	statuses := make([]exchange.OrderStatusResponse, len(orders))
	for i := range statuses {
		statuses[i] = exchange.OrderStatusResponse{Resting: &exchange.RestingOrder{Oid: int64(100 + i)}}
	}
	resp := &exchange.OrderResponse{Status: "ok"}
	resp.Response.Data.Statuses = statuses
	return resp, nil
}

func (f *fakeTransport) Cancel(context.Context, []exchange.Cancel) (*exchange.OrderResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTransport) UpdateLeverage(context.Context, int, bool, int) error {
	return errors.New("not implemented")
}

func (f *fakeTransport) UpdateIsolatedMargin(context.Context, int, bool, int64) error {
	return errors.New("not implemented")
}

type fakeAssets struct {
	ids map[string]int
	err error
}

func (f *fakeAssets) Lookup(_ context.Context, symbol string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	id, ok := f.ids[precision.Canonical(symbol)]
	if !ok {
		return 0, errors.New("unknown asset " + symbol)
	}
	return id, nil
}

type fakeMids map[string]string

func (f fakeMids) Mid(symbol string) (decimal.Decimal, bool) {
	raw, ok := f[precision.Canonical(symbol)]
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.RequireFromString(raw), true
}

func testPipeline(transport *fakeTransport, mids fakeMids) *Pipeline {
	assets := &fakeAssets{ids: map[string]int{"BTC": 0, "ETH": 1, "SOL": 5, "DOGE": 12}}
	return NewPipeline(transport, assets, mids, precision.NewTable())
}

func TestSubmitLimitOrder(t *testing.T) {
	transport := &fakeTransport{}
	p := testPipeline(transport, fakeMids{"SOL": "150.00"})

	resp, err := p.Submit(context.Background(), []Request{{
		Symbol: "SOL-PERP",
		IsBuy:  true,
		Size:   "2",
		Price:  "149.5",
		TIF:    exchange.TifGtc,
	}})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)

	require.Len(t, transport.orders, 1)
	order := transport.orders[0]
	assert.Equal(t, 5, order.Asset)
	assert.True(t, order.IsBuy)
	assert.Equal(t, "149.5", order.LimitPx)
	assert.Equal(t, "2.00", order.Sz)
	require.NotNil(t, order.OrderType.Limit)
	assert.Equal(t, exchange.TifGtc, order.OrderType.Limit.TIF)
	assert.Equal(t, exchange.GroupingNA, transport.grouping)
}

func TestSubmitSynthesizesIOCPrice(t *testing.T) {
	t.Run("buy_btc_ceils_to_integer", func(t *testing.T) {
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{"BTC": "97000.5"})

		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "BTC-PERP", IsBuy: true, Size: "0.001", TIF: exchange.TifIoc,
		}})
		require.NoError(t, err)
		// 97000.5 * 1.1 = 106700.55, ceiled to a whole dollar.
		assert.Equal(t, "106701", transport.orders[0].LimitPx)
	})

	t.Run("sell_applies_discount", func(t *testing.T) {
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{"SOL": "150"})

		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "SOL", IsBuy: false, Size: "1", TIF: exchange.TifIoc,
		}})
		require.NoError(t, err)
		assert.Equal(t, "135", transport.orders[0].LimitPx)
	})

	t.Run("resting_order_rests_at_mid", func(t *testing.T) {
		// Non-IOC synthesized prices take the tick-rounded live mid; the
		// fallback constants are reserved for when no mid exists at all.
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{"SOL": "150.127"})

		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "SOL", IsBuy: true, Size: "1", TIF: exchange.TifGtc,
		}})
		require.NoError(t, err)
		assert.Equal(t, "150.13", transport.orders[0].LimitPx)
	})

	t.Run("no_mid_uses_fallback_constant", func(t *testing.T) {
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{})

		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "ETH", IsBuy: true, Size: "0.5", TIF: exchange.TifIoc,
		}})
		require.NoError(t, err)
		// 3500 * 1.1 on the built-in stand-in price.
		assert.Equal(t, "3850", transport.orders[0].LimitPx)
	})
}

func TestSubmitDeviationRejection(t *testing.T) {
	transport := &fakeTransport{}
	p := testPipeline(transport, fakeMids{"SOL": "100.00"})

	_, err := p.Submit(context.Background(), []Request{{
		Symbol: "SOL", IsBuy: true, Size: "1", Price: "181.00", TIF: exchange.TifGtc,
	}})
	require.Error(t, err)

	oerr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindPriceDeviation, oerr.Kind)
	assert.Equal(t, "181", oerr.OrderPrice)
	assert.Equal(t, "100", oerr.MarketPrice)
	assert.InDelta(t, 0.81, oerr.Deviation, 1e-9)
	assert.Equal(t, "180.00", oerr.SuggestedPrice)
	assert.Equal(t, 0, transport.calls, "rejected before upstream")
}

func TestSubmitDeviationBoundary(t *testing.T) {
	t.Run("exactly_on_band_passes", func(t *testing.T) {
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{"SOL": "100"})
		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "SOL", IsBuy: true, Size: "1", Price: "180", TIF: exchange.TifGtc,
		}})
		require.NoError(t, err)
	})

	t.Run("low_side_suggests_low_boundary", func(t *testing.T) {
		transport := &fakeTransport{}
		p := testPipeline(transport, fakeMids{"SOL": "100"})
		_, err := p.Submit(context.Background(), []Request{{
			Symbol: "SOL", IsBuy: false, Size: "1", Price: "10", TIF: exchange.TifGtc,
		}})
		oerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, "20.00", oerr.SuggestedPrice)
	})
}

func TestSubmitGroupedTpsl(t *testing.T) {
	transport := &fakeTransport{}
	p := testPipeline(transport, fakeMids{"SOL": "100"})

	market := true
	resp, err := p.Submit(context.Background(), []Request{
		{Symbol: "SOL", IsBuy: true, Size: "1", Price: "100", TIF: exchange.TifGtc},
		{Symbol: "SOL", IsBuy: false, Size: "1", Price: "120", ReduceOnly: true,
			Trigger: &TriggerSpec{TriggerPx: "120", Tpsl: "tp"}},
		{Symbol: "SOL", IsBuy: false, Size: "1", Price: "90", ReduceOnly: true,
			Trigger: &TriggerSpec{TriggerPx: "90", Tpsl: "sl", IsMarket: &market}},
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)

	assert.Equal(t, exchange.GroupingNormalTpsl, transport.grouping)
	require.Len(t, transport.orders, 3)

	entry := transport.orders[0]
	require.NotNil(t, entry.OrderType.Limit)
	assert.True(t, entry.IsBuy)

	tp := transport.orders[1]
	require.NotNil(t, tp.OrderType.Trigger)
	assert.False(t, tp.OrderType.Trigger.IsMarket, "take-profit defaults to resting")
	assert.Equal(t, "tp", tp.OrderType.Trigger.Tpsl)
	assert.True(t, tp.ReduceOnly)

	sl := transport.orders[2]
	require.NotNil(t, sl.OrderType.Trigger)
	assert.True(t, sl.OrderType.Trigger.IsMarket)
	assert.Equal(t, "90", sl.OrderType.Trigger.TriggerPx)
}

func TestSubmitSingleTriggerStaysUngrouped(t *testing.T) {
	transport := &fakeTransport{}
	p := testPipeline(transport, fakeMids{"SOL": "100"})

	_, err := p.Submit(context.Background(), []Request{{
		Symbol: "SOL", IsBuy: false, Size: "1", Price: "90", ReduceOnly: true,
		Trigger: &TriggerSpec{TriggerPx: "90", Tpsl: "sl"},
	}})
	require.NoError(t, err)
	assert.Equal(t, exchange.GroupingNA, transport.grouping)
}

func TestSubmitValidation(t *testing.T) {
	p := testPipeline(&fakeTransport{}, fakeMids{"SOL": "100"})
	ctx := context.Background()

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"missing_symbol", Request{Size: "1", Price: "1"}, "symbol"},
		{"bad_size", Request{Symbol: "SOL", Size: "-1", Price: "1"}, "size"},
		{"tiny_size", Request{Symbol: "SOL", Size: "0.001", Price: "100"}, "size"},
		{"bad_price", Request{Symbol: "SOL", Size: "1", Price: "abc"}, "price"},
		{"bad_tif", Request{Symbol: "SOL", Size: "1", Price: "100", TIF: "Fok"}, "tif"},
		{"bad_tpsl", Request{Symbol: "SOL", Size: "1", Price: "100", ReduceOnly: true,
			Trigger: &TriggerSpec{TriggerPx: "100", Tpsl: "x"}}, "tpsl"},
		{"trigger_not_reduce_only", Request{Symbol: "SOL", Size: "1", Price: "100",
			Trigger: &TriggerSpec{TriggerPx: "100", Tpsl: "tp"}}, "reduceOnly"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Submit(ctx, []Request{tc.req})
			oerr, ok := AsError(err)
			require.True(t, ok, "expected pipeline error, got %v", err)
			assert.Equal(t, KindValidation, oerr.Kind)
			assert.Equal(t, tc.field, oerr.Field)
		})
	}

	t.Run("empty_batch", func(t *testing.T) {
		_, err := p.Submit(ctx, nil)
		require.Error(t, err)
	})
}

func TestSubmitUpstreamRemap(t *testing.T) {
	cases := []struct {
		name     string
		upstream string
		kind     Kind
	}{
		{"invalid_price", "Order has invalid price", KindInvalidPrice},
		{"too_large", "Order too large relative to book", KindOrderTooLarge},
		{"insufficient", "Insufficient margin to place order", KindInsufficientBalance},
		{"passthrough", "something novel happened", KindUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &fakeTransport{err: errors.New(tc.upstream)}
			p := testPipeline(transport, fakeMids{"SOL": "100"})
			_, err := p.Submit(context.Background(), []Request{{
				Symbol: "SOL", IsBuy: true, Size: "1", Price: "100", TIF: exchange.TifGtc,
			}})
			oerr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, oerr.Kind)
			assert.Equal(t, tc.upstream, oerr.Original)
		})
	}

	t.Run("status_error_is_mapped", func(t *testing.T) {
		resp := &exchange.OrderResponse{Status: "ok"}
		resp.Response.Data.Statuses = []exchange.OrderStatusResponse{{Error: "Insufficient balance"}}
		transport := &fakeTransport{resp: resp}
		p := testPipeline(transport, fakeMids{"SOL": "100"})

		got, err := p.Submit(context.Background(), []Request{{
			Symbol: "SOL", IsBuy: true, Size: "1", Price: "100", TIF: exchange.TifGtc,
		}})
		require.NotNil(t, got)
		oerr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, KindInsufficientBalance, oerr.Kind)
	})
}

func TestAggressiveIOCPrice(t *testing.T) {
	// Non-BTC symbols skip the integer ceiling and round to tick only.
	px := AggressiveIOCPrice("ETH", decimal.RequireFromString("3501.23"), true)
	assert.Equal(t, "3851.4", px.String()) // 3851.353 rounded to 0.1 tick

	px = AggressiveIOCPrice("BTC", decimal.RequireFromString("97000.5"), false)
	assert.Equal(t, "87301", px.String()) // 87300.45 ceiled
}
