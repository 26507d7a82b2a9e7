package hyperliquid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hypergate/pkg/exchange"
)

func limitOrder(asset int, isBuy bool, px, sz string) exchange.Order {
	return exchange.Order{
		Asset:      asset,
		IsBuy:      isBuy,
		LimitPx:    px,
		Sz:         sz,
		OrderType:  exchange.OrderType{Limit: &exchange.LimitOrderType{TIF: exchange.TifGtc}},
	}
}

func TestBuildOrderAction(t *testing.T) {
	t.Run("limit", func(t *testing.T) {
		order := limitOrder(3, true, "123.45", "0.25")
		order.Cloid = "order-1"

		action, err := buildOrderAction([]exchange.Order{order}, exchange.GroupingNA)
		require.NoError(t, err)
		require.Equal(t, ActionTypeOrder, action.Type)
		require.Equal(t, "na", action.Grouping)
		require.Len(t, action.Orders, 1)

		payload := action.Orders[0]
		require.Equal(t, 3, payload.Asset)
		require.True(t, payload.IsBuy)
		require.Equal(t, "123.45", payload.LimitPx)
		require.Equal(t, "0.25", payload.Sz)
		require.NotNil(t, payload.OrderType.Limit)
		require.Equal(t, exchange.TifGtc, payload.OrderType.Limit.TIF)
		require.Equal(t, "order-1", payload.Cloid)
	})

	t.Run("trigger", func(t *testing.T) {
		order := exchange.Order{
			Asset:      0,
			IsBuy:      false,
			LimitPx:    "90",
			Sz:         "1",
			ReduceOnly: true,
			OrderType: exchange.OrderType{Trigger: &exchange.TriggerOrderType{
				IsMarket:  true,
				TriggerPx: "90",
				Tpsl:      "sl",
			}},
		}
		action, err := buildOrderAction([]exchange.Order{order}, exchange.GroupingNormalTpsl)
		require.NoError(t, err)
		require.Equal(t, "normalTpsl", action.Grouping)
		payload := action.Orders[0]
		require.Nil(t, payload.OrderType.Limit)
		require.NotNil(t, payload.OrderType.Trigger)
		require.Equal(t, "90", payload.OrderType.Trigger.TriggerPx)
		require.Equal(t, "sl", payload.OrderType.Trigger.Tpsl)
		require.True(t, payload.OrderType.Trigger.IsMarket)
	})

	t.Run("empty_grouping_defaults_na", func(t *testing.T) {
		action, err := buildOrderAction([]exchange.Order{limitOrder(0, true, "1", "1")}, "")
		require.NoError(t, err)
		require.Equal(t, "na", action.Grouping)
	})

	t.Run("no_orders", func(t *testing.T) {
		_, err := buildOrderAction(nil, exchange.GroupingNA)
		require.Error(t, err)
	})
}

func TestValidateOrder(t *testing.T) {
	t.Run("negative_asset", func(t *testing.T) {
		order := limitOrder(-1, true, "1", "1")
		require.ErrorIs(t, validateOrder(order), errInvalidAsset)
	})

	t.Run("zero_size", func(t *testing.T) {
		order := limitOrder(0, true, "1", "0")
		require.ErrorIs(t, validateOrder(order), errInvalidSize)
	})

	t.Run("missing_price", func(t *testing.T) {
		order := limitOrder(0, true, "", "1")
		require.ErrorIs(t, validateOrder(order), errInvalidPrice)
	})

	t.Run("trigger_needs_trigger_price", func(t *testing.T) {
		order := exchange.Order{
			Asset:     0,
			Sz:        "1",
			LimitPx:   "100",
			OrderType: exchange.OrderType{Trigger: &exchange.TriggerOrderType{TriggerPx: ""}},
		}
		require.Error(t, validateOrder(order))
	})

	t.Run("no_type", func(t *testing.T) {
		order := exchange.Order{Asset: 0, Sz: "1", LimitPx: "1"}
		require.Error(t, validateOrder(order))
	})
}

func TestBuildCancelAction(t *testing.T) {
	action := buildCancelAction([]exchange.Cancel{{Asset: 2, Oid: 77}})
	require.Equal(t, ActionTypeCancel, action.Type)
	require.Len(t, action.Cancels, 1)
	require.Equal(t, 2, action.Cancels[0].Asset)
	require.Equal(t, int64(77), action.Cancels[0].Oid)
}
