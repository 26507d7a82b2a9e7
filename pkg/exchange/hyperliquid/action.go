package hyperliquid

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"hypergate/pkg/exchange"
)

// ActionType enumerates supported exchange actions.
type ActionType string

const (
	// ActionTypeOrder submits one or more orders.
	ActionTypeOrder ActionType = "order"
	// ActionTypeCancel cancels specific orders by oid.
	ActionTypeCancel ActionType = "cancel"
	// ActionTypeUpdateLeverage adjusts leverage settings.
	ActionTypeUpdateLeverage ActionType = "updateLeverage"
	// ActionTypeUpdateIsolatedMargin adds or removes isolated margin.
	ActionTypeUpdateIsolatedMargin ActionType = "updateIsolatedMargin"
)

// Action encodes the payload sent to the exchange endpoint. Field order is
// significant: the msgpack encoding of this struct is hashed into the signed
// connectionId.
type Action struct {
	Type     ActionType      `json:"type" msgpack:"type"`
	Orders   []orderPayload  `json:"orders,omitempty" msgpack:"orders,omitempty"`
	Cancels  []cancelPayload `json:"cancels,omitempty" msgpack:"cancels,omitempty"`
	Grouping string          `json:"grouping,omitempty" msgpack:"grouping,omitempty"`
	Asset    *int            `json:"asset,omitempty" msgpack:"asset,omitempty"`
	IsCross  *bool           `json:"isCross,omitempty" msgpack:"isCross,omitempty"`
	Leverage int             `json:"leverage,omitempty" msgpack:"leverage,omitempty"`
	IsBuy    *bool           `json:"isBuy,omitempty" msgpack:"isBuy,omitempty"`
	Ntli     int64           `json:"ntli,omitempty" msgpack:"ntli,omitempty"`
}

type orderPayload struct {
	Asset      int              `json:"a" msgpack:"a"`
	IsBuy      bool             `json:"b" msgpack:"b"`
	LimitPx    string           `json:"p" msgpack:"p"`
	Sz         string           `json:"s" msgpack:"s"`
	ReduceOnly bool             `json:"r" msgpack:"r"`
	OrderType  orderTypePayload `json:"t" msgpack:"t"`
	Cloid      string           `json:"c,omitempty" msgpack:"c,omitempty"`
}

type orderTypePayload struct {
	Limit   *limitOrderPayload   `json:"limit,omitempty" msgpack:"limit,omitempty"`
	Trigger *triggerOrderPayload `json:"trigger,omitempty" msgpack:"trigger,omitempty"`
}

type limitOrderPayload struct {
	TIF string `json:"tif" msgpack:"tif"`
}

type triggerOrderPayload struct {
	IsMarket  bool   `json:"isMarket" msgpack:"isMarket"`
	TriggerPx string `json:"triggerPx" msgpack:"triggerPx"`
	Tpsl      string `json:"tpsl,omitempty" msgpack:"tpsl,omitempty"`
}

type cancelPayload struct {
	Asset int   `json:"a" msgpack:"a"`
	Oid   int64 `json:"o" msgpack:"o"`
}

// ExchangeRequest is the signed request envelope for exchange actions.
type ExchangeRequest struct {
	Action       Action    `json:"action"`
	Nonce        int64     `json:"nonce"`
	Signature    Signature `json:"signature"`
	VaultAddress string    `json:"vaultAddress,omitempty"`
}

// Signature represents an ECDSA signature.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

var (
	errInvalidAsset = errors.New("hyperliquid: asset index must be non-negative")
	errInvalidPrice = errors.New("hyperliquid: price must be positive")
	errInvalidSize  = errors.New("hyperliquid: size must be positive")
)

func buildOrderAction(orders []exchange.Order, grouping exchange.Grouping) (Action, error) {
	if len(orders) == 0 {
		return Action{}, fmt.Errorf("hyperliquid: at least one order required")
	}
	if grouping == "" {
		grouping = exchange.GroupingNA
	}
	payloads := make([]orderPayload, len(orders))
	for i, order := range orders {
		if err := validateOrder(order); err != nil {
			return Action{}, fmt.Errorf("order[%d]: %w", i, err)
		}
		payload, err := convertOrder(order)
		if err != nil {
			return Action{}, fmt.Errorf("order[%d]: %w", i, err)
		}
		payloads[i] = payload
	}
	return Action{
		Type:     ActionTypeOrder,
		Grouping: string(grouping),
		Orders:   payloads,
	}, nil
}

func buildCancelAction(cancels []exchange.Cancel) Action {
	payloads := make([]cancelPayload, len(cancels))
	for i, cancel := range cancels {
		payloads[i] = cancelPayload{Asset: cancel.Asset, Oid: cancel.Oid}
	}
	return Action{
		Type:    ActionTypeCancel,
		Cancels: payloads,
	}
}

// validateOrder ensures order parameters meet basic exchange constraints.
func validateOrder(order exchange.Order) error {
	if order.Asset < 0 {
		return errInvalidAsset
	}
	if strings.TrimSpace(order.Sz) == "" || !isPositiveDecimal(order.Sz) {
		return errInvalidSize
	}
	switch {
	case order.OrderType.Trigger != nil:
		if !isPositiveDecimal(order.OrderType.Trigger.TriggerPx) {
			return fmt.Errorf("hyperliquid: trigger price must be positive")
		}
		if strings.TrimSpace(order.LimitPx) == "" || !isPositiveDecimal(order.LimitPx) {
			return errInvalidPrice
		}
	case order.OrderType.Limit != nil:
		if strings.TrimSpace(order.LimitPx) == "" || !isPositiveDecimal(order.LimitPx) {
			return errInvalidPrice
		}
	default:
		return fmt.Errorf("hyperliquid: order type not specified (limit or trigger)")
	}
	if len(order.Cloid) > 128 {
		return fmt.Errorf("hyperliquid: cloid longer than 128 characters")
	}
	return nil
}

// convertOrder serializes the tagged order variant exhaustively.
func convertOrder(order exchange.Order) (orderPayload, error) {
	payload := orderPayload{
		Asset:      order.Asset,
		IsBuy:      order.IsBuy,
		LimitPx:    order.LimitPx,
		Sz:         order.Sz,
		ReduceOnly: order.ReduceOnly,
		Cloid:      order.Cloid,
	}
	switch {
	case order.OrderType.Trigger != nil:
		trig := order.OrderType.Trigger
		payload.OrderType = orderTypePayload{
			Trigger: &triggerOrderPayload{
				IsMarket:  trig.IsMarket,
				TriggerPx: trig.TriggerPx,
				Tpsl:      trig.Tpsl,
			},
		}
	case order.OrderType.Limit != nil:
		payload.OrderType = orderTypePayload{
			Limit: &limitOrderPayload{TIF: order.OrderType.Limit.TIF},
		}
	default:
		return orderPayload{}, fmt.Errorf("hyperliquid: order type not specified (limit or trigger)")
	}
	return payload, nil
}

func isPositiveDecimal(value string) bool {
	v := new(big.Rat)
	if _, ok := v.SetString(strings.TrimSpace(value)); !ok {
		return false
	}
	return v.Sign() > 0
}
