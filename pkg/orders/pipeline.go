package orders

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"hypergate/pkg/exchange"
	"hypergate/pkg/precision"
)

// maxPriceDeviation is the pre-flight band: an order priced more than 80%
// away from the live mid is rejected before it reaches upstream.
var maxPriceDeviation = decimal.RequireFromString("0.8")

var (
	buyBuffer  = decimal.RequireFromString("1.1")
	sellBuffer = decimal.RequireFromString("0.9")
)

// MidSource yields the latest mid price for a symbol.
type MidSource interface {
	Mid(symbol string) (decimal.Decimal, bool)
}

// AssetResolver maps a symbol to its upstream asset id.
type AssetResolver interface {
	Lookup(ctx context.Context, symbol string) (int, error)
}

// TriggerSpec describes the trigger leg of a TP/SL order. When IsMarket is
// nil the execution style defaults by direction: take-profits rest as limit
// orders, stop-losses execute as market.
type TriggerSpec struct {
	TriggerPx string
	Tpsl      string
	IsMarket  *bool
}

// Request is one order as submitted by the UI, prices and sizes still in
// caller form. An empty or "0" price asks the pipeline to synthesize one.
type Request struct {
	Symbol     string
	IsBuy      bool
	Size       string
	Price      string
	ReduceOnly bool
	TIF        string
	Trigger    *TriggerSpec
	Cloid      string
}

// Pipeline validates, prices, and serializes order batches, then dispatches
// them upstream with the appropriate grouping.
type Pipeline struct {
	transport exchange.Transport
	assets    AssetResolver
	tape      MidSource
	table     *precision.Table
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(transport exchange.Transport, assets AssetResolver, tape MidSource, table *precision.Table) *Pipeline {
	return &Pipeline{transport: transport, assets: assets, tape: tape, table: table}
}

// Submit prepares every order in the batch and sends them upstream in one
// call. Preparation failures abort before any upstream traffic. A batch that
// mixes a trigger order with others is grouped as normalTpsl.
func (p *Pipeline) Submit(ctx context.Context, batch []Request) (*exchange.OrderResponse, error) {
	if len(batch) == 0 {
		return nil, validationError("orders", "at least one order is required")
	}

	serialized := make([]exchange.Order, 0, len(batch))
	hasTrigger := false
	for _, req := range batch {
		order, err := p.prepare(ctx, req)
		if err != nil {
			return nil, err
		}
		if order.OrderType.Trigger != nil {
			hasTrigger = true
		}
		serialized = append(serialized, order)
	}

	grouping := exchange.GroupingNA
	if hasTrigger && len(serialized) > 1 {
		grouping = exchange.GroupingNormalTpsl
	}

	resp, err := p.transport.Order(ctx, serialized, grouping)
	if err != nil {
		mapped := mapUpstream(err.Error())
		logx.WithContext(ctx).Errorf("orders: upstream rejected batch: %v", mapped)
		return nil, mapped
	}
	if msg := firstStatusError(resp); msg != "" {
		mapped := mapUpstream(msg)
		logx.WithContext(ctx).Errorf("orders: upstream rejected order: %v", mapped)
		return resp, mapped
	}
	return resp, nil
}

func firstStatusError(resp *exchange.OrderResponse) string {
	if resp == nil {
		return ""
	}
	for _, status := range resp.Response.Data.Statuses {
		if status.Error != "" {
			return status.Error
		}
	}
	return ""
}

func (p *Pipeline) prepare(ctx context.Context, req Request) (exchange.Order, error) {
	var zero exchange.Order

	symbol := precision.Canonical(req.Symbol)
	if symbol == "" {
		return zero, validationError("symbol", "is required")
	}

	size, err := decimal.NewFromString(strings.TrimSpace(req.Size))
	if err != nil || !size.IsPositive() {
		return zero, validationError("size", "must be a positive number")
	}
	if size.LessThan(p.table.MinOrderSize(symbol)) {
		return zero, validationError("size", "below the minimum order size for "+symbol)
	}

	assetID, err := p.assets.Lookup(ctx, symbol)
	if err != nil {
		return zero, &Error{Kind: KindUpstream, Message: "unable to resolve asset id for " + symbol, Original: err.Error()}
	}

	orderType, err := buildOrderType(p.table, symbol, req)
	if err != nil {
		return zero, err
	}

	mid, hasMid := p.tape.Mid(symbol)
	price, err := p.resolvePrice(symbol, req, orderType, mid, hasMid)
	if err != nil {
		return zero, err
	}

	return exchange.Order{
		Asset:      assetID,
		IsBuy:      req.IsBuy,
		LimitPx:    price,
		Sz:         p.table.FormatSize(symbol, size),
		ReduceOnly: req.ReduceOnly,
		OrderType:  orderType,
		Cloid:      req.Cloid,
	}, nil
}

// resolvePrice fills in a missing price and runs the deviation band check
// against the live mid when one exists.
func (p *Pipeline) resolvePrice(symbol string, req Request, orderType exchange.OrderType, mid decimal.Decimal, hasMid bool) (string, error) {
	trimmed := strings.TrimSpace(req.Price)
	synthesize := trimmed == "" || trimmed == "0"

	var price decimal.Decimal
	if synthesize {
		ref := mid
		if !hasMid {
			fb, ok := FallbackMid(symbol)
			if !ok {
				return "", validationError("price", "is required: no market price available for "+symbol)
			}
			ref = fb
		}
		isIoc := orderType.Limit != nil && orderType.Limit.TIF == exchange.TifIoc
		if isIoc {
			price = AggressiveIOCPrice(symbol, ref, req.IsBuy)
		} else {
			price = precision.RoundToTick(symbol, ref)
		}
	} else {
		var err error
		price, err = decimal.NewFromString(trimmed)
		if err != nil || !price.IsPositive() {
			return "", validationError("price", "must be a positive number")
		}
	}

	if hasMid {
		deviation := price.Sub(mid).Abs().Div(mid)
		if deviation.GreaterThan(maxPriceDeviation) {
			boundary := mid.Mul(decimal.RequireFromString("0.2"))
			if price.GreaterThan(mid) {
				boundary = mid.Mul(decimal.RequireFromString("1.8"))
			}
			return "", &Error{
				Kind:           KindPriceDeviation,
				Message:        "order price is too far from the market price",
				OrderPrice:     price.String(),
				MarketPrice:    mid.String(),
				Deviation:      deviation.Round(4).InexactFloat64(),
				SuggestedPrice: boundary.StringFixed(2),
			}
		}
	}

	return p.table.FormatPrice(symbol, price), nil
}

// AggressiveIOCPrice computes the marketable limit price for an IOC order:
// mid plus a 10% buffer in the taker direction, quantized to the symbol's
// tick. BTC prices are additionally rounded up to a whole dollar first.
func AggressiveIOCPrice(symbol string, mid decimal.Decimal, isBuy bool) decimal.Decimal {
	var px decimal.Decimal
	if isBuy {
		px = mid.Mul(buyBuffer)
	} else {
		px = mid.Mul(sellBuffer)
	}
	if precision.Canonical(symbol) == "BTC" {
		px = px.Ceil()
	}
	return precision.RoundToTick(symbol, px)
}

func buildOrderType(table *precision.Table, symbol string, req Request) (exchange.OrderType, error) {
	var zero exchange.OrderType

	if req.Trigger == nil {
		tif := req.TIF
		if tif == "" {
			tif = exchange.TifGtc
		}
		switch tif {
		case exchange.TifGtc, exchange.TifIoc, exchange.TifAlo:
		default:
			return zero, validationError("tif", "must be one of Gtc, Ioc, Alo")
		}
		return exchange.OrderType{Limit: &exchange.LimitOrderType{TIF: tif}}, nil
	}

	tpsl := strings.ToLower(strings.TrimSpace(req.Trigger.Tpsl))
	if tpsl != "tp" && tpsl != "sl" {
		return zero, validationError("tpsl", "must be tp or sl")
	}
	triggerPx, err := decimal.NewFromString(strings.TrimSpace(req.Trigger.TriggerPx))
	if err != nil || !triggerPx.IsPositive() {
		return zero, validationError("triggerPx", "must be a positive number")
	}
	if !req.ReduceOnly {
		return zero, validationError("reduceOnly", "trigger orders must be reduce-only")
	}

	// TPs rest on the book; SLs cross immediately.
	isMarket := tpsl == "sl"
	if req.Trigger.IsMarket != nil {
		isMarket = *req.Trigger.IsMarket
	}

	return exchange.OrderType{Trigger: &exchange.TriggerOrderType{
		IsMarket:  isMarket,
		TriggerPx: table.FormatPrice(symbol, triggerPx),
		Tpsl:      tpsl,
	}}, nil
}
