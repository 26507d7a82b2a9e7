package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/internal/svc"
	"hypergate/internal/types"
	"hypergate/pkg/exchange"
	"hypergate/pkg/orders"
)

// placeOrderHandler accepts a single order object or an array of orders and
// feeds them through the pipeline as one batch.
func placeOrderHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctx.Initialized() {
			respondError(w, r, errNotInitialized)
			return
		}

		reqs, err := decodeOrderBody(r.Body)
		if err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}

		batch := make([]orders.Request, 0, len(reqs))
		for _, req := range reqs {
			or, err := toPipelineRequest(req)
			if err != nil {
				respondError(w, r, err)
				return
			}
			batch = append(batch, or)
		}

		resp, err := ctx.Pipeline.Submit(r.Context(), batch)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, resp)
	}
}

// decodeOrderBody sniffs whether the payload is an object or an array.
func decodeOrderBody(body io.Reader) ([]types.OrderReq, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var reqs []types.OrderReq
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return nil, err
		}
		return reqs, nil
	}
	var req types.OrderReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return []types.OrderReq{req}, nil
}

func toPipelineRequest(req types.OrderReq) (orders.Request, error) {
	side := strings.ToLower(strings.TrimSpace(req.Side))
	if side != "buy" && side != "sell" {
		return orders.Request{}, badRequest("side must be buy or sell")
	}

	out := orders.Request{
		Symbol:     req.Symbol,
		IsBuy:      side == "buy",
		Size:       req.Size,
		Price:      req.Price,
		ReduceOnly: req.ReduceOnly,
		TIF:        req.Tif,
		Cloid:      req.Cloid,
	}
	if req.TriggerPx != "" || req.Tpsl != "" {
		out.Trigger = &orders.TriggerSpec{
			TriggerPx: req.TriggerPx,
			Tpsl:      req.Tpsl,
			IsMarket:  req.IsMarket,
		}
	}
	return out, nil
}

func updateLeverageHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctx.Initialized() {
			respondError(w, r, errNotInitialized)
			return
		}
		var req types.UpdateLeverageReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		if req.Leverage <= 0 {
			respondError(w, r, badRequest("leverage must be positive"))
			return
		}
		mode := strings.ToLower(strings.TrimSpace(req.LeverageMode))
		if mode != "cross" && mode != "isolated" {
			respondError(w, r, badRequest("leverageMode must be cross or isolated"))
			return
		}

		asset, err := ctx.Tape.Lookup(r.Context(), req.Coin)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if err := ctx.Transport().UpdateLeverage(r.Context(), asset, mode == "cross", req.Leverage); err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.OkResp{Success: true})
	}
}

func updateMarginHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctx.Initialized() {
			respondError(w, r, errNotInitialized)
			return
		}
		var req types.UpdateMarginReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		if req.Ntli == 0 {
			respondError(w, r, badRequest("ntli must be non-zero"))
			return
		}

		asset, err := ctx.Tape.Lookup(r.Context(), req.Coin)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if err := ctx.Transport().UpdateIsolatedMargin(r.Context(), asset, req.IsBuy, req.Ntli); err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.OkResp{Success: true})
	}
}

func cancelOrdersHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctx.Initialized() {
			respondError(w, r, errNotInitialized)
			return
		}
		var req types.CancelOrdersReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		if len(req.OrderIDs) == 0 {
			respondError(w, r, badRequest("orderIds must not be empty"))
			return
		}

		asset, err := ctx.Tape.Lookup(r.Context(), req.Coin)
		if err != nil {
			respondError(w, r, err)
			return
		}
		cancels := make([]exchange.Cancel, 0, len(req.OrderIDs))
		for _, oid := range req.OrderIDs {
			cancels = append(cancels, exchange.Cancel{Asset: asset, Oid: oid})
		}

		resp, err := ctx.Transport().Cancel(r.Context(), cancels)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, resp)
	}
}
