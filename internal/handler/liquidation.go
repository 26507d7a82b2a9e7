package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/internal/svc"
	"hypergate/internal/types"
	"hypergate/pkg/liquidation"
	"hypergate/pkg/precision"
)

// liquidationPriceHandler runs the solver against the network's margin tier
// table for the symbol. The UI uses this for position previews; no upstream
// call is involved.
func liquidationPriceHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LiquidationReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		side := liquidation.Side(strings.ToLower(strings.TrimSpace(req.Side)))
		if side != liquidation.SideBuy && side != liquidation.SideSell {
			respondError(w, r, badRequest("side must be buy or sell"))
			return
		}
		mode := liquidation.MarginMode(strings.ToLower(strings.TrimSpace(req.MarginMode)))
		if mode == "" {
			mode = liquidation.MarginIsolated
		}
		if mode != liquidation.MarginCross && mode != liquidation.MarginIsolated {
			respondError(w, r, badRequest("marginMode must be cross or isolated"))
			return
		}

		symbol := precision.Canonical(req.Symbol)
		tiers := precision.MarginTiers(symbol, ctx.Network())
		maxLev := 0
		for _, tier := range tiers {
			if tier.MaxLeverage > maxLev {
				maxLev = tier.MaxLeverage
			}
		}

		result, err := liquidation.Price(liquidation.Inputs{
			EntryPrice:          req.EntryPrice,
			Leverage:            req.Leverage,
			Side:                side,
			MarginMode:          mode,
			PositionSize:        req.PositionSize,
			AccountValue:        req.AccountValue,
			IsolatedMargin:      req.IsolatedMargin,
			WalletBalance:       req.WalletBalance,
			TransferRequirement: req.TransferRequirement,
			Tiers:               tiers,
			MaxLeverage:         maxLev,
		})
		if err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}

		price := decimal.NewFromFloat(result.LiquidationPrice)
		respond(w, types.LiquidationResp{
			LiquidationPrice: ctx.Table.FormatPrice(symbol, price),
			MaintenanceRate:  result.Rate,
			Deduction:        result.Deduction,
			Iterations:       result.Iterations,
			PositionSize:     result.PositionSize,
			AccountValue:     result.AccountValue,
		})
	}
}
