package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/internal/svc"
	"hypergate/internal/types"
	"hypergate/pkg/exchange"
)

func clearinghouseStateHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AddressReq
		if err := httpx.Parse(r, &req); err != nil || req.Address == "" {
			respondError(w, r, badRequest("address query parameter is required"))
			return
		}
		state, err := ctx.Info().ClearinghouseState(r.Context(), req.Address)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, state)
	}
}

func walletBalanceHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AddressReq
		if err := httpx.Parse(r, &req); err != nil || req.Address == "" {
			respondError(w, r, badRequest("address query parameter is required"))
			return
		}
		state, err := ctx.Info().ClearinghouseState(r.Context(), req.Address)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, summarize(state))
	}
}

func leverageStatusHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AddressPathReq
		if err := httpx.Parse(r, &req); err != nil || req.Address == "" {
			respondError(w, r, badRequest("address path parameter is required"))
			return
		}
		state, err := ctx.Info().ClearinghouseState(r.Context(), req.Address)
		if err != nil {
			respondError(w, r, err)
			return
		}

		positions := make([]types.LeveragePosition, 0, len(state.AssetPositions))
		for _, ap := range state.AssetPositions {
			pos := ap.Position
			if pos.Szi == "" || pos.Szi == "0" {
				continue
			}
			positions = append(positions, types.LeveragePosition{
				Coin:         pos.Coin,
				Size:         pos.Szi,
				EntryPx:      pos.EntryPx,
				Leverage:     pos.Leverage.Value,
				LeverageMode: pos.Leverage.Type,
				MarginUsed:   pos.MarginUsed,
				MaxLeverage:  pos.MaxLeverage,
			})
		}

		respond(w, types.LeverageStatusResp{
			Address:   req.Address,
			Positions: positions,
			Summary:   summarize(state),
		})
	}
}

func summarize(state *exchange.AccountState) types.WalletBalanceResp {
	return types.WalletBalanceResp{
		AccountValue:    state.MarginSummary.AccountValue,
		TotalMarginUsed: state.MarginSummary.TotalMarginUsed,
		TotalNtlPos:     state.MarginSummary.TotalNtlPos,
		TotalRawUsd:     state.MarginSummary.TotalRawUSD,
		Withdrawable:    state.Withdrawable,
	}
}
