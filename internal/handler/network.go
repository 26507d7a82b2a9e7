package handler

import (
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/internal/svc"
	"hypergate/internal/types"
	"hypergate/pkg/precision"
)

func switchNetworkHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SwitchNetworkReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		network := precision.Network(strings.ToLower(strings.TrimSpace(req.Network)))
		if !network.Valid() {
			respondError(w, r, badRequest("network must be testnet or mainnet"))
			return
		}
		if err := ctx.SwitchNetwork(r.Context(), network); err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.SwitchNetworkResp{Success: true, Network: string(network)})
	}
}
