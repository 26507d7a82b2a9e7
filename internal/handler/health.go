package handler

import (
	"net/http"
	"time"

	"hypergate/internal/svc"
	"hypergate/internal/types"
)

func healthHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, types.HealthResp{
			Status:      "ok",
			Network:     string(ctx.Network()),
			Initialized: ctx.Initialized(),
			Timestamp:   time.Now().UnixMilli(),
		})
	}
}
