package handler

import (
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/internal/svc"
	"hypergate/internal/types"
	"hypergate/pkg/twap"
)

func placeTwapOrderHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctx.Initialized() {
			respondError(w, r, errNotInitialized)
			return
		}
		var req types.TwapCreateReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		side := strings.ToLower(strings.TrimSpace(req.Side))
		if side != "buy" && side != "sell" {
			respondError(w, r, badRequest("side must be buy or sell"))
			return
		}

		snap, err := ctx.Scheduler.Create(r.Context(), twap.Params{
			Symbol:          req.Symbol,
			IsBuy:           side == "buy",
			TotalSize:       req.TotalSize,
			DurationMinutes: req.DurationMinutes,
			Intervals:       req.Intervals,
			ReduceOnly:      req.ReduceOnly,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.TwapCreateResp{
			Success: true,
			TaskID:  snap.ID,
			Message: "TWAP task created",
			Task:    snap,
		})
	}
}

func twapTaskHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TwapTaskPathReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		snap, err := ctx.Scheduler.Get(req.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.TwapTaskResp{Task: snap})
	}
}

func twapTasksHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps, counts := ctx.Scheduler.List()
		respond(w, types.TwapTasksResp{
			Tasks:          snaps,
			TotalTasks:     len(snaps),
			ActiveTasks:    counts[twap.StatusActive],
			CompletedTasks: counts[twap.StatusCompleted],
			FailedTasks:    counts[twap.StatusFailed],
			CancelledTasks: counts[twap.StatusCancelled],
		})
	}
}

func cancelTwapTaskHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TwapTaskPathReq
		if err := httpx.Parse(r, &req); err != nil {
			respondError(w, r, badRequest(err.Error()))
			return
		}
		snap, err := ctx.Scheduler.Cancel(req.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, types.TwapCancelResp{
			Success: true,
			Message: "TWAP task cancelled",
			TaskID:  snap.ID,
		})
	}
}
