package handler

import (
	"fmt"
	"net/http"
	"time"

	"hypergate/internal/svc"
	"hypergate/internal/types"
)

func metaHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := ctx.Info().Meta(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, meta)
	}
}

func pricesHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, types.PricesResp{
			Prices:    ctx.Tape.Snapshot(),
			Network:   string(ctx.Network()),
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

func marketDataHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := ctx.Tape.Snapshot()
		entries := make(map[string]types.MarketEntry, len(snapshot))
		for symbol, point := range snapshot {
			spec := ctx.Table.Get(symbol)
			entries[symbol] = types.MarketEntry{
				Price:      point.Price,
				Timestamp:  point.Timestamp,
				SzDecimals: spec.SzDecimals,
				PxDecimals: spec.PriceDecimals(),
				IsPerp:     spec.IsPerp,
			}
		}
		respond(w, types.MarketDataResp{
			Prices:  entries,
			Network: string(ctx.Network()),
		})
	}
}

func assetIDsHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, refreshedAt := ctx.Tape.Assets().Snapshot()
		respond(w, types.AssetIDsResp{
			AssetIDs:    ids,
			RefreshedAt: refreshedAt.UnixMilli(),
			Network:     string(ctx.Network()),
		})
	}
}

// priceStreamHandler is the SSE endpoint. One event per tape broadcast; the
// subscriber's first event is the current snapshot when one exists.
func priceStreamHandler(ctx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			respondError(w, r, badRequest("streaming unsupported by connection"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := ctx.Tape.Subscribe()
		defer ctx.Tape.Unsubscribe(sub)

		for {
			select {
			case <-r.Context().Done():
				return
			case payload, open := <-sub.Events():
				if !open {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
