package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"hypergate/internal/svc"
)

// RegisterHandlers mounts the full gateway surface under /api. The SSE route
// gets an unlimited timeout so long-lived streams survive the server's
// default request deadline.
func RegisterHandlers(server *rest.Server, ctx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodGet, Path: "/health", Handler: healthHandler(ctx)},
			{Method: http.MethodGet, Path: "/meta", Handler: metaHandler(ctx)},
			{Method: http.MethodGet, Path: "/prices", Handler: pricesHandler(ctx)},
			{Method: http.MethodGet, Path: "/market-data", Handler: marketDataHandler(ctx)},
			{Method: http.MethodGet, Path: "/asset-ids", Handler: assetIDsHandler(ctx)},
			{Method: http.MethodGet, Path: "/clearinghouse-state", Handler: clearinghouseStateHandler(ctx)},
			{Method: http.MethodGet, Path: "/wallet-balance", Handler: walletBalanceHandler(ctx)},
			{Method: http.MethodGet, Path: "/leverage-status/:address", Handler: leverageStatusHandler(ctx)},
			{Method: http.MethodPost, Path: "/place-order", Handler: placeOrderHandler(ctx)},
			{Method: http.MethodPost, Path: "/place-twap-order", Handler: placeTwapOrderHandler(ctx)},
			{Method: http.MethodGet, Path: "/twap-task/:id", Handler: twapTaskHandler(ctx)},
			{Method: http.MethodGet, Path: "/twap-tasks", Handler: twapTasksHandler(ctx)},
			{Method: http.MethodPost, Path: "/cancel-twap-task/:id", Handler: cancelTwapTaskHandler(ctx)},
			{Method: http.MethodPost, Path: "/update-leverage", Handler: updateLeverageHandler(ctx)},
			{Method: http.MethodPost, Path: "/update-margin", Handler: updateMarginHandler(ctx)},
			{Method: http.MethodPost, Path: "/cancel-orders", Handler: cancelOrdersHandler(ctx)},
			{Method: http.MethodPost, Path: "/calculate-liquidation-price", Handler: liquidationPriceHandler(ctx)},
			{Method: http.MethodPost, Path: "/switch-network", Handler: switchNetworkHandler(ctx)},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodGet, Path: "/price-stream", Handler: priceStreamHandler(ctx)},
		},
		rest.WithPrefix("/api"),
		rest.WithTimeout(0),
	)
}
