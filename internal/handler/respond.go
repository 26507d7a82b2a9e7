package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"hypergate/pkg/orders"
	"hypergate/pkg/twap"
)

// errorBody is the uniform error envelope every endpoint returns on failure.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type deviationDetail struct {
	OrderPrice     string  `json:"orderPrice"`
	MarketPrice    string  `json:"marketPrice"`
	Deviation      float64 `json:"deviation"`
	SuggestedPrice string  `json:"suggestedPrice"`
}

func respond(w http.ResponseWriter, v interface{}) {
	httpx.OkJson(w, v)
}

// respondError maps structured component errors to HTTP statuses and the
// uniform envelope. Anything unrecognized surfaces as a 502 upstream error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logx.WithContext(r.Context()).Errorf("handler: %s %s failed: %v", r.Method, r.URL.Path, err)

	status, body := classify(err)
	httpx.WriteJson(w, status, body)
}

func classify(err error) (int, errorBody) {
	if oerr, ok := orders.AsError(err); ok {
		switch oerr.Kind {
		case orders.KindValidation:
			return http.StatusBadRequest, envelope(string(oerr.Kind), oerr.Field+" "+oerr.Message, nil)
		case orders.KindPriceDeviation:
			return http.StatusBadRequest, envelope(string(oerr.Kind), oerr.Message, deviationDetail{
				OrderPrice:     oerr.OrderPrice,
				MarketPrice:    oerr.MarketPrice,
				Deviation:      oerr.Deviation,
				SuggestedPrice: oerr.SuggestedPrice,
			})
		case orders.KindInvalidPrice, orders.KindOrderTooLarge, orders.KindInsufficientBalance:
			return http.StatusUnprocessableEntity, envelope(string(oerr.Kind), oerr.Message, oerr.Original)
		default:
			return http.StatusBadGateway, envelope(string(oerr.Kind), oerr.Message, oerr.Original)
		}
	}

	switch {
	case errors.Is(err, twap.ErrNotFound):
		return http.StatusNotFound, envelope("TwapNotFound", err.Error(), nil)
	case errors.Is(err, twap.ErrNotActive):
		return http.StatusConflict, envelope("TwapNotActive", err.Error(), nil)
	case errors.Is(err, twap.ErrSizeTooSmall):
		return http.StatusBadRequest, envelope("TwapSizeTooSmall", err.Error(), nil)
	case errors.Is(err, twap.ErrIntervalsOutOfRange):
		return http.StatusBadRequest, envelope("TwapIntervalsOutOfRange", err.Error(), nil)
	case errors.Is(err, twap.ErrDurationOutOfRange):
		return http.StatusBadRequest, envelope("TwapDurationOutOfRange", err.Error(), nil)
	case errors.Is(err, twap.ErrFirstOrderFailed):
		return http.StatusUnprocessableEntity, envelope("TwapFirstOrderFailed", err.Error(), nil)
	case errors.Is(err, errNotInitialized):
		return http.StatusServiceUnavailable, envelope("NotInitialized", err.Error(), nil)
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, envelope("ValidationError", err.Error(), nil)
	}

	return http.StatusBadGateway, envelope("Upstream", err.Error(), nil)
}

func envelope(code, message string, details interface{}) errorBody {
	return errorBody{Error: errorDetail{Code: code, Message: message, Details: details}}
}

var (
	errNotInitialized = errors.New("service booted without a signing key; trading endpoints are disabled")
	errBadRequest     = errors.New("invalid request")
)

func badRequest(reason string) error {
	return fmt.Errorf("%w: %s", errBadRequest, reason)
}
