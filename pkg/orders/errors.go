package orders

import (
	"errors"
	"fmt"
	"strings"
)

// Kind labels the stable error categories the pipeline surfaces to callers.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindPriceDeviation      Kind = "PriceDeviation"
	KindInvalidPrice        Kind = "InvalidPrice"
	KindOrderTooLarge       Kind = "OrderTooLarge"
	KindInsufficientBalance Kind = "InsufficientBalance"
	KindUpstream            Kind = "Upstream"
)

// Error is the structured order-pipeline error. Validation errors fail before
// any upstream call; upstream errors carry both the original message and the
// user-readable remap.
type Error struct {
	Kind     Kind
	Field    string
	Message  string
	Original string

	// Populated only for KindPriceDeviation.
	OrderPrice     string
	MarketPrice    string
	Deviation      float64
	SuggestedPrice string
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindPriceDeviation:
		return fmt.Sprintf("%s: price %s deviates %.2f from market %s, suggested %s",
			e.Kind, e.OrderPrice, e.Deviation, e.MarketPrice, e.SuggestedPrice)
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case e.Original != "" && e.Original != e.Message:
		return fmt.Sprintf("%s: %s (upstream: %s)", e.Kind, e.Message, e.Original)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func validationError(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: reason}
}

// AsError unwraps err into the pipeline's structured error, if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// upstreamRemap maps substring patterns in upstream rejection messages to
// stable kinds with user-readable text. First match wins.
var upstreamRemap = []struct {
	needle  string
	kind    Kind
	message string
}{
	{"invalid price", KindInvalidPrice, "Order price is invalid for this market"},
	{"price must be divisible", KindInvalidPrice, "Order price is invalid for this market"},
	{"too many significant figures", KindInvalidPrice, "Order price is invalid for this market"},
	{"order too large", KindOrderTooLarge, "Order size exceeds the market limit"},
	{"exceeds max", KindOrderTooLarge, "Order size exceeds the market limit"},
	{"insufficient margin", KindInsufficientBalance, "Insufficient margin for this order"},
	{"insufficient balance", KindInsufficientBalance, "Insufficient balance for this order"},
	{"insufficient", KindInsufficientBalance, "Insufficient funds for this order"},
}

// mapUpstream classifies an upstream error message, falling back to a plain
// passthrough when no pattern matches.
func mapUpstream(original string) *Error {
	lower := strings.ToLower(original)
	for _, m := range upstreamRemap {
		if strings.Contains(lower, m.needle) {
			return &Error{Kind: m.kind, Message: m.message, Original: original}
		}
	}
	return &Error{Kind: KindUpstream, Message: original, Original: original}
}
