package twap

import "errors"

var (
	// ErrSizeTooSmall means the total size cannot be split into intervals
	// sub-orders of at least the minimum order size each.
	ErrSizeTooSmall = errors.New("twap: total size too small for the requested intervals")
	// ErrDurationOutOfRange means durationMinutes is outside 5..1440.
	ErrDurationOutOfRange = errors.New("twap: duration must be between 5 and 1440 minutes")
	// ErrIntervalsOutOfRange means intervals is outside 2..100.
	ErrIntervalsOutOfRange = errors.New("twap: intervals must be between 2 and 100")
	// ErrNotFound means no task exists with the given id.
	ErrNotFound = errors.New("twap: task not found")
	// ErrNotActive means the task is in a terminal state.
	ErrNotActive = errors.New("twap: task is not active")
	// ErrFirstOrderFailed means the synchronous first sub-order was rejected,
	// so no schedule was set.
	ErrFirstOrderFailed = errors.New("twap: first sub-order failed")
)
