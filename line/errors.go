package line

import "errors"

// Line errors. Argument errors report a bad value from the caller, state
// errors an operation the current state does not allow, and capacity errors
// more new orders than the line can take.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrOutOfRange       = errors.New("index out of range")
	ErrIllegalState     = errors.New("illegal state")
	ErrNotFinished      = errors.New("posts not finished")
	ErrTooManyOrders    = errors.New("more new orders than free head slots")
	ErrOrderNotAccepted = errors.New("order not accepted by line")
	ErrNoTaskTypes      = errors.New("layout has no task types")
)
