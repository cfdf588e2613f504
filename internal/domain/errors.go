package domain

import "errors"

// Order construction errors. These are fatal for the order only: the order
// is never sent and the symbol's decision is abandoned for the session.
var (
	ErrUnsupportedOrderType = errors.New("unsupported order type")
	ErrMissingSymbol        = errors.New("missing symbol")
	ErrNonPositiveQuantity  = errors.New("quantity must be positive")
	ErrMissingLimitPrice    = errors.New("limit price required")
	ErrMissingStopPrice     = errors.New("stop price required")
	ErrMissingTrailPercent  = errors.New("trail percent required")
)

// TransientError marks a connection-level failure that may succeed on a
// fresh attempt. Infrastructure adapters wrap network errors with it so the
// pipeline can distinguish retryable submissions from rejections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err returns nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is a connection-level failure worth one
// more attempt.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
