package reasoning

import "errors"

var (
	// ErrDisabled indicates the adapter was built without credentials.
	ErrDisabled = errors.New("reasoning disabled")

	// ErrIncomplete indicates the model reply omitted declared output
	// fields.
	ErrIncomplete = errors.New("incomplete model reply")
)

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
