package exam

import "errors"

var (
	// ErrNotFound: unknown exam or attempt.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration: the exam has no usable duration. An authoring bug, not a client error.
	ErrConfiguration = errors.New("exam duration not set")
	// ErrAlreadyClosed: the attempt was already graded or closed as expired.
	ErrAlreadyClosed = errors.New("attempt already closed")
	// ErrTransaction: unexpected persistence failure; nothing was applied and the call may be retried.
	ErrTransaction = errors.New("transaction failed")
	// ErrInvalidContent: authored content violates an invariant.
	ErrInvalidContent = errors.New("invalid content")
)

func isDomainErr(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrAlreadyClosed) ||
		errors.Is(err, ErrInvalidContent) ||
		errors.Is(err, ErrTransaction)
}
