package source

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransient covers network, timeout, and decode failures. The pool
	// is skipped for the cycle and retried at the next scheduled cycle.
	KindTransient Kind = iota

	// KindRateLimited marks an upstream rate-limit rejection and triggers
	// backoff escalation for the pool.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// FetchError wraps a source failure with its classification.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err carries a rate-limit classification.
func IsRateLimited(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindRateLimited
}
