package provider

import "errors"

var (
	// ErrUnavailable marks a rejected call: network or transport failure,
	// auth problem, upstream 5xx.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrEmpty marks a call that completed but returned no usable content.
	ErrEmpty = errors.New("provider returned no usable content")

	// ErrRateLimited marks a transient upstream rate limit; a subsequent
	// scan is expected to succeed.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrBillingExhausted marks an out-of-quota upstream account. Every
	// subsequent call to the same provider will fail for the same reason,
	// so callers surface this distinctly instead of downgrading it.
	ErrBillingExhausted = errors.New("provider billing exhausted")
)
