package dnscf

import "time"

// RetryPolicy bounds how many times a request is attempted.
//
// The zero value makes a single attempt.
// Delay is slept between attempts; zero retries immediately.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Timeout applies to each attempt individually.
	Timeout time.Duration
}

// DefaultRetryPolicy makes up to five attempts with a ten second timeout each and no delay in between.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	Timeout:     10 * time.Second,
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
