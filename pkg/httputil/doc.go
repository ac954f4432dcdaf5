// Package httputil provides retry with exponential backoff for registry
// lookups.
//
// Transient failures (connection errors, 5xx responses, 429 rate limits)
// are wrapped in [RetryableError] by the caller; [Retry] re-runs the
// operation for those and returns any other error immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    _, err := client.Probe(ctx, url)
//	    return err
//	})
//
// A [RetryableError] may carry a server-supplied Retry-After delay, which
// replaces the backoff delay for that attempt (capped at [MaxRetryAfter]).
package httputil
