// Package integrations provides the shared HTTP client used by package
// registry lookups.
//
// [Client] wraps net/http with three concerns every registry client needs:
//
//   - Caching: responses are JSON-encoded into a [cache.Cache] under a
//     per-registry key prefix, so repeated audits of the same tree do not
//     hit the index again until the TTL expires.
//   - Retry: connection errors, 5xx and 429 responses are retried with
//     exponential backoff via [httputil.RetryWithBackoff]. A 429 honours the
//     Retry-After header.
//   - Observability: requests, responses and cache hits are reported through
//     [observability.HTTP] and [observability.Cache].
//
// Registry-specific clients live in subpackages ([pypi]).
package integrations
