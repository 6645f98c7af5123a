// Package httputil provides the HTTP plumbing used to download feeds.
//
// # Overview
//
//   - [Client]: GET requests with a timeout, a request rate limit, default
//     headers, status classification and observability hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Errors
//
// Responses are classified into [ErrNotFound] (404/410) and [ErrNetwork]
// (transport failures and other non-2xx statuses). Transport failures, 429
// and 5xx responses are additionally wrapped in [RetryableError] so that
// [Retry] attempts them again:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    body, err = client.Get(ctx, url)
//	    return err
//	})
//	if errors.Is(err, httputil.ErrNotFound) {
//	    // the feed does not exist
//	}
//
// # Configuration
//
// Default settings:
//
//   - Request timeout: 30 seconds
//   - Rate limit: 10 requests per second, burst 5
//   - Max retries: 3, starting at 1 second
package httputil
