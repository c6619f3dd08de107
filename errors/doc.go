/*
Package errors provides semantic error types for the gateway.

The package defines the outcomes the HTTP layer distinguishes, checked with the
standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound     = errors.New("not found")
	    ErrInvalidInput = errors.New("invalid input")
	    ErrUpstream     = errors.New("upstream failure")
	)

Usage:

	value, err := fetcher.FetchMetric(ctx, "sensor-1", "humidity")
	if err != nil {
	    if errors.IsNotFound(err) {
	        // 404, empty body
	    }
	    return err
	}

	// Create typed errors
	err := errors.NewNotFoundError("metric", "humidity")
	err := errors.NewValidationError("qos", "must be 0 or 1")
	err := errors.NewUpstreamError("dynamodb", "Query", cause)

UpstreamError unwraps to the backend error, so callers can still match SDK
error types with errors.As.
*/
package errors
