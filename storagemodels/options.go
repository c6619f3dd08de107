package storagemodels

import (
	"time"
)

// RetryPolicy bounds the extra attempts made for transient backend errors.
type RetryPolicy struct {
	MaxRetries int           // Extra attempts after the first call (default: 0)
	Backoff    time.Duration // Backoff step, multiplied by the attempt number (default: 200ms)
}

// DefaultRetryPolicy returns the default retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		Backoff:    200 * time.Millisecond,
	}
}

// BrowseOptions configures a bucket browse
type BrowseOptions struct {
	Concurrency     int                  // Parallel tag lookups per page (default: 8)
	PageSize        int32                // Objects per listing page, 0 uses the backend default
	PresignTTL      time.Duration        // Lifetime of retrieval URLs (default: 1h)
	Retry           RetryPolicy          // Retry policy for listing and tag calls
	ProgressHandler func(BrowseProgress) // Optional callback after each page
}

// BrowseProgress tracks browse progress
type BrowseProgress struct {
	PagesFetched  int       // Listing pages fetched so far
	ObjectsListed int64     // Objects enriched so far
	StartTime     time.Time // When the browse started
}

// BrowseOption is a functional option for configuring a browse
type BrowseOption func(*BrowseOptions)

// DefaultBrowseOptions returns default browse options
func DefaultBrowseOptions() BrowseOptions {
	return BrowseOptions{
		Concurrency: 8,
		PresignTTL:  time.Hour,
		Retry:       DefaultRetryPolicy(),
	}
}

// WithConcurrency sets the tag lookup fan-out degree
func WithConcurrency(n int) BrowseOption {
	return func(opts *BrowseOptions) {
		opts.Concurrency = n
	}
}

// WithPageSize sets the listing page size
func WithPageSize(size int32) BrowseOption {
	return func(opts *BrowseOptions) {
		opts.PageSize = size
	}
}

// WithPresignTTL sets the retrieval URL lifetime
func WithPresignTTL(ttl time.Duration) BrowseOption {
	return func(opts *BrowseOptions) {
		opts.PresignTTL = ttl
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(policy RetryPolicy) BrowseOption {
	return func(opts *BrowseOptions) {
		opts.Retry = policy
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(BrowseProgress)) BrowseOption {
	return func(opts *BrowseOptions) {
		opts.ProgressHandler = handler
	}
}
