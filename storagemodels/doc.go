/*
Package storagemodels defines the data structures shared by the backends and the HTTP layer.

Key Types:

StoredObject:
One entry of a bucket browse:

	type StoredObject struct {
	    Key          string          `json:"name"`
	    RetrievalURL string          `json:"url"`
	    LastModified strfmt.DateTime `json:"timestamp"`
	    SizeBytes    int64           `json:"size"`
	    ContentHash  string          `json:"etag"`
	    Tags         []Tag           `json:"tags,omitempty"`
	}

HistoryRecord:
A flattened sensor document, e.g.

	{"source": "sensor-1", "timestamp": 200, "temperature": 21.5}

BrowseOptions:
Configuration for bucket browsing:

	opts := []BrowseOption{
	    WithConcurrency(16),
	    WithPageSize(500),
	    WithPresignTTL(15 * time.Minute),
	    WithRetryPolicy(RetryPolicy{MaxRetries: 2, Backoff: time.Second}),
	}
*/
package storagemodels
