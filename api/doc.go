// Package api provides the HTTP surface of the IoT gateway.
//
// It maps URL paths onto the datastore components: bucket browsing, sorted
// reference tables, device shadows and metric history, thing listing, topic
// publishing and the weather passthrough.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Component errors are translated to status codes in one place: a NotFound
// error is an empty 404, a validation error a 400 with a JSON error body and
// anything else a 500 with a JSON error body.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
