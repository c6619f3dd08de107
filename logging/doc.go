// Package logging provides the gateway's structured logger, a thin wrapper
// around log/slog that stamps every record with the service name and version.
package logging
