// Package observability builds the process logger and the request scoped
// fields attached to log lines.
package observability
