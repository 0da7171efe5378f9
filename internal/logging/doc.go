// Package logging provides the structured logging interface shared by the
// dispatcher, the worker pool, the HTTP server and the CLI. The only backend
// is zerolog, rendered as JSON lines or through its console writer.
package logging
