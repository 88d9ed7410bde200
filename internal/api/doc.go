// Package api defines the transport-facing view types for jobs, uploads,
// artifacts, logs, and daemon status, plus the read-only service the HTTP
// layer is built on.
package api
