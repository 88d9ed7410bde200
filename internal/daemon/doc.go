// Package daemon ties the queue store, workflow manager, and HTTP API into
// a single-instance background service guarded by a file lock.
package daemon
