// Package queue persists the transcription pipeline's entities in SQLite:
// uploads, jobs, artifacts, and logs.
//
// Jobs move through a small monotone status lifecycle (queued, running,
// done, failed). The queued-to-running transition is a single atomic
// check-and-set, which is how competing workers establish exclusive
// ownership of a job. Artifacts and logs are append-only; deleting an
// upload cascades through its jobs to both.
package queue
