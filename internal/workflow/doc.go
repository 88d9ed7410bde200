// Package workflow coordinates job processing: claiming queued jobs by
// compare-and-swap, running pipeline stages in order under per-stage time
// bounds, advancing monotone progress, and translating stage failures into
// the persisted failure taxonomy.
package workflow
