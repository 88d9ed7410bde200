// Package pipeline implements the five transcription stages as workflow
// stage handlers: separating, extracting-pitch, quantizing,
// encoding-notation, and rendering. Each stage reads the prior stage's
// artifact from the queue store and persists its own before returning.
package pipeline
