// Command quaver is the CLI for the transcription queue: it registers
// uploads, submits jobs, and inspects queue state, logs, and artifacts.
package main
