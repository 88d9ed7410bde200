// Package notation turns pitch contours into symbolic music: tempo
// estimation, grid quantization, key detection, and deterministic MusicXML
// encoding.
package notation
