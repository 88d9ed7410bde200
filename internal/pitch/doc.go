// Package pitch extracts fundamental-frequency contours from mono audio,
// either with the built-in autocorrelation tracker or an external model
// driven over the command line.
package pitch
