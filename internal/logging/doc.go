// Package logging builds the slog loggers used across quaver.
//
// It provides a console handler for interactive use, a JSON handler for
// machine consumption, attribute helpers with standardized field names,
// and a no-op logger for tests.
package logging
