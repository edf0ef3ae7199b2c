// Package logging assembles the structured slog loggers used across civicrisk.
//
// It owns the console and JSON handlers, level parsing, and the optional JSON
// log file that runs alongside stderr output. Context helpers tag lines with
// request ids and complaint sources, and ErrorWithContext/WarnWithContext keep
// failure logs carrying an event type and a hint for the operator. NewNop
// serves tests and wiring code that has no logger yet.
package logging
