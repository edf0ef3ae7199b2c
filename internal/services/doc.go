// Package services defines shared utilities consumed by the risk analyzer and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers and the
//     entry point (cli, batch, api) for logging.
//   - Structured error markers plus the Wrap helper, and Kind, which turns a
//     failure into the short label carried by degraded classifications.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error classification, log correlation) stays uniform.
package services
