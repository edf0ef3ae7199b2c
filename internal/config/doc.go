// Package config loads, normalizes, and validates civicrisk configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as GROQ_API_KEY and GROQ_MODEL. Commands and the API server
// obtain every setting through this package so they see the same sanitized
// paths and validation errors.
package config
