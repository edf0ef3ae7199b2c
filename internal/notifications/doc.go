// Package notifications posts ntfy alerts when a complaint is classified at
// or above the configured intensity. With no topic configured every call is
// a no-op.
package notifications
