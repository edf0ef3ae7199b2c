// Package server exposes the complaint classifier over a small JSON HTTP
// API with history queries, health, and Prometheus metrics.
package server
