// Package history persists classification results in a SQLite database under
// the configured data directory.
//
// Every Record keeps the complaint text next to the Classification returned
// for it, the entry point that asked (cli, batch, api), and how long the call
// took, so operators can review degraded results and prune old entries.
// Similar finds earlier complaints that read like a new one.
package history
