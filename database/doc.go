// Package database provides connection management, configuration loading,
// query hooks (logging, slow queries, metrics, tracing), SQL error
// classification, logging, and health checks built on top of Bun.
package database
