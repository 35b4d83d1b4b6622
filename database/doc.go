// Package database provides connection management, configuration loading,
// logging, health checks, slow query reporting and SQL error classification
// built on top of Bun.
package database
