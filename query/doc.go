// Package query wraps bun select queries with page based pagination.
package query
