// Package cache provides query result caches used by repositories for reads
// that ask for caching.
package cache
