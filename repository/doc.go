// Package repository provides the generic engine repository built on Bun. It
// maps conditions, identifiers and find options onto Bun query builders and
// covers counting, saving, upserts, bulk updates and deletes, transaction
// binding and an optional query result cache.
package repository
