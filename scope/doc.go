// Package scope resolves named default filter conditions ("scopes") into the
// queries sent to a repository, and keeps the per-entity scope tables.
package scope
