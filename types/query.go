/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"strconv"
	"time"
)

// ScopeKey is the reserved condition key that carries an inline scope selector.
const ScopeKey = "scope"

// DefaultScope is the scope applied when a query does not select one.
const DefaultScope = "default"

// Query is the closed set of shapes accepted by repository read and write
// operations: Conditions, Identifier, *FindOneOptions and *FindManyOptions.
type Query interface {
	isQuery()
}

// Conditions is a plain equality filter, column name to expected value.
// A nil value matches NULL and a slice value matches any of its elements.
type Conditions map[string]any

func (Conditions) isQuery() {}

// Clone returns a shallow copy of the conditions.
func (c Conditions) Clone() Conditions {
	if c == nil {
		return nil
	}
	out := make(Conditions, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding base overlaid with over; keys of over win.
func Merge(base, over Conditions) Conditions {
	out := make(Conditions, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Identifier is the primary-key shorthand of a query.
type Identifier struct {
	Value any
}

func (Identifier) isQuery() {}

// ID returns an Identifier query for the given primary key value.
func ID(v any) Identifier {
	return Identifier{Value: v}
}

// CacheOptions enables the query result cache for a read.
// An empty ID derives the key from the generated SQL.
type CacheOptions struct {
	ID  string
	TTL time.Duration
}

// FindOneOptions describes a single-entity lookup.
type FindOneOptions struct {
	Select    []string
	Where     Conditions
	WhereRaw  *QueryFilter
	Relations []string
	Joins     []string
	Order     []string // "id ASC", "name DESC"
	Lock      string   // "UPDATE", "SHARE"
	Cache     *CacheOptions
	Scope     ScopeSelector
}

func (*FindOneOptions) isQuery() {}

// FindManyOptions describes a multi-entity lookup. Zero pagination fields are unset.
type FindManyOptions struct {
	FindOneOptions
	Skip    int
	Take    int
	Current int
	Size    int
}

func (*FindManyOptions) isQuery() {}

// Options returns the find options carried by q, or nil for plain conditions
// and identifiers.
func Options(q Query) *FindOneOptions {
	switch v := q.(type) {
	case *FindOneOptions:
		return v
	case *FindManyOptions:
		if v == nil {
			return nil
		}
		return &v.FindOneOptions
	}
	return nil
}

type selectorState uint8

const (
	selectorUnset selectorState = iota
	selectorNamed
	selectorDisabled
)

// ScopeSelector picks the named scope applied to a query. The zero value
// selects DefaultScope.
type ScopeSelector struct {
	name  string
	state selectorState
}

// Scope selects the named scope.
func Scope(name string) ScopeSelector {
	return ScopeSelector{name: name, state: selectorNamed}
}

// NoScope disables scoping for a query.
func NoScope() ScopeSelector {
	return ScopeSelector{state: selectorDisabled}
}

// IsSet reports whether the selector was chosen explicitly.
func (s ScopeSelector) IsSet() bool { return s.state != selectorUnset }

// Disabled reports whether scoping is switched off. An empty scope name
// counts as disabled.
func (s ScopeSelector) Disabled() bool {
	return s.state == selectorDisabled || (s.state == selectorNamed && s.name == "")
}

// Name returns the selected scope name.
func (s ScopeSelector) Name() string {
	switch s.state {
	case selectorUnset:
		return DefaultScope
	case selectorDisabled:
		return ""
	}
	return s.name
}

func (s ScopeSelector) String() string {
	if s.state == selectorDisabled {
		return "false"
	}
	return s.Name()
}

// SelectorFromValue interprets a loosely typed selector: false disables and
// a string names a scope. true names the scope "true", which tables rarely
// define, so such a query usually runs unscoped.
func SelectorFromValue(v any) (ScopeSelector, bool) {
	switch s := v.(type) {
	case bool:
		if !s {
			return NoScope(), true
		}
		return Scope(strconv.FormatBool(s)), true
	case string:
		return Scope(s), true
	case ScopeSelector:
		return s, true
	}
	return ScopeSelector{}, false
}
