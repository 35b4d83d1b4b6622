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

package scope

import (
	"reflect"
	"sync"

	"github.com/tomoncle/bunplus/types"
)

// Table maps scope names to the conditions they add to a query.
type Table map[string]types.Conditions

// Get returns the conditions of the named scope.
func (t Table) Get(name string) (types.Conditions, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t[name]
	return c, ok
}

// Names returns the scope names defined by the table.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	return names
}

// Clone copies the table and every condition map it holds.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for name, c := range t {
		out[name] = c.Clone()
	}
	return out
}

// Scoped is implemented by entities that declare their own scope table.
type Scoped interface {
	Scopes() Table
}

// Registry holds scope tables registered per entity type or per table name.
// Tables are copied on registration and never modified afterwards.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Table
	byName map[string]Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Table),
		byName: make(map[string]Table),
	}
}

// Register binds a scope table to the entity type T.
func Register[T any](r *Registry, table Table) {
	r.RegisterType(reflect.TypeOf((*T)(nil)).Elem(), table)
}

// RegisterType binds a scope table to an entity type.
func (r *Registry) RegisterType(typ reflect.Type, table Table) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[typ] = table.Clone()
}

// RegisterTable binds a scope table to a database table name.
func (r *Registry) RegisterTable(name string, table Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = table.Clone()
}

// Lookup returns the table registered for typ, falling back to tableName.
func (r *Registry) Lookup(typ reflect.Type, tableName string) (Table, bool) {
	if r == nil {
		return nil, false
	}
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.byType[typ]; ok {
		return t, true
	}
	if t, ok := r.byName[tableName]; ok {
		return t, true
	}
	return nil, false
}

// TableNames returns every table name that has a registered scope table.
func (r *Registry) TableNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
