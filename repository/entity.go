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

package repository

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// Column describes one mapped field of an entity.
type Column struct {
	Name   string // SQL name
	GoName string
	Index  []int
	PK     bool
}

// EntityMeta is the column layout of an entity type, read from its bun tags.
type EntityMeta struct {
	Type    reflect.Type
	Table   string
	Columns []*Column
	byName  map[string]*Column
}

// MetaOf returns the metadata of the entity type T.
func MetaOf[T any]() *EntityMeta {
	return NewEntityMeta(reflect.TypeOf((*T)(nil)).Elem())
}

// NewEntityMeta reads the bun tags of typ. Relation fields and fields tagged
// "-" are skipped; untagged fields follow bun's snake_case naming.
func NewEntityMeta(typ reflect.Type) *EntityMeta {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	m := &EntityMeta{
		Type:   typ,
		Table:  defaultTableName(typ),
		byName: make(map[string]*Column),
	}
	m.collect(typ, nil)
	for _, c := range m.Columns {
		m.byName[c.Name] = c
		if _, ok := m.byName[c.GoName]; !ok {
			m.byName[c.GoName] = c
		}
	}
	return m
}

func (m *EntityMeta) collect(t reflect.Type, index []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldIndex := append(append([]int{}, index...), i)
		tag := f.Tag.Get("bun")
		if f.Type.Name() == "BaseModel" && strings.Contains(f.Type.PkgPath(), "uptrace/bun") {
			if name := tagOption(tag, "table:"); name != "" {
				m.Table = strings.Trim(name, `"'`)
			}
			continue
		}
		if tag == "-" || strings.Contains(tag, "rel:") || strings.Contains(tag, "m2m:") {
			continue
		}
		if f.Anonymous && tag == "" {
			if f.Type.Kind() == reflect.Struct {
				m.collect(f.Type, fieldIndex)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		parts := strings.Split(tag, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			name = underscore(f.Name)
		}
		col := &Column{Name: name, GoName: f.Name, Index: fieldIndex}
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == "pk" {
				col.PK = true
			}
		}
		m.Columns = append(m.Columns, col)
	}
}

// Column finds a column by SQL name or Go field name.
func (m *EntityMeta) Column(name string) (*Column, bool) {
	c, ok := m.byName[name]
	return c, ok
}

// PrimaryKeys returns the primary key columns. Without pk tags a column
// named "id" is used.
func (m *EntityMeta) PrimaryKeys() []*Column {
	var pks []*Column
	for _, c := range m.Columns {
		if c.PK {
			pks = append(pks, c)
		}
	}
	if len(pks) == 0 {
		if c, ok := m.byName["id"]; ok {
			pks = append(pks, c)
		}
	}
	return pks
}

// PrimaryKeyName returns the SQL name of the first primary key column.
func (m *EntityMeta) PrimaryKeyName() string {
	if pks := m.PrimaryKeys(); len(pks) > 0 {
		return pks[0].Name
	}
	return "id"
}

// PrimaryKeyNames returns the SQL names of the primary key columns.
func (m *EntityMeta) PrimaryKeyNames() []string {
	pks := m.PrimaryKeys()
	names := make([]string, len(pks))
	for i, c := range pks {
		names[i] = c.Name
	}
	return names
}

// DataColumnNames returns the SQL names of all non primary key columns.
func (m *EntityMeta) DataColumnNames() []string {
	var names []string
	for _, c := range m.Columns {
		if !c.PK && !m.isImplicitPK(c) {
			names = append(names, c.Name)
		}
	}
	return names
}

func (m *EntityMeta) isImplicitPK(c *Column) bool {
	pks := m.PrimaryKeys()
	return len(pks) == 1 && pks[0] == c
}

// Value returns the value of the named column on entity. Nil pointers are
// reported as nil and other pointers are dereferenced.
func (m *EntityMeta) Value(entity any, name string) (any, bool) {
	c, ok := m.Column(name)
	if !ok {
		return nil, false
	}
	v, ok := m.field(entity, c)
	if !ok {
		return nil, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	return v.Interface(), true
}

// SetValue assigns value to the named column on entity, which must be a
// pointer to the entity struct.
func (m *EntityMeta) SetValue(entity any, name string, value any) error {
	c, ok := m.Column(name)
	if !ok {
		return fmt.Errorf("%s has no column %q", m.Type.Name(), name)
	}
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("cannot set %q on non-pointer %T", name, entity)
	}
	f := rv.Elem().FieldByIndex(c.Index)
	val := reflect.ValueOf(value)
	switch {
	case val.Type().AssignableTo(f.Type()):
		f.Set(val)
	case f.Kind() == reflect.Pointer && val.Type().AssignableTo(f.Type().Elem()):
		ptr := reflect.New(f.Type().Elem())
		ptr.Elem().Set(val)
		f.Set(ptr)
	case val.Type().ConvertibleTo(f.Type()):
		f.Set(val.Convert(f.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s.%s", value, m.Type.Name(), c.GoName)
	}
	return nil
}

// IsNew reports whether every primary key of entity holds its zero value.
func (m *EntityMeta) IsNew(entity any) bool {
	pks := m.PrimaryKeys()
	if len(pks) == 0 {
		return true
	}
	for _, c := range pks {
		v, ok := m.field(entity, c)
		if ok && !v.IsZero() {
			return false
		}
	}
	return true
}

func (m *EntityMeta) field(entity any, c *Column) (reflect.Value, bool) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Type() != m.Type {
		return reflect.Value{}, false
	}
	return rv.FieldByIndex(c.Index), true
}

func tagOption(tag, prefix string) string {
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return strings.TrimPrefix(part, prefix)
		}
	}
	return ""
}

func defaultTableName(t reflect.Type) string {
	return inflection.Plural(underscore(t.Name()))
}

// underscore converts a Go identifier to snake_case the way bun names columns.
func underscore(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
