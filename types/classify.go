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
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind is the shape of a query as seen by the scope resolver.
type Kind int

const (
	KindConditions Kind = iota
	KindOne
	KindMany
)

func (k Kind) String() string {
	switch k {
	case KindOne:
		return "one"
	case KindMany:
		return "many"
	default:
		return "conditions"
	}
}

// IsOptions reports whether the kind carries find options rather than a bare
// condition map.
func (k Kind) IsOptions() bool { return k != KindConditions }

// KindOf classifies a typed query.
func KindOf(q Query) Kind {
	switch q.(type) {
	case *FindManyOptions:
		return KindMany
	case *FindOneOptions:
		return KindOne
	}
	return KindConditions
}

// Classify decides whether a loosely typed map resembles find options or a
// plain condition map.
func Classify(raw map[string]any) Kind {
	if raw == nil {
		return KindConditions
	}
	if isOneOptions(raw) {
		return KindOne
	}
	for _, key := range []string{"skip", "take", "size", "current"} {
		if IsNumeric(raw[key]) {
			return KindMany
		}
	}
	return KindConditions
}

func isOneOptions(raw map[string]any) bool {
	if isSequence(raw["select"]) {
		return true
	}
	if w, ok := raw["where"]; ok {
		if _, isString := w.(string); isString || isObject(w) {
			return true
		}
	}
	if isSequence(raw["relations"]) {
		return true
	}
	for _, key := range []string{"join", "cache", "lock"} {
		if v, ok := raw[key]; ok && (isObject(v) || isBool(v) || isNumber(v)) {
			return true
		}
	}
	if v, ok := raw["loadRelationIds"]; ok && (isObject(v) || isBool(v)) {
		return true
	}
	if isBool(raw["loadEagerRelations"]) {
		return true
	}
	if v, ok := raw["order"]; ok && isObject(v) {
		return true
	}
	return false
}

func isSequence(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isObject(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Struct, reflect.Array:
		return true
	}
	return false
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// ParseQuery converts a loosely typed map, such as decoded JSON, into the
// query variant Classify selects for it.
func ParseQuery(raw map[string]any) (Query, error) {
	kind := Classify(raw)
	if kind == KindConditions {
		return Conditions(raw).Clone(), nil
	}
	one, err := parseOneOptions(raw)
	if err != nil {
		return nil, err
	}
	if kind == KindOne && !hasPagination(raw) {
		return one, nil
	}
	many := &FindManyOptions{FindOneOptions: *one}
	for key, dst := range map[string]*int{
		"skip":    &many.Skip,
		"take":    &many.Take,
		"current": &many.Current,
		"size":    &many.Size,
	} {
		n, ok, err := ToNumber(raw[key])
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %v: %w", key, raw[key], err)
		}
		if ok {
			*dst = n
		}
	}
	return many, nil
}

func hasPagination(raw map[string]any) bool {
	for _, key := range []string{"skip", "take", "size", "current"} {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func parseOneOptions(raw map[string]any) (*FindOneOptions, error) {
	o := &FindOneOptions{}
	var err error
	if v, ok := raw["select"]; ok && v != nil {
		if o.Select, err = cast.ToStringSliceE(v); err != nil {
			return nil, fmt.Errorf("invalid select value: %w", err)
		}
	}
	if v, ok := raw["where"]; ok && v != nil {
		switch w := v.(type) {
		case string:
			o.WhereRaw = NewQueryFilter(w)
		case Conditions:
			o.Where = w.Clone()
		default:
			m, err := cast.ToStringMapE(w)
			if err != nil {
				return nil, fmt.Errorf("invalid where value: %w", err)
			}
			o.Where = Conditions(m)
		}
	}
	if v, ok := raw["relations"]; ok && v != nil {
		if o.Relations, err = cast.ToStringSliceE(v); err != nil {
			return nil, fmt.Errorf("invalid relations value: %w", err)
		}
	}
	if v, ok := raw["join"]; ok && isSequence(v) {
		if o.Joins, err = cast.ToStringSliceE(v); err != nil {
			return nil, fmt.Errorf("invalid join value: %w", err)
		}
	}
	if v, ok := raw["order"]; ok && v != nil {
		if o.Order, err = parseOrder(v); err != nil {
			return nil, err
		}
	}
	if v, ok := raw["lock"]; ok && v != nil {
		o.Lock = parseLock(v)
	}
	if v, ok := raw["cache"]; ok && v != nil {
		if o.Cache, err = parseCache(v); err != nil {
			return nil, err
		}
	}
	if v, ok := raw[ScopeKey]; ok {
		if sel, ok := SelectorFromValue(v); ok {
			o.Scope = sel
		}
	}
	return o, nil
}

func parseOrder(v any) ([]string, error) {
	if isSequence(v) {
		return cast.ToStringSliceE(v)
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, fmt.Errorf("invalid order value: %w", err)
	}
	cols := make([]string, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	orders := make([]string, 0, len(cols))
	for _, col := range cols {
		orders = append(orders, col+" "+strings.ToUpper(m[col]))
	}
	return orders, nil
}

func parseLock(v any) string {
	mode := ""
	switch l := v.(type) {
	case string:
		mode = l
	case map[string]any:
		mode = cast.ToString(l["mode"])
	}
	switch strings.ToLower(mode) {
	case "pessimistic_read", "share":
		return "SHARE"
	case "pessimistic_write", "update":
		return "UPDATE"
	}
	return ""
}

func parseCache(v any) (*CacheOptions, error) {
	switch c := v.(type) {
	case bool:
		if !c {
			return nil, nil
		}
		return &CacheOptions{}, nil
	case map[string]any:
		ms, _, err := ToNumber(c["milliseconds"])
		if err != nil {
			return nil, fmt.Errorf("invalid cache milliseconds: %w", err)
		}
		return &CacheOptions{ID: cast.ToString(c["id"]), TTL: time.Duration(ms) * time.Millisecond}, nil
	}
	ms, _, err := ToNumber(v)
	if err != nil {
		return nil, fmt.Errorf("invalid cache value %v: %w", v, err)
	}
	return &CacheOptions{TTL: time.Duration(ms) * time.Millisecond}, nil
}
