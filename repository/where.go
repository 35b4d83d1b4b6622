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
	"reflect"
	"sort"

	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
)

type whereQuery[Q any] interface {
	Where(query string, args ...any) Q
}

// applyWhere narrows q by the filter part of query: conditions, the primary
// key of an identifier, or the Where and WhereRaw of find options. alias
// qualifies columns with the model's table alias.
func applyWhere[Q whereQuery[Q]](q Q, query types.Query, pk string, alias bool) Q {
	switch v := query.(type) {
	case types.Conditions:
		q = applyConditions(q, v, alias)
	case types.Identifier:
		q = applyConditions(q, types.Conditions{pk: v.Value}, alias)
	case *types.FindOneOptions, *types.FindManyOptions:
		opts := types.Options(v)
		if opts == nil {
			return q
		}
		q = applyConditions(q, opts.Where, alias)
		if opts.WhereRaw != nil && opts.WhereRaw.Schema != "" {
			q = q.Where("("+opts.WhereRaw.Schema+")", opts.WhereRaw.Args...)
		}
	}
	return q
}

func applyConditions[Q whereQuery[Q]](q Q, conds types.Conditions, alias bool) Q {
	prefix := ""
	if alias {
		prefix = "?TableAlias."
	}
	for _, col := range sortedKeys(conds) {
		v := conds[col]
		if col == types.ScopeKey {
			if _, ok := types.SelectorFromValue(v); ok {
				continue
			}
		}
		switch {
		case v == nil:
			q = q.Where(prefix+"? IS NULL", bun.Ident(col))
		case isList(v):
			q = q.Where(prefix+"? IN (?)", bun.Ident(col), bun.In(v))
		default:
			q = q.Where(prefix+"? = ?", bun.Ident(col), v)
		}
	}
	return q
}

func isList(v any) bool {
	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	return t.Elem().Kind() != reflect.Uint8
}

func sortedKeys(m types.Conditions) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// applyFind applies conditions and every find option that shapes a select.
func applyFind(q *bun.SelectQuery, query types.Query, pk string) *bun.SelectQuery {
	q = applyWhere(q, query, pk, true)
	opts := types.Options(query)
	if opts == nil {
		return q
	}
	if len(opts.Select) > 0 {
		q = q.Column(opts.Select...)
	}
	for _, rel := range opts.Relations {
		q = q.Relation(rel)
	}
	for _, join := range opts.Joins {
		q = q.Join(join)
	}
	if len(opts.Order) > 0 {
		q = q.Order(opts.Order...)
	}
	if opts.Lock != "" {
		q = q.For(opts.Lock)
	}
	if many, ok := query.(*types.FindManyOptions); ok {
		if many.Take != 0 {
			q = q.Limit(many.Take)
		}
		if many.Skip != 0 {
			q = q.Offset(many.Skip)
		}
	}
	return q
}
