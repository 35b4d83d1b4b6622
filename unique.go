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

package bunplus

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/bunplus/types"
)

// candidate is a row about to be written, seen through its column values.
// A partial candidate only carries some columns of the row.
type candidate struct {
	value   func(field string) (column string, v any, ok bool)
	isNew   bool
	partial bool
}

func (r *repositoryImpl[T]) entityCandidates(entities []*T) []candidate {
	out := make([]candidate, 0, len(entities))
	for _, e := range entities {
		e := e
		out = append(out, candidate{
			value: func(field string) (string, any, bool) {
				c, ok := r.meta.Column(field)
				if !ok {
					return "", nil, false
				}
				v, ok := r.meta.Value(e, c.Name)
				return c.Name, v, ok
			},
			isNew: r.meta.IsNew(e),
		})
	}
	return out
}

// conditionsCandidate reads a partial row; fields it does not carry are absent.
func (r *repositoryImpl[T]) conditionsCandidate(values types.Conditions) candidate {
	lookup := func(field string) (string, any, bool) {
		column := field
		if c, ok := r.meta.Column(field); ok {
			column = c.Name
		}
		if v, ok := values[column]; ok {
			return column, v, true
		}
		v, ok := values[field]
		return column, v, ok
	}
	isNew := true
	for _, pk := range r.meta.PrimaryKeyNames() {
		if _, v, ok := lookup(pk); ok && !isZero(v) {
			isNew = false
		}
	}
	return candidate{value: lookup, isNew: isNew, partial: true}
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}

// checkUnique counts, within the default scope, the rows sharing each unique
// group with each candidate. A candidate that already has a primary key may
// match itself once. Candidates and groups are checked in order and the first
// violation stops the check.
func (r *repositoryImpl[T]) checkUnique(ctx context.Context, opts *types.SaveOptions, candidates []candidate) error {
	groups := opts.UniqueGroups()
	if len(groups) == 0 {
		return nil
	}
	if err := r.checkUniqueColumns(groups, candidates); err != nil {
		return err
	}
	for _, c := range candidates {
		allowed := 0
		if !c.isNew {
			allowed = 1
		}
		for _, group := range groups {
			conds := types.Conditions{}
			for _, field := range group {
				if column, v, ok := c.value(field); ok {
					conds[column] = v
				}
			}
			if len(conds) == 0 {
				continue
			}
			n, err := r.Count(ctx, conds)
			if err != nil {
				return err
			}
			if n > allowed {
				return ErrEntityNotUnique
			}
		}
	}
	return nil
}

// checkUniqueColumns rejects groups naming a field the entity does not have.
// Partial rows skip the check since they may omit any column.
func (r *repositoryImpl[T]) checkUniqueColumns(groups [][]string, candidates []candidate) error {
	whole := false
	for _, c := range candidates {
		whole = whole || !c.partial
	}
	if !whole {
		return nil
	}
	for _, group := range groups {
		for _, field := range group {
			if _, ok := r.meta.Column(field); !ok {
				return fmt.Errorf("unique group %q: %s has no column %q", strings.Join(group, ","), r.meta.Table, field)
			}
		}
	}
	return nil
}
