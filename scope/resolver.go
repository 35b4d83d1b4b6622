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

import "github.com/tomoncle/bunplus/types"

// IDKey is the condition key an Identifier query resolves to.
const IDKey = "id"

// SelectorOf returns the scope selector carried by q. Plain conditions carry
// it under types.ScopeKey; identifiers never carry one.
func SelectorOf(q types.Query) types.ScopeSelector {
	switch v := q.(type) {
	case types.Conditions:
		if sel, ok := types.SelectorFromValue(v[types.ScopeKey]); ok {
			return sel
		}
	case *types.FindOneOptions:
		if v != nil {
			return v.Scope
		}
	case *types.FindManyOptions:
		if v != nil {
			return v.Scope
		}
	}
	return types.ScopeSelector{}
}

// Resolve merges the scope selected for params into it. The selector of
// explicit, when set, overrides the one carried by params. Scope conditions
// sit underneath the caller's: on a key collision the caller wins. When no
// scope applies params is returned as is, apart from identifiers becoming
// {id: value} and the inline selector key being dropped from conditions.
// Inputs are never modified.
func Resolve(params, explicit types.Query, table Table) types.Query {
	if id, ok := params.(types.Identifier); ok {
		params = types.Conditions{IDKey: id.Value}
	}
	params = normalize(params)

	sel := SelectorOf(params)
	if e := SelectorOf(explicit); e.IsSet() {
		sel = e
	}
	if c, ok := params.(types.Conditions); ok {
		params = stripSelector(c)
	}
	if sel.Disabled() {
		return params
	}
	scoped, ok := table.Get(sel.Name())
	if !ok {
		return params
	}

	switch p := params.(type) {
	case *types.FindOneOptions:
		o := *p
		o.Where = types.Merge(scoped, p.Where)
		return &o
	case *types.FindManyOptions:
		o := *p
		o.Where = types.Merge(scoped, p.Where)
		return &o
	case types.Conditions:
		return types.Merge(scoped, p)
	}
	// nil params: the scope alone is the filter
	return types.Merge(scoped, nil)
}

func normalize(q types.Query) types.Query {
	switch v := q.(type) {
	case *types.FindOneOptions:
		if v == nil {
			return nil
		}
	case *types.FindManyOptions:
		if v == nil {
			return nil
		}
	}
	return q
}

func stripSelector(c types.Conditions) types.Conditions {
	if _, ok := types.SelectorFromValue(c[types.ScopeKey]); !ok {
		return c
	}
	out := c.Clone()
	delete(out, types.ScopeKey)
	return out
}
