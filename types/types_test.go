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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want Kind
	}{
		{"nil", nil, KindConditions},
		{"empty", map[string]any{}, KindConditions},
		{"plain", map[string]any{"name": "a", "age": 3}, KindConditions},
		{"select", map[string]any{"select": []string{"id"}}, KindOne},
		{"select not a sequence", map[string]any{"select": "id"}, KindConditions},
		{"where map", map[string]any{"where": map[string]any{"id": 1}}, KindOne},
		{"where string", map[string]any{"where": "id > 1"}, KindOne},
		{"where null", map[string]any{"where": nil}, KindConditions},
		{"relations", map[string]any{"relations": []any{"profile"}}, KindOne},
		{"lock object", map[string]any{"lock": map[string]any{"mode": "pessimistic_read"}}, KindOne},
		{"lock string", map[string]any{"lock": "update"}, KindConditions},
		{"cache bool", map[string]any{"cache": true}, KindOne},
		{"cache number", map[string]any{"cache": 1000}, KindOne},
		{"loadRelationIds", map[string]any{"loadRelationIds": true}, KindOne},
		{"loadEagerRelations", map[string]any{"loadEagerRelations": false}, KindOne},
		{"loadEagerRelations string", map[string]any{"loadEagerRelations": "false"}, KindConditions},
		{"order map", map[string]any{"order": map[string]any{"id": "desc"}}, KindOne},
		{"take", map[string]any{"take": 10}, KindMany},
		{"numeric string", map[string]any{"current": "2"}, KindMany},
		{"non numeric string", map[string]any{"size": "ten"}, KindConditions},
		{"null take", map[string]any{"take": nil}, KindConditions},
		{"where wins", map[string]any{"where": map[string]any{}, "take": 5}, KindOne},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.raw))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConditions, KindOf(nil))
	assert.Equal(t, KindConditions, KindOf(Conditions{}))
	assert.Equal(t, KindConditions, KindOf(ID(1)))
	assert.Equal(t, KindOne, KindOf(&FindOneOptions{}))
	assert.Equal(t, KindMany, KindOf(&FindManyOptions{}))
	assert.True(t, KindMany.IsOptions())
	assert.False(t, KindConditions.IsOptions())
	assert.Equal(t, "one", KindOne.String())
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(map[string]any{"name": "a", "scope": "archived"})
	require.NoError(t, err)
	assert.Equal(t, Conditions{"name": "a", "scope": "archived"}, q)

	q, err = ParseQuery(map[string]any{
		"select": []any{"id", "name"},
		"where":  "age > ?",
		"cache":  map[string]any{"id": "users", "milliseconds": 1500},
		"lock":   map[string]any{"mode": "pessimistic_write"},
	})
	require.NoError(t, err)
	one, ok := q.(*FindOneOptions)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, one.Select)
	require.NotNil(t, one.WhereRaw)
	assert.Equal(t, "age > ?", one.WhereRaw.Schema)
	assert.Equal(t, &CacheOptions{ID: "users", TTL: 1500 * time.Millisecond}, one.Cache)
	assert.Equal(t, "UPDATE", one.Lock)

	q, err = ParseQuery(map[string]any{
		"where": map[string]any{"name": "a"},
		"order": map[string]any{"name": "asc", "id": "desc"},
		"take":  "5",
		"skip":  10,
		"scope": false,
	})
	require.NoError(t, err)
	many, ok := q.(*FindManyOptions)
	require.True(t, ok)
	assert.Equal(t, Conditions{"name": "a"}, many.Where)
	assert.Equal(t, []string{"id DESC", "name ASC"}, many.Order)
	assert.Equal(t, 5, many.Take)
	assert.Equal(t, 10, many.Skip)
	assert.True(t, many.Scope.Disabled())

	_, err = ParseQuery(map[string]any{"where": map[string]any{}, "take": "many"})
	assert.Error(t, err)
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in     any
		want   int
		ok     bool
		hasErr bool
	}{
		{nil, 0, false, false},
		{5, 5, true, false},
		{int64(7), 7, true, false},
		{3.0, 3, true, false},
		{"12", 12, true, false},
		{" 4 ", 4, true, false},
		{"2.5", 2, true, false},
		{"", 0, true, true},
		{"abc", 0, true, true},
		{true, 0, true, true},
		{math.NaN(), 0, true, true},
		{math.Inf(1), 0, true, true},
		{[]int{1}, 0, true, true},
	}
	for _, tc := range cases {
		n, ok, err := ToNumber(tc.in)
		if tc.hasErr {
			assert.Error(t, err, "%v", tc.in)
			continue
		}
		require.NoError(t, err, "%v", tc.in)
		assert.Equal(t, tc.want, n, "%v", tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
	}

	var p *int
	_, ok, err := ToNumber(p)
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, IsNumeric("10"))
	assert.False(t, IsNumeric(nil))
	assert.False(t, IsNumeric("x"))
}

func TestScopeSelector(t *testing.T) {
	var unset ScopeSelector
	assert.False(t, unset.IsSet())
	assert.False(t, unset.Disabled())
	assert.Equal(t, DefaultScope, unset.Name())

	named := Scope("archived")
	assert.True(t, named.IsSet())
	assert.Equal(t, "archived", named.Name())

	assert.True(t, Scope("").Disabled())
	assert.True(t, NoScope().Disabled())
	assert.Equal(t, "false", NoScope().String())

	sel, ok := SelectorFromValue(false)
	require.True(t, ok)
	assert.True(t, sel.Disabled())

	sel, ok = SelectorFromValue(true)
	require.True(t, ok)
	assert.Equal(t, "true", sel.Name())
	assert.False(t, sel.Disabled())

	_, ok = SelectorFromValue(1)
	assert.False(t, ok)
	_, ok = SelectorFromValue(nil)
	assert.False(t, ok)
}

func TestConditions(t *testing.T) {
	base := Conditions{"a": 1, "b": 2}
	over := Conditions{"b": 3}
	merged := Merge(base, over)
	assert.Equal(t, Conditions{"a": 1, "b": 3}, merged)
	assert.Equal(t, Conditions{"a": 1, "b": 2}, base)

	clone := base.Clone()
	clone["c"] = 4
	assert.NotContains(t, base, "c")
	assert.Nil(t, Conditions(nil).Clone())

	assert.Nil(t, Options(Conditions{}))
	assert.Nil(t, Options((*FindManyOptions)(nil)))
	many := &FindManyOptions{FindOneOptions: FindOneOptions{Lock: "SHARE"}}
	assert.Same(t, &many.FindOneOptions, Options(many))
}

func TestWriteOptions(t *testing.T) {
	var none *SaveOptions
	assert.Nil(t, none.UniqueGroups())

	opts := &SaveOptions{Unique: []string{"email", " name , tenant_id ", " , "}}
	assert.Equal(t, [][]string{{"email"}, {"name", "tenant_id"}}, opts.UniqueGroups())

	var remove *RemoveOptions
	assert.False(t, remove.IsSoft())
	assert.True(t, (&RemoveOptions{Soft: true}).IsSoft())

	var r Result = UpdateResult{RowsAffected: 2}
	assert.EqualValues(t, 2, r.Affected())
}

func TestPageRequest(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())

	p = NewPageRequestWithOrders(3, 25, []string{"id DESC"}).
		WithWhere(Conditions{"active": true}).
		WithScope(NoScope())
	opts := p.ToFindOptions()
	assert.Equal(t, 25, opts.Take)
	assert.Equal(t, 50, opts.Skip)
	assert.Equal(t, []string{"id DESC"}, opts.Order)
	assert.Equal(t, Conditions{"active": true}, opts.Where)
	assert.True(t, opts.Scope.Disabled())

	pg := NewDefaultPagination[struct{}](1, 10)
	assert.Equal(t, 1, pg.TotalPages())
	pg.Total = 21
	assert.Equal(t, 3, pg.TotalPages())
}
