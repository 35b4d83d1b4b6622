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
	"context"

	"github.com/tomoncle/bunplus/cache"
	"github.com/tomoncle/bunplus/types"

	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	opFind         = "find"
	opFindOne      = "one"
	opFindAndCount = "count"
)

// loadCached serves a read from the query cache when the find options ask
// for it. Cache failures fall back to the database.
func loadCached[T, V any](ctx context.Context, r *baseRepositoryImpl[T], op string, q *bun.SelectQuery, query types.Query, load func(context.Context) (V, error)) (V, error) {
	opts := types.Options(query)
	if r.cache == nil || opts == nil || opts.Cache == nil {
		return load(ctx)
	}

	key := cache.KeyFor(r.meta.Table, op, q.String())
	if opts.Cache.ID != "" {
		key = cache.KeyForID(opts.Cache.ID, op)
	}
	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		var cached V
		if err := msgpack.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if data, err := msgpack.Marshal(value); err == nil {
		_ = r.cache.Set(ctx, key, data, opts.Cache.TTL)
	}
	return value, nil
}
