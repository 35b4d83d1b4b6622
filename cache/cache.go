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

package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// QueryCache stores encoded query results.
type QueryCache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key; a zero ttl uses the cache default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys.
	Delete(ctx context.Context, keys ...string) error
}

// DefaultTTL applies when neither the query nor the cache sets a ttl.
const DefaultTTL = time.Second

// KeyFor derives a cache key from a table name, the reading operation and
// the generated SQL. Operations returning different shapes from the same SQL
// get different keys.
func KeyFor(table, op, query string) string {
	return table + ":" + op + ":" + strconv.FormatUint(xxhash.Sum64String(query), 16)
}

// KeyForID derives the key of a caller named cache entry for op.
func KeyForID(id, op string) string {
	return id + ":" + op
}
