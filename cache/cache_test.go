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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	a := KeyFor("users", "find", `SELECT * FROM "users"`)
	assert.True(t, strings.HasPrefix(a, "users:find:"))
	assert.Equal(t, a, KeyFor("users", "find", `SELECT * FROM "users"`))
	assert.NotEqual(t, a, KeyFor("users", "find", `SELECT * FROM "users" LIMIT 1`))
	assert.NotEqual(t, a, KeyFor("users", "count", `SELECT * FROM "users"`))
	assert.Equal(t, "page:count", KeyForID("page", "count"))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryCache(0)
	m.now = func() time.Time { return now }

	value := []byte("rows")
	require.NoError(t, m.Set(ctx, "a", value, 0))
	require.NoError(t, m.Set(ctx, "b", []byte("other"), time.Minute))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("rows"), got)

	now = now.Add(2 * DefaultTTL)
	_, ok, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "default ttl elapsed")
	assert.Equal(t, 1, m.Len())

	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok)
	require.NoError(t, m.Delete(ctx, "b", "missing"))
	_, ok, _ = m.Get(ctx, "b")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestRedisCacheFromURL(t *testing.T) {
	_, err := NewRedisCacheFromURL(context.Background(), "not-a-url", "", 0)
	assert.Error(t, err)

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rc, err := NewRedisCacheFromURL(ctx, url, "bunplus-test:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	require.NoError(t, rc.Set(ctx, "k", []byte("v"), 0))
	got, ok, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, rc.Delete(ctx, "k"))
	_, ok, err = rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
